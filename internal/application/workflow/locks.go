package workflow

import "sync"

const defaultLockShards = 64

// lockTable serializes operations on the same request.
// Distinct requests may share a shard.
type lockTable struct {
	shards []sync.Mutex
}

func newLockTable(n int) *lockTable {
	if n <= 0 {
		n = defaultLockShards
	}
	return &lockTable{shards: make([]sync.Mutex, n)}
}

// Lock acquires the shard for requestID and returns its release func
func (t *lockTable) Lock(requestID int64) func() {
	idx := requestID % int64(len(t.shards))
	if idx < 0 {
		idx = -idx
	}
	m := &t.shards[idx]
	m.Lock()
	return m.Unlock
}
