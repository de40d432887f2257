package workflow

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/garyjia/travel-approval/internal/application/dispatcher"
	"github.com/garyjia/travel-approval/internal/domain/entity"
	"github.com/garyjia/travel-approval/internal/domain/event"
	domainwf "github.com/garyjia/travel-approval/internal/domain/workflow"
)

// memStore is an in-memory implementation of every persistence port.
// WithTransaction restores the previous contents when fn fails.
type memStore struct {
	mu sync.Mutex

	requests      map[int64]*entity.TravelRequest
	approvals     []*entity.Approval
	options       map[int64]*entity.TicketOption
	audits        []*entity.AuditLog
	notifications []*entity.Notification
	nextID        int64

	auditErr error
}

func newMemStore() *memStore {
	return &memStore{
		requests: make(map[int64]*entity.TravelRequest),
		options:  make(map[int64]*entity.TicketOption),
	}
}

func (m *memStore) store() Store {
	return Store{
		Requests:      memRequests{m},
		Approvals:     memApprovals{m},
		TicketOptions: memOptions{m},
		AuditLogs:     memAudits{m},
		Notifications: memNotifications{m},
		Tx:            m,
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	requests := make(map[int64]*entity.TravelRequest, len(m.requests))
	for k, v := range m.requests {
		requests[k] = v
	}
	options := make(map[int64]*entity.TicketOption, len(m.options))
	for k, v := range m.options {
		options[k] = v
	}
	approvals, audits := m.approvals, m.audits
	m.mu.Unlock()

	if err := fn(ctx); err != nil {
		m.mu.Lock()
		m.requests, m.options, m.approvals, m.audits = requests, options, approvals, audits
		m.mu.Unlock()
		return err
	}
	return nil
}

type memRequests struct{ m *memStore }

func (r memRequests) Create(ctx context.Context, req *entity.TravelRequest) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	req.ID = r.m.id()
	req.Revision = 1
	r.m.requests[req.ID] = req.Clone()
	return nil
}

func (r memRequests) GetByID(ctx context.Context, id int64) (*entity.TravelRequest, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	req, ok := r.m.requests[id]
	if !ok {
		return nil, nil
	}
	return req.Clone(), nil
}

func (r memRequests) ListByRequester(ctx context.Context, requesterID int64) ([]*entity.TravelRequest, error) {
	return r.list(func(req *entity.TravelRequest) bool { return req.RequesterID == requesterID }), nil
}

func (r memRequests) ListByStatuses(ctx context.Context, statuses []domainwf.State) ([]*entity.TravelRequest, error) {
	return r.list(func(req *entity.TravelRequest) bool {
		for _, s := range statuses {
			if req.Status == s {
				return true
			}
		}
		return false
	}), nil
}

func (r memRequests) list(keep func(*entity.TravelRequest) bool) []*entity.TravelRequest {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*entity.TravelRequest
	for _, req := range r.m.requests {
		if keep(req) {
			out = append(out, req.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r memRequests) Update(ctx context.Context, req *entity.TravelRequest, expectedRevision int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	stored, ok := r.m.requests[req.ID]
	if !ok {
		return domainwf.ErrNotFound
	}
	if stored.Revision != expectedRevision {
		return domainwf.ErrConcurrentModification
	}
	req.Revision = expectedRevision + 1
	r.m.requests[req.ID] = req.Clone()
	return nil
}

type memApprovals struct{ m *memStore }

func (a memApprovals) Create(ctx context.Context, approval *entity.Approval) error {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	approval.ID = a.m.id()
	c := *approval
	a.m.approvals = append(a.m.approvals, &c)
	return nil
}

func (a memApprovals) GetByRequestID(ctx context.Context, requestID int64) ([]*entity.Approval, error) {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	var out []*entity.Approval
	for _, ap := range a.m.approvals {
		if ap.RequestID == requestID {
			out = append(out, ap)
		}
	}
	return out, nil
}

type memOptions struct{ m *memStore }

func (o memOptions) Create(ctx context.Context, option *entity.TicketOption) error {
	o.m.mu.Lock()
	defer o.m.mu.Unlock()
	option.ID = o.m.id()
	c := *option
	o.m.options[option.ID] = &c
	return nil
}

func (o memOptions) GetByID(ctx context.Context, id int64) (*entity.TicketOption, error) {
	o.m.mu.Lock()
	defer o.m.mu.Unlock()
	return o.m.options[id], nil
}

func (o memOptions) GetByRequestID(ctx context.Context, requestID int64) ([]*entity.TicketOption, error) {
	o.m.mu.Lock()
	defer o.m.mu.Unlock()
	var out []*entity.TicketOption
	for _, opt := range o.m.options {
		if opt.RequestID == requestID {
			out = append(out, opt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memAudits struct{ m *memStore }

func (a memAudits) Create(ctx context.Context, log *entity.AuditLog) error {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	if a.m.auditErr != nil {
		return a.m.auditErr
	}
	log.ID = a.m.id()
	a.m.audits = append(a.m.audits, log)
	return nil
}

func (a memAudits) GetByRequestID(ctx context.Context, requestID int64) ([]*entity.AuditLog, error) {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	var out []*entity.AuditLog
	for _, l := range a.m.audits {
		if l.RequestID == requestID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (a memAudits) List(ctx context.Context) ([]*entity.AuditLog, error) {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	return append([]*entity.AuditLog(nil), a.m.audits...), nil
}

type memNotifications struct{ m *memStore }

func (n memNotifications) Create(ctx context.Context, note *entity.Notification) error {
	n.m.mu.Lock()
	defer n.m.mu.Unlock()
	note.ID = n.m.id()
	n.m.notifications = append(n.m.notifications, note)
	return nil
}

func (n memNotifications) GetByUserID(ctx context.Context, userID int64) ([]*entity.Notification, error) {
	n.m.mu.Lock()
	defer n.m.mu.Unlock()
	var out []*entity.Notification
	for _, note := range n.m.notifications {
		if note.UserID == userID {
			out = append(out, note)
		}
	}
	return out, nil
}

func (n memNotifications) MarkRead(ctx context.Context, id int64) error {
	n.m.mu.Lock()
	defer n.m.mu.Unlock()
	for _, note := range n.m.notifications {
		if note.ID == id {
			note.Read = true
			return nil
		}
	}
	return errors.New("notification not found")
}

// userDirectory is a fixed in-memory directory
type userDirectory map[int64]*entity.User

func (d userDirectory) GetUserByID(ctx context.Context, id int64) (*entity.User, error) {
	return d[id], nil
}

func (d userDirectory) GetUsersByRole(ctx context.Context, role entity.Role) ([]*entity.User, error) {
	var out []*entity.User
	for _, u := range d {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

// recordingDispatcher captures published events instead of running handlers
type recordingDispatcher struct {
	mu     sync.Mutex
	events []*event.Event
}

func (r *recordingDispatcher) SubscribeNamed(event.Type, string, dispatcher.Handler) {}
func (r *recordingDispatcher) Unsubscribe(event.Type, string)                        {}
func (r *recordingDispatcher) Close() error                                          { return nil }

func (r *recordingDispatcher) DispatchAsync(ctx context.Context, evt *event.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *recordingDispatcher) last() *event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return nil
	}
	return r.events[len(r.events)-1]
}
