package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/garyjia/travel-approval/internal/domain/entity"
	domainwf "github.com/garyjia/travel-approval/internal/domain/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type stubRequests struct {
	requests map[int64]*entity.TravelRequest
}

func (s stubRequests) Create(ctx context.Context, req *entity.TravelRequest) error { return nil }

func (s stubRequests) GetByID(ctx context.Context, id int64) (*entity.TravelRequest, error) {
	return s.requests[id], nil
}

func (s stubRequests) ListByRequester(ctx context.Context, requesterID int64) ([]*entity.TravelRequest, error) {
	return nil, nil
}

func (s stubRequests) ListByStatuses(ctx context.Context, statuses []domainwf.State) ([]*entity.TravelRequest, error) {
	return nil, nil
}

func (s stubRequests) Update(ctx context.Context, req *entity.TravelRequest, expectedRevision int64) error {
	return nil
}

type stubAuditLogs struct {
	logs []*entity.AuditLog
}

func (s stubAuditLogs) Create(ctx context.Context, log *entity.AuditLog) error { return nil }

func (s stubAuditLogs) GetByRequestID(ctx context.Context, requestID int64) ([]*entity.AuditLog, error) {
	var out []*entity.AuditLog
	for _, l := range s.logs {
		if l.RequestID == requestID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s stubAuditLogs) List(ctx context.Context) ([]*entity.AuditLog, error) {
	return s.logs, nil
}

type mockRenderer struct {
	mock.Mock
}

func (m *mockRenderer) Render(ctx context.Context, logs []*entity.AuditLog) ([]byte, error) {
	args := m.Called(ctx, logs)
	content, _ := args.Get(0).([]byte)
	return content, args.Error(1)
}

type memExportStorage struct {
	files map[string][]byte
}

func (s *memExportStorage) Save(ctx context.Context, name string, content []byte) (string, error) {
	s.files[name] = content
	return "/exports/" + name, nil
}

func (s *memExportStorage) Read(ctx context.Context, name string) ([]byte, error) {
	return s.files[name], nil
}

func (s *memExportStorage) Exists(ctx context.Context, name string) bool {
	_, ok := s.files[name]
	return ok
}

func (s *memExportStorage) Delete(ctx context.Context, name string) error {
	delete(s.files, name)
	return nil
}

type rolePolicy map[entity.Role]bool

func (p rolePolicy) Allowed(role entity.Role, operation string) (bool, error) {
	return p[role], nil
}

func exportFixture() (stubRequests, stubAuditLogs) {
	requests := stubRequests{requests: map[int64]*entity.TravelRequest{
		1: {ID: 1, Status: domainwf.StateManagerPending, RequesterID: 1},
		2: {ID: 2, Status: domainwf.StateDraft, RequesterID: 1},
	}}
	logs := stubAuditLogs{logs: []*entity.AuditLog{
		{ID: 1, RequestID: 1, ActionType: entity.AuditActionCreate},
		{ID: 2, RequestID: 1, ActionType: entity.AuditActionSubmit},
		{ID: 3, RequestID: 2, ActionType: entity.AuditActionCreate},
	}}
	return requests, logs
}

func TestExportService_ExportAuditLog(t *testing.T) {
	requests, logs := exportFixture()
	now := time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC)

	t.Run("single request", func(t *testing.T) {
		renderer := &mockRenderer{}
		renderer.On("Render", mock.Anything, mock.MatchedBy(func(l []*entity.AuditLog) bool {
			return len(l) == 2
		})).Return([]byte("xlsx"), nil).Once()
		storage := &memExportStorage{files: map[string][]byte{}}

		svc := NewExportService(testUsers(), requests, logs, renderer, storage,
			rolePolicy{entity.RoleAdmin: true}, testLogger{}).(*exportServiceImpl)
		svc.now = func() time.Time { return now }

		result, err := svc.ExportAuditLog(context.Background(), 3, 1)
		require.NoError(t, err)

		assert.Equal(t, "audit_request_1_20260301T083000Z.xlsx", result.FileName)
		assert.Equal(t, "/exports/"+result.FileName, result.Path)
		assert.Equal(t, 2, result.EntryCount)
		assert.Equal(t, []byte("xlsx"), storage.files[result.FileName])
		renderer.AssertExpectations(t)
	})

	t.Run("all requests without storage", func(t *testing.T) {
		renderer := &mockRenderer{}
		renderer.On("Render", mock.Anything, mock.Anything).Return([]byte("xlsx"), nil).Once()

		svc := NewExportService(testUsers(), requests, logs, renderer, nil,
			rolePolicy{entity.RoleAdmin: true}, testLogger{})

		result, err := svc.ExportAuditLog(context.Background(), 3, 0)
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(result.FileName, "audit_all_"))
		assert.Empty(t, result.Path)
		assert.Equal(t, 3, result.EntryCount)
	})
}

func TestExportService_Errors(t *testing.T) {
	requests, logs := exportFixture()
	policy := rolePolicy{entity.RoleAdmin: true}

	tests := []struct {
		name      string
		actorID   int64
		requestID int64
		want      error
	}{
		{"unknown actor", 99, 1, domainwf.ErrNotFound},
		{"employee may not export", 1, 1, domainwf.ErrUnauthorized},
		{"manager may not export", 2, 0, domainwf.ErrUnauthorized},
		{"unknown request", 3, 404, domainwf.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			renderer := &mockRenderer{}
			svc := NewExportService(testUsers(), requests, logs, renderer, nil, policy, testLogger{})

			_, err := svc.ExportAuditLog(context.Background(), tt.actorID, tt.requestID)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			renderer.AssertNotCalled(t, "Render", mock.Anything, mock.Anything)
		})
	}

	t.Run("render failure", func(t *testing.T) {
		renderer := &mockRenderer{}
		renderer.On("Render", mock.Anything, mock.Anything).Return(nil, errors.New("bad sheet"))
		storage := &memExportStorage{files: map[string][]byte{}}

		svc := NewExportService(testUsers(), requests, logs, renderer, storage, policy, testLogger{})
		_, err := svc.ExportAuditLog(context.Background(), 3, 1)

		assert.Error(t, err)
		assert.Empty(t, storage.files)
	})
}
