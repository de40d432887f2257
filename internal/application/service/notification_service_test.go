package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/garyjia/travel-approval/internal/application/dispatcher"
	"github.com/garyjia/travel-approval/internal/application/port"
	"github.com/garyjia/travel-approval/internal/domain/entity"
	"github.com/garyjia/travel-approval/internal/domain/event"
	domainwf "github.com/garyjia/travel-approval/internal/domain/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type testLogger struct{}

func (testLogger) Info(string, ...interface{})  {}
func (testLogger) Error(string, ...interface{}) {}

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

type memNotificationRepo struct {
	mu        sync.Mutex
	notes     []*entity.Notification
	createErr error
}

func (r *memNotificationRepo) Create(ctx context.Context, n *entity.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	n.ID = int64(len(r.notes) + 1)
	r.notes = append(r.notes, n)
	return nil
}

func (r *memNotificationRepo) GetByUserID(ctx context.Context, userID int64) ([]*entity.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Notification
	for _, n := range r.notes {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *memNotificationRepo) MarkRead(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.notes {
		if n.ID == id {
			n.Read = true
			return nil
		}
	}
	return errors.New("not found")
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, req port.NotificationRequest) error {
	return m.Called(ctx, req).Error(0)
}

type mockComposer struct {
	mock.Mock
}

func (m *mockComposer) Compose(ctx context.Context, req port.NotificationRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func testUsers() userDirectory {
	return userDirectory{
		1: {ID: 1, Name: "John Employee", Role: entity.RoleEmployee, Email: "john@example.com"},
		2: {ID: 2, Name: "Sarah Manager", Role: entity.RoleManager, Email: "sarah@example.com"},
		3: {ID: 3, Name: "Mike Admin", Role: entity.RoleAdmin, Email: "mike@example.com"},
		4: {ID: 4, Name: "Lisa DU Head", Role: entity.RoleDUHead, Email: "lisa@example.com"},
	}
}

func eventFor(t event.Type, recipient int64, comments string) *event.Event {
	evt := event.NewEvent(t, 1, 2)
	evt.RecipientID = recipient
	evt.Comments = comments
	return evt
}

func TestNotificationService_Templates(t *testing.T) {
	tests := []struct {
		name      string
		evt       *event.Event
		recipient int64
		title     string
		message   string
	}{
		{
			"submitted", eventFor(event.TypeRequestSubmitted, 2, ""), 2,
			"New Request Pending Approval", "Request #1 requires your approval.",
		},
		{
			"advanced", eventFor(event.TypeRequestAdvanced, 4, ""), 4,
			"Travel Request Pending Your Approval", "Request #1 requires your approval.",
		},
		{
			"approved", eventFor(event.TypeRequestApproved, 1, ""), 1,
			"Travel Request Approved", "Your travel request #1 has been fully approved.",
		},
		{
			"rejected with reason", eventFor(event.TypeRequestRejected, 1, "Over budget"), 1,
			"Travel Request Rejected", "Your travel request #1 has been rejected. Reason: Over budget",
		},
		{
			"rejected without reason", eventFor(event.TypeRequestRejected, 1, ""), 1,
			"Travel Request Rejected", "Your travel request #1 has been rejected.",
		},
		{
			"returned", eventFor(event.TypeRequestReturned, 2, "Check dates"), 2,
			"Travel Request Returned for Review", "Request #1 has been returned to you for review. Comments: Check dates",
		},
		{
			"ticket selected", eventFor(event.TypeTicketSelected, 4, "").WithPayload("ticket_option_id", int64(9)), 4,
			"Travel Request Ready for Final Approval", "Request #1 has ticket option #9 selected and is ready for your final approval.",
		},
		{
			"closed", eventFor(event.TypeRequestClosed, 1, ""), 1,
			"Travel Request Closed", "Your travel request #1 has been closed by the administrator.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &memNotificationRepo{}
			notifier := &mockNotifier{}
			notifier.On("Notify", mock.Anything, mock.MatchedBy(func(req port.NotificationRequest) bool {
				return req.Recipient.ID == tt.recipient && req.Title == tt.title && req.Message == tt.message
			})).Return(nil).Once()

			svc := NewNotificationService(testUsers(), repo, notifier, nil, testLogger{})
			require.NoError(t, svc.HandleEvent(context.Background(), tt.evt))

			require.Len(t, repo.notes, 1)
			note := repo.notes[0]
			assert.Equal(t, tt.recipient, note.UserID)
			assert.Equal(t, tt.title, note.Title)
			assert.Equal(t, tt.message, note.Message)
			assert.Equal(t, entity.NotificationTypeStateChange, note.Type)
			require.NotNil(t, note.RequestID)
			assert.Equal(t, int64(1), *note.RequestID)
			assert.False(t, note.Read)
			notifier.AssertExpectations(t)
		})
	}
}

func TestNotificationService_IgnoredEvents(t *testing.T) {
	repo := &memNotificationRepo{}
	notifier := &mockNotifier{}
	svc := NewNotificationService(testUsers(), repo, notifier, nil, testLogger{})

	for _, evt := range []*event.Event{
		eventFor(event.TypeRequestCreated, 1, ""),
		eventFor(event.TypeRequestEdited, 1, ""),
		eventFor(event.TypeTicketOptionAdded, 1, ""),
		eventFor(event.TypeRequestSubmitted, 0, ""),
	} {
		require.NoError(t, svc.HandleEvent(context.Background(), evt))
	}

	assert.Empty(t, repo.notes)
	notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
}

func TestNotificationService_UnknownRecipient(t *testing.T) {
	svc := NewNotificationService(testUsers(), &memNotificationRepo{}, nil, nil, testLogger{})

	err := svc.HandleEvent(context.Background(), eventFor(event.TypeRequestApproved, 99, ""))
	assert.True(t, errors.Is(err, domainwf.ErrNotFound), "got %v", err)
}

func TestNotificationService_DeliveryFailureKeepsStoredNotification(t *testing.T) {
	repo := &memNotificationRepo{}
	notifier := &mockNotifier{}
	notifier.On("Notify", mock.Anything, mock.Anything).Return(errors.New("lark unavailable"))

	svc := NewNotificationService(testUsers(), repo, notifier, nil, testLogger{})
	err := svc.HandleEvent(context.Background(), eventFor(event.TypeRequestApproved, 1, ""))

	assert.Error(t, err)
	assert.Len(t, repo.notes, 1)
}

func TestNotificationService_StoreFailureSkipsDelivery(t *testing.T) {
	repo := &memNotificationRepo{createErr: errors.New("disk full")}
	notifier := &mockNotifier{}

	svc := NewNotificationService(testUsers(), repo, notifier, nil, testLogger{})
	err := svc.HandleEvent(context.Background(), eventFor(event.TypeRequestApproved, 1, ""))

	assert.Error(t, err)
	notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
}

func TestNotificationService_Composer(t *testing.T) {
	t.Run("composed text replaces template", func(t *testing.T) {
		repo := &memNotificationRepo{}
		composer := &mockComposer{}
		composer.On("Compose", mock.Anything, mock.Anything).Return("Lisbon trip approved, have a good flight.", nil)

		svc := NewNotificationService(testUsers(), repo, nil, composer, testLogger{})
		require.NoError(t, svc.HandleEvent(context.Background(), eventFor(event.TypeRequestApproved, 1, "")))

		require.Len(t, repo.notes, 1)
		assert.Equal(t, "Lisbon trip approved, have a good flight.", repo.notes[0].Message)
	})

	t.Run("composer failure falls back to template", func(t *testing.T) {
		repo := &memNotificationRepo{}
		composer := &mockComposer{}
		composer.On("Compose", mock.Anything, mock.Anything).Return("", errors.New("timeout"))

		svc := NewNotificationService(testUsers(), repo, nil, composer, testLogger{})
		require.NoError(t, svc.HandleEvent(context.Background(), eventFor(event.TypeRequestApproved, 1, "")))

		require.Len(t, repo.notes, 1)
		assert.Equal(t, "Your travel request #1 has been fully approved.", repo.notes[0].Message)
	})
}

func TestNotificationService_SubscribeReceivesDispatchedEvents(t *testing.T) {
	repo := &memNotificationRepo{}
	d := dispatcher.NewDispatcher()
	defer d.Close()

	svc := NewNotificationService(testUsers(), repo, nil, nil, testLogger{})
	svc.Subscribe(d)

	d.DispatchAsync(context.Background(), eventFor(event.TypeRequestSubmitted, 2, ""))
	d.DispatchAsync(context.Background(), eventFor(event.TypeRequestCreated, 1, ""))

	assert.Eventually(t, func() bool {
		notes, _ := repo.GetByUserID(context.Background(), 2)
		return len(notes) == 1
	}, time.Second, 10*time.Millisecond)

	notes, _ := repo.GetByUserID(context.Background(), 1)
	assert.Empty(t, notes)
}

func TestNotificationService_UnsubscribeStopsDelivery(t *testing.T) {
	repo := &memNotificationRepo{}
	d := dispatcher.NewDispatcher()

	svc := NewNotificationService(testUsers(), repo, nil, nil, testLogger{})
	svc.Subscribe(d)
	svc.Unsubscribe(d)

	d.DispatchAsync(context.Background(), eventFor(event.TypeRequestSubmitted, 2, ""))
	require.NoError(t, d.Close())

	notes, _ := repo.GetByUserID(context.Background(), 2)
	assert.Empty(t, notes)
}

func TestNotificationService_MarkRead(t *testing.T) {
	repo := &memNotificationRepo{}
	svc := NewNotificationService(testUsers(), repo, nil, nil, testLogger{})
	ctx := context.Background()

	require.NoError(t, svc.HandleEvent(ctx, eventFor(event.TypeRequestApproved, 1, "")))
	id := repo.notes[0].ID

	err := svc.MarkRead(ctx, 2, id)
	assert.True(t, errors.Is(err, domainwf.ErrNotFound), "other users cannot mark it")
	assert.False(t, repo.notes[0].Read)

	require.NoError(t, svc.MarkRead(ctx, 1, id))
	assert.True(t, repo.notes[0].Read)
}
