package service

import (
	"context"
	"fmt"
	"time"

	"github.com/garyjia/travel-approval/internal/application/dispatcher"
	"github.com/garyjia/travel-approval/internal/application/port"
	"github.com/garyjia/travel-approval/internal/domain/entity"
	"github.com/garyjia/travel-approval/internal/domain/event"
	domainwf "github.com/garyjia/travel-approval/internal/domain/workflow"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// NotificationService turns workflow events into stored and delivered notifications
type NotificationService interface {
	// Subscribe registers the service for every event that notifies someone
	Subscribe(d dispatcher.Dispatcher)
	// Unsubscribe removes the handlers Subscribe registered
	Unsubscribe(d dispatcher.Dispatcher)
	HandleEvent(ctx context.Context, evt *event.Event) error
	MarkRead(ctx context.Context, userID, notificationID int64) error
}

type notificationServiceImpl struct {
	users         port.UserDirectory
	notifications port.NotificationRepository
	notifier      port.Notifier
	composer      port.MessageComposer
	now           func() time.Time
	logger        Logger
}

// NewNotificationService creates a new NotificationService.
// notifier and composer may be nil; notifications are then only stored.
func NewNotificationService(
	users port.UserDirectory,
	notifications port.NotificationRepository,
	notifier port.Notifier,
	composer port.MessageComposer,
	logger Logger,
) NotificationService {
	return &notificationServiceImpl{
		users:         users,
		notifications: notifications,
		notifier:      notifier,
		composer:      composer,
		now:           time.Now,
		logger:        logger,
	}
}

type messageTemplate struct {
	title  string
	render func(evt *event.Event) string
}

var templates = map[event.Type]messageTemplate{
	event.TypeRequestSubmitted: {
		title: "New Request Pending Approval",
		render: func(evt *event.Event) string {
			return fmt.Sprintf("Request #%d requires your approval.", evt.RequestID)
		},
	},
	event.TypeRequestAdvanced: {
		title: "Travel Request Pending Your Approval",
		render: func(evt *event.Event) string {
			return fmt.Sprintf("Request #%d requires your approval.", evt.RequestID)
		},
	},
	event.TypeRequestApproved: {
		title: "Travel Request Approved",
		render: func(evt *event.Event) string {
			return fmt.Sprintf("Your travel request #%d has been fully approved.", evt.RequestID)
		},
	},
	event.TypeRequestRejected: {
		title: "Travel Request Rejected",
		render: func(evt *event.Event) string {
			msg := fmt.Sprintf("Your travel request #%d has been rejected.", evt.RequestID)
			if evt.Comments != "" {
				msg += " Reason: " + evt.Comments
			}
			return msg
		},
	},
	event.TypeRequestReturned: {
		title: "Travel Request Returned for Review",
		render: func(evt *event.Event) string {
			msg := fmt.Sprintf("Request #%d has been returned to you for review.", evt.RequestID)
			if evt.Comments != "" {
				msg += " Comments: " + evt.Comments
			}
			return msg
		},
	},
	event.TypeTicketSelected: {
		title: "Travel Request Ready for Final Approval",
		render: func(evt *event.Event) string {
			return fmt.Sprintf("Request #%d has ticket option #%d selected and is ready for your final approval.",
				evt.RequestID, evt.GetPayloadInt("ticket_option_id"))
		},
	},
	event.TypeRequestClosed: {
		title: "Travel Request Closed",
		render: func(evt *event.Event) string {
			return fmt.Sprintf("Your travel request #%d has been closed by the administrator.", evt.RequestID)
		},
	},
}

// Subscribe registers HandleEvent for each notifying event type
func (s *notificationServiceImpl) Subscribe(d dispatcher.Dispatcher) {
	for eventType := range templates {
		d.SubscribeNamed(eventType, handlerName(eventType), s.HandleEvent)
	}
}

func (s *notificationServiceImpl) Unsubscribe(d dispatcher.Dispatcher) {
	for eventType := range templates {
		d.Unsubscribe(eventType, handlerName(eventType))
	}
}

func handlerName(eventType event.Type) string {
	return "notification." + string(eventType)
}

// HandleEvent stores a notification for the event's recipient, then pushes it over the notifier.
// Events without a template or recipient are ignored.
func (s *notificationServiceImpl) HandleEvent(ctx context.Context, evt *event.Event) error {
	tmpl, ok := templates[evt.Type]
	if !ok {
		return nil
	}
	if evt.RecipientID == 0 {
		s.logger.Info("Skipping notification without recipient",
			"event_type", evt.Type,
			"request_id", evt.RequestID,
		)
		return nil
	}

	recipient, err := s.users.GetUserByID(ctx, evt.RecipientID)
	if err != nil {
		return fmt.Errorf("get recipient %d: %w", evt.RecipientID, err)
	}
	if recipient == nil {
		return fmt.Errorf("%w: recipient %d", domainwf.ErrNotFound, evt.RecipientID)
	}

	req := port.NotificationRequest{
		Recipient: recipient,
		Title:     tmpl.title,
		Message:   tmpl.render(evt),
		RequestID: evt.RequestID,
		Type:      entity.NotificationTypeStateChange,
	}

	if s.composer != nil {
		composed, err := s.composer.Compose(ctx, req)
		if err != nil {
			s.logger.Error("Failed to compose notification, using template text",
				"error", err,
				"request_id", evt.RequestID,
			)
		} else if composed != "" {
			req.Message = composed
		}
	}

	requestID := evt.RequestID
	notification := &entity.Notification{
		UserID:    recipient.ID,
		Title:     req.Title,
		Message:   req.Message,
		CreatedAt: s.now(),
		RequestID: &requestID,
		Type:      req.Type,
	}
	if err := s.notifications.Create(ctx, notification); err != nil {
		s.logger.Error("Failed to store notification",
			"error", err,
			"request_id", evt.RequestID,
			"user_id", recipient.ID,
		)
		return fmt.Errorf("store notification: %w", err)
	}

	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, req); err != nil {
			s.logger.Error("Failed to deliver notification",
				"error", err,
				"notification_id", notification.ID,
				"user_id", recipient.ID,
			)
			return fmt.Errorf("deliver notification: %w", err)
		}
	}

	s.logger.Info("Notification sent",
		"event_type", evt.Type,
		"request_id", evt.RequestID,
		"user_id", recipient.ID,
		"notification_id", notification.ID,
	)

	return nil
}

// MarkRead flags one of userID's notifications as read
func (s *notificationServiceImpl) MarkRead(ctx context.Context, userID, notificationID int64) error {
	notes, err := s.notifications.GetByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get notifications: %w", err)
	}

	for _, n := range notes {
		if n.ID == notificationID {
			if err := s.notifications.MarkRead(ctx, notificationID); err != nil {
				return fmt.Errorf("mark notification read: %w", err)
			}
			return nil
		}
	}

	return fmt.Errorf("%w: notification %d for user %d", domainwf.ErrNotFound, notificationID, userID)
}
