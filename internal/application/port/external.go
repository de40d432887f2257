package port

import (
	"context"

	"github.com/garyjia/travel-approval/internal/domain/entity"
)

// UserDirectory resolves users. The workflow never writes through it.
type UserDirectory interface {
	GetUserByID(ctx context.Context, id int64) (*entity.User, error)
	GetUsersByRole(ctx context.Context, role entity.Role) ([]*entity.User, error)
}

// NotificationRequest is one message addressed to one user
type NotificationRequest struct {
	Recipient *entity.User
	Title     string
	Message   string
	RequestID int64
	Type      entity.NotificationType
}

// Notifier delivers a notification over an external channel
type Notifier interface {
	Notify(ctx context.Context, req NotificationRequest) error
}

// MessageComposer rewrites a notification body. Implementations may return the input unchanged.
type MessageComposer interface {
	Compose(ctx context.Context, req NotificationRequest) (string, error)
}

// OperationPolicy authorizes administrative operations by role
type OperationPolicy interface {
	Allowed(role entity.Role, operation string) (bool, error)
}
