package port

import (
	"context"

	"github.com/garyjia/travel-approval/internal/domain/entity"
	domainwf "github.com/garyjia/travel-approval/internal/domain/workflow"
)

// Lookups return (nil, nil) when the row does not exist.

// RequestRepository defines persistence operations for TravelRequest
type RequestRepository interface {
	// Create stores a new request and assigns its ID
	Create(ctx context.Context, req *entity.TravelRequest) error

	// GetByID retrieves a request by its ID
	GetByID(ctx context.Context, id int64) (*entity.TravelRequest, error)

	// ListByRequester returns requests created by a user, newest first
	ListByRequester(ctx context.Context, requesterID int64) ([]*entity.TravelRequest, error)

	// ListByStatuses returns requests in any of the given statuses, oldest first
	ListByStatuses(ctx context.Context, statuses []domainwf.State) ([]*entity.TravelRequest, error)

	// Update writes req if the stored revision still equals expectedRevision.
	// It returns domainwf.ErrConcurrentModification otherwise and bumps req.Revision on success.
	Update(ctx context.Context, req *entity.TravelRequest, expectedRevision int64) error
}

// ApprovalRepository defines persistence operations for Approval
type ApprovalRepository interface {
	Create(ctx context.Context, approval *entity.Approval) error
	GetByRequestID(ctx context.Context, requestID int64) ([]*entity.Approval, error)
}

// TicketOptionRepository defines persistence operations for TicketOption
type TicketOptionRepository interface {
	Create(ctx context.Context, option *entity.TicketOption) error
	GetByID(ctx context.Context, id int64) (*entity.TicketOption, error)
	GetByRequestID(ctx context.Context, requestID int64) ([]*entity.TicketOption, error)
}

// AuditLogRepository defines append-only persistence for AuditLog
type AuditLogRepository interface {
	Create(ctx context.Context, log *entity.AuditLog) error
	GetByRequestID(ctx context.Context, requestID int64) ([]*entity.AuditLog, error)
	// List returns every audit entry in insertion order
	List(ctx context.Context) ([]*entity.AuditLog, error)
}

// NotificationRepository defines persistence operations for in-app notifications
type NotificationRepository interface {
	Create(ctx context.Context, notification *entity.Notification) error
	GetByUserID(ctx context.Context, userID int64) ([]*entity.Notification, error)
	MarkRead(ctx context.Context, id int64) error
}

// UserRepository is the writable side of the user directory, used by seeding
type UserRepository interface {
	UserDirectory
	Upsert(ctx context.Context, user *entity.User) error
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
