package workflow

import (
	"context"

	"github.com/garyjia/travel-approval/internal/domain/entity"
)

// Actor identifies who performs an operation and from where
type Actor struct {
	UserID    int64
	IPAddress string
}

// Workflow is the travel-request API exposed to the transport layer.
// Errors wrap the sentinels in internal/domain/workflow.
type Workflow interface {
	CreateRequest(ctx context.Context, actor Actor, details entity.TravelDetails, chain entity.ApprovalChain) (*entity.TravelRequest, error)
	EditRequest(ctx context.Context, requestID int64, actor Actor, details entity.TravelDetails) (*entity.TravelRequest, error)
	SubmitRequest(ctx context.Context, requestID int64, actor Actor) (*entity.TravelRequest, error)
	ApproveRequest(ctx context.Context, requestID int64, actor Actor, comments string) (*entity.TravelRequest, error)
	RejectRequest(ctx context.Context, requestID int64, actor Actor, comments string) (*entity.TravelRequest, error)
	ReturnForReview(ctx context.Context, requestID int64, actor Actor, comments string) (*entity.TravelRequest, error)
	SelectTicketOption(ctx context.Context, requestID, optionID int64, actor Actor) (*entity.TravelRequest, error)
	CloseRequest(ctx context.Context, requestID int64, actor Actor, comments string) (*entity.TravelRequest, error)
	AddTicketOption(ctx context.Context, option *entity.TicketOption, actor Actor) (*entity.TicketOption, error)

	GetRequest(ctx context.Context, requestID int64) (*entity.TravelRequest, error)
	GetUserRequests(ctx context.Context, userID int64) ([]*entity.TravelRequest, error)
	CanUserActOnRequest(ctx context.Context, userID, requestID int64) (bool, error)
	// GetNextApprover returns nil when no reviewer is bound for the current status
	GetNextApprover(ctx context.Context, requestID int64) (*entity.User, error)
	GetPendingApprovals(ctx context.Context, userID int64) ([]*entity.TravelRequest, error)
	GetRequestAuditLogs(ctx context.Context, requestID int64) ([]*entity.AuditLog, error)
	GetTicketOptions(ctx context.Context, requestID int64) ([]*entity.TicketOption, error)
	GetApprovals(ctx context.Context, requestID int64) ([]*entity.Approval, error)
	GetUserNotifications(ctx context.Context, userID int64) ([]*entity.Notification, error)
}

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Administrative operations checked against the operation policy
const (
	OperationClose           = "close"
	OperationAddTicketOption = "add_ticket_option"
	OperationExportAudit     = "export_audit"
)
