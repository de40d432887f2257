package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garyjia/travel-approval/internal/application/port"
	"github.com/garyjia/travel-approval/internal/domain/entity"
	"github.com/garyjia/travel-approval/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// ApprovalRepository implements port.ApprovalRepository
type ApprovalRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewApprovalRepository creates a new approval repository
func NewApprovalRepository(db *sql.DB, logger *zap.Logger) *ApprovalRepository {
	return &ApprovalRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a decision record
func (r *ApprovalRepository) Create(ctx context.Context, approval *entity.Approval) error {
	query := `
		INSERT INTO approvals (
			request_id, approver_id, action, comments, ticket_option_id, decision_date
		) VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.Conn(ctx, r.db).ExecContext(ctx, query,
		approval.RequestID,
		approval.ApproverID,
		approval.Action,
		approval.Comments,
		nullInt64(approval.TicketOptionID),
		approval.DecisionDate.UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to create approval",
			zap.Int64("request_id", approval.RequestID),
			zap.Error(err))
		return fmt.Errorf("failed to create approval: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	approval.ID = id
	return nil
}

// GetByRequestID returns the decisions on a request in the order they were made
func (r *ApprovalRepository) GetByRequestID(ctx context.Context, requestID int64) ([]*entity.Approval, error) {
	query := `
		SELECT id, request_id, approver_id, action, comments, ticket_option_id, decision_date
		FROM approvals
		WHERE request_id = ?
		ORDER BY id ASC
	`

	rows, err := sqlite.Conn(ctx, r.db).QueryContext(ctx, query, requestID)
	if err != nil {
		r.logger.Error("Failed to get approvals", zap.Int64("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to get approvals: %w", err)
	}
	defer rows.Close()

	approvals := []*entity.Approval{}
	for rows.Next() {
		var a entity.Approval
		var ticket sql.NullInt64
		if err := rows.Scan(
			&a.ID,
			&a.RequestID,
			&a.ApproverID,
			&a.Action,
			&a.Comments,
			&ticket,
			&a.DecisionDate,
		); err != nil {
			return nil, fmt.Errorf("failed to scan approval: %w", err)
		}
		a.TicketOptionID = ptrInt64(ticket)
		approvals = append(approvals, &a)
	}

	return approvals, rows.Err()
}

var _ port.ApprovalRepository = (*ApprovalRepository)(nil)
