package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/garyjia/travel-approval/internal/application/port"
	"github.com/garyjia/travel-approval/internal/domain/entity"
	"github.com/garyjia/travel-approval/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// AuditLogRepository implements port.AuditLogRepository. Rows are never updated.
type AuditLogRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAuditLogRepository creates a new audit log repository
func NewAuditLogRepository(db *sql.DB, logger *zap.Logger) *AuditLogRepository {
	return &AuditLogRepository{
		db:     db,
		logger: logger,
	}
}

const auditLogColumns = `id, request_id, user_id, action_type, before_state, after_state, diff, ip_address, timestamp`

// Create appends an audit entry
func (r *AuditLogRepository) Create(ctx context.Context, log *entity.AuditLog) error {
	before, err := json.Marshal(log.BeforeState)
	if err != nil {
		return fmt.Errorf("failed to encode before state: %w", err)
	}
	after, err := json.Marshal(log.AfterState)
	if err != nil {
		return fmt.Errorf("failed to encode after state: %w", err)
	}

	var diff sql.NullString
	if len(log.Diff) > 0 {
		diff = sql.NullString{String: string(log.Diff), Valid: true}
	}

	query := `
		INSERT INTO audit_logs (
			request_id, user_id, action_type, before_state, after_state, diff, ip_address, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.Conn(ctx, r.db).ExecContext(ctx, query,
		log.RequestID,
		log.UserID,
		log.ActionType,
		before,
		after,
		diff,
		log.IPAddress,
		log.Timestamp.UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to create audit log",
			zap.Int64("request_id", log.RequestID),
			zap.String("action_type", string(log.ActionType)),
			zap.Error(err))
		return fmt.Errorf("failed to create audit log: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	log.ID = id
	return nil
}

// GetByRequestID returns a request's audit trail in insertion order
func (r *AuditLogRepository) GetByRequestID(ctx context.Context, requestID int64) ([]*entity.AuditLog, error) {
	query := `SELECT ` + auditLogColumns + ` FROM audit_logs WHERE request_id = ? ORDER BY id ASC`
	return r.query(ctx, query, requestID)
}

// List returns every audit entry in insertion order
func (r *AuditLogRepository) List(ctx context.Context) ([]*entity.AuditLog, error) {
	query := `SELECT ` + auditLogColumns + ` FROM audit_logs ORDER BY id ASC`
	return r.query(ctx, query)
}

func (r *AuditLogRepository) query(ctx context.Context, query string, args ...interface{}) ([]*entity.AuditLog, error) {
	rows, err := sqlite.Conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query audit logs", zap.Error(err))
		return nil, fmt.Errorf("failed to query audit logs: %w", err)
	}
	defer rows.Close()

	logs := []*entity.AuditLog{}
	for rows.Next() {
		var (
			l             entity.AuditLog
			before, after []byte
			diff          sql.NullString
		)
		if err := rows.Scan(
			&l.ID,
			&l.RequestID,
			&l.UserID,
			&l.ActionType,
			&before,
			&after,
			&diff,
			&l.IPAddress,
			&l.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		if err := json.Unmarshal(before, &l.BeforeState); err != nil {
			return nil, fmt.Errorf("failed to decode before state: %w", err)
		}
		if err := json.Unmarshal(after, &l.AfterState); err != nil {
			return nil, fmt.Errorf("failed to decode after state: %w", err)
		}
		if diff.Valid {
			l.Diff = json.RawMessage(diff.String)
		}
		logs = append(logs, &l)
	}
	return logs, rows.Err()
}

var _ port.AuditLogRepository = (*AuditLogRepository)(nil)
