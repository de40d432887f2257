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

// NotificationRepository implements port.NotificationRepository
type NotificationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *sql.DB, logger *zap.Logger) *NotificationRepository {
	return &NotificationRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores an in-app notification
func (r *NotificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	query := `
		INSERT INTO notifications (user_id, title, message, is_read, created_at, request_id, type)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.Conn(ctx, r.db).ExecContext(ctx, query,
		n.UserID,
		n.Title,
		n.Message,
		n.Read,
		n.CreatedAt.UTC(),
		nullInt64(n.RequestID),
		n.Type,
	)
	if err != nil {
		r.logger.Error("Failed to create notification", zap.Int64("user_id", n.UserID), zap.Error(err))
		return fmt.Errorf("failed to create notification: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	n.ID = id
	return nil
}

// GetByUserID returns a user's notifications, newest first
func (r *NotificationRepository) GetByUserID(ctx context.Context, userID int64) ([]*entity.Notification, error) {
	query := `
		SELECT id, user_id, title, message, is_read, created_at, request_id, type
		FROM notifications
		WHERE user_id = ?
		ORDER BY id DESC
	`

	rows, err := sqlite.Conn(ctx, r.db).QueryContext(ctx, query, userID)
	if err != nil {
		r.logger.Error("Failed to get notifications", zap.Int64("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to get notifications: %w", err)
	}
	defer rows.Close()

	notes := []*entity.Notification{}
	for rows.Next() {
		var n entity.Notification
		var requestID sql.NullInt64
		if err := rows.Scan(
			&n.ID,
			&n.UserID,
			&n.Title,
			&n.Message,
			&n.Read,
			&n.CreatedAt,
			&requestID,
			&n.Type,
		); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.RequestID = ptrInt64(requestID)
		notes = append(notes, &n)
	}
	return notes, rows.Err()
}

// MarkRead flags a notification as read
func (r *NotificationRepository) MarkRead(ctx context.Context, id int64) error {
	result, err := sqlite.Conn(ctx, r.db).ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("Failed to mark notification read", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark notification read: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("notification %d not found", id)
	}
	return nil
}

var _ port.NotificationRepository = (*NotificationRepository)(nil)
