package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/garyjia/travel-approval/internal/application/port"
	"github.com/garyjia/travel-approval/internal/domain/entity"
	domainwf "github.com/garyjia/travel-approval/internal/domain/workflow"
	"github.com/garyjia/travel-approval/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// RequestRepository implements port.RequestRepository
type RequestRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRequestRepository creates a new travel request repository
func NewRequestRepository(db *sql.DB, logger *zap.Logger) *RequestRepository {
	return &RequestRepository{
		db:     db,
		logger: logger,
	}
}

const requestColumns = `id, status, requester_id, travel_details, approval_chain,
	selected_ticket_id, version_history, revision, created_at, updated_at`

// Create inserts a new request with revision 1
func (r *RequestRepository) Create(ctx context.Context, req *entity.TravelRequest) error {
	details, chain, history, err := encodeRequest(req)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO travel_requests (
			status, requester_id, travel_details, approval_chain,
			selected_ticket_id, version_history, revision, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?)
	`

	result, err := sqlite.Conn(ctx, r.db).ExecContext(ctx, query,
		req.Status,
		req.RequesterID,
		details,
		chain,
		nullInt64(req.SelectedTicketID),
		history,
		req.CreatedAt.UTC(),
		req.UpdatedAt.UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to create request", zap.Int64("requester_id", req.RequesterID), zap.Error(err))
		return fmt.Errorf("failed to create request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	req.ID = id
	req.Revision = 1
	return nil
}

// GetByID retrieves a request by ID
func (r *RequestRepository) GetByID(ctx context.Context, id int64) (*entity.TravelRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM travel_requests WHERE id = ?`

	req, err := scanRequest(sqlite.Conn(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get request by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	return req, nil
}

// ListByRequester returns a user's requests, newest first
func (r *RequestRepository) ListByRequester(ctx context.Context, requesterID int64) ([]*entity.TravelRequest, error) {
	query := `SELECT ` + requestColumns + `
		FROM travel_requests
		WHERE requester_id = ?
		ORDER BY id DESC`

	return r.list(ctx, query, requesterID)
}

// ListByStatuses returns requests in any of statuses, oldest first
func (r *RequestRepository) ListByStatuses(ctx context.Context, statuses []domainwf.State) ([]*entity.TravelRequest, error) {
	if len(statuses) == 0 {
		return []*entity.TravelRequest{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(statuses)), ",")
	args := make([]interface{}, len(statuses))
	for i, s := range statuses {
		args[i] = s
	}

	query := `SELECT ` + requestColumns + `
		FROM travel_requests
		WHERE status IN (` + placeholders + `)
		ORDER BY id ASC`

	return r.list(ctx, query, args...)
}

// Update writes req when the stored revision matches expectedRevision
func (r *RequestRepository) Update(ctx context.Context, req *entity.TravelRequest, expectedRevision int64) error {
	details, chain, history, err := encodeRequest(req)
	if err != nil {
		return err
	}

	query := `
		UPDATE travel_requests
		SET status = ?, travel_details = ?, approval_chain = ?, selected_ticket_id = ?,
			version_history = ?, revision = revision + 1, updated_at = ?
		WHERE id = ? AND revision = ?
	`

	conn := sqlite.Conn(ctx, r.db)
	result, err := conn.ExecContext(ctx, query,
		req.Status,
		details,
		chain,
		nullInt64(req.SelectedTicketID),
		history,
		req.UpdatedAt.UTC(),
		req.ID,
		expectedRevision,
	)
	if err != nil {
		r.logger.Error("Failed to update request", zap.Int64("id", req.ID), zap.Error(err))
		return fmt.Errorf("failed to update request: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		var exists int
		err := conn.QueryRowContext(ctx, `SELECT 1 FROM travel_requests WHERE id = ?`, req.ID).Scan(&exists)
		if err == sql.ErrNoRows {
			return fmt.Errorf("%w: request %d", domainwf.ErrNotFound, req.ID)
		}
		if err != nil {
			return fmt.Errorf("failed to check request: %w", err)
		}
		return fmt.Errorf("%w: request %d is no longer at revision %d",
			domainwf.ErrConcurrentModification, req.ID, expectedRevision)
	}

	req.Revision = expectedRevision + 1
	return nil
}

func (r *RequestRepository) list(ctx context.Context, query string, args ...interface{}) ([]*entity.TravelRequest, error) {
	rows, err := sqlite.Conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list requests", zap.Error(err))
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	reqs := []*entity.TravelRequest{}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}

func encodeRequest(req *entity.TravelRequest) (details, chain, history []byte, err error) {
	if details, err = json.Marshal(req.TravelDetails); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode travel details: %w", err)
	}
	if chain, err = json.Marshal(req.ApprovalChain); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode approval chain: %w", err)
	}
	if history, err = json.Marshal(req.VersionHistory); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode version history: %w", err)
	}
	return details, chain, history, nil
}

func scanRequest(s scanner) (*entity.TravelRequest, error) {
	var (
		req                     entity.TravelRequest
		status                  string
		details, chain, history []byte
		selected                sql.NullInt64
	)

	if err := s.Scan(
		&req.ID,
		&status,
		&req.RequesterID,
		&details,
		&chain,
		&selected,
		&history,
		&req.Revision,
		&req.CreatedAt,
		&req.UpdatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if req.Status, err = domainwf.ParseState(status); err != nil {
		return nil, fmt.Errorf("request %d: %w", req.ID, err)
	}
	if err := json.Unmarshal(details, &req.TravelDetails); err != nil {
		return nil, fmt.Errorf("failed to decode travel details: %w", err)
	}
	if err := json.Unmarshal(chain, &req.ApprovalChain); err != nil {
		return nil, fmt.Errorf("failed to decode approval chain: %w", err)
	}
	if err := json.Unmarshal(history, &req.VersionHistory); err != nil {
		return nil, fmt.Errorf("failed to decode version history: %w", err)
	}
	req.SelectedTicketID = ptrInt64(selected)

	return &req, nil
}

var _ port.RequestRepository = (*RequestRepository)(nil)
