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

// TicketOptionRepository implements port.TicketOptionRepository
type TicketOptionRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewTicketOptionRepository creates a new ticket option repository
func NewTicketOptionRepository(db *sql.DB, logger *zap.Logger) *TicketOptionRepository {
	return &TicketOptionRepository{
		db:     db,
		logger: logger,
	}
}

const ticketOptionColumns = `id, request_id, carrier, class, price, departure_time, arrival_time,
	validity_start, validity_end, refundable, added_by_admin_id, added_date,
	carrier_rating, flight_duration, stops`

// Create inserts an option
func (r *TicketOptionRepository) Create(ctx context.Context, option *entity.TicketOption) error {
	query := `
		INSERT INTO ticket_options (
			request_id, carrier, class, price, departure_time, arrival_time,
			validity_start, validity_end, refundable, added_by_admin_id, added_date,
			carrier_rating, flight_duration, stops
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var rating sql.NullFloat64
	if option.CarrierRating != nil {
		rating = sql.NullFloat64{Float64: *option.CarrierRating, Valid: true}
	}
	var stops sql.NullInt64
	if option.Stops != nil {
		stops = sql.NullInt64{Int64: int64(*option.Stops), Valid: true}
	}

	result, err := sqlite.Conn(ctx, r.db).ExecContext(ctx, query,
		option.RequestID,
		option.Carrier,
		option.Class,
		option.Price.String(),
		nullTime(option.DepartureTime),
		nullTime(option.ArrivalTime),
		option.ValidityStart.UTC(),
		option.ValidityEnd.UTC(),
		option.Refundable,
		option.AddedByAdminID,
		option.AddedDate.UTC(),
		rating,
		option.FlightDuration,
		stops,
	)
	if err != nil {
		r.logger.Error("Failed to create ticket option",
			zap.Int64("request_id", option.RequestID),
			zap.Error(err))
		return fmt.Errorf("failed to create ticket option: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	option.ID = id
	return nil
}

// GetByID retrieves an option by ID
func (r *TicketOptionRepository) GetByID(ctx context.Context, id int64) (*entity.TicketOption, error) {
	query := `SELECT ` + ticketOptionColumns + ` FROM ticket_options WHERE id = ?`

	option, err := scanTicketOption(sqlite.Conn(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get ticket option", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get ticket option: %w", err)
	}
	return option, nil
}

// GetByRequestID lists the options attached to a request
func (r *TicketOptionRepository) GetByRequestID(ctx context.Context, requestID int64) ([]*entity.TicketOption, error) {
	query := `SELECT ` + ticketOptionColumns + `
		FROM ticket_options
		WHERE request_id = ?
		ORDER BY id ASC`

	rows, err := sqlite.Conn(ctx, r.db).QueryContext(ctx, query, requestID)
	if err != nil {
		r.logger.Error("Failed to list ticket options", zap.Int64("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to list ticket options: %w", err)
	}
	defer rows.Close()

	options := []*entity.TicketOption{}
	for rows.Next() {
		option, err := scanTicketOption(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket option: %w", err)
		}
		options = append(options, option)
	}
	return options, rows.Err()
}

func scanTicketOption(s scanner) (*entity.TicketOption, error) {
	var (
		o                  entity.TicketOption
		departure, arrival sql.NullTime
		rating             sql.NullFloat64
		stops              sql.NullInt64
	)

	if err := s.Scan(
		&o.ID,
		&o.RequestID,
		&o.Carrier,
		&o.Class,
		&o.Price,
		&departure,
		&arrival,
		&o.ValidityStart,
		&o.ValidityEnd,
		&o.Refundable,
		&o.AddedByAdminID,
		&o.AddedDate,
		&rating,
		&o.FlightDuration,
		&stops,
	); err != nil {
		return nil, err
	}

	o.DepartureTime = ptrTime(departure)
	o.ArrivalTime = ptrTime(arrival)
	if rating.Valid {
		v := rating.Float64
		o.CarrierRating = &v
	}
	if stops.Valid {
		v := int(stops.Int64)
		o.Stops = &v
	}
	return &o, nil
}

var _ port.TicketOptionRepository = (*TicketOptionRepository)(nil)
