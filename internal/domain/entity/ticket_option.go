package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TicketOption is a candidate itinerary an admin attaches to a request
type TicketOption struct {
	ID             int64           `json:"option_id"`
	RequestID      int64           `json:"request_id" validate:"required,gt=0"`
	Carrier        string          `json:"carrier" validate:"required"`
	Class          string          `json:"class" validate:"required"`
	Price          decimal.Decimal `json:"price"`
	DepartureTime  *time.Time      `json:"departure_time,omitempty"`
	ArrivalTime    *time.Time      `json:"arrival_time,omitempty"`
	ValidityStart  time.Time       `json:"validity_start" validate:"required"`
	ValidityEnd    time.Time       `json:"validity_end" validate:"required,gtfield=ValidityStart"`
	AddedByAdminID int64           `json:"added_by_admin_id"`
	AddedDate      time.Time       `json:"added_date"`
	CarrierRating  *float64        `json:"carrier_rating,omitempty" validate:"omitempty,min=0,max=5"`
	Refundable     bool            `json:"refundable"`
	FlightDuration string          `json:"flight_duration,omitempty"`
	Stops          *int            `json:"stops,omitempty" validate:"omitempty,min=0"`
}

// Validate checks the option before it is stored
func (o *TicketOption) Validate() error {
	if err := validateStruct(o); err != nil {
		return err
	}
	if !o.Price.IsPositive() {
		return fmt.Errorf("price must be positive: %s", o.Price.String())
	}
	if o.DepartureTime != nil && o.ArrivalTime != nil && o.ArrivalTime.Before(*o.DepartureTime) {
		return fmt.Errorf("arrival time %s is before departure time %s",
			o.ArrivalTime.Format(time.RFC3339), o.DepartureTime.Format(time.RFC3339))
	}
	return nil
}
