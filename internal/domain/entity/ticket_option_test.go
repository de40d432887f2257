package entity

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func validOption() *TicketOption {
	start := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	return &TicketOption{
		RequestID:     1,
		Carrier:       "Air Example",
		Class:         "economy",
		Price:         decimal.RequireFromString("512.40"),
		ValidityStart: start,
		ValidityEnd:   start.Add(72 * time.Hour),
	}
}

func TestTicketOption_Validate(t *testing.T) {
	rating := 4.5
	badRating := 6.0
	negativeStops := -1

	tests := []struct {
		name    string
		mutate  func(o *TicketOption)
		wantErr bool
	}{
		{"valid", func(o *TicketOption) {}, false},
		{"valid with extras", func(o *TicketOption) { o.CarrierRating = &rating }, false},
		{"missing carrier", func(o *TicketOption) { o.Carrier = "" }, true},
		{"zero price", func(o *TicketOption) { o.Price = decimal.Zero }, true},
		{"validity window reversed", func(o *TicketOption) { o.ValidityEnd = o.ValidityStart.Add(-time.Hour) }, true},
		{"rating above five", func(o *TicketOption) { o.CarrierRating = &badRating }, true},
		{"negative stops", func(o *TicketOption) { o.Stops = &negativeStops }, true},
		{"arrival before departure", func(o *TicketOption) {
			dep := o.ValidityStart.Add(10 * time.Hour)
			arr := dep.Add(-time.Hour)
			o.DepartureTime, o.ArrivalTime = &dep, &arr
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := validOption()
			tt.mutate(o)
			err := o.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
