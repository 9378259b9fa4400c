package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Accommodation is a rentable unit of the resort: a cottage, a room or a
// function hall.  Rates are stored per rental category so that day-tour
// and overnight bookings can price the same unit differently.
//
// Fields:
//  ID            – primary key identifier.
//  Name          – display name shown on conflict messages and listings.
//  Type          – unit type (COTTAGE, ROOM, HALL).
//  Capacity      – maximum number of guests the unit may hold.
//  DayRate       – price for a day-tour rental.
//  OvernightRate – price for an overnight rental.
//  IsActive      – whether the unit is currently offered.
type Accommodation struct {
	ID            uint64          // accommodations.id
	Name          string          // accommodations.name
	Type          string          // accommodations.type
	Capacity      uint32          // accommodations.capacity
	DayRate       decimal.Decimal // accommodations.day_rate
	OvernightRate decimal.Decimal // accommodations.overnight_rate
	IsActive      bool            // accommodations.is_active
	CreatedAt     time.Time       // accommodations.created_at
	UpdatedAt     time.Time       // accommodations.updated_at
}
