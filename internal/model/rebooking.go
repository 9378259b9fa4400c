package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Rebooking statuses.
const (
	RebookingPending   = "pending"
	RebookingApproved  = "approved"
	RebookingCompleted = "completed"
	RebookingCancelled = "cancelled"
)

// Rebooking payment statuses.
const (
	RebookingPaymentPending  = "pending"
	RebookingPaymentPaid     = "paid"
	RebookingPaymentRefunded = "refunded"
)

// Rebooking is an amendment proposal against exactly one original booking:
// new dates, new party size and a repriced amount.  TotalAdjustment is the
// net financial delta the amendment creates, (NewAmount - OriginalAmount)
// plus the flat rebooking fee; positive means the guest owes more, negative
// means the resort owes a refund.  While a rebooking is pending the
// original booking keeps its dates for conflict purposes; once approved the
// new dates become the booking's effective dates.
type Rebooking struct {
	ID              uint64          // rebookings.id
	RebookingNumber string          // rebookings.rebooking_number
	BookingID       uint64          // rebookings.booking_id
	ProcessedByID   uint64          // rebookings.processed_by_id
	CheckIn         time.Time       // rebookings.check_in (DATE)
	CheckOut        *time.Time      // rebookings.check_out (DATE, nullable)
	Adults          uint32          // rebookings.adults
	Children        uint32          // rebookings.children
	OriginalAmount  decimal.Decimal // rebookings.original_amount
	NewAmount       decimal.Decimal // rebookings.new_amount
	RebookingFee    decimal.Decimal // rebookings.rebooking_fee
	Status          string          // rebookings.status
	PaymentStatus   string          // rebookings.payment_status
	ApprovedAt      *time.Time      // rebookings.approved_at (nullable)
	CompletedAt     *time.Time      // rebookings.completed_at (nullable)
	CreatedAt       time.Time       // rebookings.created_at
	UpdatedAt       time.Time       // rebookings.updated_at

	Accommodations []RebookingAccommodation // eager-loaded line items
	EntranceFees   []RebookingEntranceFee   // eager-loaded line items
}

// AmountDifference returns NewAmount - OriginalAmount.
func (r *Rebooking) AmountDifference() decimal.Decimal {
	return r.NewAmount.Sub(r.OriginalAmount)
}

// TotalAdjustment returns the net financial delta including the fee.
func (r *Rebooking) TotalAdjustment() decimal.Decimal {
	return r.AmountDifference().Add(r.RebookingFee)
}

// RebookingAccommodation is an accommodation line item proposed by a
// rebooking, replacing the original booking's line items once approved.
type RebookingAccommodation struct {
	ID              uint64          // rebooking_accommodations.id
	RebookingID     uint64          // rebooking_accommodations.rebooking_id
	AccommodationID uint64          // rebooking_accommodations.accommodation_id
	GuestCount      uint32          // rebooking_accommodations.guest_count
	Rate            decimal.Decimal // rebooking_accommodations.rate
}

// RebookingEntranceFee mirrors BookingEntranceFee for the amended party.
type RebookingEntranceFee struct {
	ID          uint64          // rebooking_entrance_fees.id
	RebookingID uint64          // rebooking_entrance_fees.rebooking_id
	Category    string          // rebooking_entrance_fees.category (adult|child)
	Quantity    uint32          // rebooking_entrance_fees.quantity
	UnitFee     decimal.Decimal // rebooking_entrance_fees.unit_fee
}
