package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Booking channels describe how a reservation entered the system.
const (
	ChannelGuest      = "guest"      // unauthenticated public booking form
	ChannelRegistered = "registered" // booked by a signed-in customer
	ChannelWalkIn     = "walk_in"    // recorded at the front desk by staff
)

// Rental categories.  Day-tour bookings occupy their accommodations for a
// single calendar date and carry no distinct check-out date.
const (
	RentalDayTour   = "day_tour"
	RentalOvernight = "overnight"
)

// Booking statuses.  See booking.CanTransition for the allowed moves
// between them.
const (
	StatusPending    = "pending"
	StatusConfirmed  = "confirmed"
	StatusCheckedIn  = "checked_in"
	StatusCheckedOut = "checked_out"
	StatusCancelled  = "cancelled"
)

// Booking is a reservation of one or more accommodations for a date range.
// CheckOut is nil for day-tour bookings; when present it is strictly after
// CheckIn.  Monetary fields are exact decimals with two fractional digits.
// PaidAmount is a cached aggregate over the booking's payment and refund
// ledger and is recomputed by the payment/refund services whenever the
// ledger changes.
//
// Fields:
//  ID                 – primary key identifier.
//  BookingNumber      – business identifier, BK-{YYYYMM}-{NNNN}.
//  Channel            – origin of the booking (guest/registered/walk_in).
//  RentalCategory     – day_tour or overnight.
//  GuestName          – contact name.
//  GuestEmail         – contact email (optional for walk-ins).
//  GuestPhone         – contact phone.
//  UserID             – owning customer account, when Channel is registered.
//  CreatedByID        – staff member who recorded a walk-in booking.
//  CheckIn            – first occupied date (calendar date, UTC midnight).
//  CheckOut           – last occupied date, nil for day tours.
//  Adults, Children   – party size.
//  AccommodationTotal – sum of accommodation line items.
//  EntranceFeeTotal   – sum of entrance-fee line items.
//  TotalAmount        – AccommodationTotal + EntranceFeeTotal.
//  PaidAmount         – cached payments-minus-refunds aggregate.
//  DownPaymentRequired / DownPaymentAmount – optional reservation deposit.
//  Status             – lifecycle status.
type Booking struct {
	ID                  uint64           // bookings.id
	BookingNumber       string           // bookings.booking_number
	Channel             string           // bookings.channel
	RentalCategory      string           // bookings.rental_category
	GuestName           string           // bookings.guest_name
	GuestEmail          string           // bookings.guest_email
	GuestPhone          string           // bookings.guest_phone
	UserID              *uint64          // bookings.user_id (nullable)
	CreatedByID         *uint64          // bookings.created_by_id (nullable)
	CheckIn             time.Time        // bookings.check_in (DATE)
	CheckOut            *time.Time       // bookings.check_out (DATE, nullable)
	Adults              uint32           // bookings.adults
	Children            uint32           // bookings.children
	AccommodationTotal  decimal.Decimal  // bookings.accommodation_total
	EntranceFeeTotal    decimal.Decimal  // bookings.entrance_fee_total
	TotalAmount         decimal.Decimal  // bookings.total_amount
	PaidAmount          decimal.Decimal  // bookings.paid_amount
	DownPaymentRequired bool             // bookings.down_payment_required
	DownPaymentAmount   *decimal.Decimal // bookings.down_payment_amount (nullable)
	Status              string           // bookings.status
	CreatedAt           time.Time        // bookings.created_at
	UpdatedAt           time.Time        // bookings.updated_at

	Accommodations []BookingAccommodation // eager-loaded line items
	EntranceFees   []BookingEntranceFee   // eager-loaded line items
}

// TotalGuests returns the computed party size.
func (b *Booking) TotalGuests() uint32 { return b.Adults + b.Children }

// Balance returns the amount still owed on the booking.
func (b *Booking) Balance() decimal.Decimal { return b.TotalAmount.Sub(b.PaidAmount) }

// FullyPaid reports whether the outstanding balance is zero or below.
func (b *Booking) FullyPaid() bool { return b.Balance().LessThanOrEqual(decimal.Zero) }

// BookingAccommodation is an accommodation line item on a booking.  The
// sum of GuestCount across a booking's line items must equal the booking's
// total party size at creation.
type BookingAccommodation struct {
	ID              uint64          // booking_accommodations.id
	BookingID       uint64          // booking_accommodations.booking_id
	AccommodationID uint64          // booking_accommodations.accommodation_id
	GuestCount      uint32          // booking_accommodations.guest_count
	Rate            decimal.Decimal // booking_accommodations.rate
}

// BookingEntranceFee is an entrance-fee line item (adult or child head
// count billed at the resort's gate rate).
type BookingEntranceFee struct {
	ID        uint64          // booking_entrance_fees.id
	BookingID uint64          // booking_entrance_fees.booking_id
	Category  string          // booking_entrance_fees.category (adult|child)
	Quantity  uint32          // booking_entrance_fees.quantity
	UnitFee   decimal.Decimal // booking_entrance_fees.unit_fee
}
