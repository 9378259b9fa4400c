// Package queue defines message payloads exchanged over the message broker
// and the background consumer that records them.
package queue

// Queue names used for domain events. Publishers and the consumer declare
// them durable so messages survive broker restarts.
const (
	BookingConfirmedQueue  = "booking.confirmed"
	RebookingApprovedQueue = "rebooking.approved"
)

// BookingConfirmedEvent is published when a booking moves to confirmed.
// It carries enough information for downstream consumers to log, notify,
// or trigger analytics without querying the primary database.
type BookingConfirmedEvent struct {
	BookingID      uint64   `json:"booking_id"`
	BookingNumber  string   `json:"booking_number"`
	Channel        string   `json:"channel"`
	RentalCategory string   `json:"rental_category"`
	GuestName      string   `json:"guest_name"`
	Accommodations []string `json:"accommodations"`
	CheckIn        string   `json:"check_in"`
	CheckOut       string   `json:"check_out,omitempty"`
	TotalGuests    uint32   `json:"total_guests"`
	TotalAmount    string   `json:"total_amount"`
	ConfirmedAt    string   `json:"confirmed_at"`
}

// RebookingApprovedEvent is published when a rebooking is approved and the
// booking's effective dates move to the rebooking's new range.
type RebookingApprovedEvent struct {
	RebookingID     uint64 `json:"rebooking_id"`
	RebookingNumber string `json:"rebooking_number"`
	BookingID       uint64 `json:"booking_id"`
	BookingNumber   string `json:"booking_number"`
	NewCheckIn      string `json:"new_check_in"`
	NewCheckOut     string `json:"new_check_out,omitempty"`
	TotalAdjustment string `json:"total_adjustment"`
	ApprovedAt      string `json:"approved_at"`
}
