// Package availability detects date-range conflicts between a candidate
// booking and the commitments already held against each requested
// accommodation.  A commitment's effective dates account for its rebookings:
// an approved rebooking moves the booking to its new dates (freeing the
// original slot), while a pending one still reserves the original dates and
// is surfaced as a softer conflict type.
package availability

import (
	"context"
	"fmt"
	"time"
)

// ConflictType classifies why a candidate range is rejected for an
// accommodation.
type ConflictType string

const (
	// ConflictBooking: an existing booking with no relevant rebooking
	// occupies the range.
	ConflictBooking ConflictType = "booking"
	// ConflictPendingRebooking: the occupying booking has a pending (not
	// yet approved) rebooking; the original dates still reserve the slot.
	ConflictPendingRebooking ConflictType = "booking_with_pending_rebooking"
	// ConflictRebooking: an approved rebooking's new dates occupy the range.
	ConflictRebooking ConflictType = "rebooking"
)

// Conflict describes one accommodation's overlapping commitment.  CheckIn
// and CheckOut are the effective dates used for the comparison: the
// approved rebooking's new dates for ConflictRebooking, the original
// booking's dates otherwise.  CheckOut is nil for day-tour commitments.
type Conflict struct {
	AccommodationID   uint64       `json:"accommodation_id"`
	AccommodationName string       `json:"accommodation_name"`
	Type              ConflictType `json:"type"`
	BookingNumber     string       `json:"booking_number"`
	RebookingNumber   string       `json:"rebooking_number,omitempty"`
	CheckIn           time.Time    `json:"check_in"`
	CheckOut          *time.Time   `json:"check_out,omitempty"`
}

// Window is a rebooking's proposed date range.
type Window struct {
	RebookingNumber string
	CheckIn         time.Time
	CheckOut        *time.Time
}

// Commitment is an existing booking holding an accommodation, with its
// latest approved and latest pending rebookings preloaded.  Either pointer
// may be nil.
type Commitment struct {
	BookingNumber string
	CheckIn       time.Time
	CheckOut      *time.Time
	Approved      *Window
	Pending       *Window
}

// Source supplies the commitments the checker inspects.  Implementations
// must only return bookings whose status is pending, confirmed or
// checked_in (cancelled and checked_out bookings never conflict) and must
// honour the inclusive overlap rule and the excluded booking id.  A booking
// counts as a candidate when either its original dates or its latest
// approved rebooking's dates overlap the requested range; the checker
// decides which window actually conflicts.
type Source interface {
	// FirstCommitment returns the first booking holding accommodationID
	// whose original dates, or latest approved rebooking window, overlap
	// [checkIn, checkOut] inclusively, skipping excludeBookingID, or nil
	// when none exists.
	FirstCommitment(ctx context.Context, accommodationID uint64, checkIn, checkOut time.Time, excludeBookingID uint64) (*Commitment, error)
	// AccommodationName resolves a display name for conflict records.  An
	// unknown id yields an empty name, not an error.
	AccommodationName(ctx context.Context, accommodationID uint64) (string, error)
}

// Checker runs availability checks against a Source.  It performs reads
// only and never treats "no conflict" as an error.
type Checker struct {
	src Source
}

// NewChecker returns a Checker bound to the given source.
func NewChecker(src Source) *Checker { return &Checker{src: src} }

// Overlaps reports whether the inclusive ranges [aStart, aEnd] and
// [bStart, bEnd] share at least one date.  Touching endpoints count as
// overlap: a booking checking out on the day another checks in still holds
// the unit that day.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aStart.After(bEnd) && !aEnd.Before(bStart)
}

// normalize resolves a possibly missing check-out to the check-in date
// itself, the day-tour convention.
func normalize(checkIn time.Time, checkOut *time.Time) (time.Time, time.Time) {
	if checkOut == nil {
		return checkIn, checkIn
	}
	return checkIn, *checkOut
}

// Check evaluates the candidate range against every requested accommodation
// and returns at most one conflict per accommodation.  A booking whose
// approved rebooking has moved it clear of the candidate range produces no
// conflict even though its original dates overlap.  An unknown
// accommodation id silently produces no conflict; existence validation
// belongs upstream.
func (c *Checker) Check(ctx context.Context, accommodationIDs []uint64, checkIn time.Time, checkOut *time.Time, excludeBookingID uint64) ([]Conflict, error) {
	candStart, candEnd := normalize(checkIn, checkOut)
	conflicts := make([]Conflict, 0)
	seen := make(map[uint64]struct{}, len(accommodationIDs))
	for _, accID := range accommodationIDs {
		if accID == 0 {
			continue
		}
		if _, dup := seen[accID]; dup {
			continue
		}
		seen[accID] = struct{}{}

		cm, err := c.src.FirstCommitment(ctx, accID, candStart, candEnd, excludeBookingID)
		if err != nil {
			return nil, err
		}
		if cm == nil {
			continue
		}

		name, err := c.src.AccommodationName(ctx, accID)
		if err != nil {
			return nil, err
		}

		if cf, ok := resolve(accID, name, cm, candStart, candEnd); ok {
			conflicts = append(conflicts, cf)
		}
	}
	return conflicts, nil
}

// resolve applies the rebooking precedence rules to a candidate commitment.
// With an approved rebooking the new dates are the ones that matter, both
// ways: a booking moved clear of the range produces no conflict even though
// its original dates overlap (the escape hatch), and a booking moved into
// the range conflicts even though its original dates do not.  The returned
// bool is false only for the escape hatch.
func resolve(accID uint64, name string, cm *Commitment, candStart, candEnd time.Time) (Conflict, bool) {
	if cm.Approved != nil {
		newStart, newEnd := normalize(cm.Approved.CheckIn, cm.Approved.CheckOut)
		if !Overlaps(candStart, candEnd, newStart, newEnd) {
			return Conflict{}, false
		}
		return Conflict{
			AccommodationID:   accID,
			AccommodationName: name,
			Type:              ConflictRebooking,
			BookingNumber:     cm.BookingNumber,
			RebookingNumber:   cm.Approved.RebookingNumber,
			CheckIn:           cm.Approved.CheckIn,
			CheckOut:          cm.Approved.CheckOut,
		}, true
	}
	typ := ConflictBooking
	if cm.Pending != nil {
		typ = ConflictPendingRebooking
	}
	return Conflict{
		AccommodationID:   accID,
		AccommodationName: name,
		Type:              typ,
		BookingNumber:     cm.BookingNumber,
		CheckIn:           cm.CheckIn,
		CheckOut:          cm.CheckOut,
	}, true
}

// Message renders a conflict as a human-readable sentence for field-scoped
// validation output.
func Message(cf Conflict) string {
	switch cf.Type {
	case ConflictRebooking:
		return fmt.Sprintf("%s is reserved by rebooking %s of booking %s for %s.",
			cf.AccommodationName, cf.RebookingNumber, cf.BookingNumber, dateRange(cf.CheckIn, cf.CheckOut))
	case ConflictPendingRebooking:
		return fmt.Sprintf("%s is held by booking %s, which has a pending rebooking request, for %s.",
			cf.AccommodationName, cf.BookingNumber, dateRange(cf.CheckIn, cf.CheckOut))
	default:
		return fmt.Sprintf("%s is already booked under %s for %s.",
			cf.AccommodationName, cf.BookingNumber, dateRange(cf.CheckIn, cf.CheckOut))
	}
}

func dateRange(checkIn time.Time, checkOut *time.Time) string {
	const layout = "2006-01-02"
	if checkOut == nil || checkOut.Equal(checkIn) {
		return checkIn.Format(layout)
	}
	return checkIn.Format(layout) + " to " + checkOut.Format(layout)
}
