// Package booking implements the application services around the booking
// lifecycle: creation with availability checking, the status state
// machine, rebooking approval and the payment/refund ledger with its
// financial reconciliation.  Side effects that the persistence layer of a
// typical web framework would hide in model hooks (number assignment,
// paid-amount recomputation, artifact cleanup) are explicit steps here,
// executed inside the same transaction as the write they belong to.
package booking

import (
	"fmt"

	"github.com/jomarip/beach-resort-booking/internal/model"
	"github.com/jomarip/beach-resort-booking/internal/validation"
)

// transitions lists the legal next statuses per current status.  The two
// terminal states have no entries: checkout is final and a cancelled
// booking is never reactivated (a new booking is created instead).
var transitions = map[string][]string{
	model.StatusPending:   {model.StatusConfirmed, model.StatusCancelled},
	model.StatusConfirmed: {model.StatusCheckedIn, model.StatusCancelled},
	model.StatusCheckedIn: {model.StatusCheckedOut},
}

// CanTransition reports whether the state machine allows moving from one
// status to another.  It does not apply the fully-paid cancellation guard;
// use ValidateTransition for the complete rule set.
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidateTransition checks a proposed status change and returns every
// violation as a field-scoped message on "status".  A booking that is
// fully paid cannot be cancelled until a refund has been processed, since
// cancellation would otherwise strand the guest's money.
func ValidateTransition(from, to string, fullyPaid bool) validation.FieldErrors {
	fe := validation.New()
	if from == to {
		return fe
	}
	switch from {
	case model.StatusCancelled:
		fe.Add("status", "a cancelled booking cannot be reactivated; create a new booking instead")
		return fe
	case model.StatusCheckedOut:
		fe.Add("status", "a checked-out booking can no longer change status")
		return fe
	}
	if !CanTransition(from, to) {
		fe.Add("status", fmt.Sprintf("cannot change status from %s to %s", from, to))
		return fe
	}
	if to == model.StatusCancelled && fullyPaid {
		fe.Add("status", "booking is fully paid; process a refund before cancelling")
	}
	return fe
}
