package booking

import (
	"strings"
	"testing"

	"github.com/jomarip/beach-resort-booking/internal/model"
)

func TestCanTransition(t *testing.T) {
	allowed := map[[2]string]bool{
		{model.StatusPending, model.StatusConfirmed}:    true,
		{model.StatusPending, model.StatusCancelled}:    true,
		{model.StatusConfirmed, model.StatusCheckedIn}:  true,
		{model.StatusConfirmed, model.StatusCancelled}:  true,
		{model.StatusCheckedIn, model.StatusCheckedOut}: true,
	}
	statuses := []string{
		model.StatusPending, model.StatusConfirmed, model.StatusCheckedIn,
		model.StatusCheckedOut, model.StatusCancelled,
	}
	for _, from := range statuses {
		for _, to := range statuses {
			want := allowed[[2]string{from, to}]
			if got := CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestValidateTransitionSameStatusIsNoOp(t *testing.T) {
	if fe := ValidateTransition(model.StatusConfirmed, model.StatusConfirmed, false); fe.Any() {
		t.Fatalf("same-status change should pass, got %v", fe)
	}
	// Even on terminal statuses.
	if fe := ValidateTransition(model.StatusCancelled, model.StatusCancelled, false); fe.Any() {
		t.Fatalf("same-status change on terminal status should pass, got %v", fe)
	}
}

func TestValidateTransitionTerminalStatuses(t *testing.T) {
	fe := ValidateTransition(model.StatusCancelled, model.StatusPending, false)
	if !fe.Any() || !strings.Contains(fe["status"][0], "cannot be reactivated") {
		t.Errorf("cancelled booking transition: %v", fe)
	}
	fe = ValidateTransition(model.StatusCheckedOut, model.StatusConfirmed, false)
	if !fe.Any() || !strings.Contains(fe["status"][0], "no longer change status") {
		t.Errorf("checked-out booking transition: %v", fe)
	}
}

func TestValidateTransitionIllegalMove(t *testing.T) {
	fe := ValidateTransition(model.StatusPending, model.StatusCheckedIn, false)
	if !fe.Any() {
		t.Fatal("pending -> checked_in should be rejected")
	}
	if msgs := fe["status"]; len(msgs) != 1 || !strings.Contains(msgs[0], "cannot change status from pending to checked_in") {
		t.Errorf("unexpected messages: %v", msgs)
	}
}

func TestValidateTransitionFullyPaidCancellation(t *testing.T) {
	fe := ValidateTransition(model.StatusConfirmed, model.StatusCancelled, true)
	if !fe.Any() || !strings.Contains(fe["status"][0], "process a refund before cancelling") {
		t.Errorf("fully-paid cancel: %v", fe)
	}
	// Unpaid or partially paid bookings cancel freely.
	if fe := ValidateTransition(model.StatusConfirmed, model.StatusCancelled, false); fe.Any() {
		t.Errorf("unpaid cancel should pass, got %v", fe)
	}
	// The guard only applies to cancellation.
	if fe := ValidateTransition(model.StatusConfirmed, model.StatusCheckedIn, true); fe.Any() {
		t.Errorf("fully-paid check-in should pass, got %v", fe)
	}
}
