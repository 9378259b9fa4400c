package booking

import (
	"context"
	"database/sql"
	"time"

	"github.com/jomarip/beach-resort-booking/internal/availability"
	"github.com/jomarip/beach-resort-booking/internal/finance"
	"github.com/jomarip/beach-resort-booking/internal/model"
	"github.com/jomarip/beach-resort-booking/internal/queue"
	"github.com/jomarip/beach-resort-booking/internal/validation"

	"github.com/shopspring/decimal"
)

// CreateRebookingInput carries a proposed amendment to a booking.
// ProcessorID is the acting user recording or requesting the change,
// supplied explicitly by the handler.
type CreateRebookingInput struct {
	BookingID      uint64
	ProcessorID    uint64
	CheckIn        time.Time
	CheckOut       *time.Time
	Adults         uint32
	Children       uint32
	RebookingFee   decimal.Decimal
	Accommodations []AccommodationSelection
	EntranceFees   []EntranceFeeSelection
}

// CreateRebooking records an amendment proposal against an existing
// booking.  The original amount is read from the booking; the new amount
// is the sum of the proposed line items.  Only one pending-or-approved
// rebooking may exist per booking, and the proposed dates are checked for
// availability (excluding the original booking) inside the same
// transaction that inserts the rebooking.
func (s *Service) CreateRebooking(ctx context.Context, in CreateRebookingInput) (*model.Rebooking, []availability.Conflict, error) {
	fe := validation.New()
	if in.ProcessorID == 0 {
		fe.Add("processed_by", "the acting user is required")
	}
	if in.Adults == 0 {
		fe.Add("adults", "at least one adult is required")
	}
	if len(in.Accommodations) == 0 {
		fe.Add("accommodations", "at least one accommodation is required")
	}
	var lineGuests uint32
	for _, a := range in.Accommodations {
		lineGuests += a.GuestCount
	}
	if len(in.Accommodations) > 0 && lineGuests != in.Adults+in.Children {
		fe.Add("accommodations", "guest counts across accommodations must equal the total of adults and children")
	}
	if in.RebookingFee.IsNegative() {
		fe.Add("rebooking_fee", "rebooking fee cannot be negative")
	}
	if fe.Any() {
		return nil, nil, fe
	}

	accTotal, feeTotal := sumSelections(in.Accommodations, in.EntranceFees)
	rb := &model.Rebooking{
		BookingID:     in.BookingID,
		ProcessedByID: in.ProcessorID,
		CheckIn:       in.CheckIn,
		CheckOut:      in.CheckOut,
		Adults:        in.Adults,
		Children:      in.Children,
		NewAmount:     accTotal.Add(feeTotal),
		RebookingFee:  in.RebookingFee,
		Status:        model.RebookingPending,
		PaymentStatus: model.RebookingPaymentPending,
	}

	accIDs := make([]uint64, 0, len(in.Accommodations))
	for _, a := range in.Accommodations {
		accIDs = append(accIDs, a.AccommodationID)
	}

	var conflicts []availability.Conflict
	err := s.deps.InTx(ctx, func(tx *sql.Tx) error {
		b, err := s.deps.Bookings.GetByIDTx(ctx, tx, in.BookingID)
		if err != nil {
			return err
		}
		fe := validation.New()
		if b.Status != model.StatusPending && b.Status != model.StatusConfirmed {
			fe.Add("booking", "only pending or confirmed bookings can be rebooked")
		}
		validateDates(fe, b.RentalCategory, in.CheckIn, in.CheckOut)
		active, err := s.deps.Rebookings.HasActiveTx(ctx, tx, in.BookingID)
		if err != nil {
			return err
		}
		if active {
			fe.Add("booking", "an active rebooking already exists for this booking")
		}
		if fe.Any() {
			return fe
		}
		rb.OriginalAmount = b.TotalAmount

		checker := availability.NewChecker(s.deps.Sources.TxSource(tx))
		found, err := checker.Check(ctx, accIDs, in.CheckIn, in.CheckOut, in.BookingID)
		if err != nil {
			return err
		}
		if len(found) > 0 {
			conflicts = found
			return conflictErrors(found)
		}

		number, err := s.deps.RebookingNums.Next(ctx, tx, s.deps.Now())
		if err != nil {
			return err
		}
		rb.RebookingNumber = number
		if err := s.deps.Rebookings.CreateTx(ctx, tx, rb); err != nil {
			return err
		}

		accItems := make([]model.RebookingAccommodation, 0, len(in.Accommodations))
		for _, a := range in.Accommodations {
			accItems = append(accItems, model.RebookingAccommodation{
				RebookingID:     rb.ID,
				AccommodationID: a.AccommodationID,
				GuestCount:      a.GuestCount,
				Rate:            a.Rate,
			})
		}
		if err := s.deps.Rebookings.CreateAccommodationsBulkTx(ctx, tx, accItems); err != nil {
			return err
		}
		feeItems := make([]model.RebookingEntranceFee, 0, len(in.EntranceFees))
		for _, f := range in.EntranceFees {
			feeItems = append(feeItems, model.RebookingEntranceFee{
				RebookingID: rb.ID,
				Category:    f.Category,
				Quantity:    f.Quantity,
				UnitFee:     f.UnitFee,
			})
		}
		return s.deps.Rebookings.CreateEntranceFeesBulkTx(ctx, tx, feeItems)
	})
	if err != nil {
		return nil, conflicts, err
	}
	return rb, nil, nil
}

// ApproveRebooking moves a pending rebooking to approved, at which point
// its new dates become the booking's effective dates for conflict
// checking.  The new range is re-verified inside the transaction before
// approval; the approval event is published after commit.
func (s *Service) ApproveRebooking(ctx context.Context, rebookingID uint64) (*model.Rebooking, error) {
	var (
		approved      *model.Rebooking
		bookingNumber string
	)
	err := s.deps.InTx(ctx, func(tx *sql.Tx) error {
		rb, err := s.deps.Rebookings.GetByIDTx(ctx, tx, rebookingID)
		if err != nil {
			return err
		}
		if rb.Status != model.RebookingPending {
			fe := validation.New()
			fe.Add("status", "only a pending rebooking can be approved")
			return fe
		}
		b, err := s.deps.Bookings.GetByIDTx(ctx, tx, rb.BookingID)
		if err != nil {
			return err
		}
		bookingNumber = b.BookingNumber

		accIDs := make([]uint64, 0, len(rb.Accommodations))
		for _, it := range rb.Accommodations {
			accIDs = append(accIDs, it.AccommodationID)
		}
		if len(accIDs) == 0 {
			// Line items not loaded on the locked read; fall back to the
			// original booking's units.
			full, err := s.deps.Bookings.GetByID(ctx, rb.BookingID)
			if err != nil {
				return err
			}
			for _, it := range full.Accommodations {
				accIDs = append(accIDs, it.AccommodationID)
			}
		}
		checker := availability.NewChecker(s.deps.Sources.TxSource(tx))
		found, err := checker.Check(ctx, accIDs, rb.CheckIn, rb.CheckOut, rb.BookingID)
		if err != nil {
			return err
		}
		if len(found) > 0 {
			return conflictErrors(found)
		}

		now := s.deps.Now().UTC()
		if err := s.deps.Rebookings.SetStatusTx(ctx, tx, rebookingID, model.RebookingApproved, now); err != nil {
			return err
		}
		rb.Status = model.RebookingApproved
		rb.ApprovedAt = &now
		approved = rb
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publishRebookingApproved(ctx, approved, bookingNumber)
	return approved, nil
}

func (s *Service) publishRebookingApproved(ctx context.Context, rb *model.Rebooking, bookingNumber string) {
	if s.deps.Publisher == nil {
		return
	}
	ev := queue.RebookingApprovedEvent{
		RebookingID:     rb.ID,
		RebookingNumber: rb.RebookingNumber,
		BookingID:       rb.BookingID,
		BookingNumber:   bookingNumber,
		NewCheckIn:      rb.CheckIn.Format("2006-01-02"),
		TotalAdjustment: rb.TotalAdjustment().StringFixed(2),
		ApprovedAt:      s.deps.Now().UTC().Format(time.RFC3339),
	}
	if rb.CheckOut != nil {
		ev.NewCheckOut = rb.CheckOut.Format("2006-01-02")
	}
	_ = s.deps.Publisher.RebookingApproved(ctx, ev)
}

// CompleteRebooking closes out an approved rebooking.  The financial
// adjustment must be fully settled first; an outstanding payment or refund
// comes back as a field error on "payment_status".
func (s *Service) CompleteRebooking(ctx context.Context, rebookingID uint64) (*model.Rebooking, error) {
	var completed *model.Rebooking
	err := s.deps.InTx(ctx, func(tx *sql.Tx) error {
		rb, err := s.deps.Rebookings.GetByIDTx(ctx, tx, rebookingID)
		if err != nil {
			return err
		}
		fe := validation.New()
		if rb.Status != model.RebookingApproved {
			fe.Add("status", "only an approved rebooking can be completed")
			return fe
		}
		rec, err := s.reconcileTx(ctx, tx, rb)
		if err != nil {
			return err
		}
		if !rec.PaymentComplete() {
			fe.Add("payment_status", "the rebooking adjustment has not been fully settled")
			return fe
		}
		now := s.deps.Now().UTC()
		if err := s.deps.Rebookings.SetStatusTx(ctx, tx, rebookingID, model.RebookingCompleted, now); err != nil {
			return err
		}
		rb.Status = model.RebookingCompleted
		rb.CompletedAt = &now
		completed = rb
		return nil
	})
	if err != nil {
		return nil, err
	}
	return completed, nil
}

// CancelRebooking withdraws a pending or approved rebooking.  A completed
// rebooking cannot be cancelled.
func (s *Service) CancelRebooking(ctx context.Context, rebookingID uint64) (*model.Rebooking, error) {
	var cancelled *model.Rebooking
	err := s.deps.InTx(ctx, func(tx *sql.Tx) error {
		rb, err := s.deps.Rebookings.GetByIDTx(ctx, tx, rebookingID)
		if err != nil {
			return err
		}
		if rb.Status != model.RebookingPending && rb.Status != model.RebookingApproved {
			fe := validation.New()
			fe.Add("status", "only a pending or approved rebooking can be cancelled")
			return fe
		}
		now := s.deps.Now().UTC()
		if err := s.deps.Rebookings.SetStatusTx(ctx, tx, rebookingID, model.RebookingCancelled, now); err != nil {
			return err
		}
		rb.Status = model.RebookingCancelled
		cancelled = rb
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

// Reconciliation returns the rebooking's current financial reconciliation
// snapshot for UI and reporting consumers.
func (s *Service) Reconciliation(ctx context.Context, rebookingID uint64) (*model.Rebooking, finance.Reconciliation, error) {
	rb, err := s.deps.Rebookings.GetByID(ctx, rebookingID)
	if err != nil {
		return nil, finance.Reconciliation{}, err
	}
	rec, err := s.reconcileTx(ctx, nil, rb)
	if err != nil {
		return nil, finance.Reconciliation{}, err
	}
	return rb, rec, nil
}

// reconcileTx builds the reconciliation snapshot from the rebooking's
// amounts and the ledger sums, on the transaction when one is supplied.
func (s *Service) reconcileTx(ctx context.Context, tx *sql.Tx, rb *model.Rebooking) (finance.Reconciliation, error) {
	paid, err := s.deps.Payments.SumByRebookingTx(ctx, tx, rb.ID)
	if err != nil {
		return finance.Reconciliation{}, err
	}
	refunded, err := s.deps.Refunds.SumByRebookingTx(ctx, tx, rb.ID)
	if err != nil {
		return finance.Reconciliation{}, err
	}
	return finance.Reconciliation{
		OriginalAmount: rb.OriginalAmount,
		NewAmount:      rb.NewAmount,
		RebookingFee:   rb.RebookingFee,
		Paid:           paid,
		Refunded:       refunded,
	}, nil
}

// refreshRebookingPaymentStatus re-derives a rebooking's payment status
// from its reconciliation after a ledger change.  A settled positive
// adjustment is "paid", a settled negative one is "refunded", anything
// outstanding is "pending".  A zero adjustment is settled by definition
// and reported as "paid".
func (s *Service) refreshRebookingPaymentStatus(ctx context.Context, tx *sql.Tx, rebookingID uint64) error {
	rb, err := s.deps.Rebookings.GetByIDTx(ctx, tx, rebookingID)
	if err != nil {
		return err
	}
	rec, err := s.reconcileTx(ctx, tx, rb)
	if err != nil {
		return err
	}
	status := model.RebookingPaymentPending
	if rec.PaymentComplete() {
		if rec.TotalAdjustment().IsNegative() {
			status = model.RebookingPaymentRefunded
		} else {
			status = model.RebookingPaymentPaid
		}
	}
	if status == rb.PaymentStatus {
		return nil
	}
	return s.deps.Rebookings.SetPaymentStatusTx(ctx, tx, rebookingID, status)
}
