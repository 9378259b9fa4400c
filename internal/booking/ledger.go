package booking

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"

	"github.com/jomarip/beach-resort-booking/internal/model"
	"github.com/jomarip/beach-resort-booking/internal/validation"
)

// CreatePaymentInput records money received toward a booking, or toward a
// rebooking's positive adjustment when RebookingID is set.
// ReferenceImage is the stored filename of an uploaded proof, already
// written to disk by the handler.
type CreatePaymentInput struct {
	BookingID      uint64
	RebookingID    *uint64
	Amount         decimal.Decimal
	Method         string
	ReferenceImage *string
	ReceivedByID   uint64
}

// CreatePayment inserts a payment, recomputes the owning booking's cached
// paid amount and, when the payment settles a rebooking adjustment,
// refreshes that rebooking's payment status, all in one transaction.
func (s *Service) CreatePayment(ctx context.Context, in CreatePaymentInput) (*model.Payment, error) {
	fe := validation.New()
	if !in.Amount.IsPositive() {
		fe.Add("amount", "payment amount must be greater than zero")
	}
	if in.Method == "" {
		fe.Add("method", "payment method is required")
	}
	if in.ReceivedByID == 0 {
		fe.Add("received_by", "the receiving user is required")
	}
	if fe.Any() {
		return nil, fe
	}

	p := &model.Payment{
		BookingID:      in.BookingID,
		RebookingID:    in.RebookingID,
		Amount:         in.Amount,
		Method:         in.Method,
		ReferenceImage: in.ReferenceImage,
		ReceivedByID:   in.ReceivedByID,
	}
	err := s.deps.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.deps.Bookings.GetByIDTx(ctx, tx, in.BookingID); err != nil {
			return err
		}
		number, err := s.deps.PaymentNums.Next(ctx, tx, s.deps.Now())
		if err != nil {
			return err
		}
		p.PaymentNumber = number
		if err := s.deps.Payments.CreateTx(ctx, tx, p); err != nil {
			return err
		}
		if err := s.deps.Bookings.RecomputePaidAmountTx(ctx, tx, in.BookingID); err != nil {
			return err
		}
		if in.RebookingID != nil {
			return s.refreshRebookingPaymentStatus(ctx, tx, *in.RebookingID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// DeletePayment removes a payment and recomputes the booking aggregate.
// The stored reference image, if any, is removed from disk only after the
// transaction commits, so a rollback never loses the artifact.
func (s *Service) DeletePayment(ctx context.Context, paymentID uint64) error {
	var (
		artifact    *string
		rebookingID *uint64
	)
	err := s.deps.InTx(ctx, func(tx *sql.Tx) error {
		p, err := s.deps.Payments.GetByIDTx(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		artifact = p.ReferenceImage
		rebookingID = p.RebookingID
		if err := s.deps.Payments.DeleteTx(ctx, tx, paymentID); err != nil {
			return err
		}
		if err := s.deps.Bookings.RecomputePaidAmountTx(ctx, tx, p.BookingID); err != nil {
			return err
		}
		if rebookingID != nil {
			return s.refreshRebookingPaymentStatus(ctx, tx, *rebookingID)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if artifact != nil && s.deps.Artifacts != nil {
		_ = s.deps.Artifacts.Remove(*artifact)
	}
	return nil
}

// CreateRefundInput records money returned against a specific payment,
// optionally tied to a rebooking's negative adjustment.
type CreateRefundInput struct {
	PaymentID     uint64
	RebookingID   *uint64
	Amount        decimal.Decimal
	Reason        string
	ProcessedByID uint64
}

// CreateRefund inserts a refund and recomputes the owning booking's
// cached paid amount in the same transaction, keeping the booking-level
// balance consistent with the ledger.
func (s *Service) CreateRefund(ctx context.Context, in CreateRefundInput) (*model.Refund, error) {
	fe := validation.New()
	if !in.Amount.IsPositive() {
		fe.Add("amount", "refund amount must be greater than zero")
	}
	if in.ProcessedByID == 0 {
		fe.Add("processed_by", "the acting user is required")
	}
	if fe.Any() {
		return nil, fe
	}

	rf := &model.Refund{
		PaymentID:     in.PaymentID,
		RebookingID:   in.RebookingID,
		Amount:        in.Amount,
		Reason:        in.Reason,
		ProcessedByID: in.ProcessedByID,
	}
	err := s.deps.InTx(ctx, func(tx *sql.Tx) error {
		p, err := s.deps.Payments.GetByIDTx(ctx, tx, in.PaymentID)
		if err != nil {
			return err
		}
		if in.Amount.GreaterThan(p.Amount) {
			fe := validation.New()
			fe.Add("amount", "refund amount cannot exceed the payment amount")
			return fe
		}
		number, err := s.deps.RefundNums.Next(ctx, tx, s.deps.Now())
		if err != nil {
			return err
		}
		rf.RefundNumber = number
		if err := s.deps.Refunds.CreateTx(ctx, tx, rf); err != nil {
			return err
		}
		if err := s.deps.Bookings.RecomputePaidAmountTx(ctx, tx, p.BookingID); err != nil {
			return err
		}
		if in.RebookingID != nil {
			return s.refreshRebookingPaymentStatus(ctx, tx, *in.RebookingID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rf, nil
}

// UpdateRefund rewrites a refund's amount and reason, then recomputes the
// owning booking's aggregate.
func (s *Service) UpdateRefund(ctx context.Context, refundID uint64, amount decimal.Decimal, reason string) (*model.Refund, error) {
	fe := validation.New()
	if !amount.IsPositive() {
		fe.Add("amount", "refund amount must be greater than zero")
	}
	if fe.Any() {
		return nil, fe
	}
	var updated *model.Refund
	err := s.deps.InTx(ctx, func(tx *sql.Tx) error {
		rf, err := s.deps.Refunds.GetByIDTx(ctx, tx, refundID)
		if err != nil {
			return err
		}
		p, err := s.deps.Payments.GetByIDTx(ctx, tx, rf.PaymentID)
		if err != nil {
			return err
		}
		if amount.GreaterThan(p.Amount) {
			fe := validation.New()
			fe.Add("amount", "refund amount cannot exceed the payment amount")
			return fe
		}
		rf.Amount = amount
		rf.Reason = reason
		if err := s.deps.Refunds.UpdateTx(ctx, tx, rf); err != nil {
			return err
		}
		if err := s.deps.Bookings.RecomputePaidAmountTx(ctx, tx, p.BookingID); err != nil {
			return err
		}
		updated = rf
		if rf.RebookingID != nil {
			return s.refreshRebookingPaymentStatus(ctx, tx, *rf.RebookingID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteRefund removes a refund and recomputes the owning booking's
// aggregate; the recompute is an explicit step of the same transaction,
// not a persistence hook.
func (s *Service) DeleteRefund(ctx context.Context, refundID uint64) error {
	return s.deps.InTx(ctx, func(tx *sql.Tx) error {
		rf, err := s.deps.Refunds.GetByIDTx(ctx, tx, refundID)
		if err != nil {
			return err
		}
		p, err := s.deps.Payments.GetByIDTx(ctx, tx, rf.PaymentID)
		if err != nil {
			return err
		}
		if err := s.deps.Refunds.DeleteTx(ctx, tx, refundID); err != nil {
			return err
		}
		if err := s.deps.Bookings.RecomputePaidAmountTx(ctx, tx, p.BookingID); err != nil {
			return err
		}
		if rf.RebookingID != nil {
			return s.refreshRebookingPaymentStatus(ctx, tx, *rf.RebookingID)
		}
		return nil
	})
}
