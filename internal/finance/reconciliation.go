// Package finance computes the financial reconciliation of a rebooking:
// how the repriced amount, the flat rebooking fee and the payments and
// refunds already applied net out.  All arithmetic is exact decimal with
// two fractional digits; comparisons never use an epsilon.
package finance

import "github.com/shopspring/decimal"

// Reconciliation is a snapshot of a rebooking's money movements.  Paid is
// the sum of payments linked to the rebooking; Refunded is the sum of
// refunds against those payments.  All derived values are computed, never
// stored.
type Reconciliation struct {
	OriginalAmount decimal.Decimal
	NewAmount      decimal.Decimal
	RebookingFee   decimal.Decimal
	Paid           decimal.Decimal
	Refunded       decimal.Decimal
}

// TotalAdjustment returns (NewAmount - OriginalAmount) + RebookingFee.
// Positive means the guest owes more; negative means the resort owes a
// refund.
func (r Reconciliation) TotalAdjustment() decimal.Decimal {
	return r.NewAmount.Sub(r.OriginalAmount).Add(r.RebookingFee)
}

// RemainingPaymentDue returns the unpaid portion of a positive adjustment.
// It is zero when the adjustment is zero or negative.
func (r Reconciliation) RemainingPaymentDue() decimal.Decimal {
	adj := r.TotalAdjustment()
	if adj.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	due := adj.Sub(r.Paid)
	if due.IsNegative() {
		return decimal.Zero
	}
	return due
}

// RemainingRefundDue returns the unrefunded portion of a negative
// adjustment.  It is zero when the adjustment is zero or positive.
func (r Reconciliation) RemainingRefundDue() decimal.Decimal {
	adj := r.TotalAdjustment()
	if adj.GreaterThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	due := adj.Abs().Sub(r.Refunded)
	if due.IsNegative() {
		return decimal.Zero
	}
	return due
}

// PaymentComplete reports whether the adjustment has been settled: a zero
// adjustment is always complete, a positive one needs Paid to cover it and
// a negative one needs Refunded to cover its absolute value.
func (r Reconciliation) PaymentComplete() bool {
	adj := r.TotalAdjustment()
	switch {
	case adj.IsZero():
		return true
	case adj.IsPositive():
		return r.Paid.GreaterThanOrEqual(adj)
	default:
		return r.Refunded.GreaterThanOrEqual(adj.Abs())
	}
}
