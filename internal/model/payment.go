package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment is an amount applied toward a booking, or toward a rebooking's
// positive adjustment when RebookingID is set.  ReferenceImage holds the
// stored filename of an uploaded proof (deposit slip, e-wallet screenshot);
// deleting a payment also removes that artifact from disk.
type Payment struct {
	ID             uint64          // payments.id
	PaymentNumber  string          // payments.payment_number, PAY-{YYYYMM}-{NNNN}
	BookingID      uint64          // payments.booking_id
	RebookingID    *uint64         // payments.rebooking_id (nullable)
	Amount         decimal.Decimal // payments.amount
	Method         string          // payments.method (cash, gcash, bank_transfer, card)
	ReferenceImage *string         // payments.reference_image (nullable)
	ReceivedByID   uint64          // payments.received_by_id
	CreatedAt      time.Time       // payments.created_at
}

// Refund is an amount returned against a specific payment, optionally tied
// to a rebooking's negative adjustment.  Creating, updating or deleting a
// refund recomputes the owning booking's cached paid amount.
type Refund struct {
	ID            uint64          // refunds.id
	RefundNumber  string          // refunds.refund_number, REF-{YYYY}{MM}-{NNNN}
	PaymentID     uint64          // refunds.payment_id
	RebookingID   *uint64         // refunds.rebooking_id (nullable)
	Amount        decimal.Decimal // refunds.amount
	Reason        string          // refunds.reason
	ProcessedByID uint64          // refunds.processed_by_id
	CreatedAt     time.Time       // refunds.created_at
}
