package repository

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"

	"github.com/jomarip/beach-resort-booking/internal/model"
)

// PaymentRepo provides access to the payments ledger.  Payments are
// append-only except for deletion, which the payment service pairs with
// removal of the stored reference image and a recompute of the owning
// booking's paid amount.
type PaymentRepo struct {
	db *sql.DB
}

// NewPaymentRepo returns a new PaymentRepo bound to the given database.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

const paymentCols = `id, payment_number, booking_id, rebooking_id, amount, method, reference_image, received_by_id, created_at`

func scanPayment(row interface{ Scan(...any) error }) (*model.Payment, error) {
	var p model.Payment
	var rebookingID sql.NullInt64
	var amount string
	var refImage sql.NullString
	err := row.Scan(&p.ID, &p.PaymentNumber, &p.BookingID, &rebookingID,
		&amount, &p.Method, &refImage, &p.ReceivedByID, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	if rebookingID.Valid {
		v := uint64(rebookingID.Int64)
		p.RebookingID = &v
	}
	if refImage.Valid {
		s := refImage.String
		p.ReferenceImage = &s
	}
	if p.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateTx inserts a payment within an existing transaction and populates
// the generated id.
func (r *PaymentRepo) CreateTx(ctx context.Context, tx *sql.Tx, p *model.Payment) error {
	const q = `INSERT INTO payments
        (payment_number, booking_id, rebooking_id, amount, method, reference_image, received_by_id)
        VALUES (?, ?, ?, ?, ?, ?, ?)`
	var refImage any
	if p.ReferenceImage != nil {
		refImage = *p.ReferenceImage
	}
	res, err := tx.ExecContext(ctx, q,
		p.PaymentNumber, p.BookingID, nullID(p.RebookingID),
		p.Amount.StringFixed(2), p.Method, refImage, p.ReceivedByID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// GetByID returns one payment or ErrPaymentNotFound.
func (r *PaymentRepo) GetByID(ctx context.Context, id uint64) (*model.Payment, error) {
	const q = `SELECT ` + paymentCols + ` FROM payments WHERE id = ?`
	p, err := scanPayment(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, ErrPaymentNotFound
	}
	return p, err
}

// GetByIDTx is GetByID inside a transaction with a FOR UPDATE lock.
func (r *PaymentRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Payment, error) {
	const q = `SELECT ` + paymentCols + ` FROM payments WHERE id = ? FOR UPDATE`
	p, err := scanPayment(tx.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, ErrPaymentNotFound
	}
	return p, err
}

// ListByBooking returns a booking's payments oldest first.
func (r *PaymentRepo) ListByBooking(ctx context.Context, bookingID uint64) ([]model.Payment, error) {
	const q = `SELECT ` + paymentCols + ` FROM payments WHERE booking_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// DeleteTx removes a payment row.  Refunds referencing the payment block
// the delete with ErrConflict; the caller must remove them first so the
// ledger never dangles.
func (r *PaymentRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	var refunds int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM refunds WHERE payment_id = ?`, id).Scan(&refunds); err != nil {
		return err
	}
	if refunds > 0 {
		return ErrConflict
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM payments WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrPaymentNotFound
	}
	return nil
}

// SumByRebookingTx returns the total amount paid against a rebooking.
func (r *PaymentRepo) SumByRebookingTx(ctx context.Context, tx *sql.Tx, rebookingID uint64) (decimal.Decimal, error) {
	const q = `SELECT COALESCE(SUM(amount), 0) FROM payments WHERE rebooking_id = ?`
	return sumQuery(ctx, tx, r.db, q, rebookingID)
}

// sumQuery scans a SUM() aggregate into an exact decimal, running on the
// transaction when one is supplied.
func sumQuery(ctx context.Context, tx *sql.Tx, db *sql.DB, q string, args ...any) (decimal.Decimal, error) {
	var s string
	var err error
	if tx != nil {
		err = tx.QueryRowContext(ctx, q, args...).Scan(&s)
	} else {
		err = db.QueryRowContext(ctx, q, args...).Scan(&s)
	}
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(s)
}
