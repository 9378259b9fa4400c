package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jomarip/beach-resort-booking/internal/model"
)

// RebookingRepo provides CRUD operations for rebookings and their line
// items.  A rebooking belongs to exactly one original booking; its
// approved/completed timestamps are written by the status methods below,
// never directly.
type RebookingRepo struct {
	db *sql.DB
}

// NewRebookingRepo returns a new RebookingRepo bound to the given database.
func NewRebookingRepo(db *sql.DB) *RebookingRepo { return &RebookingRepo{db: db} }

const rebookingCols = `id, rebooking_number, booking_id, processed_by_id, check_in, check_out,
       adults, children, original_amount, new_amount, rebooking_fee,
       status, payment_status, approved_at, completed_at, created_at, updated_at`

func scanRebooking(row interface{ Scan(...any) error }) (*model.Rebooking, error) {
	var rb model.Rebooking
	var checkOut, approvedAt, completedAt sql.NullTime
	var original, newAmt, fee string
	err := row.Scan(&rb.ID, &rb.RebookingNumber, &rb.BookingID, &rb.ProcessedByID,
		&rb.CheckIn, &checkOut, &rb.Adults, &rb.Children,
		&original, &newAmt, &fee,
		&rb.Status, &rb.PaymentStatus, &approvedAt, &completedAt, &rb.CreatedAt, &rb.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if checkOut.Valid {
		t := checkOut.Time
		rb.CheckOut = &t
	}
	if approvedAt.Valid {
		t := approvedAt.Time
		rb.ApprovedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		rb.CompletedAt = &t
	}
	if rb.OriginalAmount, err = decimal.NewFromString(original); err != nil {
		return nil, err
	}
	if rb.NewAmount, err = decimal.NewFromString(newAmt); err != nil {
		return nil, err
	}
	if rb.RebookingFee, err = decimal.NewFromString(fee); err != nil {
		return nil, err
	}
	return &rb, nil
}

// CreateTx inserts a rebooking within an existing transaction and
// populates the generated id.  The rebooking number must already be
// assigned.
func (r *RebookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, rb *model.Rebooking) error {
	const q = `INSERT INTO rebookings
        (rebooking_number, booking_id, processed_by_id, check_in, check_out, adults, children,
         original_amount, new_amount, rebooking_fee, status, payment_status)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		rb.RebookingNumber, rb.BookingID, rb.ProcessedByID,
		rb.CheckIn.UTC().Format("2006-01-02"), nullDate(rb.CheckOut), rb.Adults, rb.Children,
		rb.OriginalAmount.StringFixed(2), rb.NewAmount.StringFixed(2), rb.RebookingFee.StringFixed(2),
		rb.Status, rb.PaymentStatus)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rb.ID = uint64(id)
	return nil
}

// CreateAccommodationsBulkTx inserts the rebooking's accommodation line
// items in a single statement.
func (r *RebookingRepo) CreateAccommodationsBulkTx(ctx context.Context, tx *sql.Tx, items []model.RebookingAccommodation) error {
	if len(items) == 0 {
		return nil
	}
	query := `INSERT INTO rebooking_accommodations (rebooking_id, accommodation_id, guest_count, rate) VALUES `
	args := make([]any, 0, len(items)*4)
	for i, it := range items {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?)"
		args = append(args, it.RebookingID, it.AccommodationID, it.GuestCount, it.Rate.StringFixed(2))
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// CreateEntranceFeesBulkTx inserts entrance-fee line items in a single
// statement.
func (r *RebookingRepo) CreateEntranceFeesBulkTx(ctx context.Context, tx *sql.Tx, items []model.RebookingEntranceFee) error {
	if len(items) == 0 {
		return nil
	}
	query := `INSERT INTO rebooking_entrance_fees (rebooking_id, category, quantity, unit_fee) VALUES `
	args := make([]any, 0, len(items)*4)
	for i, it := range items {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?)"
		args = append(args, it.RebookingID, it.Category, it.Quantity, it.UnitFee.StringFixed(2))
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// GetByID returns one rebooking or ErrRebookingNotFound.
func (r *RebookingRepo) GetByID(ctx context.Context, id uint64) (*model.Rebooking, error) {
	const q = `SELECT ` + rebookingCols + ` FROM rebookings WHERE id = ?`
	rb, err := scanRebooking(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, ErrRebookingNotFound
	}
	return rb, err
}

// GetByIDTx is GetByID inside a transaction with a FOR UPDATE lock.
func (r *RebookingRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Rebooking, error) {
	const q = `SELECT ` + rebookingCols + ` FROM rebookings WHERE id = ? FOR UPDATE`
	rb, err := scanRebooking(tx.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, ErrRebookingNotFound
	}
	return rb, err
}

// ListByBooking returns a booking's rebookings newest first.
func (r *RebookingRepo) ListByBooking(ctx context.Context, bookingID uint64) ([]model.Rebooking, error) {
	const q = `SELECT ` + rebookingCols + ` FROM rebookings WHERE booking_id = ? ORDER BY id DESC`
	rows, err := r.db.QueryContext(ctx, q, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Rebooking, 0)
	for rows.Next() {
		rb, err := scanRebooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rb)
	}
	return out, rows.Err()
}

// HasActiveTx reports whether the booking already has a pending or
// approved rebooking.  At most one active rebooking may exist per booking;
// the creation path checks this inside its transaction.
func (r *RebookingRepo) HasActiveTx(ctx context.Context, tx *sql.Tx, bookingID uint64) (bool, error) {
	const q = `SELECT COUNT(*) FROM rebookings
               WHERE booking_id = ? AND status IN ('pending','approved') FOR UPDATE`
	var n int
	if err := tx.QueryRowContext(ctx, q, bookingID).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// SetStatusTx moves a rebooking to the given status, stamping approved_at
// or completed_at as appropriate.
func (r *RebookingRepo) SetStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string, at time.Time) error {
	var q string
	switch status {
	case model.RebookingApproved:
		q = `UPDATE rebookings SET status = ?, approved_at = ? WHERE id = ?`
	case model.RebookingCompleted:
		q = `UPDATE rebookings SET status = ?, completed_at = ? WHERE id = ?`
	default:
		q = `UPDATE rebookings SET status = ?, updated_at = ? WHERE id = ?`
	}
	res, err := tx.ExecContext(ctx, q, status, at.UTC(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRebookingNotFound
	}
	return nil
}

// SetPaymentStatusTx updates the rebooking's payment status
// (pending/paid/refunded), derived by the service from the
// reconciliation.
func (r *RebookingRepo) SetPaymentStatusTx(ctx context.Context, tx *sql.Tx, id uint64, paymentStatus string) error {
	res, err := tx.ExecContext(ctx, `UPDATE rebookings SET payment_status = ? WHERE id = ?`, paymentStatus, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRebookingNotFound
	}
	return nil
}
