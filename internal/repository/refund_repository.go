package repository

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"

	"github.com/jomarip/beach-resort-booking/internal/model"
)

// RefundRepo provides access to the refunds ledger.  Every mutation of a
// refund changes the owning booking's effective paid amount, so the refund
// service wraps each of these calls with BookingRepo.RecomputePaidAmountTx
// in the same transaction.
type RefundRepo struct {
	db *sql.DB
}

// NewRefundRepo returns a new RefundRepo bound to the given database.
func NewRefundRepo(db *sql.DB) *RefundRepo { return &RefundRepo{db: db} }

const refundCols = `id, refund_number, payment_id, rebooking_id, amount, reason, processed_by_id, created_at`

func scanRefund(row interface{ Scan(...any) error }) (*model.Refund, error) {
	var rf model.Refund
	var rebookingID sql.NullInt64
	var amount string
	err := row.Scan(&rf.ID, &rf.RefundNumber, &rf.PaymentID, &rebookingID,
		&amount, &rf.Reason, &rf.ProcessedByID, &rf.CreatedAt)
	if err != nil {
		return nil, err
	}
	if rebookingID.Valid {
		v := uint64(rebookingID.Int64)
		rf.RebookingID = &v
	}
	if rf.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, err
	}
	return &rf, nil
}

// CreateTx inserts a refund within an existing transaction and populates
// the generated id.
func (r *RefundRepo) CreateTx(ctx context.Context, tx *sql.Tx, rf *model.Refund) error {
	const q = `INSERT INTO refunds
        (refund_number, payment_id, rebooking_id, amount, reason, processed_by_id)
        VALUES (?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		rf.RefundNumber, rf.PaymentID, nullID(rf.RebookingID),
		rf.Amount.StringFixed(2), rf.Reason, rf.ProcessedByID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rf.ID = uint64(id)
	return nil
}

// GetByID returns one refund or ErrRefundNotFound.
func (r *RefundRepo) GetByID(ctx context.Context, id uint64) (*model.Refund, error) {
	const q = `SELECT ` + refundCols + ` FROM refunds WHERE id = ?`
	rf, err := scanRefund(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, ErrRefundNotFound
	}
	return rf, err
}

// GetByIDTx is GetByID inside a transaction with a FOR UPDATE lock.
func (r *RefundRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Refund, error) {
	const q = `SELECT ` + refundCols + ` FROM refunds WHERE id = ? FOR UPDATE`
	rf, err := scanRefund(tx.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, ErrRefundNotFound
	}
	return rf, err
}

// UpdateTx rewrites a refund's amount and reason.
func (r *RefundRepo) UpdateTx(ctx context.Context, tx *sql.Tx, rf *model.Refund) error {
	const q = `UPDATE refunds SET amount = ?, reason = ? WHERE id = ?`
	res, err := tx.ExecContext(ctx, q, rf.Amount.StringFixed(2), rf.Reason, rf.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRefundNotFound
	}
	return nil
}

// DeleteTx removes a refund row.
func (r *RefundRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM refunds WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRefundNotFound
	}
	return nil
}

// SumByRebookingTx returns the total refunded against payments linked to a
// rebooking.
func (r *RefundRepo) SumByRebookingTx(ctx context.Context, tx *sql.Tx, rebookingID uint64) (decimal.Decimal, error) {
	const q = `SELECT COALESCE(SUM(rf.amount), 0)
               FROM refunds rf
               JOIN payments p ON p.id = rf.payment_id
               WHERE p.rebooking_id = ?`
	return sumQuery(ctx, tx, r.db, q, rebookingID)
}
