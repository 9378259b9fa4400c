package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jomarip/beach-resort-booking/internal/availability"
	"github.com/jomarip/beach-resort-booking/internal/model"
)

// querier is satisfied by both *sql.DB and *sql.Tx, letting the
// availability source run the same queries with or without row locks.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// BookingRepo provides CRUD operations for bookings and their line items.
// A booking groups accommodation and entrance-fee line items together with
// a payment ledger.  Date columns are DATE values interpreted at UTC
// midnight; monetary columns are DECIMAL(10,2) moved in and out of
// decimal.Decimal without precision loss.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// DB exposes the underlying pool so services can open transactions that
// span repositories.
func (r *BookingRepo) DB() *sql.DB { return r.db }

const bookingCols = `id, booking_number, channel, rental_category, guest_name, guest_email, guest_phone,
       user_id, created_by_id, check_in, check_out, adults, children,
       accommodation_total, entrance_fee_total, total_amount, paid_amount,
       down_payment_required, down_payment_amount, status, created_at, updated_at`

func scanBooking(row interface{ Scan(...any) error }) (*model.Booking, error) {
	var b model.Booking
	var userID, createdByID sql.NullInt64
	var checkOut sql.NullTime
	var accTotal, feeTotal, total, paid string
	var downPayment sql.NullString
	err := row.Scan(&b.ID, &b.BookingNumber, &b.Channel, &b.RentalCategory,
		&b.GuestName, &b.GuestEmail, &b.GuestPhone,
		&userID, &createdByID, &b.CheckIn, &checkOut, &b.Adults, &b.Children,
		&accTotal, &feeTotal, &total, &paid,
		&b.DownPaymentRequired, &downPayment, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if userID.Valid {
		v := uint64(userID.Int64)
		b.UserID = &v
	}
	if createdByID.Valid {
		v := uint64(createdByID.Int64)
		b.CreatedByID = &v
	}
	if checkOut.Valid {
		t := checkOut.Time
		b.CheckOut = &t
	}
	if b.AccommodationTotal, err = decimal.NewFromString(accTotal); err != nil {
		return nil, err
	}
	if b.EntranceFeeTotal, err = decimal.NewFromString(feeTotal); err != nil {
		return nil, err
	}
	if b.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return nil, err
	}
	if b.PaidAmount, err = decimal.NewFromString(paid); err != nil {
		return nil, err
	}
	if downPayment.Valid {
		d, err := decimal.NewFromString(downPayment.String)
		if err != nil {
			return nil, err
		}
		b.DownPaymentAmount = &d
	}
	return &b, nil
}

func nullDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format("2006-01-02")
}

func nullDecimal(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.StringFixed(2)
}

// CreateTx inserts a booking within the scope of an existing transaction
// and populates the generated id.  The booking number must already be
// assigned; the caller commits or rolls back.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	const q = `INSERT INTO bookings
        (booking_number, channel, rental_category, guest_name, guest_email, guest_phone,
         user_id, created_by_id, check_in, check_out, adults, children,
         accommodation_total, entrance_fee_total, total_amount, paid_amount,
         down_payment_required, down_payment_amount, status)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		b.BookingNumber, b.Channel, b.RentalCategory, b.GuestName, b.GuestEmail, b.GuestPhone,
		nullID(b.UserID), nullID(b.CreatedByID),
		b.CheckIn.UTC().Format("2006-01-02"), nullDate(b.CheckOut), b.Adults, b.Children,
		b.AccommodationTotal.StringFixed(2), b.EntranceFeeTotal.StringFixed(2),
		b.TotalAmount.StringFixed(2), b.PaidAmount.StringFixed(2),
		b.DownPaymentRequired, nullDecimal(b.DownPaymentAmount), b.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

func nullID(v *uint64) any {
	if v == nil {
		return nil
	}
	return *v
}

// CreateAccommodationsBulkTx inserts the booking's accommodation line
// items in a single statement.  Passing an empty slice has no effect.
func (r *BookingRepo) CreateAccommodationsBulkTx(ctx context.Context, tx *sql.Tx, items []model.BookingAccommodation) error {
	if len(items) == 0 {
		return nil
	}
	query := `INSERT INTO booking_accommodations (booking_id, accommodation_id, guest_count, rate) VALUES `
	args := make([]any, 0, len(items)*4)
	for i, it := range items {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?)"
		args = append(args, it.BookingID, it.AccommodationID, it.GuestCount, it.Rate.StringFixed(2))
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// CreateEntranceFeesBulkTx inserts entrance-fee line items in a single
// statement.  Passing an empty slice has no effect.
func (r *BookingRepo) CreateEntranceFeesBulkTx(ctx context.Context, tx *sql.Tx, items []model.BookingEntranceFee) error {
	if len(items) == 0 {
		return nil
	}
	query := `INSERT INTO booking_entrance_fees (booking_id, category, quantity, unit_fee) VALUES `
	args := make([]any, 0, len(items)*4)
	for i, it := range items {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?)"
		args = append(args, it.BookingID, it.Category, it.Quantity, it.UnitFee.StringFixed(2))
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// GetByID returns one booking with its line items loaded, or
// ErrBookingNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings WHERE id = ?`
	b, err := scanBooking(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadLineItems(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// GetByIDTx is GetByID inside a transaction, locking the booking row for
// update.  Line items are not loaded.
func (r *BookingRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings WHERE id = ? FOR UPDATE`
	b, err := scanBooking(tx.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, ErrBookingNotFound
	}
	return b, err
}

func (r *BookingRepo) loadLineItems(ctx context.Context, b *model.Booking) error {
	const accQ = `SELECT id, booking_id, accommodation_id, guest_count, rate
                  FROM booking_accommodations WHERE booking_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, accQ, b.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	b.Accommodations = []model.BookingAccommodation{}
	for rows.Next() {
		var it model.BookingAccommodation
		var rate string
		if err := rows.Scan(&it.ID, &it.BookingID, &it.AccommodationID, &it.GuestCount, &rate); err != nil {
			return err
		}
		if it.Rate, err = decimal.NewFromString(rate); err != nil {
			return err
		}
		b.Accommodations = append(b.Accommodations, it)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	const feeQ = `SELECT id, booking_id, category, quantity, unit_fee
                  FROM booking_entrance_fees WHERE booking_id = ? ORDER BY id`
	frows, err := r.db.QueryContext(ctx, feeQ, b.ID)
	if err != nil {
		return err
	}
	defer frows.Close()
	b.EntranceFees = []model.BookingEntranceFee{}
	for frows.Next() {
		var it model.BookingEntranceFee
		var fee string
		if err := frows.Scan(&it.ID, &it.BookingID, &it.Category, &it.Quantity, &fee); err != nil {
			return err
		}
		if it.UnitFee, err = decimal.NewFromString(fee); err != nil {
			return err
		}
		b.EntranceFees = append(b.EntranceFees, it)
	}
	return frows.Err()
}

// List returns bookings newest first, optionally filtered by status.
// Line items are not loaded for list views.
func (r *BookingRepo) List(ctx context.Context, status string) ([]model.Booking, error) {
	q := `SELECT ` + bookingCols + ` FROM bookings`
	args := []any{}
	if status != "" {
		q += ` WHERE status = ?`
		args = append(args, status)
	}
	q += ` ORDER BY created_at DESC`
	return r.listQuery(ctx, q, args...)
}

// ListByUser returns a customer's own bookings newest first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings WHERE user_id = ? ORDER BY created_at DESC`
	return r.listQuery(ctx, q, userID)
}

func (r *BookingRepo) listQuery(ctx context.Context, q string, args ...any) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// UpdateStatusTx sets a booking's status within a transaction.  Transition
// legality is enforced by the booking service, not here.
func (r *BookingRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
	res, err := tx.ExecContext(ctx, `UPDATE bookings SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrBookingNotFound
	}
	return nil
}

// UpdateDetailsTx rewrites the editable columns of a booking: contact
// info, dates, party size, totals and down-payment settings.  Guards on
// what may change in which status live in the booking service.
func (r *BookingRepo) UpdateDetailsTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	const q = `UPDATE bookings
               SET guest_name = ?, guest_email = ?, guest_phone = ?,
                   check_in = ?, check_out = ?, adults = ?, children = ?,
                   accommodation_total = ?, entrance_fee_total = ?, total_amount = ?,
                   down_payment_required = ?, down_payment_amount = ?
               WHERE id = ?`
	_, err := tx.ExecContext(ctx, q,
		b.GuestName, b.GuestEmail, b.GuestPhone,
		b.CheckIn.UTC().Format("2006-01-02"), nullDate(b.CheckOut), b.Adults, b.Children,
		b.AccommodationTotal.StringFixed(2), b.EntranceFeeTotal.StringFixed(2), b.TotalAmount.StringFixed(2),
		b.DownPaymentRequired, nullDecimal(b.DownPaymentAmount), b.ID)
	return err
}

// RecomputePaidAmountTx rewrites the booking's cached paid_amount from the
// underlying ledger: payments minus refunds against those payments.  It
// returns ErrIntegrity when the booking row does not exist, since every
// caller holds a payment or refund that references it.
func (r *BookingRepo) RecomputePaidAmountTx(ctx context.Context, tx *sql.Tx, bookingID uint64) error {
	const q = `UPDATE bookings b
               SET b.paid_amount =
                   (SELECT COALESCE(SUM(p.amount), 0) FROM payments p WHERE p.booking_id = b.id)
                 - (SELECT COALESCE(SUM(rf.amount), 0)
                    FROM refunds rf JOIN payments p2 ON p2.id = rf.payment_id
                    WHERE p2.booking_id = b.id)
               WHERE b.id = ?`
	if _, err := tx.ExecContext(ctx, q, bookingID); err != nil {
		return err
	}
	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings WHERE id = ?`, bookingID).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return ErrIntegrity
	}
	return nil
}

// Source returns an availability.Source backed by plain pool reads, for
// validation-only checks.
func (r *BookingRepo) Source() availability.Source {
	return &bookingSource{q: r.db}
}

// TxSource returns an availability.Source that runs inside tx and locks
// the conflicting booking rows with FOR UPDATE.  Using it from the booking
// creation transaction closes the check-then-act window: a concurrent
// creation for the same accommodation blocks on the lock and re-reads
// committed state.
func (r *BookingRepo) TxSource(tx *sql.Tx) availability.Source {
	return &bookingSource{q: tx, lock: true}
}

// bookingSource implements availability.Source over a querier.
type bookingSource struct {
	q    querier
	lock bool
}

// FirstCommitment finds the first booking occupying the accommodation over
// the inclusive candidate range, restricted to conflicting statuses, then
// preloads its latest approved and latest pending rebookings.  A booking
// matches on its original dates or on its latest approved rebooking's
// dates: the booking row keeps the original dates after approval, so the
// moved-to slot is only visible through the rebooking window.
func (s *bookingSource) FirstCommitment(ctx context.Context, accommodationID uint64, checkIn, checkOut time.Time, excludeBookingID uint64) (*availability.Commitment, error) {
	q := `SELECT b.id, b.booking_number, b.check_in, b.check_out
          FROM bookings b
          JOIN booking_accommodations ba ON ba.booking_id = b.id
          WHERE ba.accommodation_id = ?
            AND b.status IN ('pending','confirmed','checked_in')
            AND b.id <> ?
            AND ((b.check_in <= ? AND COALESCE(b.check_out, b.check_in) >= ?)
              OR EXISTS (SELECT 1 FROM rebookings r
                         WHERE r.id = (SELECT MAX(r2.id) FROM rebookings r2
                                       WHERE r2.booking_id = b.id AND r2.status = 'approved')
                           AND r.check_in <= ?
                           AND COALESCE(r.check_out, r.check_in) >= ?))
          ORDER BY b.check_in, b.id
          LIMIT 1`
	if s.lock {
		q += ` FOR UPDATE`
	}
	var (
		bookingID uint64
		cm        availability.Commitment
		checkOutN sql.NullTime
	)
	end := checkOut.UTC().Format("2006-01-02")
	start := checkIn.UTC().Format("2006-01-02")
	err := s.q.QueryRowContext(ctx, q,
		accommodationID, excludeBookingID,
		end, start, end, start,
	).Scan(&bookingID, &cm.BookingNumber, &cm.CheckIn, &checkOutN)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if checkOutN.Valid {
		t := checkOutN.Time
		cm.CheckOut = &t
	}
	if cm.Approved, err = s.latestWindow(ctx, bookingID, model.RebookingApproved); err != nil {
		return nil, err
	}
	if cm.Pending, err = s.latestWindow(ctx, bookingID, model.RebookingPending); err != nil {
		return nil, err
	}
	return &cm, nil
}

// latestWindow returns the booking's most recent rebooking in the given
// status, by insertion order, or nil.
func (s *bookingSource) latestWindow(ctx context.Context, bookingID uint64, status string) (*availability.Window, error) {
	const q = `SELECT rebooking_number, check_in, check_out
               FROM rebookings WHERE booking_id = ? AND status = ?
               ORDER BY id DESC LIMIT 1`
	var w availability.Window
	var checkOutN sql.NullTime
	err := s.q.QueryRowContext(ctx, q, bookingID, status).Scan(&w.RebookingNumber, &w.CheckIn, &checkOutN)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if checkOutN.Valid {
		t := checkOutN.Time
		w.CheckOut = &t
	}
	return &w, nil
}

// AccommodationName resolves a display name; unknown ids yield "".
func (s *bookingSource) AccommodationName(ctx context.Context, accommodationID uint64) (string, error) {
	var name string
	err := s.q.QueryRowContext(ctx, `SELECT name FROM accommodations WHERE id = ?`, accommodationID).Scan(&name)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return name, err
}
