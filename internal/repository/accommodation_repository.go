package repository

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"

	"github.com/jomarip/beach-resort-booking/internal/model"
)

// AccommodationRepo provides CRUD access to the accommodations table.
type AccommodationRepo struct {
	db *sql.DB
}

// NewAccommodationRepo returns an AccommodationRepo bound to the given
// database.
func NewAccommodationRepo(db *sql.DB) *AccommodationRepo { return &AccommodationRepo{db: db} }

const accommodationCols = `id, name, type, capacity, day_rate, overnight_rate, is_active, created_at, updated_at`

func scanAccommodation(row interface{ Scan(...any) error }) (*model.Accommodation, error) {
	var a model.Accommodation
	var dayRate, overnightRate string
	if err := row.Scan(&a.ID, &a.Name, &a.Type, &a.Capacity, &dayRate, &overnightRate, &a.IsActive, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if a.DayRate, err = decimal.NewFromString(dayRate); err != nil {
		return nil, err
	}
	if a.OvernightRate, err = decimal.NewFromString(overnightRate); err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts a new accommodation and populates its generated id.
func (r *AccommodationRepo) Create(ctx context.Context, a *model.Accommodation) error {
	const q = `INSERT INTO accommodations (name, type, capacity, day_rate, overnight_rate, is_active)
               VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, a.Name, a.Type, a.Capacity,
		a.DayRate.StringFixed(2), a.OvernightRate.StringFixed(2), a.IsActive)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	return nil
}

// GetByID returns one accommodation or ErrAccommodationNotFound.
func (r *AccommodationRepo) GetByID(ctx context.Context, id uint64) (*model.Accommodation, error) {
	const q = `SELECT ` + accommodationCols + ` FROM accommodations WHERE id = ?`
	a, err := scanAccommodation(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, ErrAccommodationNotFound
	}
	return a, err
}

// NameByID resolves the display name for an accommodation.  Unknown ids
// yield an empty string rather than an error; the availability checker
// treats them as non-conflicting and leaves existence validation to the
// form layer.
func (r *AccommodationRepo) NameByID(ctx context.Context, id uint64) (string, error) {
	const q = `SELECT name FROM accommodations WHERE id = ?`
	var name string
	err := r.db.QueryRowContext(ctx, q, id).Scan(&name)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return name, err
}

// List returns accommodations ordered by name.  When activeOnly is true,
// inactive units are excluded.
func (r *AccommodationRepo) List(ctx context.Context, activeOnly bool) ([]model.Accommodation, error) {
	q := `SELECT ` + accommodationCols + ` FROM accommodations`
	if activeOnly {
		q += ` WHERE is_active = 1`
	}
	q += ` ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Accommodation, 0)
	for rows.Next() {
		a, err := scanAccommodation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// Update rewrites the mutable columns of an accommodation.  It returns
// ErrAccommodationNotFound when no row matches.
func (r *AccommodationRepo) Update(ctx context.Context, a *model.Accommodation) error {
	const q = `UPDATE accommodations
               SET name = ?, type = ?, capacity = ?, day_rate = ?, overnight_rate = ?, is_active = ?
               WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, a.Name, a.Type, a.Capacity,
		a.DayRate.StringFixed(2), a.OvernightRate.StringFixed(2), a.IsActive, a.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// RowsAffected is also 0 for a no-op update; confirm existence.
		if _, err := r.GetByID(ctx, a.ID); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes an accommodation.  It returns ErrConflict when the unit
// still appears on bookings in a conflicting status, because removing it
// would orphan live availability data.
func (r *AccommodationRepo) Delete(ctx context.Context, id uint64) error {
	const check = `SELECT COUNT(*)
                   FROM booking_accommodations ba
                   JOIN bookings b ON b.id = ba.booking_id
                   WHERE ba.accommodation_id = ?
                     AND b.status IN ('pending','confirmed','checked_in')`
	var n int
	if err := r.db.QueryRowContext(ctx, check, id).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM accommodations WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrAccommodationNotFound
	}
	return nil
}
