package repository

import (
	"context"
	"database/sql"
)

// SequenceRepo implements sequence.Store on the number_sequences table.
// Each (scope, period) pair holds one counter row.  The upsert below uses
// MySQL's LAST_INSERT_ID(expr) trick so that incrementing and reading the
// counter is a single atomic statement; two transactions bumping the same
// counter serialize on the row lock and can never observe the same value.
type SequenceRepo struct {
	db *sql.DB
}

// NewSequenceRepo returns a SequenceRepo bound to the given database.
func NewSequenceRepo(db *sql.DB) *SequenceRepo { return &SequenceRepo{db: db} }

// Next atomically increments and returns the counter for (scope, period),
// creating it at 1 when the period has no counter yet.  When tx is nil the
// statements run on the pool; callers assigning numbers alongside an
// insert should pass their transaction so the counter bump rolls back with
// the insert.
func (r *SequenceRepo) Next(ctx context.Context, tx *sql.Tx, scope, period string) (int64, error) {
	const up = `INSERT INTO number_sequences (scope, period, seq)
                VALUES (?, ?, LAST_INSERT_ID(1))
                ON DUPLICATE KEY UPDATE seq = LAST_INSERT_ID(seq + 1)`
	const sel = `SELECT LAST_INSERT_ID()`
	var seq int64
	if tx != nil {
		if _, err := tx.ExecContext(ctx, up, scope, period); err != nil {
			return 0, err
		}
		if err := tx.QueryRowContext(ctx, sel).Scan(&seq); err != nil {
			return 0, err
		}
		return seq, nil
	}
	// Without a caller transaction, run both statements on one connection
	// so LAST_INSERT_ID() reads the value this session just set.
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Close()
	if _, err := conn.ExecContext(ctx, up, scope, period); err != nil {
		return 0, err
	}
	if err := conn.QueryRowContext(ctx, sel).Scan(&seq); err != nil {
		return 0, err
	}
	return seq, nil
}
