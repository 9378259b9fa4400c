// Package sequence assigns the business identifiers used on bookings,
// payments, rebookings and refunds.  Identifiers are scoped to a calendar
// month: {PREFIX}-{YYYYMM}-{NNNN}, where the four-digit suffix restarts at
// 0001 each period.  The next suffix comes from an atomic counter kept in
// the number_sequences table, so two records created in the same period can
// never compute the same number.
package sequence

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Scopes identify the counter each entity draws from.  The scope doubles as
// the identifier prefix.
const (
	ScopeBooking   = "BK"
	ScopePayment   = "PAY"
	ScopeRebooking = "RBK"
	ScopeRefund    = "REF"
)

// Store increments and returns the counter for a (scope, period) pair.  The
// increment must be atomic with respect to concurrent callers; the MySQL
// implementation lives in the repository package.
type Store interface {
	Next(ctx context.Context, tx *sql.Tx, scope, period string) (int64, error)
}

// Period returns the YYYYMM period key for a point in time, in UTC.
func Period(t time.Time) string { return t.UTC().Format("200601") }

// Format renders a full identifier from its parts.
func Format(prefix, period string, seq int64) string {
	return fmt.Sprintf("%s-%s-%04d", prefix, period, seq)
}

// Generator issues identifiers for one scope.
type Generator struct {
	scope string
	store Store
}

// NewGenerator returns a Generator for the given scope backed by the store.
func NewGenerator(scope string, store Store) *Generator {
	return &Generator{scope: scope, store: store}
}

// Next assigns the next identifier for the period containing now.  It must
// be called inside the same transaction that inserts the owning record so
// an aborted insert does not burn a visible gap mid-request.
func (g *Generator) Next(ctx context.Context, tx *sql.Tx, now time.Time) (string, error) {
	period := Period(now)
	seq, err := g.store.Next(ctx, tx, g.scope, period)
	if err != nil {
		return "", err
	}
	return Format(g.scope, period, seq), nil
}
