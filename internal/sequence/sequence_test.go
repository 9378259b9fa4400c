package sequence

import (
	"context"
	"database/sql"
	"testing"
	"time"
)

func TestPeriod(t *testing.T) {
	cases := []struct {
		name string
		at   time.Time
		want string
	}{
		{"mid-month", time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC), "202603"},
		{"first instant of month", time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), "202604"},
		{"last instant of month", time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC), "202603"},
		// 2026-03-31 22:00 in UTC+10 is already April there, but periods
		// are defined in UTC.
		{"non-UTC wall clock converts", time.Date(2026, 4, 1, 8, 0, 0, 0, time.FixedZone("AEST", 10*3600)), "202603"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Period(tc.at); got != tc.want {
				t.Fatalf("Period = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	cases := []struct {
		prefix, period string
		seq            int64
		want           string
	}{
		{"BK", "202603", 1, "BK-202603-0001"},
		{"BK", "202603", 42, "BK-202603-0042"},
		{"PAY", "202612", 9999, "PAY-202612-9999"},
		{"RBK", "202701", 10000, "RBK-202701-10000"},
		{"REF", "202603", 7, "REF-202603-0007"},
	}
	for _, tc := range cases {
		if got := Format(tc.prefix, tc.period, tc.seq); got != tc.want {
			t.Errorf("Format(%q, %q, %d) = %q, want %q", tc.prefix, tc.period, tc.seq, got, tc.want)
		}
	}
}

type mockStore struct {
	next func(ctx context.Context, tx *sql.Tx, scope, period string) (int64, error)
}

func (m *mockStore) Next(ctx context.Context, tx *sql.Tx, scope, period string) (int64, error) {
	return m.next(ctx, tx, scope, period)
}

func TestGeneratorNext(t *testing.T) {
	var gotScope, gotPeriod string
	seq := int64(0)
	gen := NewGenerator(ScopeBooking, &mockStore{
		next: func(_ context.Context, _ *sql.Tx, scope, period string) (int64, error) {
			gotScope, gotPeriod = scope, period
			seq++
			return seq, nil
		},
	})

	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	id, err := gen.Next(context.Background(), nil, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "BK-202603-0001" {
		t.Fatalf("id = %q", id)
	}
	if gotScope != ScopeBooking || gotPeriod != "202603" {
		t.Fatalf("store called with (%q, %q)", gotScope, gotPeriod)
	}

	id, err = gen.Next(context.Background(), nil, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "BK-202603-0002" {
		t.Fatalf("second id = %q", id)
	}
}

// A new period draws from its own counter, so the suffix restarts.
func TestGeneratorPeriodRollover(t *testing.T) {
	counters := map[string]int64{}
	gen := NewGenerator(ScopePayment, &mockStore{
		next: func(_ context.Context, _ *sql.Tx, scope, period string) (int64, error) {
			counters[scope+":"+period]++
			return counters[scope+":"+period], nil
		},
	})

	march := time.Date(2026, 3, 31, 23, 0, 0, 0, time.UTC)
	april := time.Date(2026, 4, 1, 1, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		if _, err := gen.Next(context.Background(), nil, march); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	id, err := gen.Next(context.Background(), nil, april)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "PAY-202604-0001" {
		t.Fatalf("first id of new period = %q, want PAY-202604-0001", id)
	}
}
