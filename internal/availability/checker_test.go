package availability

import (
	"context"
	"strings"
	"testing"
	"time"
)

func day(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func dayPtr(s string) *time.Time {
	t := day(s)
	return &t
}

// mockSource implements Source with func fields so each test supplies
// only the behavior it needs.
type mockSource struct {
	firstCommitment func(ctx context.Context, accID uint64, checkIn, checkOut time.Time, exclude uint64) (*Commitment, error)
	name            func(ctx context.Context, accID uint64) (string, error)
}

func (m *mockSource) FirstCommitment(ctx context.Context, accID uint64, checkIn, checkOut time.Time, exclude uint64) (*Commitment, error) {
	if m.firstCommitment == nil {
		return nil, nil
	}
	return m.firstCommitment(ctx, accID, checkIn, checkOut, exclude)
}

func (m *mockSource) AccommodationName(ctx context.Context, accID uint64) (string, error) {
	if m.name == nil {
		return "Unit", nil
	}
	return m.name(ctx, accID)
}

func TestOverlaps(t *testing.T) {
	cases := []struct {
		name                         string
		aStart, aEnd, bStart, bEnd   string
		want                         bool
	}{
		{"disjoint before", "2026-03-01", "2026-03-03", "2026-03-05", "2026-03-07", false},
		{"disjoint after", "2026-03-10", "2026-03-12", "2026-03-05", "2026-03-07", false},
		{"identical", "2026-03-05", "2026-03-07", "2026-03-05", "2026-03-07", true},
		{"contained", "2026-03-05", "2026-03-06", "2026-03-04", "2026-03-08", true},
		{"containing", "2026-03-01", "2026-03-10", "2026-03-04", "2026-03-05", true},
		{"partial overlap", "2026-03-01", "2026-03-05", "2026-03-04", "2026-03-08", true},
		{"touching start on end", "2026-03-07", "2026-03-09", "2026-03-05", "2026-03-07", true},
		{"touching end on start", "2026-03-03", "2026-03-05", "2026-03-05", "2026-03-07", true},
		{"single day vs single day equal", "2026-03-05", "2026-03-05", "2026-03-05", "2026-03-05", true},
		{"single day vs single day apart", "2026-03-05", "2026-03-05", "2026-03-06", "2026-03-06", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Overlaps(day(tc.aStart), day(tc.aEnd), day(tc.bStart), day(tc.bEnd))
			if got != tc.want {
				t.Fatalf("Overlaps(%s..%s, %s..%s) = %v, want %v", tc.aStart, tc.aEnd, tc.bStart, tc.bEnd, got, tc.want)
			}
		})
	}
}

func TestCheckNoCommitment(t *testing.T) {
	chk := NewChecker(&mockSource{})
	conflicts, err := chk.Check(context.Background(), []uint64{1, 2}, day("2026-03-05"), dayPtr("2026-03-07"), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(conflicts) != 0 {
		t.Fatalf("expected no conflicts, got %d", len(conflicts))
	}
}

func TestCheckPlainBookingConflict(t *testing.T) {
	src := &mockSource{
		firstCommitment: func(_ context.Context, accID uint64, _, _ time.Time, _ uint64) (*Commitment, error) {
			return &Commitment{
				BookingNumber: "BK-202603-0007",
				CheckIn:       day("2026-03-04"),
				CheckOut:      dayPtr("2026-03-06"),
			}, nil
		},
		name: func(_ context.Context, _ uint64) (string, error) { return "Cottage A", nil },
	}
	chk := NewChecker(src)
	conflicts, err := chk.Check(context.Background(), []uint64{1}, day("2026-03-05"), dayPtr("2026-03-08"), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(conflicts) != 1 {
		t.Fatalf("expected 1 conflict, got %d", len(conflicts))
	}
	cf := conflicts[0]
	if cf.Type != ConflictBooking {
		t.Errorf("type = %q, want %q", cf.Type, ConflictBooking)
	}
	if cf.BookingNumber != "BK-202603-0007" {
		t.Errorf("booking number = %q", cf.BookingNumber)
	}
	if !cf.CheckIn.Equal(day("2026-03-04")) || cf.CheckOut == nil || !cf.CheckOut.Equal(day("2026-03-06")) {
		t.Errorf("conflict carries wrong dates: %v..%v", cf.CheckIn, cf.CheckOut)
	}
}

func TestCheckApprovedRebookingEscapeHatch(t *testing.T) {
	// The occupying booking's approved rebooking moved it to a range that
	// does not touch the candidate, so the original slot is free.
	src := &mockSource{
		firstCommitment: func(_ context.Context, _ uint64, _, _ time.Time, _ uint64) (*Commitment, error) {
			return &Commitment{
				BookingNumber: "BK-202603-0001",
				CheckIn:       day("2026-03-05"),
				CheckOut:      dayPtr("2026-03-07"),
				Approved: &Window{
					RebookingNumber: "RBK-202603-0002",
					CheckIn:         day("2026-03-20"),
					CheckOut:        dayPtr("2026-03-22"),
				},
			}, nil
		},
	}
	chk := NewChecker(src)
	conflicts, err := chk.Check(context.Background(), []uint64{1}, day("2026-03-05"), dayPtr("2026-03-07"), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(conflicts) != 0 {
		t.Fatalf("expected escape hatch to clear the conflict, got %+v", conflicts)
	}
}

func TestCheckApprovedRebookingConflictUsesNewDates(t *testing.T) {
	src := &mockSource{
		firstCommitment: func(_ context.Context, _ uint64, _, _ time.Time, _ uint64) (*Commitment, error) {
			return &Commitment{
				BookingNumber: "BK-202603-0001",
				CheckIn:       day("2026-03-01"),
				CheckOut:      dayPtr("2026-03-10"),
				Approved: &Window{
					RebookingNumber: "RBK-202603-0002",
					CheckIn:         day("2026-03-06"),
					CheckOut:        dayPtr("2026-03-08"),
				},
			}, nil
		},
		name: func(_ context.Context, _ uint64) (string, error) { return "Room 2", nil },
	}
	chk := NewChecker(src)
	conflicts, err := chk.Check(context.Background(), []uint64{1}, day("2026-03-07"), dayPtr("2026-03-09"), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(conflicts) != 1 {
		t.Fatalf("expected 1 conflict, got %d", len(conflicts))
	}
	cf := conflicts[0]
	if cf.Type != ConflictRebooking {
		t.Errorf("type = %q, want %q", cf.Type, ConflictRebooking)
	}
	if cf.RebookingNumber != "RBK-202603-0002" {
		t.Errorf("rebooking number = %q", cf.RebookingNumber)
	}
	// The conflict reports the rebooking's new dates, not the original ones.
	if !cf.CheckIn.Equal(day("2026-03-06")) || cf.CheckOut == nil || !cf.CheckOut.Equal(day("2026-03-08")) {
		t.Errorf("conflict dates = %v..%v, want the approved window", cf.CheckIn, cf.CheckOut)
	}
}

func TestCheckApprovedRebookingProtectsMovedToSlot(t *testing.T) {
	// A source honouring the full contract: the commitment is a candidate
	// when the requested range overlaps the original dates or the latest
	// approved rebooking's dates.  The booking sat on 06-10..06-12 and was
	// moved to 06-20..06-22, so a request for 06-21..06-23 only matches
	// through the rebooking window.
	cm := &Commitment{
		BookingNumber: "BK-202506-0001",
		CheckIn:       day("2025-06-10"),
		CheckOut:      dayPtr("2025-06-12"),
		Approved: &Window{
			RebookingNumber: "RBK-202506-0001",
			CheckIn:         day("2025-06-20"),
			CheckOut:        dayPtr("2025-06-22"),
		},
	}
	src := &mockSource{
		firstCommitment: func(_ context.Context, _ uint64, s, e time.Time, _ uint64) (*Commitment, error) {
			origStart, origEnd := cm.CheckIn, *cm.CheckOut
			newStart, newEnd := cm.Approved.CheckIn, *cm.Approved.CheckOut
			if Overlaps(s, e, origStart, origEnd) || Overlaps(s, e, newStart, newEnd) {
				return cm, nil
			}
			return nil, nil
		},
		name: func(_ context.Context, _ uint64) (string, error) { return "Cottage A", nil },
	}
	chk := NewChecker(src)

	conflicts, err := chk.Check(context.Background(), []uint64{1}, day("2025-06-21"), dayPtr("2025-06-23"), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(conflicts) != 1 {
		t.Fatalf("moved-to slot must conflict, got %d conflicts", len(conflicts))
	}
	cf := conflicts[0]
	if cf.Type != ConflictRebooking {
		t.Errorf("type = %q, want %q", cf.Type, ConflictRebooking)
	}
	if cf.RebookingNumber != "RBK-202506-0001" {
		t.Errorf("rebooking number = %q", cf.RebookingNumber)
	}
	if !cf.CheckIn.Equal(day("2025-06-20")) || cf.CheckOut == nil || !cf.CheckOut.Equal(day("2025-06-22")) {
		t.Errorf("conflict dates = %v..%v, want the approved window", cf.CheckIn, cf.CheckOut)
	}

	// The original slot stays free through the same source.
	conflicts, err = chk.Check(context.Background(), []uint64{1}, day("2025-06-11"), dayPtr("2025-06-12"), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(conflicts) != 0 {
		t.Fatalf("original dates should be freed by the approved rebooking, got %+v", conflicts)
	}
}

func TestCheckPendingRebookingKeepsOriginalDates(t *testing.T) {
	src := &mockSource{
		firstCommitment: func(_ context.Context, _ uint64, _, _ time.Time, _ uint64) (*Commitment, error) {
			return &Commitment{
				BookingNumber: "BK-202603-0003",
				CheckIn:       day("2026-03-05"),
				CheckOut:      dayPtr("2026-03-07"),
				Pending: &Window{
					RebookingNumber: "RBK-202603-0004",
					CheckIn:         day("2026-04-01"),
					CheckOut:        dayPtr("2026-04-03"),
				},
			}, nil
		},
	}
	chk := NewChecker(src)
	conflicts, err := chk.Check(context.Background(), []uint64{1}, day("2026-03-06"), dayPtr("2026-03-08"), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(conflicts) != 1 {
		t.Fatalf("expected 1 conflict, got %d", len(conflicts))
	}
	cf := conflicts[0]
	if cf.Type != ConflictPendingRebooking {
		t.Errorf("type = %q, want %q", cf.Type, ConflictPendingRebooking)
	}
	// A pending rebooking has not moved the booking yet.
	if !cf.CheckIn.Equal(day("2026-03-05")) {
		t.Errorf("conflict should keep the original dates, got check-in %v", cf.CheckIn)
	}
}

func TestCheckDayTourNormalization(t *testing.T) {
	var gotStart, gotEnd time.Time
	src := &mockSource{
		firstCommitment: func(_ context.Context, _ uint64, s, e time.Time, _ uint64) (*Commitment, error) {
			gotStart, gotEnd = s, e
			return nil, nil
		},
	}
	chk := NewChecker(src)
	if _, err := chk.Check(context.Background(), []uint64{1}, day("2026-03-05"), nil, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !gotStart.Equal(day("2026-03-05")) || !gotEnd.Equal(day("2026-03-05")) {
		t.Errorf("day tour should normalize to a single-day range, got %v..%v", gotStart, gotEnd)
	}
}

func TestCheckDeduplicatesAndSkipsZeroIDs(t *testing.T) {
	calls := map[uint64]int{}
	src := &mockSource{
		firstCommitment: func(_ context.Context, accID uint64, _, _ time.Time, _ uint64) (*Commitment, error) {
			calls[accID]++
			return nil, nil
		},
	}
	chk := NewChecker(src)
	if _, err := chk.Check(context.Background(), []uint64{0, 3, 3, 5}, day("2026-03-05"), nil, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls[0] != 0 {
		t.Errorf("zero id should be skipped")
	}
	if calls[3] != 1 || calls[5] != 1 {
		t.Errorf("expected one lookup per distinct id, got %v", calls)
	}
}

func TestMessage(t *testing.T) {
	booked := Conflict{
		AccommodationName: "Cottage A",
		Type:              ConflictBooking,
		BookingNumber:     "BK-202603-0001",
		CheckIn:           day("2026-03-05"),
		CheckOut:          dayPtr("2026-03-07"),
	}
	if msg := Message(booked); !strings.Contains(msg, "already booked under BK-202603-0001") ||
		!strings.Contains(msg, "2026-03-05 to 2026-03-07") {
		t.Errorf("unexpected booking message: %q", msg)
	}

	pending := booked
	pending.Type = ConflictPendingRebooking
	if msg := Message(pending); !strings.Contains(msg, "pending rebooking request") {
		t.Errorf("unexpected pending message: %q", msg)
	}

	reb := booked
	reb.Type = ConflictRebooking
	reb.RebookingNumber = "RBK-202603-0009"
	if msg := Message(reb); !strings.Contains(msg, "rebooking RBK-202603-0009") {
		t.Errorf("unexpected rebooking message: %q", msg)
	}

	single := Conflict{
		AccommodationName: "Hall",
		Type:              ConflictBooking,
		BookingNumber:     "BK-202603-0002",
		CheckIn:           day("2026-03-05"),
	}
	if msg := Message(single); !strings.Contains(msg, "for 2026-03-05.") {
		t.Errorf("day-tour message should show a single date: %q", msg)
	}
}
