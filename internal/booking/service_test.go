package booking

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jomarip/beach-resort-booking/internal/availability"
	"github.com/jomarip/beach-resort-booking/internal/model"
	"github.com/jomarip/beach-resort-booking/internal/queue"
	"github.com/jomarip/beach-resort-booking/internal/validation"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

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

// ----- mocks -----

var errUnexpectedCall = errors.New("unexpected call")

type mockBookings struct {
	createTx        func(ctx context.Context, tx *sql.Tx, b *model.Booking) error
	createAccsTx    func(ctx context.Context, tx *sql.Tx, items []model.BookingAccommodation) error
	createFeesTx    func(ctx context.Context, tx *sql.Tx, items []model.BookingEntranceFee) error
	getByID         func(ctx context.Context, id uint64) (*model.Booking, error)
	getByIDTx       func(ctx context.Context, tx *sql.Tx, id uint64) (*model.Booking, error)
	updateStatusTx  func(ctx context.Context, tx *sql.Tx, id uint64, status string) error
	updateDetailsTx func(ctx context.Context, tx *sql.Tx, b *model.Booking) error
	recomputeTx     func(ctx context.Context, tx *sql.Tx, bookingID uint64) error
}

func (m *mockBookings) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	if m.createTx == nil {
		return errUnexpectedCall
	}
	return m.createTx(ctx, tx, b)
}
func (m *mockBookings) CreateAccommodationsBulkTx(ctx context.Context, tx *sql.Tx, items []model.BookingAccommodation) error {
	if m.createAccsTx == nil {
		return nil
	}
	return m.createAccsTx(ctx, tx, items)
}
func (m *mockBookings) CreateEntranceFeesBulkTx(ctx context.Context, tx *sql.Tx, items []model.BookingEntranceFee) error {
	if m.createFeesTx == nil {
		return nil
	}
	return m.createFeesTx(ctx, tx, items)
}
func (m *mockBookings) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	if m.getByID == nil {
		return nil, errUnexpectedCall
	}
	return m.getByID(ctx, id)
}
func (m *mockBookings) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Booking, error) {
	if m.getByIDTx == nil {
		return nil, errUnexpectedCall
	}
	return m.getByIDTx(ctx, tx, id)
}
func (m *mockBookings) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
	if m.updateStatusTx == nil {
		return errUnexpectedCall
	}
	return m.updateStatusTx(ctx, tx, id, status)
}
func (m *mockBookings) UpdateDetailsTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	if m.updateDetailsTx == nil {
		return errUnexpectedCall
	}
	return m.updateDetailsTx(ctx, tx, b)
}
func (m *mockBookings) RecomputePaidAmountTx(ctx context.Context, tx *sql.Tx, bookingID uint64) error {
	if m.recomputeTx == nil {
		return errUnexpectedCall
	}
	return m.recomputeTx(ctx, tx, bookingID)
}

type mockRebookings struct {
	createTx           func(ctx context.Context, tx *sql.Tx, rb *model.Rebooking) error
	createAccsTx       func(ctx context.Context, tx *sql.Tx, items []model.RebookingAccommodation) error
	createFeesTx       func(ctx context.Context, tx *sql.Tx, items []model.RebookingEntranceFee) error
	getByID            func(ctx context.Context, id uint64) (*model.Rebooking, error)
	getByIDTx          func(ctx context.Context, tx *sql.Tx, id uint64) (*model.Rebooking, error)
	hasActiveTx        func(ctx context.Context, tx *sql.Tx, bookingID uint64) (bool, error)
	setStatusTx        func(ctx context.Context, tx *sql.Tx, id uint64, status string, at time.Time) error
	setPaymentStatusTx func(ctx context.Context, tx *sql.Tx, id uint64, paymentStatus string) error
}

func (m *mockRebookings) CreateTx(ctx context.Context, tx *sql.Tx, rb *model.Rebooking) error {
	if m.createTx == nil {
		return errUnexpectedCall
	}
	return m.createTx(ctx, tx, rb)
}
func (m *mockRebookings) CreateAccommodationsBulkTx(ctx context.Context, tx *sql.Tx, items []model.RebookingAccommodation) error {
	if m.createAccsTx == nil {
		return nil
	}
	return m.createAccsTx(ctx, tx, items)
}
func (m *mockRebookings) CreateEntranceFeesBulkTx(ctx context.Context, tx *sql.Tx, items []model.RebookingEntranceFee) error {
	if m.createFeesTx == nil {
		return nil
	}
	return m.createFeesTx(ctx, tx, items)
}
func (m *mockRebookings) GetByID(ctx context.Context, id uint64) (*model.Rebooking, error) {
	if m.getByID == nil {
		return nil, errUnexpectedCall
	}
	return m.getByID(ctx, id)
}
func (m *mockRebookings) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Rebooking, error) {
	if m.getByIDTx == nil {
		return nil, errUnexpectedCall
	}
	return m.getByIDTx(ctx, tx, id)
}
func (m *mockRebookings) HasActiveTx(ctx context.Context, tx *sql.Tx, bookingID uint64) (bool, error) {
	if m.hasActiveTx == nil {
		return false, nil
	}
	return m.hasActiveTx(ctx, tx, bookingID)
}
func (m *mockRebookings) SetStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string, at time.Time) error {
	if m.setStatusTx == nil {
		return errUnexpectedCall
	}
	return m.setStatusTx(ctx, tx, id, status, at)
}
func (m *mockRebookings) SetPaymentStatusTx(ctx context.Context, tx *sql.Tx, id uint64, paymentStatus string) error {
	if m.setPaymentStatusTx == nil {
		return errUnexpectedCall
	}
	return m.setPaymentStatusTx(ctx, tx, id, paymentStatus)
}

type mockPayments struct {
	createTx       func(ctx context.Context, tx *sql.Tx, p *model.Payment) error
	getByIDTx      func(ctx context.Context, tx *sql.Tx, id uint64) (*model.Payment, error)
	deleteTx       func(ctx context.Context, tx *sql.Tx, id uint64) error
	sumByRebooking func(ctx context.Context, tx *sql.Tx, rebookingID uint64) (decimal.Decimal, error)
}

func (m *mockPayments) CreateTx(ctx context.Context, tx *sql.Tx, p *model.Payment) error {
	if m.createTx == nil {
		return errUnexpectedCall
	}
	return m.createTx(ctx, tx, p)
}
func (m *mockPayments) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Payment, error) {
	if m.getByIDTx == nil {
		return nil, errUnexpectedCall
	}
	return m.getByIDTx(ctx, tx, id)
}
func (m *mockPayments) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	if m.deleteTx == nil {
		return errUnexpectedCall
	}
	return m.deleteTx(ctx, tx, id)
}
func (m *mockPayments) SumByRebookingTx(ctx context.Context, tx *sql.Tx, rebookingID uint64) (decimal.Decimal, error) {
	if m.sumByRebooking == nil {
		return decimal.Zero, nil
	}
	return m.sumByRebooking(ctx, tx, rebookingID)
}

type mockRefunds struct {
	createTx       func(ctx context.Context, tx *sql.Tx, rf *model.Refund) error
	getByIDTx      func(ctx context.Context, tx *sql.Tx, id uint64) (*model.Refund, error)
	updateTx       func(ctx context.Context, tx *sql.Tx, rf *model.Refund) error
	deleteTx       func(ctx context.Context, tx *sql.Tx, id uint64) error
	sumByRebooking func(ctx context.Context, tx *sql.Tx, rebookingID uint64) (decimal.Decimal, error)
}

func (m *mockRefunds) CreateTx(ctx context.Context, tx *sql.Tx, rf *model.Refund) error {
	if m.createTx == nil {
		return errUnexpectedCall
	}
	return m.createTx(ctx, tx, rf)
}
func (m *mockRefunds) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Refund, error) {
	if m.getByIDTx == nil {
		return nil, errUnexpectedCall
	}
	return m.getByIDTx(ctx, tx, id)
}
func (m *mockRefunds) UpdateTx(ctx context.Context, tx *sql.Tx, rf *model.Refund) error {
	if m.updateTx == nil {
		return errUnexpectedCall
	}
	return m.updateTx(ctx, tx, rf)
}
func (m *mockRefunds) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	if m.deleteTx == nil {
		return errUnexpectedCall
	}
	return m.deleteTx(ctx, tx, id)
}
func (m *mockRefunds) SumByRebookingTx(ctx context.Context, tx *sql.Tx, rebookingID uint64) (decimal.Decimal, error) {
	if m.sumByRebooking == nil {
		return decimal.Zero, nil
	}
	return m.sumByRebooking(ctx, tx, rebookingID)
}

// stubSource implements availability.Source.
type stubSource struct {
	commitment func(ctx context.Context, accID uint64, checkIn, checkOut time.Time, exclude uint64) (*availability.Commitment, error)
}

func (s *stubSource) FirstCommitment(ctx context.Context, accID uint64, checkIn, checkOut time.Time, exclude uint64) (*availability.Commitment, error) {
	if s.commitment == nil {
		return nil, nil
	}
	return s.commitment(ctx, accID, checkIn, checkOut, exclude)
}

func (s *stubSource) AccommodationName(ctx context.Context, accID uint64) (string, error) {
	return "Cottage A", nil
}

type stubSources struct{ src *stubSource }

func (s stubSources) Source() availability.Source             { return s.src }
func (s stubSources) TxSource(tx *sql.Tx) availability.Source { return s.src }

type stubIssuer struct {
	ids []string
	n   int
}

func (s *stubIssuer) Next(ctx context.Context, tx *sql.Tx, now time.Time) (string, error) {
	if s.n >= len(s.ids) {
		return "", errUnexpectedCall
	}
	id := s.ids[s.n]
	s.n++
	return id, nil
}

type mockPublisher struct {
	confirmed []queue.BookingConfirmedEvent
	approved  []queue.RebookingApprovedEvent
}

func (m *mockPublisher) BookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) error {
	m.confirmed = append(m.confirmed, ev)
	return nil
}
func (m *mockPublisher) RebookingApproved(ctx context.Context, ev queue.RebookingApprovedEvent) error {
	m.approved = append(m.approved, ev)
	return nil
}

type mockArtifacts struct{ removed []string }

func (m *mockArtifacts) Remove(name string) error {
	m.removed = append(m.removed, name)
	return nil
}

// passthroughTx runs the body with a nil transaction; the mocks ignore it.
func passthroughTx(ctx context.Context, fn func(tx *sql.Tx) error) error { return fn(nil) }

func fixedNow() time.Time { return time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC) }

func validCreateInput() CreateBookingInput {
	return CreateBookingInput{
		Channel:        model.ChannelGuest,
		RentalCategory: model.RentalOvernight,
		GuestName:      "Maria Santos",
		GuestEmail:     "maria@example.com",
		CheckIn:        day("2026-03-20"),
		CheckOut:       dayPtr("2026-03-22"),
		Adults:         2,
		Children:       1,
		Accommodations: []AccommodationSelection{
			{AccommodationID: 1, GuestCount: 3, Rate: dec("2000.00")},
		},
		EntranceFees: []EntranceFeeSelection{
			{Category: "adult", Quantity: 2, UnitFee: dec("100.00")},
			{Category: "child", Quantity: 1, UnitFee: dec("50.00")},
		},
	}
}

// ----- tests -----

func TestCreateBookingCollectsEveryValidationError(t *testing.T) {
	txCalled := false
	svc := NewService(Deps{
		InTx: func(ctx context.Context, fn func(tx *sql.Tx) error) error {
			txCalled = true
			return fn(nil)
		},
		Now: fixedNow,
	})

	in := CreateBookingInput{
		Channel:             "phone",
		RentalCategory:      "weekly",
		Adults:              0,
		DownPaymentRequired: true,
	}
	_, _, err := svc.CreateBooking(context.Background(), in)
	var fe validation.FieldErrors
	if !errors.As(err, &fe) {
		t.Fatalf("expected FieldErrors, got %v", err)
	}
	for _, field := range []string{"channel", "rental_category", "check_in", "adults", "accommodations", "down_payment_amount"} {
		if len(fe[field]) == 0 {
			t.Errorf("expected a violation on %q, got %v", field, fe)
		}
	}
	if txCalled {
		t.Error("validation failures must not open a transaction")
	}
}

func TestCreateBookingWalkInRequiresActor(t *testing.T) {
	svc := NewService(Deps{InTx: passthroughTx, Now: fixedNow})
	in := validCreateInput()
	in.Channel = model.ChannelWalkIn
	in.ActorID = nil
	_, _, err := svc.CreateBooking(context.Background(), in)
	var fe validation.FieldErrors
	if !errors.As(err, &fe) || len(fe["created_by"]) == 0 {
		t.Fatalf("expected a created_by violation, got %v", err)
	}
}

func TestCreateBookingRejectsConflicts(t *testing.T) {
	bookings := &mockBookings{} // CreateTx would fail the test via errUnexpectedCall
	src := &stubSource{
		commitment: func(_ context.Context, _ uint64, _, _ time.Time, _ uint64) (*availability.Commitment, error) {
			return &availability.Commitment{
				BookingNumber: "BK-202603-0001",
				CheckIn:       day("2026-03-21"),
				CheckOut:      dayPtr("2026-03-23"),
			}, nil
		},
	}
	svc := NewService(Deps{
		Bookings: bookings,
		Sources:  stubSources{src: src},
		InTx:     passthroughTx,
		Now:      fixedNow,
	})

	_, conflicts, err := svc.CreateBooking(context.Background(), validCreateInput())
	var fe validation.FieldErrors
	if !errors.As(err, &fe) || len(fe["accommodations"]) != 1 {
		t.Fatalf("expected one accommodations violation, got %v", err)
	}
	if len(conflicts) != 1 || conflicts[0].Type != availability.ConflictBooking {
		t.Fatalf("expected the conflict to be surfaced, got %+v", conflicts)
	}
}

func TestCreateBookingSuccess(t *testing.T) {
	var created *model.Booking
	var accItems []model.BookingAccommodation
	var feeItems []model.BookingEntranceFee
	bookings := &mockBookings{
		createTx: func(_ context.Context, _ *sql.Tx, b *model.Booking) error {
			b.ID = 42
			created = b
			return nil
		},
		createAccsTx: func(_ context.Context, _ *sql.Tx, items []model.BookingAccommodation) error {
			accItems = items
			return nil
		},
		createFeesTx: func(_ context.Context, _ *sql.Tx, items []model.BookingEntranceFee) error {
			feeItems = items
			return nil
		},
	}
	svc := NewService(Deps{
		Bookings:    bookings,
		Sources:     stubSources{src: &stubSource{}},
		BookingNums: &stubIssuer{ids: []string{"BK-202603-0005"}},
		InTx:        passthroughTx,
		Now:         fixedNow,
	})

	b, conflicts, err := svc.CreateBooking(context.Background(), validCreateInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(conflicts) != 0 {
		t.Fatalf("unexpected conflicts: %+v", conflicts)
	}
	if created == nil || b.ID != 42 {
		t.Fatal("booking was not persisted")
	}
	if b.BookingNumber != "BK-202603-0005" {
		t.Errorf("booking number = %q", b.BookingNumber)
	}
	if b.Status != model.StatusPending {
		t.Errorf("status = %q, want pending", b.Status)
	}
	if !b.AccommodationTotal.Equal(dec("2000.00")) {
		t.Errorf("accommodation total = %s", b.AccommodationTotal)
	}
	if !b.EntranceFeeTotal.Equal(dec("250.00")) {
		t.Errorf("entrance fee total = %s", b.EntranceFeeTotal)
	}
	if !b.TotalAmount.Equal(dec("2250.00")) {
		t.Errorf("total = %s", b.TotalAmount)
	}
	if len(accItems) != 1 || accItems[0].BookingID != 42 {
		t.Errorf("accommodation line items = %+v", accItems)
	}
	if len(feeItems) != 2 {
		t.Errorf("entrance fee line items = %+v", feeItems)
	}
}

func TestUpdateStatusPublishesOnConfirm(t *testing.T) {
	stored := &model.Booking{
		ID:            7,
		BookingNumber: "BK-202603-0007",
		Channel:       model.ChannelGuest,
		RentalCategory: model.RentalOvernight,
		GuestName:     "Jose Cruz",
		CheckIn:       day("2026-03-20"),
		CheckOut:      dayPtr("2026-03-22"),
		Adults:        2,
		TotalAmount:   dec("3000.00"),
		PaidAmount:    dec("0.00"),
		Status:        model.StatusPending,
		Accommodations: []model.BookingAccommodation{
			{BookingID: 7, AccommodationID: 1, GuestCount: 2, Rate: dec("3000.00")},
		},
	}
	var statusWritten string
	bookings := &mockBookings{
		getByIDTx: func(_ context.Context, _ *sql.Tx, id uint64) (*model.Booking, error) {
			cp := *stored
			return &cp, nil
		},
		getByID: func(_ context.Context, id uint64) (*model.Booking, error) {
			cp := *stored
			return &cp, nil
		},
		updateStatusTx: func(_ context.Context, _ *sql.Tx, id uint64, status string) error {
			statusWritten = status
			return nil
		},
	}
	pub := &mockPublisher{}
	svc := NewService(Deps{
		Bookings:  bookings,
		Sources:   stubSources{src: &stubSource{}},
		Publisher: pub,
		InTx:      passthroughTx,
		Now:       fixedNow,
	})

	b, err := svc.UpdateStatus(context.Background(), 7, model.StatusConfirmed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Status != model.StatusConfirmed || statusWritten != model.StatusConfirmed {
		t.Fatalf("status not updated: %q / %q", b.Status, statusWritten)
	}
	if len(pub.confirmed) != 1 {
		t.Fatalf("expected one confirmed event, got %d", len(pub.confirmed))
	}
	ev := pub.confirmed[0]
	if ev.BookingNumber != "BK-202603-0007" || ev.TotalAmount != "3000.00" {
		t.Errorf("unexpected event: %+v", ev)
	}
	if len(ev.Accommodations) != 1 || ev.Accommodations[0] != "Cottage A" {
		t.Errorf("event should carry resolved unit names: %+v", ev.Accommodations)
	}
}

func TestUpdateStatusFullyPaidCancelRejected(t *testing.T) {
	bookings := &mockBookings{
		getByIDTx: func(_ context.Context, _ *sql.Tx, id uint64) (*model.Booking, error) {
			return &model.Booking{
				ID:          9,
				Status:      model.StatusConfirmed,
				TotalAmount: dec("1500.00"),
				PaidAmount:  dec("1500.00"),
			}, nil
		},
		// updateStatusTx left nil: a write would fail the test.
	}
	svc := NewService(Deps{Bookings: bookings, InTx: passthroughTx, Now: fixedNow})

	_, err := svc.UpdateStatus(context.Background(), 9, model.StatusCancelled)
	var fe validation.FieldErrors
	if !errors.As(err, &fe) || len(fe["status"]) == 0 {
		t.Fatalf("expected a status violation, got %v", err)
	}
}

func TestCreateRebookingSingleActiveGuard(t *testing.T) {
	bookings := &mockBookings{
		getByIDTx: func(_ context.Context, _ *sql.Tx, id uint64) (*model.Booking, error) {
			return &model.Booking{
				ID:             3,
				Status:         model.StatusConfirmed,
				RentalCategory: model.RentalOvernight,
				TotalAmount:    dec("5000.00"),
			}, nil
		},
	}
	rebookings := &mockRebookings{
		hasActiveTx: func(_ context.Context, _ *sql.Tx, bookingID uint64) (bool, error) {
			return true, nil
		},
	}
	svc := NewService(Deps{
		Bookings:   bookings,
		Rebookings: rebookings,
		Sources:    stubSources{src: &stubSource{}},
		InTx:       passthroughTx,
		Now:        fixedNow,
	})

	_, _, err := svc.CreateRebooking(context.Background(), CreateRebookingInput{
		BookingID:   3,
		ProcessorID: 11,
		CheckIn:     day("2026-04-01"),
		CheckOut:    dayPtr("2026-04-03"),
		Adults:      2,
		Accommodations: []AccommodationSelection{
			{AccommodationID: 1, GuestCount: 2, Rate: dec("5200.00")},
		},
	})
	var fe validation.FieldErrors
	if !errors.As(err, &fe) || len(fe["booking"]) == 0 {
		t.Fatalf("expected a booking violation, got %v", err)
	}
}

func TestCompleteRebookingRequiresSettledAdjustment(t *testing.T) {
	rb := &model.Rebooking{
		ID:             5,
		BookingID:      3,
		Status:         model.RebookingApproved,
		OriginalAmount: dec("5000.00"),
		NewAmount:      dec("6000.00"),
		RebookingFee:   dec("500.00"),
	}
	paid := decimal.Zero
	rebookings := &mockRebookings{
		getByIDTx: func(_ context.Context, _ *sql.Tx, id uint64) (*model.Rebooking, error) {
			cp := *rb
			return &cp, nil
		},
		setStatusTx: func(_ context.Context, _ *sql.Tx, id uint64, status string, at time.Time) error {
			rb.Status = status
			return nil
		},
	}
	payments := &mockPayments{
		sumByRebooking: func(_ context.Context, _ *sql.Tx, rebookingID uint64) (decimal.Decimal, error) {
			return paid, nil
		},
	}
	svc := NewService(Deps{
		Rebookings: rebookings,
		Payments:   payments,
		Refunds:    &mockRefunds{},
		InTx:       passthroughTx,
		Now:        fixedNow,
	})

	_, err := svc.CompleteRebooking(context.Background(), 5)
	var fe validation.FieldErrors
	if !errors.As(err, &fe) || len(fe["payment_status"]) == 0 {
		t.Fatalf("expected a payment_status violation, got %v", err)
	}

	paid = dec("1500.00") // settles (6000 - 5000) + 500
	done, err := svc.CompleteRebooking(context.Background(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if done.Status != model.RebookingCompleted || done.CompletedAt == nil {
		t.Fatalf("rebooking not completed: %+v", done)
	}
}

func TestCreatePaymentRecomputesAndRefreshesRebooking(t *testing.T) {
	rebookingID := uint64(5)
	var recomputed []uint64
	var paymentStatus string
	bookings := &mockBookings{
		getByIDTx: func(_ context.Context, _ *sql.Tx, id uint64) (*model.Booking, error) {
			return &model.Booking{ID: id}, nil
		},
		recomputeTx: func(_ context.Context, _ *sql.Tx, bookingID uint64) error {
			recomputed = append(recomputed, bookingID)
			return nil
		},
	}
	rebookings := &mockRebookings{
		getByIDTx: func(_ context.Context, _ *sql.Tx, id uint64) (*model.Rebooking, error) {
			return &model.Rebooking{
				ID:             id,
				OriginalAmount: dec("5000.00"),
				NewAmount:      dec("6000.00"),
				PaymentStatus:  model.RebookingPaymentPending,
			}, nil
		},
		setPaymentStatusTx: func(_ context.Context, _ *sql.Tx, id uint64, status string) error {
			paymentStatus = status
			return nil
		},
	}
	payments := &mockPayments{
		createTx: func(_ context.Context, _ *sql.Tx, p *model.Payment) error {
			p.ID = 100
			return nil
		},
		sumByRebooking: func(_ context.Context, _ *sql.Tx, id uint64) (decimal.Decimal, error) {
			return dec("1000.00"), nil
		},
	}
	svc := NewService(Deps{
		Bookings:    bookings,
		Rebookings:  rebookings,
		Payments:    payments,
		Refunds:     &mockRefunds{},
		PaymentNums: &stubIssuer{ids: []string{"PAY-202603-0001"}},
		InTx:        passthroughTx,
		Now:         fixedNow,
	})

	p, err := svc.CreatePayment(context.Background(), CreatePaymentInput{
		BookingID:    3,
		RebookingID:  &rebookingID,
		Amount:       dec("1000.00"),
		Method:       "gcash",
		ReceivedByID: 11,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.PaymentNumber != "PAY-202603-0001" {
		t.Errorf("payment number = %q", p.PaymentNumber)
	}
	if len(recomputed) != 1 || recomputed[0] != 3 {
		t.Errorf("paid amount not recomputed for booking 3: %v", recomputed)
	}
	// 1000 paid covers the 1000 adjustment, so the rebooking flips to paid.
	if paymentStatus != model.RebookingPaymentPaid {
		t.Errorf("rebooking payment status = %q, want paid", paymentStatus)
	}
}

func TestCreateRefundCannotExceedPayment(t *testing.T) {
	payments := &mockPayments{
		getByIDTx: func(_ context.Context, _ *sql.Tx, id uint64) (*model.Payment, error) {
			return &model.Payment{ID: id, BookingID: 3, Amount: dec("500.00")}, nil
		},
	}
	svc := NewService(Deps{
		Bookings: &mockBookings{},
		Payments: payments,
		Refunds:  &mockRefunds{}, // CreateTx left nil: a write would fail the test
		InTx:     passthroughTx,
		Now:      fixedNow,
	})

	_, err := svc.CreateRefund(context.Background(), CreateRefundInput{
		PaymentID:     100,
		Amount:        dec("500.01"),
		ProcessedByID: 11,
	})
	var fe validation.FieldErrors
	if !errors.As(err, &fe) || len(fe["amount"]) == 0 {
		t.Fatalf("expected an amount violation, got %v", err)
	}
}

func TestDeletePaymentRemovesArtifactAfterCommit(t *testing.T) {
	img := "a1b2c3.jpg"
	var deleted, recomputed bool
	payments := &mockPayments{
		getByIDTx: func(_ context.Context, _ *sql.Tx, id uint64) (*model.Payment, error) {
			return &model.Payment{ID: id, BookingID: 3, Amount: dec("500.00"), ReferenceImage: &img}, nil
		},
		deleteTx: func(_ context.Context, _ *sql.Tx, id uint64) error {
			deleted = true
			return nil
		},
	}
	bookings := &mockBookings{
		recomputeTx: func(_ context.Context, _ *sql.Tx, bookingID uint64) error {
			recomputed = true
			return nil
		},
	}
	arts := &mockArtifacts{}
	svc := NewService(Deps{
		Bookings:  bookings,
		Payments:  payments,
		Refunds:   &mockRefunds{},
		Artifacts: arts,
		InTx:      passthroughTx,
		Now:       fixedNow,
	})

	if err := svc.DeletePayment(context.Background(), 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !deleted || !recomputed {
		t.Fatal("payment delete must remove the row and recompute the aggregate")
	}
	if len(arts.removed) != 1 || arts.removed[0] != img {
		t.Fatalf("artifact not removed: %v", arts.removed)
	}
}

func TestDeletePaymentKeepsArtifactOnFailure(t *testing.T) {
	img := "a1b2c3.jpg"
	payments := &mockPayments{
		getByIDTx: func(_ context.Context, _ *sql.Tx, id uint64) (*model.Payment, error) {
			return &model.Payment{ID: id, BookingID: 3, Amount: dec("500.00"), ReferenceImage: &img}, nil
		},
		deleteTx: func(_ context.Context, _ *sql.Tx, id uint64) error {
			return errors.New("deadlock")
		},
	}
	arts := &mockArtifacts{}
	svc := NewService(Deps{
		Bookings:  &mockBookings{},
		Payments:  payments,
		Refunds:   &mockRefunds{},
		Artifacts: arts,
		InTx:      passthroughTx,
		Now:       fixedNow,
	})

	if err := svc.DeletePayment(context.Background(), 100); err == nil {
		t.Fatal("expected the delete error to propagate")
	}
	if len(arts.removed) != 0 {
		t.Fatalf("artifact must survive a failed transaction: %v", arts.removed)
	}
}
