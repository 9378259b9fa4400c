package booking

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jomarip/beach-resort-booking/internal/availability"
	"github.com/jomarip/beach-resort-booking/internal/model"
	"github.com/jomarip/beach-resort-booking/internal/queue"
	"github.com/jomarip/beach-resort-booking/internal/validation"
)

// BookingStore is the slice of the booking repository the service needs.
// Methods suffixed Tx run inside the transaction supplied by the caller.
type BookingStore interface {
	CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error
	CreateAccommodationsBulkTx(ctx context.Context, tx *sql.Tx, items []model.BookingAccommodation) error
	CreateEntranceFeesBulkTx(ctx context.Context, tx *sql.Tx, items []model.BookingEntranceFee) error
	GetByID(ctx context.Context, id uint64) (*model.Booking, error)
	GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Booking, error)
	UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error
	UpdateDetailsTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error
	RecomputePaidAmountTx(ctx context.Context, tx *sql.Tx, bookingID uint64) error
}

// RebookingStore is the slice of the rebooking repository the service
// needs.
type RebookingStore interface {
	CreateTx(ctx context.Context, tx *sql.Tx, rb *model.Rebooking) error
	CreateAccommodationsBulkTx(ctx context.Context, tx *sql.Tx, items []model.RebookingAccommodation) error
	CreateEntranceFeesBulkTx(ctx context.Context, tx *sql.Tx, items []model.RebookingEntranceFee) error
	GetByID(ctx context.Context, id uint64) (*model.Rebooking, error)
	GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Rebooking, error)
	HasActiveTx(ctx context.Context, tx *sql.Tx, bookingID uint64) (bool, error)
	SetStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string, at time.Time) error
	SetPaymentStatusTx(ctx context.Context, tx *sql.Tx, id uint64, paymentStatus string) error
}

// PaymentStore is the slice of the payment repository the service needs.
type PaymentStore interface {
	CreateTx(ctx context.Context, tx *sql.Tx, p *model.Payment) error
	GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Payment, error)
	DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error
	SumByRebookingTx(ctx context.Context, tx *sql.Tx, rebookingID uint64) (decimal.Decimal, error)
}

// RefundStore is the slice of the refund repository the service needs.
type RefundStore interface {
	CreateTx(ctx context.Context, tx *sql.Tx, rf *model.Refund) error
	GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Refund, error)
	UpdateTx(ctx context.Context, tx *sql.Tx, rf *model.Refund) error
	DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error
	SumByRebookingTx(ctx context.Context, tx *sql.Tx, rebookingID uint64) (decimal.Decimal, error)
}

// AvailabilitySources hands out availability sources, plain for
// validation-only checks and transaction-bound (with row locks) for the
// check-then-write paths.
type AvailabilitySources interface {
	Source() availability.Source
	TxSource(tx *sql.Tx) availability.Source
}

// NumberIssuer assigns the next business identifier for one scope.
// sequence.Generator implements it.
type NumberIssuer interface {
	Next(ctx context.Context, tx *sql.Tx, now time.Time) (string, error)
}

// Publisher sends domain events to the broker.  Publish failures must not
// fail the request; the service logs and continues.
type Publisher interface {
	BookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) error
	RebookingApproved(ctx context.Context, ev queue.RebookingApprovedEvent) error
}

// TxRunner executes fn inside a transaction, committing when fn returns
// nil and rolling back otherwise.
type TxRunner func(ctx context.Context, fn func(tx *sql.Tx) error) error

// SQLTxRunner returns a TxRunner backed by db.BeginTx.
func SQLTxRunner(db *sql.DB) TxRunner {
	return func(ctx context.Context, fn func(tx *sql.Tx) error) error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if err := fn(tx); err != nil {
			_ = tx.Rollback()
			return err
		}
		return tx.Commit()
	}
}

// Deps bundles everything a Service needs.  Publisher and Artifacts may
// be nil, in which case events are not published and no files are
// removed.
type Deps struct {
	Bookings      BookingStore
	Rebookings    RebookingStore
	Payments      PaymentStore
	Refunds       RefundStore
	Sources       AvailabilitySources
	BookingNums   NumberIssuer
	PaymentNums   NumberIssuer
	RebookingNums NumberIssuer
	RefundNums    NumberIssuer
	Publisher     Publisher
	Artifacts     ArtifactStore
	InTx          TxRunner
	Now           func() time.Time
}

// Service implements the booking workflows.  All mutations run inside a
// single transaction supplied by InTx; availability checks on write paths
// use the transaction-bound source so the conflict read and the insert
// are atomic.
type Service struct {
	deps Deps
}

// NewService returns a Service over the given dependencies.  Deps.Now
// defaults to time.Now.
func NewService(deps Deps) *Service {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Service{deps: deps}
}

// AccommodationSelection is one accommodation on a booking or rebooking
// request.  Rate is the line total for the stay, already multiplied by
// nights where applicable.
type AccommodationSelection struct {
	AccommodationID uint64
	GuestCount      uint32
	Rate            decimal.Decimal
}

// EntranceFeeSelection is one entrance-fee line on a request.
type EntranceFeeSelection struct {
	Category string
	Quantity uint32
	UnitFee  decimal.Decimal
}

// CreateBookingInput carries everything needed to create a booking.
// ActorID identifies the staff member recording a walk-in and is supplied
// explicitly by the handler; the service never consults ambient request
// state.
type CreateBookingInput struct {
	Channel             string
	RentalCategory      string
	GuestName           string
	GuestEmail          string
	GuestPhone          string
	UserID              *uint64
	ActorID             *uint64
	CheckIn             time.Time
	CheckOut            *time.Time
	Adults              uint32
	Children            uint32
	Accommodations      []AccommodationSelection
	EntranceFees        []EntranceFeeSelection
	DownPaymentRequired bool
	DownPaymentAmount   *decimal.Decimal
}

func validChannel(c string) bool {
	return c == model.ChannelGuest || c == model.ChannelRegistered || c == model.ChannelWalkIn
}

func validRental(rc string) bool {
	return rc == model.RentalDayTour || rc == model.RentalOvernight
}

// validateDates applies the shared date rules for bookings and
// rebookings: check-in required, overnight rentals need a check-out
// strictly after check-in, day tours carry none.
func validateDates(fe validation.FieldErrors, rentalCategory string, checkIn time.Time, checkOut *time.Time) {
	if checkIn.IsZero() {
		fe.Add("check_in", "check-in date is required")
		return
	}
	switch rentalCategory {
	case model.RentalOvernight:
		if checkOut == nil {
			fe.Add("check_out", "check-out date is required for overnight bookings")
		} else if !checkOut.After(checkIn) {
			fe.Add("check_out", "check-out date must be after the check-in date")
		}
	case model.RentalDayTour:
		if checkOut != nil && !checkOut.Equal(checkIn) {
			fe.Add("check_out", "day-tour bookings do not have a separate check-out date")
		}
	}
}

func validateDownPayment(fe validation.FieldErrors, required bool, amount *decimal.Decimal) {
	if required && amount == nil {
		fe.Add("down_payment_amount", "down-payment amount is required when a down payment is required")
	}
	if !required && amount != nil {
		fe.Add("down_payment_amount", "down-payment amount cannot be set when no down payment is required")
	}
	if amount != nil && !amount.IsPositive() {
		fe.Add("down_payment_amount", "down-payment amount must be greater than zero")
	}
}

func (s *Service) validateCreate(in CreateBookingInput) validation.FieldErrors {
	fe := validation.New()
	if !validChannel(in.Channel) {
		fe.Add("channel", "unknown booking channel")
	}
	if !validRental(in.RentalCategory) {
		fe.Add("rental_category", "unknown rental category")
	}
	validateDates(fe, in.RentalCategory, in.CheckIn, in.CheckOut)
	if in.Adults == 0 {
		fe.Add("adults", "at least one adult is required")
	}
	if len(in.Accommodations) == 0 {
		fe.Add("accommodations", "at least one accommodation is required")
	}
	var lineGuests uint32
	for _, a := range in.Accommodations {
		lineGuests += a.GuestCount
	}
	if len(in.Accommodations) > 0 && lineGuests != in.Adults+in.Children {
		fe.Add("accommodations", "guest counts across accommodations must equal the total of adults and children")
	}
	if in.Channel == model.ChannelWalkIn && in.ActorID == nil {
		fe.Add("created_by", "walk-in bookings require the recording staff member")
	}
	validateDownPayment(fe, in.DownPaymentRequired, in.DownPaymentAmount)
	return fe
}

func sumSelections(accs []AccommodationSelection, fees []EntranceFeeSelection) (accTotal, feeTotal decimal.Decimal) {
	accTotal, feeTotal = decimal.Zero, decimal.Zero
	for _, a := range accs {
		accTotal = accTotal.Add(a.Rate)
	}
	for _, f := range fees {
		feeTotal = feeTotal.Add(f.UnitFee.Mul(decimal.NewFromInt(int64(f.Quantity))))
	}
	return accTotal, feeTotal
}

// CreateBooking validates the request, checks availability and inserts
// the booking with its line items, all inside one transaction.  The
// availability read locks the conflicting rows, so a concurrent creation
// for the same accommodation and range serializes instead of both
// passing the check.  On a conflict the slice of conflicts is returned
// alongside a FieldErrors error carrying one message per accommodation.
func (s *Service) CreateBooking(ctx context.Context, in CreateBookingInput) (*model.Booking, []availability.Conflict, error) {
	if fe := s.validateCreate(in); fe.Any() {
		return nil, nil, fe
	}

	accTotal, feeTotal := sumSelections(in.Accommodations, in.EntranceFees)
	b := &model.Booking{
		Channel:             in.Channel,
		RentalCategory:      in.RentalCategory,
		GuestName:           in.GuestName,
		GuestEmail:          in.GuestEmail,
		GuestPhone:          in.GuestPhone,
		UserID:              in.UserID,
		CheckIn:             in.CheckIn,
		CheckOut:            in.CheckOut,
		Adults:              in.Adults,
		Children:            in.Children,
		AccommodationTotal:  accTotal,
		EntranceFeeTotal:    feeTotal,
		TotalAmount:         accTotal.Add(feeTotal),
		PaidAmount:          decimal.Zero,
		DownPaymentRequired: in.DownPaymentRequired,
		DownPaymentAmount:   in.DownPaymentAmount,
		Status:              model.StatusPending,
	}
	if in.Channel == model.ChannelWalkIn {
		b.CreatedByID = in.ActorID
	}

	accIDs := make([]uint64, 0, len(in.Accommodations))
	for _, a := range in.Accommodations {
		accIDs = append(accIDs, a.AccommodationID)
	}

	var conflicts []availability.Conflict
	err := s.deps.InTx(ctx, func(tx *sql.Tx) error {
		checker := availability.NewChecker(s.deps.Sources.TxSource(tx))
		found, err := checker.Check(ctx, accIDs, in.CheckIn, in.CheckOut, 0)
		if err != nil {
			return err
		}
		if len(found) > 0 {
			conflicts = found
			return conflictErrors(found)
		}

		number, err := s.deps.BookingNums.Next(ctx, tx, s.deps.Now())
		if err != nil {
			return err
		}
		b.BookingNumber = number
		if err := s.deps.Bookings.CreateTx(ctx, tx, b); err != nil {
			return err
		}

		accItems := make([]model.BookingAccommodation, 0, len(in.Accommodations))
		for _, a := range in.Accommodations {
			accItems = append(accItems, model.BookingAccommodation{
				BookingID:       b.ID,
				AccommodationID: a.AccommodationID,
				GuestCount:      a.GuestCount,
				Rate:            a.Rate,
			})
		}
		if err := s.deps.Bookings.CreateAccommodationsBulkTx(ctx, tx, accItems); err != nil {
			return err
		}
		feeItems := make([]model.BookingEntranceFee, 0, len(in.EntranceFees))
		for _, f := range in.EntranceFees {
			feeItems = append(feeItems, model.BookingEntranceFee{
				BookingID: b.ID,
				Category:  f.Category,
				Quantity:  f.Quantity,
				UnitFee:   f.UnitFee,
			})
		}
		return s.deps.Bookings.CreateEntranceFeesBulkTx(ctx, tx, feeItems)
	})
	if err != nil {
		return nil, conflicts, err
	}
	return b, nil, nil
}

// conflictErrors converts availability conflicts into field-scoped
// messages on "accommodations", one per conflicting unit.
func conflictErrors(conflicts []availability.Conflict) validation.FieldErrors {
	fe := validation.New()
	for _, cf := range conflicts {
		fe.Add("accommodations", availability.Message(cf))
	}
	return fe
}

// CheckAvailability runs a read-only availability check, for the public
// validation endpoint and edit forms.  excludeBookingID is nonzero for
// edit flows so a booking does not conflict with itself.
func (s *Service) CheckAvailability(ctx context.Context, accommodationIDs []uint64, checkIn time.Time, checkOut *time.Time, excludeBookingID uint64) ([]availability.Conflict, error) {
	checker := availability.NewChecker(s.deps.Sources.Source())
	return checker.Check(ctx, accommodationIDs, checkIn, checkOut, excludeBookingID)
}

// UpdateStatus moves a booking through the state machine.  Illegal
// transitions come back as field-scoped errors on "status".  Moving to
// confirmed publishes a BookingConfirmedEvent after the transaction
// commits.
func (s *Service) UpdateStatus(ctx context.Context, bookingID uint64, newStatus string) (*model.Booking, error) {
	var updated *model.Booking
	err := s.deps.InTx(ctx, func(tx *sql.Tx) error {
		b, err := s.deps.Bookings.GetByIDTx(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if fe := ValidateTransition(b.Status, newStatus, b.FullyPaid()); fe.Any() {
			return fe
		}
		if b.Status == newStatus {
			updated = b
			return nil
		}
		if err := s.deps.Bookings.UpdateStatusTx(ctx, tx, bookingID, newStatus); err != nil {
			return err
		}
		b.Status = newStatus
		updated = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	if updated.Status == model.StatusConfirmed {
		s.publishBookingConfirmed(ctx, updated)
	}
	return updated, nil
}

func (s *Service) publishBookingConfirmed(ctx context.Context, b *model.Booking) {
	if s.deps.Publisher == nil {
		return
	}
	// Resolve display names for the event payload; best effort.
	full, err := s.deps.Bookings.GetByID(ctx, b.ID)
	if err != nil {
		full = b
	}
	names := make([]string, 0, len(full.Accommodations))
	src := s.deps.Sources.Source()
	for _, it := range full.Accommodations {
		if name, err := src.AccommodationName(ctx, it.AccommodationID); err == nil && name != "" {
			names = append(names, name)
		}
	}
	ev := queue.BookingConfirmedEvent{
		BookingID:      full.ID,
		BookingNumber:  full.BookingNumber,
		Channel:        full.Channel,
		RentalCategory: full.RentalCategory,
		GuestName:      full.GuestName,
		Accommodations: names,
		CheckIn:        full.CheckIn.Format("2006-01-02"),
		TotalGuests:    full.TotalGuests(),
		TotalAmount:    full.TotalAmount.StringFixed(2),
		ConfirmedAt:    s.deps.Now().UTC().Format(time.RFC3339),
	}
	if full.CheckOut != nil {
		ev.CheckOut = full.CheckOut.Format("2006-01-02")
	}
	_ = s.deps.Publisher.BookingConfirmed(ctx, ev)
}

// UpdateBookingInput carries the editable fields of a booking.  Line
// items are not editable in place; date or unit changes go through the
// rebooking workflow instead.
type UpdateBookingInput struct {
	BookingID           uint64
	GuestName           string
	GuestEmail          string
	GuestPhone          string
	CheckIn             time.Time
	CheckOut            *time.Time
	Adults              uint32
	Children            uint32
	DownPaymentRequired bool
	DownPaymentAmount   *decimal.Decimal
}

// UpdateDetails edits a booking's contact, dates, party size and
// down-payment settings, enforcing the update-boundary guards: check-in
// is immutable once the guest has checked in, terminal bookings cannot be
// edited, and a required down payment can never drop below what has
// already been paid.  Date changes re-run the availability check with the
// booking itself excluded, inside the same transaction.
func (s *Service) UpdateDetails(ctx context.Context, in UpdateBookingInput) (*model.Booking, error) {
	var updated *model.Booking
	err := s.deps.InTx(ctx, func(tx *sql.Tx) error {
		b, err := s.deps.Bookings.GetByIDTx(ctx, tx, in.BookingID)
		if err != nil {
			return err
		}
		fe := validation.New()
		switch b.Status {
		case model.StatusCancelled:
			fe.Add("status", "a cancelled booking cannot be edited")
		case model.StatusCheckedOut:
			fe.Add("status", "a checked-out booking cannot be edited")
		}
		datesChanged := !in.CheckIn.Equal(b.CheckIn) || !datePtrEqual(in.CheckOut, b.CheckOut)
		if b.Status == model.StatusCheckedIn && !in.CheckIn.Equal(b.CheckIn) {
			fe.Add("check_in", "check-in date cannot change after the guest has checked in")
		}
		validateDates(fe, b.RentalCategory, in.CheckIn, in.CheckOut)
		validateDownPayment(fe, in.DownPaymentRequired, in.DownPaymentAmount)
		if in.DownPaymentRequired && in.DownPaymentAmount != nil && in.DownPaymentAmount.LessThan(b.PaidAmount) {
			fe.Add("down_payment_amount", "down-payment amount cannot be reduced below the amount already paid")
		}
		if in.Adults == 0 {
			fe.Add("adults", "at least one adult is required")
		}
		if fe.Any() {
			return fe
		}

		if datesChanged {
			accIDs := make([]uint64, 0, len(b.Accommodations))
			full, err := s.deps.Bookings.GetByID(ctx, b.ID)
			if err != nil {
				return err
			}
			for _, it := range full.Accommodations {
				accIDs = append(accIDs, it.AccommodationID)
			}
			checker := availability.NewChecker(s.deps.Sources.TxSource(tx))
			found, err := checker.Check(ctx, accIDs, in.CheckIn, in.CheckOut, b.ID)
			if err != nil {
				return err
			}
			if len(found) > 0 {
				return conflictErrors(found)
			}
		}

		b.GuestName = in.GuestName
		b.GuestEmail = in.GuestEmail
		b.GuestPhone = in.GuestPhone
		b.CheckIn = in.CheckIn
		b.CheckOut = in.CheckOut
		b.Adults = in.Adults
		b.Children = in.Children
		b.DownPaymentRequired = in.DownPaymentRequired
		b.DownPaymentAmount = in.DownPaymentAmount
		if err := s.deps.Bookings.UpdateDetailsTx(ctx, tx, b); err != nil {
			return err
		}
		updated = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func datePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
