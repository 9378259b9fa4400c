package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/jomarip/beach-resort-booking/internal/booking"
	"github.com/jomarip/beach-resort-booking/internal/model"
	"github.com/jomarip/beach-resort-booking/internal/repository"
	"github.com/jomarip/beach-resort-booking/internal/validation"
)

// BookingHandler exposes booking creation, listing and lifecycle
// endpoints.  Line-item rates are priced here from the accommodation
// catalogue (day rate, or overnight rate times nights) and recorded on
// the booking, so later rate changes never reprice existing bookings.
type BookingHandler struct {
	Svc            *booking.Service
	Bookings       *repository.BookingRepo
	Accommodations *repository.AccommodationRepo
}

func NewBookingHandler(svc *booking.Service, b *repository.BookingRepo, a *repository.AccommodationRepo) *BookingHandler {
	return &BookingHandler{Svc: svc, Bookings: b, Accommodations: a}
}

type bookingLineReq struct {
	AccommodationID uint64 `json:"accommodation_id" validate:"required"`
	GuestCount      uint32 `json:"guest_count" validate:"required,min=1"`
}

type entranceFeeReq struct {
	Category string          `json:"category" validate:"required,oneof=adult child"`
	Quantity uint32          `json:"quantity" validate:"required,min=1"`
	UnitFee  decimal.Decimal `json:"unit_fee"`
}

type createBookingReq struct {
	RentalCategory      string           `json:"rental_category" validate:"required,oneof=day_tour overnight"`
	GuestName           string           `json:"guest_name" validate:"required"`
	GuestEmail          string           `json:"guest_email" validate:"omitempty,email"`
	GuestPhone          string           `json:"guest_phone"`
	CheckIn             string           `json:"check_in" validate:"required"`
	CheckOut            string           `json:"check_out"`
	Adults              uint32           `json:"adults" validate:"required,min=1"`
	Children            uint32           `json:"children"`
	Accommodations      []bookingLineReq `json:"accommodations" validate:"required,min=1,dive"`
	EntranceFees        []entranceFeeReq `json:"entrance_fees" validate:"dive"`
	DownPaymentRequired bool             `json:"down_payment_required"`
	DownPaymentAmount   *decimal.Decimal `json:"down_payment_amount"`
}

// buildCreateInput prices the requested line items and assembles the
// service input.  Capacity overruns and unknown units are collected as
// field errors alongside whatever the service finds later.
func (h *BookingHandler) buildCreateInput(c echo.Context, req createBookingReq, channel string, userID, actorID *uint64) (booking.CreateBookingInput, error) {
	checkIn, err := parseDate(req.CheckIn)
	if err != nil {
		return booking.CreateBookingInput{}, echo.NewHTTPError(http.StatusBadRequest, "invalid check_in date")
	}
	checkOut, err := parseDatePtr(req.CheckOut)
	if err != nil {
		return booking.CreateBookingInput{}, echo.NewHTTPError(http.StatusBadRequest, "invalid check_out date")
	}

	fe := validation.New()
	selections := make([]booking.AccommodationSelection, 0, len(req.Accommodations))
	for _, line := range req.Accommodations {
		a, err := h.Accommodations.GetByID(c.Request().Context(), line.AccommodationID)
		if err != nil {
			if err == repository.ErrAccommodationNotFound {
				fe.Add("accommodations", "unknown accommodation")
				continue
			}
			return booking.CreateBookingInput{}, err
		}
		if !a.IsActive {
			fe.Add("accommodations", a.Name+" is not currently offered")
			continue
		}
		if line.GuestCount > a.Capacity {
			fe.Add("accommodations", a.Name+" cannot hold the requested number of guests")
		}
		selections = append(selections, booking.AccommodationSelection{
			AccommodationID: a.ID,
			GuestCount:      line.GuestCount,
			Rate:            lineRate(a, req.RentalCategory, checkIn, checkOut),
		})
	}
	if fe.Any() {
		return booking.CreateBookingInput{}, fe
	}

	fees := make([]booking.EntranceFeeSelection, 0, len(req.EntranceFees))
	for _, f := range req.EntranceFees {
		fees = append(fees, booking.EntranceFeeSelection{
			Category: f.Category,
			Quantity: f.Quantity,
			UnitFee:  f.UnitFee,
		})
	}

	return booking.CreateBookingInput{
		Channel:             channel,
		RentalCategory:      req.RentalCategory,
		GuestName:           req.GuestName,
		GuestEmail:          req.GuestEmail,
		GuestPhone:          req.GuestPhone,
		UserID:              userID,
		ActorID:             actorID,
		CheckIn:             checkIn,
		CheckOut:            checkOut,
		Adults:              req.Adults,
		Children:            req.Children,
		Accommodations:      selections,
		EntranceFees:        fees,
		DownPaymentRequired: req.DownPaymentRequired,
		DownPaymentAmount:   req.DownPaymentAmount,
	}, nil
}

// lineRate prices one unit for the stay: the day rate for day tours, the
// overnight rate times the number of nights otherwise.
func lineRate(a *model.Accommodation, rentalCategory string, checkIn time.Time, checkOut *time.Time) decimal.Decimal {
	if rentalCategory == model.RentalDayTour || checkOut == nil {
		return a.DayRate
	}
	nights := int64(checkOut.Sub(checkIn).Hours() / 24)
	if nights < 1 {
		nights = 1
	}
	return a.OvernightRate.Mul(decimal.NewFromInt(nights))
}

func (h *BookingHandler) create(c echo.Context, channel string, userID, actorID *uint64) error {
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	in, err := h.buildCreateInput(c, req, channel, userID, actorID)
	if err != nil {
		if he, ok := err.(*echo.HTTPError); ok {
			return he
		}
		return writeServiceError(c, err)
	}
	b, conflicts, err := h.Svc.CreateBooking(c.Request().Context(), in)
	if err != nil {
		if len(conflicts) > 0 {
			return c.JSON(http.StatusConflict, echo.Map{"error": "accommodations unavailable", "conflicts": conflicts})
		}
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, toBookingResp(b))
}

// CreateGuest handles POST /v1/bookings: the unauthenticated public form.
func (h *BookingHandler) CreateGuest(c echo.Context) error {
	return h.create(c, model.ChannelGuest, nil, nil)
}

// CreateMine handles POST /v1/my/bookings for signed-in customers.
func (h *BookingHandler) CreateMine(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return h.create(c, model.ChannelRegistered, &uid, nil)
}

// CreateWalkIn handles POST /v1/staff/bookings: a staff member recording
// a front-desk booking.  The acting staff member is taken from the token
// and passed to the service explicitly.
func (h *BookingHandler) CreateWalkIn(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return h.create(c, model.ChannelWalkIn, nil, &uid)
}

// List handles GET /v1/staff/bookings with an optional ?status= filter.
func (h *BookingHandler) List(c echo.Context) error {
	items, err := h.Bookings.List(c.Request().Context(), c.QueryParam("status"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]bookingResp, 0, len(items))
	for i := range items {
		out = append(out, toBookingResp(&items[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": out})
}

// ListMine handles GET /v1/my/bookings.
func (h *BookingHandler) ListMine(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Bookings.ListByUser(c.Request().Context(), uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]bookingResp, 0, len(items))
	for i := range items {
		out = append(out, toBookingResp(&items[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": out})
}

// Get handles GET /v1/staff/bookings/:id.
func (h *BookingHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	b, err := h.Bookings.GetByID(c.Request().Context(), id)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toBookingResp(b))
}

// GetMine handles GET /v1/my/bookings/:id; customers can only read their
// own bookings.
func (h *BookingHandler) GetMine(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	b, err := h.Bookings.GetByID(c.Request().Context(), id)
	if err != nil {
		return writeServiceError(c, err)
	}
	if b.UserID == nil || *b.UserID != uid {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	}
	return c.JSON(http.StatusOK, toBookingResp(b))
}

type updateStatusReq struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed checked_in checked_out cancelled"`
}

// UpdateStatus handles PATCH /v1/staff/bookings/:id/status, moving a
// booking through its lifecycle.
func (h *BookingHandler) UpdateStatus(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req updateStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	b, err := h.Svc.UpdateStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toBookingResp(b))
}

type updateBookingReq struct {
	GuestName           string           `json:"guest_name" validate:"required"`
	GuestEmail          string           `json:"guest_email" validate:"omitempty,email"`
	GuestPhone          string           `json:"guest_phone"`
	CheckIn             string           `json:"check_in" validate:"required"`
	CheckOut            string           `json:"check_out"`
	Adults              uint32           `json:"adults" validate:"required,min=1"`
	Children            uint32           `json:"children"`
	DownPaymentRequired bool             `json:"down_payment_required"`
	DownPaymentAmount   *decimal.Decimal `json:"down_payment_amount"`
}

// Update handles PUT /v1/staff/bookings/:id.  Line items are not editable
// here; date or unit changes go through the rebooking workflow.
func (h *BookingHandler) Update(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req updateBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	checkIn, err := parseDate(req.CheckIn)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid check_in date"})
	}
	checkOut, err := parseDatePtr(req.CheckOut)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid check_out date"})
	}
	b, err := h.Svc.UpdateDetails(c.Request().Context(), booking.UpdateBookingInput{
		BookingID:           id,
		GuestName:           req.GuestName,
		GuestEmail:          req.GuestEmail,
		GuestPhone:          req.GuestPhone,
		CheckIn:             checkIn,
		CheckOut:            checkOut,
		Adults:              req.Adults,
		Children:            req.Children,
		DownPaymentRequired: req.DownPaymentRequired,
		DownPaymentAmount:   req.DownPaymentAmount,
	})
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toBookingResp(b))
}
