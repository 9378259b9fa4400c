package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/jomarip/beach-resort-booking/internal/booking"
	"github.com/jomarip/beach-resort-booking/internal/repository"
)

// RebookingHandler exposes the amendment workflow: propose, approve,
// complete, cancel, plus the financial reconciliation view.
type RebookingHandler struct {
	Svc            *booking.Service
	Rebookings     *repository.RebookingRepo
	Bookings       *repository.BookingRepo
	Accommodations *repository.AccommodationRepo
}

func NewRebookingHandler(svc *booking.Service, rb *repository.RebookingRepo, b *repository.BookingRepo, a *repository.AccommodationRepo) *RebookingHandler {
	return &RebookingHandler{Svc: svc, Rebookings: rb, Bookings: b, Accommodations: a}
}

type createRebookingReq struct {
	CheckIn        string           `json:"check_in" validate:"required"`
	CheckOut       string           `json:"check_out"`
	Adults         uint32           `json:"adults" validate:"required,min=1"`
	Children       uint32           `json:"children"`
	RebookingFee   decimal.Decimal  `json:"rebooking_fee"`
	Accommodations []bookingLineReq `json:"accommodations" validate:"required,min=1,dive"`
	EntranceFees   []entranceFeeReq `json:"entrance_fees" validate:"dive"`
}

func (h *RebookingHandler) create(c echo.Context, bookingID, processorID uint64) error {
	var req createRebookingReq
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

	// Price the proposed line items the same way bookings are priced.
	b, err := h.Bookings.GetByID(c.Request().Context(), bookingID)
	if err != nil {
		return writeServiceError(c, err)
	}
	selections := make([]booking.AccommodationSelection, 0, len(req.Accommodations))
	for _, line := range req.Accommodations {
		a, err := h.Accommodations.GetByID(c.Request().Context(), line.AccommodationID)
		if err != nil {
			return writeServiceError(c, err)
		}
		selections = append(selections, booking.AccommodationSelection{
			AccommodationID: a.ID,
			GuestCount:      line.GuestCount,
			Rate:            lineRate(a, b.RentalCategory, checkIn, checkOut),
		})
	}
	fees := make([]booking.EntranceFeeSelection, 0, len(req.EntranceFees))
	for _, f := range req.EntranceFees {
		fees = append(fees, booking.EntranceFeeSelection{
			Category: f.Category,
			Quantity: f.Quantity,
			UnitFee:  f.UnitFee,
		})
	}

	rb, conflicts, err := h.Svc.CreateRebooking(c.Request().Context(), booking.CreateRebookingInput{
		BookingID:      bookingID,
		ProcessorID:    processorID,
		CheckIn:        checkIn,
		CheckOut:       checkOut,
		Adults:         req.Adults,
		Children:       req.Children,
		RebookingFee:   req.RebookingFee,
		Accommodations: selections,
		EntranceFees:   fees,
	})
	if err != nil {
		if len(conflicts) > 0 {
			return c.JSON(http.StatusConflict, echo.Map{"error": "accommodations unavailable", "conflicts": conflicts})
		}
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, toRebookingResp(rb))
}

// Create handles POST /v1/staff/bookings/:id/rebookings.
func (h *RebookingHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	return h.create(c, bookingID, uid)
}

// RequestMine handles POST /v1/my/bookings/:id/rebookings: a customer
// proposing new dates for their own booking.
func (h *RebookingHandler) RequestMine(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	b, err := h.Bookings.GetByID(c.Request().Context(), bookingID)
	if err != nil {
		return writeServiceError(c, err)
	}
	if b.UserID == nil || *b.UserID != uid {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	}
	return h.create(c, bookingID, uid)
}

// ListByBooking handles GET /v1/staff/bookings/:id/rebookings.
func (h *RebookingHandler) ListByBooking(c echo.Context) error {
	bookingID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	items, err := h.Rebookings.ListByBooking(c.Request().Context(), bookingID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]rebookingResp, 0, len(items))
	for i := range items {
		out = append(out, toRebookingResp(&items[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"rebookings": out})
}

// Get handles GET /v1/staff/rebookings/:id, returning the rebooking with
// its live reconciliation snapshot.
func (h *RebookingHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	rb, rec, err := h.Svc.Reconciliation(c.Request().Context(), id)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"rebooking":      toRebookingResp(rb),
		"reconciliation": toReconciliationResp(rec),
	})
}

// Approve handles POST /v1/staff/rebookings/:id/approve.
func (h *RebookingHandler) Approve(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	rb, err := h.Svc.ApproveRebooking(c.Request().Context(), id)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toRebookingResp(rb))
}

// Complete handles POST /v1/staff/rebookings/:id/complete.
func (h *RebookingHandler) Complete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	rb, err := h.Svc.CompleteRebooking(c.Request().Context(), id)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toRebookingResp(rb))
}

// Cancel handles POST /v1/staff/rebookings/:id/cancel.
func (h *RebookingHandler) Cancel(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	rb, err := h.Svc.CancelRebooking(c.Request().Context(), id)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toRebookingResp(rb))
}
