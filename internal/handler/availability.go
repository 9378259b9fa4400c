package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jomarip/beach-resort-booking/internal/availability"
	"github.com/jomarip/beach-resort-booking/internal/booking"
)

// AvailabilityHandler exposes the read-only availability check used by
// the public booking form and staff edit screens.
type AvailabilityHandler struct {
	Svc *booking.Service
}

func NewAvailabilityHandler(svc *booking.Service) *AvailabilityHandler {
	return &AvailabilityHandler{Svc: svc}
}

type availabilityReq struct {
	AccommodationIDs []uint64 `json:"accommodation_ids" validate:"required,min=1"`
	CheckIn          string   `json:"check_in" validate:"required"`
	CheckOut         string   `json:"check_out"`
	ExcludeBookingID uint64   `json:"exclude_booking_id"`
}

// Check handles POST /v1/availability/check.  ExcludeBookingID lets edit
// flows ignore the booking being edited.
func (h *AvailabilityHandler) Check(c echo.Context) error {
	var req availabilityReq
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

	conflicts, err := h.Svc.CheckAvailability(c.Request().Context(), req.AccommodationIDs, checkIn, checkOut, req.ExcludeBookingID)
	if err != nil {
		return writeServiceError(c, err)
	}

	messages := make([]string, 0, len(conflicts))
	for _, cf := range conflicts {
		messages = append(messages, availability.Message(cf))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"available": len(conflicts) == 0,
		"conflicts": conflicts,
		"messages":  messages,
	})
}
