// Package handler contains the Echo HTTP handlers.  Handlers bind and
// validate request bodies, call the services and map domain errors to
// HTTP statuses: FieldErrors become 422 with the full field map,
// repository sentinels become 404/403/409, anything else is a 500.
package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jomarip/beach-resort-booking/internal/repository"
	"github.com/jomarip/beach-resort-booking/internal/validation"
)

const dateLayout = "2006-01-02"

// getUserID extracts the authenticated user's ID stored by the JWT
// middleware.  JWT numeric claims decode as float64, so both forms are
// accepted.
func getUserID(c echo.Context) (uint64, error) {
	switch v := c.Get("user_id").(type) {
	case uint64:
		return v, nil
	case float64:
		return uint64(v), nil
	case int64:
		return uint64(v), nil
	case string:
		return strconv.ParseUint(v, 10, 64)
	default:
		return 0, fmt.Errorf("no user id in context")
	}
}

// parseID reads a numeric path parameter.
func parseID(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}

// parseDate parses a YYYY-MM-DD calendar date at UTC midnight.
func parseDate(s string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, s, time.UTC)
}

// parseDatePtr parses an optional date field; empty means nil.
func parseDatePtr(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := parseDate(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func fmtDate(t time.Time) string { return t.Format(dateLayout) }

func fmtDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

// writeServiceError translates a service or repository error into the
// HTTP response.  Validation failures carry every violation at once.
func writeServiceError(c echo.Context, err error) error {
	var fe validation.FieldErrors
	if errors.As(err, &fe) {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"errors": fe})
	}
	switch {
	case errors.Is(err, repository.ErrBookingNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	case errors.Is(err, repository.ErrRebookingNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "rebooking not found"})
	case errors.Is(err, repository.ErrPaymentNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "payment not found"})
	case errors.Is(err, repository.ErrRefundNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "refund not found"})
	case errors.Is(err, repository.ErrAccommodationNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "accommodation not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "conflict"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
