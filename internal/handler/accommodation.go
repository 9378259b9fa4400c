package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/jomarip/beach-resort-booking/internal/model"
	"github.com/jomarip/beach-resort-booking/internal/repository"
)

// AccommodationHandler manages the resort's rentable units.  Listing is
// public (and cached); mutations are admin-only.
type AccommodationHandler struct {
	Repo *repository.AccommodationRepo
}

func NewAccommodationHandler(r *repository.AccommodationRepo) *AccommodationHandler {
	return &AccommodationHandler{Repo: r}
}

type accommodationReq struct {
	Name          string          `json:"name" validate:"required"`
	Type          string          `json:"type" validate:"required,oneof=COTTAGE ROOM HALL"`
	Capacity      uint32          `json:"capacity" validate:"required,min=1"`
	DayRate       decimal.Decimal `json:"day_rate"`
	OvernightRate decimal.Decimal `json:"overnight_rate"`
	IsActive      *bool           `json:"is_active"`
}

// List handles GET /v1/accommodations.  ?all=true includes inactive
// units (staff screens); the public listing shows active units only.
func (h *AccommodationHandler) List(c echo.Context) error {
	activeOnly := c.QueryParam("all") != "true"
	items, err := h.Repo.List(c.Request().Context(), activeOnly)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]accommodationResp, 0, len(items))
	for i := range items {
		out = append(out, toAccommodationResp(&items[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"accommodations": out})
}

// Get handles GET /v1/accommodations/:id.
func (h *AccommodationHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	a, err := h.Repo.GetByID(c.Request().Context(), id)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toAccommodationResp(a))
}

// Create handles POST /v1/accommodations (admin).
func (h *AccommodationHandler) Create(c echo.Context) error {
	var req accommodationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if req.DayRate.IsNegative() || req.OvernightRate.IsNegative() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rates cannot be negative"})
	}
	a := &model.Accommodation{
		Name:          strings.TrimSpace(req.Name),
		Type:          req.Type,
		Capacity:      req.Capacity,
		DayRate:       req.DayRate,
		OvernightRate: req.OvernightRate,
		IsActive:      true,
	}
	if req.IsActive != nil {
		a.IsActive = *req.IsActive
	}
	if err := h.Repo.Create(c.Request().Context(), a); err != nil {
		if strings.Contains(err.Error(), "1062") {
			return c.JSON(http.StatusConflict, echo.Map{"error": "accommodation name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create accommodation"})
	}
	return c.JSON(http.StatusCreated, toAccommodationResp(a))
}

// Update handles PUT /v1/accommodations/:id (admin).  Rate changes only
// affect future bookings; existing line items keep their recorded rate.
func (h *AccommodationHandler) Update(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req accommodationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if req.DayRate.IsNegative() || req.OvernightRate.IsNegative() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rates cannot be negative"})
	}
	a, err := h.Repo.GetByID(c.Request().Context(), id)
	if err != nil {
		return writeServiceError(c, err)
	}
	a.Name = strings.TrimSpace(req.Name)
	a.Type = req.Type
	a.Capacity = req.Capacity
	a.DayRate = req.DayRate
	a.OvernightRate = req.OvernightRate
	if req.IsActive != nil {
		a.IsActive = *req.IsActive
	}
	if err := h.Repo.Update(c.Request().Context(), a); err != nil {
		if strings.Contains(err.Error(), "1062") {
			return c.JSON(http.StatusConflict, echo.Map{"error": "accommodation name already exists"})
		}
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toAccommodationResp(a))
}

// Delete handles DELETE /v1/accommodations/:id (admin).  Units referenced
// by active bookings cannot be removed; deactivate them instead.
func (h *AccommodationHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Repo.Delete(c.Request().Context(), id); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "accommodation has active bookings"})
		}
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
