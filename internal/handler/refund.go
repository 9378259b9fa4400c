package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/jomarip/beach-resort-booking/internal/booking"
)

// RefundHandler records, corrects and removes refunds.
type RefundHandler struct {
	Svc *booking.Service
}

func NewRefundHandler(svc *booking.Service) *RefundHandler {
	return &RefundHandler{Svc: svc}
}

type createRefundReq struct {
	RebookingID *uint64         `json:"rebooking_id"`
	Amount      decimal.Decimal `json:"amount"`
	Reason      string          `json:"reason"`
}

// Create handles POST /v1/staff/payments/:id/refunds.
func (h *RefundHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	paymentID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req createRefundReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	rf, err := h.Svc.CreateRefund(c.Request().Context(), booking.CreateRefundInput{
		PaymentID:     paymentID,
		RebookingID:   req.RebookingID,
		Amount:        req.Amount,
		Reason:        req.Reason,
		ProcessedByID: uid,
	})
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, toRefundResp(rf))
}

type updateRefundReq struct {
	Amount decimal.Decimal `json:"amount"`
	Reason string          `json:"reason"`
}

// Update handles PUT /v1/staff/refunds/:id.
func (h *RefundHandler) Update(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req updateRefundReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	rf, err := h.Svc.UpdateRefund(c.Request().Context(), id, req.Amount, req.Reason)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toRefundResp(rf))
}

// Delete handles DELETE /v1/staff/refunds/:id.
func (h *RefundHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Svc.DeleteRefund(c.Request().Context(), id); err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
