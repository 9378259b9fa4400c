package handler

import (
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/jomarip/beach-resort-booking/internal/booking"
	"github.com/jomarip/beach-resort-booking/internal/repository"
)

// PaymentHandler records and removes payments.  Requests arrive as
// multipart forms so a proof image (deposit slip, e-wallet screenshot)
// can ride along; the image is stored under UploadDir with a generated
// filename before the ledger write, and cleaned up if that write fails.
type PaymentHandler struct {
	Svc       *booking.Service
	Payments  *repository.PaymentRepo
	UploadDir string
}

func NewPaymentHandler(svc *booking.Service, p *repository.PaymentRepo, uploadDir string) *PaymentHandler {
	return &PaymentHandler{Svc: svc, Payments: p, UploadDir: uploadDir}
}

// Create handles POST /v1/staff/bookings/:id/payments (multipart form:
// amount, method, optional rebooking_id, optional reference_image file).
func (h *PaymentHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(c.FormValue("amount")))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid amount"})
	}
	method := strings.TrimSpace(c.FormValue("method"))

	var rebookingID *uint64
	if raw := strings.TrimSpace(c.FormValue("rebooking_id")); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid rebooking_id"})
		}
		rebookingID = &id
	}

	var stored *string
	if fh, err := c.FormFile("reference_image"); err == nil {
		name, err := h.saveUpload(fh)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not store reference image"})
		}
		stored = &name
	}

	p, err := h.Svc.CreatePayment(c.Request().Context(), booking.CreatePaymentInput{
		BookingID:      bookingID,
		RebookingID:    rebookingID,
		Amount:         amount,
		Method:         method,
		ReferenceImage: stored,
		ReceivedByID:   uid,
	})
	if err != nil {
		if stored != nil {
			_ = os.Remove(filepath.Join(h.UploadDir, *stored))
		}
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, toPaymentResp(p))
}

// saveUpload writes the uploaded file under UploadDir with a generated
// name, keeping only the original extension.
func (h *PaymentHandler) saveUpload(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	if err := os.MkdirAll(h.UploadDir, 0o755); err != nil {
		return "", err
	}
	name := uuid.New().String() + strings.ToLower(filepath.Ext(fh.Filename))
	dst, err := os.Create(filepath.Join(h.UploadDir, name))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}
	return name, nil
}

// ListByBooking handles GET /v1/staff/bookings/:id/payments.
func (h *PaymentHandler) ListByBooking(c echo.Context) error {
	bookingID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	items, err := h.Payments.ListByBooking(c.Request().Context(), bookingID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]paymentResp, 0, len(items))
	for i := range items {
		out = append(out, toPaymentResp(&items[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"payments": out})
}

// Delete handles DELETE /v1/staff/payments/:id.  The service removes the
// stored reference image after the transaction commits.
func (h *PaymentHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Svc.DeletePayment(c.Request().Context(), id); err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
