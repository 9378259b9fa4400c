package handler

import (
	"time"

	"github.com/jomarip/beach-resort-booking/internal/finance"
	"github.com/jomarip/beach-resort-booking/internal/model"
)

// Response DTOs.  Money renders as fixed two-decimal strings and dates as
// YYYY-MM-DD so clients never see float rounding or timestamps on
// calendar dates.

type accommodationResp struct {
	ID            uint64 `json:"id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	Capacity      uint32 `json:"capacity"`
	DayRate       string `json:"day_rate"`
	OvernightRate string `json:"overnight_rate"`
	IsActive      bool   `json:"is_active"`
}

func toAccommodationResp(a *model.Accommodation) accommodationResp {
	return accommodationResp{
		ID:            a.ID,
		Name:          a.Name,
		Type:          a.Type,
		Capacity:      a.Capacity,
		DayRate:       a.DayRate.StringFixed(2),
		OvernightRate: a.OvernightRate.StringFixed(2),
		IsActive:      a.IsActive,
	}
}

type bookingLineResp struct {
	AccommodationID uint64 `json:"accommodation_id"`
	GuestCount      uint32 `json:"guest_count"`
	Rate            string `json:"rate"`
}

type entranceFeeResp struct {
	Category string `json:"category"`
	Quantity uint32 `json:"quantity"`
	UnitFee  string `json:"unit_fee"`
}

type bookingResp struct {
	ID                  uint64            `json:"id"`
	BookingNumber       string            `json:"booking_number"`
	Channel             string            `json:"channel"`
	RentalCategory      string            `json:"rental_category"`
	GuestName           string            `json:"guest_name"`
	GuestEmail          string            `json:"guest_email,omitempty"`
	GuestPhone          string            `json:"guest_phone,omitempty"`
	UserID              *uint64           `json:"user_id,omitempty"`
	CreatedByID         *uint64           `json:"created_by_id,omitempty"`
	CheckIn             string            `json:"check_in"`
	CheckOut            *string           `json:"check_out,omitempty"`
	Adults              uint32            `json:"adults"`
	Children            uint32            `json:"children"`
	TotalGuests         uint32            `json:"total_guests"`
	AccommodationTotal  string            `json:"accommodation_total"`
	EntranceFeeTotal    string            `json:"entrance_fee_total"`
	TotalAmount         string            `json:"total_amount"`
	PaidAmount          string            `json:"paid_amount"`
	Balance             string            `json:"balance"`
	FullyPaid           bool              `json:"fully_paid"`
	DownPaymentRequired bool              `json:"down_payment_required"`
	DownPaymentAmount   *string           `json:"down_payment_amount,omitempty"`
	Status              string            `json:"status"`
	Accommodations      []bookingLineResp `json:"accommodations,omitempty"`
	EntranceFees        []entranceFeeResp `json:"entrance_fees,omitempty"`
	CreatedAt           time.Time         `json:"created_at"`
}

func toBookingResp(b *model.Booking) bookingResp {
	resp := bookingResp{
		ID:                  b.ID,
		BookingNumber:       b.BookingNumber,
		Channel:             b.Channel,
		RentalCategory:      b.RentalCategory,
		GuestName:           b.GuestName,
		GuestEmail:          b.GuestEmail,
		GuestPhone:          b.GuestPhone,
		UserID:              b.UserID,
		CreatedByID:         b.CreatedByID,
		CheckIn:             fmtDate(b.CheckIn),
		CheckOut:            fmtDatePtr(b.CheckOut),
		Adults:              b.Adults,
		Children:            b.Children,
		TotalGuests:         b.TotalGuests(),
		AccommodationTotal:  b.AccommodationTotal.StringFixed(2),
		EntranceFeeTotal:    b.EntranceFeeTotal.StringFixed(2),
		TotalAmount:         b.TotalAmount.StringFixed(2),
		PaidAmount:          b.PaidAmount.StringFixed(2),
		Balance:             b.Balance().StringFixed(2),
		FullyPaid:           b.FullyPaid(),
		DownPaymentRequired: b.DownPaymentRequired,
		Status:              b.Status,
		CreatedAt:           b.CreatedAt,
	}
	if b.DownPaymentAmount != nil {
		s := b.DownPaymentAmount.StringFixed(2)
		resp.DownPaymentAmount = &s
	}
	for _, it := range b.Accommodations {
		resp.Accommodations = append(resp.Accommodations, bookingLineResp{
			AccommodationID: it.AccommodationID,
			GuestCount:      it.GuestCount,
			Rate:            it.Rate.StringFixed(2),
		})
	}
	for _, f := range b.EntranceFees {
		resp.EntranceFees = append(resp.EntranceFees, entranceFeeResp{
			Category: f.Category,
			Quantity: f.Quantity,
			UnitFee:  f.UnitFee.StringFixed(2),
		})
	}
	return resp
}

type rebookingResp struct {
	ID              uint64            `json:"id"`
	RebookingNumber string            `json:"rebooking_number"`
	BookingID       uint64            `json:"booking_id"`
	ProcessedByID   uint64            `json:"processed_by_id"`
	CheckIn         string            `json:"check_in"`
	CheckOut        *string           `json:"check_out,omitempty"`
	Adults          uint32            `json:"adults"`
	Children        uint32            `json:"children"`
	OriginalAmount  string            `json:"original_amount"`
	NewAmount       string            `json:"new_amount"`
	RebookingFee    string            `json:"rebooking_fee"`
	TotalAdjustment string            `json:"total_adjustment"`
	Status          string            `json:"status"`
	PaymentStatus   string            `json:"payment_status"`
	ApprovedAt      *time.Time        `json:"approved_at,omitempty"`
	CompletedAt     *time.Time        `json:"completed_at,omitempty"`
	Accommodations  []bookingLineResp `json:"accommodations,omitempty"`
	EntranceFees    []entranceFeeResp `json:"entrance_fees,omitempty"`
}

func toRebookingResp(rb *model.Rebooking) rebookingResp {
	resp := rebookingResp{
		ID:              rb.ID,
		RebookingNumber: rb.RebookingNumber,
		BookingID:       rb.BookingID,
		ProcessedByID:   rb.ProcessedByID,
		CheckIn:         fmtDate(rb.CheckIn),
		CheckOut:        fmtDatePtr(rb.CheckOut),
		Adults:          rb.Adults,
		Children:        rb.Children,
		OriginalAmount:  rb.OriginalAmount.StringFixed(2),
		NewAmount:       rb.NewAmount.StringFixed(2),
		RebookingFee:    rb.RebookingFee.StringFixed(2),
		TotalAdjustment: rb.TotalAdjustment().StringFixed(2),
		Status:          rb.Status,
		PaymentStatus:   rb.PaymentStatus,
		ApprovedAt:      rb.ApprovedAt,
		CompletedAt:     rb.CompletedAt,
	}
	for _, it := range rb.Accommodations {
		resp.Accommodations = append(resp.Accommodations, bookingLineResp{
			AccommodationID: it.AccommodationID,
			GuestCount:      it.GuestCount,
			Rate:            it.Rate.StringFixed(2),
		})
	}
	for _, f := range rb.EntranceFees {
		resp.EntranceFees = append(resp.EntranceFees, entranceFeeResp{
			Category: f.Category,
			Quantity: f.Quantity,
			UnitFee:  f.UnitFee.StringFixed(2),
		})
	}
	return resp
}

type reconciliationResp struct {
	OriginalAmount      string `json:"original_amount"`
	NewAmount           string `json:"new_amount"`
	AmountDifference    string `json:"amount_difference"`
	RebookingFee        string `json:"rebooking_fee"`
	TotalAdjustment     string `json:"total_adjustment"`
	Paid                string `json:"paid"`
	Refunded            string `json:"refunded"`
	RemainingPaymentDue string `json:"remaining_payment_due"`
	RemainingRefundDue  string `json:"remaining_refund_due"`
	PaymentComplete     bool   `json:"payment_complete"`
}

func toReconciliationResp(rec finance.Reconciliation) reconciliationResp {
	return reconciliationResp{
		OriginalAmount:      rec.OriginalAmount.StringFixed(2),
		NewAmount:           rec.NewAmount.StringFixed(2),
		AmountDifference:    rec.NewAmount.Sub(rec.OriginalAmount).StringFixed(2),
		RebookingFee:        rec.RebookingFee.StringFixed(2),
		TotalAdjustment:     rec.TotalAdjustment().StringFixed(2),
		Paid:                rec.Paid.StringFixed(2),
		Refunded:            rec.Refunded.StringFixed(2),
		RemainingPaymentDue: rec.RemainingPaymentDue().StringFixed(2),
		RemainingRefundDue:  rec.RemainingRefundDue().StringFixed(2),
		PaymentComplete:     rec.PaymentComplete(),
	}
}

type paymentResp struct {
	ID             uint64    `json:"id"`
	PaymentNumber  string    `json:"payment_number"`
	BookingID      uint64    `json:"booking_id"`
	RebookingID    *uint64   `json:"rebooking_id,omitempty"`
	Amount         string    `json:"amount"`
	Method         string    `json:"method"`
	ReferenceImage *string   `json:"reference_image,omitempty"`
	ReceivedByID   uint64    `json:"received_by_id"`
	CreatedAt      time.Time `json:"created_at"`
}

func toPaymentResp(p *model.Payment) paymentResp {
	return paymentResp{
		ID:             p.ID,
		PaymentNumber:  p.PaymentNumber,
		BookingID:      p.BookingID,
		RebookingID:    p.RebookingID,
		Amount:         p.Amount.StringFixed(2),
		Method:         p.Method,
		ReferenceImage: p.ReferenceImage,
		ReceivedByID:   p.ReceivedByID,
		CreatedAt:      p.CreatedAt,
	}
}

type refundResp struct {
	ID            uint64    `json:"id"`
	RefundNumber  string    `json:"refund_number"`
	PaymentID     uint64    `json:"payment_id"`
	RebookingID   *uint64   `json:"rebooking_id,omitempty"`
	Amount        string    `json:"amount"`
	Reason        string    `json:"reason,omitempty"`
	ProcessedByID uint64    `json:"processed_by_id"`
	CreatedAt     time.Time `json:"created_at"`
}

func toRefundResp(rf *model.Refund) refundResp {
	return refundResp{
		ID:            rf.ID,
		RefundNumber:  rf.RefundNumber,
		PaymentID:     rf.PaymentID,
		RebookingID:   rf.RebookingID,
		Amount:        rf.Amount.StringFixed(2),
		Reason:        rf.Reason,
		ProcessedByID: rf.ProcessedByID,
		CreatedAt:     rf.CreatedAt,
	}
}
