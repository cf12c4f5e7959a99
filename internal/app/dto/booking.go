package dto

import (
	"time"

	domainbooking "seabook/internal/domain/booking"
)

// BookingResponse is the wire shape of a booking.
type BookingResponse struct {
	ID            string      `json:"id"`
	State         string      `json:"state"`
	SailingID     string      `json:"sailing_id"`
	CabinType     string      `json:"cabin_type,omitempty"`
	CategoryCode  string      `json:"category_code,omitempty"`
	Guests        []string    `json:"guests"`
	Currency      string      `json:"currency"`
	Total         int64       `json:"total"`
	Lines         []QuoteLine `json:"lines"`
	HoldExpiresAt *time.Time  `json:"hold_expires_at,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

func NewBookingResponse(b *domainbooking.Booking) BookingResponse {
	guests := make([]string, 0, len(b.Guests))
	for _, g := range b.Guests {
		guests = append(guests, string(g))
	}
	lines := make([]QuoteLine, 0, len(b.QuoteLines))
	for _, l := range b.QuoteLines {
		lines = append(lines, QuoteLine{
			Code:        l.Code,
			Description: l.Description,
			Amount:      l.Amount.Amount,
			Currency:    string(l.Amount.Currency),
		})
	}
	resp := BookingResponse{
		ID:           string(b.ID),
		State:        string(b.State),
		SailingID:    b.SailingID,
		CabinType:    string(b.CabinType),
		CategoryCode: b.CabinCategoryCode,
		Guests:       guests,
		Currency:     string(b.Currency),
		Total:        b.QuoteTotal.Amount,
		Lines:        lines,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
	if !b.HoldExpiresAt.IsZero() {
		t := b.HoldExpiresAt
		resp.HoldExpiresAt = &t
	}
	return resp
}
