package booking

import (
	"context"
	"errors"
	"time"

	"seabook/internal/domain/pricing"
	"seabook/internal/domain/shared/events"
	"seabook/internal/domain/shared/money"
)

var (
	ErrInvalidGuests   = errors.New("booking: at least one guest is required")
	ErrInvalidState    = errors.New("booking: invalid state transition")
	ErrHoldExpired     = errors.New("booking: hold expired")
	ErrBookingNotFound = errors.New("booking: not found")
)

type BookingID string

type BookingState string

const (
	StateHeld      BookingState = "held"
	StateConfirmed BookingState = "confirmed"
	StateCancelled BookingState = "cancelled"
)

// Hold durations are clamped to keep inventory from being parked
// indefinitely by a single request.
const (
	MinHoldMinutes = 1
	MaxHoldMinutes = 60
)

// ClampHoldMinutes bounds a requested hold duration to [1, 60] minutes.
func ClampHoldMinutes(minutes int) int {
	if minutes < MinHoldMinutes {
		return MinHoldMinutes
	}
	if minutes > MaxHoldMinutes {
		return MaxHoldMinutes
	}
	return minutes
}

// Booking is one reserved unit of cabin inventory together with the quote it
// was priced at. It is created in state held and terminates in confirmed or
// cancelled.
type Booking struct {
	ID                BookingID
	TenantID          string
	State             BookingState
	SailingID         string
	CabinType         pricing.CabinType
	CabinCategoryCode string
	Guests            pricing.GuestManifest
	Currency          money.Currency
	QuoteTotal        money.Money
	QuoteLines        []pricing.QuoteLine
	HoldExpiresAt     time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
	Version           int64
	events.EventRecorder
}

// Repository persists bookings per tenant.
type Repository interface {
	ByID(ctx context.Context, tenantID string, id BookingID) (*Booking, error)
	Save(ctx context.Context, b *Booking) error
	// ListExpiredHeld returns this tenant's held bookings whose hold has
	// lapsed at the given instant; used by the lazy expiry sweep.
	ListExpiredHeld(ctx context.Context, tenantID string, now time.Time) ([]*Booking, error)
}

type CreateParams struct {
	ID                BookingID
	TenantID          string
	SailingID         string
	CabinType         pricing.CabinType
	CabinCategoryCode string
	Guests            pricing.GuestManifest
	Quote             pricing.Quote
	HoldMinutes       int
	Now               time.Time
}

// NewHeldBooking validates and creates a booking in state held, with
// hold_expires_at set from the clamped requested duration.
func NewHeldBooking(params CreateParams) (*Booking, error) {
	if params.Guests.Count() == 0 {
		return nil, ErrInvalidGuests
	}
	if params.ID == "" {
		return nil, errors.New("booking: id required")
	}
	if params.SailingID == "" {
		return nil, errors.New("booking: sailing id required")
	}
	now := params.Now.UTC()
	expires := now.Add(time.Duration(ClampHoldMinutes(params.HoldMinutes)) * time.Minute)

	b := &Booking{
		ID:                params.ID,
		TenantID:          params.TenantID,
		State:             StateHeld,
		SailingID:         params.SailingID,
		CabinType:         params.CabinType,
		CabinCategoryCode: pricing.NormalizeCategoryCode(params.CabinCategoryCode),
		Guests:            append(pricing.GuestManifest(nil), params.Guests...),
		Currency:          params.Quote.Currency,
		QuoteTotal:        params.Quote.Total,
		QuoteLines:        append([]pricing.QuoteLine(nil), params.Quote.Lines...),
		HoldExpiresAt:     expires,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	b.Record(BookingHeld{
		BookingID:     b.ID,
		TenantID:      b.TenantID,
		SailingID:     b.SailingID,
		HoldExpiresAt: b.HoldExpiresAt,
		Total:         b.QuoteTotal,
		At:            now,
	})
	return b, nil
}

// HoldLapsed reports whether the hold window has passed.
func (b *Booking) HoldLapsed(now time.Time) bool {
	return b.State == StateHeld && !b.HoldExpiresAt.IsZero() && b.HoldExpiresAt.Before(now)
}

// Confirm moves a live hold to the terminal confirmed state. A lapsed hold
// is cancelled instead and ErrHoldExpired is returned so the caller can
// release the inventory unit.
func (b *Booking) Confirm(now time.Time) error {
	if b.State != StateHeld {
		return ErrInvalidState
	}
	if b.HoldLapsed(now) {
		b.cancel(now, "hold expired")
		return ErrHoldExpired
	}
	b.State = StateConfirmed
	b.HoldExpiresAt = time.Time{}
	b.UpdatedAt = now.UTC()
	b.Record(BookingConfirmed{BookingID: b.ID, TenantID: b.TenantID, SailingID: b.SailingID, Total: b.QuoteTotal, At: b.UpdatedAt})
	return nil
}

// Cancel moves a hold to the terminal cancelled state.
func (b *Booking) Cancel(reason string, now time.Time) error {
	if b.State != StateHeld {
		return ErrInvalidState
	}
	b.cancel(now, reason)
	return nil
}

func (b *Booking) cancel(now time.Time, reason string) {
	b.State = StateCancelled
	b.UpdatedAt = now.UTC()
	b.Record(BookingCancelled{BookingID: b.ID, TenantID: b.TenantID, SailingID: b.SailingID, Reason: reason, At: b.UpdatedAt})
}

// InventoryBucket is the bucket component this booking occupies: the cabin
// category code when one was priced, the cabin type otherwise.
func (b *Booking) InventoryBucket() string {
	if b.CabinCategoryCode != "" {
		return b.CabinCategoryCode
	}
	return string(b.CabinType)
}
