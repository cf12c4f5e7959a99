package booking

import (
	"time"

	"seabook/internal/domain/shared/money"
)

type BookingHeld struct {
	BookingID     BookingID
	TenantID      string
	SailingID     string
	HoldExpiresAt time.Time
	Total         money.Money
	At            time.Time
}

func (e BookingHeld) EventName() string     { return "booking.held" }
func (e BookingHeld) AggregateID() string   { return string(e.BookingID) }
func (e BookingHeld) OccurredAt() time.Time { return e.At }

type BookingConfirmed struct {
	BookingID BookingID
	TenantID  string
	SailingID string
	Total     money.Money
	At        time.Time
}

func (e BookingConfirmed) EventName() string     { return "booking.confirmed" }
func (e BookingConfirmed) AggregateID() string   { return string(e.BookingID) }
func (e BookingConfirmed) OccurredAt() time.Time { return e.At }

type BookingCancelled struct {
	BookingID BookingID
	TenantID  string
	SailingID string
	Reason    string
	At        time.Time
}

func (e BookingCancelled) EventName() string     { return "booking.cancelled" }
func (e BookingCancelled) AggregateID() string   { return string(e.BookingID) }
func (e BookingCancelled) OccurredAt() time.Time { return e.At }
