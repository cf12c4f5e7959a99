package memory

import (
	"context"
	"sync"
	"time"

	domainbooking "seabook/internal/domain/booking"
	"seabook/internal/domain/shared/events"
)

type bookingKey struct {
	tenantID string
	id       domainbooking.BookingID
}

// BookingRepository stores bookings in memory, keyed per tenant. Suitable
// for tests and single-node deployments.
type BookingRepository struct {
	mu    sync.RWMutex
	items map[bookingKey]*domainbooking.Booking
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[bookingKey]*domainbooking.Booking)}
}

func (r *BookingRepository) ByID(ctx context.Context, tenantID string, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if b, ok := r.items[bookingKey{tenantID: tenantID, id: id}]; ok {
		return cloneBooking(b), nil
	}
	return nil, domainbooking.ErrBookingNotFound
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	if b == nil || b.ID == "" {
		return domainbooking.ErrBookingNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := cloneBooking(b)
	stored.Version++
	r.items[bookingKey{tenantID: b.TenantID, id: b.ID}] = stored
	b.Version = stored.Version
	return nil
}

func (r *BookingRepository) ListExpiredHeld(ctx context.Context, tenantID string, now time.Time) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domainbooking.Booking
	for key, b := range r.items {
		if key.tenantID != tenantID {
			continue
		}
		if b.HoldLapsed(now) {
			out = append(out, cloneBooking(b))
		}
	}
	return out, nil
}

// cloneBooking detaches stored state from caller-held pointers. Pending
// events are intentionally not carried into storage.
func cloneBooking(b *domainbooking.Booking) *domainbooking.Booking {
	out := *b
	out.Guests = append(out.Guests[:0:0], b.Guests...)
	out.QuoteLines = append(out.QuoteLines[:0:0], b.QuoteLines...)
	out.EventRecorder = events.EventRecorder{}
	return &out
}
