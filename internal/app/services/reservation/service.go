package reservation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"seabook/internal/app/policies"
	domainbooking "seabook/internal/domain/booking"
	"seabook/internal/domain/inventory"
	"seabook/internal/domain/pricing"
)

const cancelReasonExpired = "hold expired"

// Service orchestrates the reservation flow: quote, hold, confirm, cancel.
// Expired holds are reaped lazily on the operations that touch them; there
// is no background sweeper.
type Service struct {
	Bookings        domainbooking.Repository
	Pricing         policies.PricingConfigSource
	Inventory       policies.InventorySource
	Events          policies.EventPublisher
	Logger          *slog.Logger
	DefaultCapacity int
	Now             func() time.Time
}

type QuoteParams struct {
	TenantID string
	Request  pricing.QuoteRequest
}

type HoldParams struct {
	TenantID    string
	SailingID   string
	Request     pricing.QuoteRequest
	HoldMinutes int
}

// Quote prices a request against the tenant's configuration snapshot
// without touching inventory.
func (s *Service) Quote(ctx context.Context, params QuoteParams) (pricing.Quote, error) {
	if err := s.ensureDependencies(); err != nil {
		return pricing.Quote{}, err
	}
	cfg, err := s.Pricing.Snapshot(ctx, params.TenantID)
	if err != nil {
		return pricing.Quote{}, err
	}
	return pricing.Compute(params.Request, cfg, s.now())
}

// CreateHold prices the request, reserves one inventory unit and persists a
// held booking. The inventory unit is given back if the booking cannot be
// saved, so a failed hold never leaks capacity.
func (s *Service) CreateHold(ctx context.Context, params HoldParams) (*domainbooking.Booking, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	if params.SailingID == "" {
		return nil, errors.New("reservation: sailing id required")
	}
	s.sweepExpired(ctx, params.TenantID)

	cfg, err := s.Pricing.Snapshot(ctx, params.TenantID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	quote, err := pricing.Compute(params.Request, cfg, now)
	if err != nil {
		return nil, err
	}

	ledger, err := s.Inventory.Ledger(ctx, params.TenantID)
	if err != nil {
		return nil, err
	}
	key, err := s.bucketKey(params.SailingID, params.Request)
	if err != nil {
		return nil, err
	}
	if err := ledger.AllocateHold(key, s.defaultCapacity()); err != nil {
		return nil, err
	}

	b, err := domainbooking.NewHeldBooking(domainbooking.CreateParams{
		ID:                domainbooking.BookingID(uuid.NewString()),
		TenantID:          params.TenantID,
		SailingID:         params.SailingID,
		CabinType:         params.Request.CabinType,
		CabinCategoryCode: params.Request.CabinCategoryCode,
		Guests:            params.Request.Guests,
		Quote:             quote,
		HoldMinutes:       params.HoldMinutes,
		Now:               now,
	})
	if err != nil {
		ledger.ReleaseHold(key)
		return nil, err
	}
	if err := s.Bookings.Save(ctx, b); err != nil {
		ledger.ReleaseHold(key)
		return nil, err
	}

	s.publish(ctx, params.TenantID, b)
	if s.Logger != nil {
		s.Logger.Info("hold created",
			"tenant_id", params.TenantID,
			"booking_id", b.ID,
			"sailing_id", b.SailingID,
			"bucket", key.Bucket,
			"expires_at", b.HoldExpiresAt,
		)
	}
	return b, nil
}

// Confirm finalizes a held booking. A hold that lapsed before the call is
// cancelled, its inventory unit released, and ErrHoldExpired reported.
func (s *Service) Confirm(ctx context.Context, tenantID string, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	b, err := s.Bookings.ByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	confirmErr := b.Confirm(now)
	switch {
	case confirmErr == nil:
		if err := s.Bookings.Save(ctx, b); err != nil {
			return nil, err
		}
		s.adjustLedger(ctx, b, (*inventory.Ledger).CommitHold)
		s.publish(ctx, tenantID, b)
		if s.Logger != nil {
			s.Logger.Info("booking confirmed", "tenant_id", tenantID, "booking_id", b.ID)
		}
		return b, nil
	case errors.Is(confirmErr, domainbooking.ErrHoldExpired):
		// Confirm already flipped the booking to cancelled.
		if err := s.Bookings.Save(ctx, b); err != nil {
			return nil, err
		}
		s.adjustLedger(ctx, b, (*inventory.Ledger).ReleaseHold)
		s.publish(ctx, tenantID, b)
		return nil, confirmErr
	default:
		return nil, confirmErr
	}
}

// Cancel releases a held booking and its inventory unit.
func (s *Service) Cancel(ctx context.Context, tenantID string, id domainbooking.BookingID, reason string) (*domainbooking.Booking, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	b, err := s.Bookings.ByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if b.HoldLapsed(now) {
		reason = cancelReasonExpired
	}
	if err := b.Cancel(reason, now); err != nil {
		return nil, err
	}
	if err := s.Bookings.Save(ctx, b); err != nil {
		return nil, err
	}
	s.adjustLedger(ctx, b, (*inventory.Ledger).ReleaseHold)
	s.publish(ctx, tenantID, b)
	if s.Logger != nil {
		s.Logger.Info("booking cancelled", "tenant_id", tenantID, "booking_id", b.ID, "reason", reason)
	}
	return b, nil
}

// Get loads a booking, reaping it first if its hold has lapsed so readers
// never observe a stale held state.
func (s *Service) Get(ctx context.Context, tenantID string, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	b, err := s.Bookings.ByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if b.HoldLapsed(s.now()) {
		s.expire(ctx, b)
	}
	return b, nil
}

// sweepExpired reaps every lapsed hold for the tenant. Failures are logged
// and skipped so one stuck record cannot block new holds.
func (s *Service) sweepExpired(ctx context.Context, tenantID string) {
	now := s.now()
	expired, err := s.Bookings.ListExpiredHeld(ctx, tenantID, now)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Warn("expiry sweep failed", "tenant_id", tenantID, "error", err)
		}
		return
	}
	for _, b := range expired {
		s.expire(ctx, b)
	}
}

func (s *Service) expire(ctx context.Context, b *domainbooking.Booking) {
	if err := b.Cancel(cancelReasonExpired, s.now()); err != nil {
		return
	}
	if err := s.Bookings.Save(ctx, b); err != nil {
		if s.Logger != nil {
			s.Logger.Warn("expired hold not persisted", "booking_id", b.ID, "error", err)
		}
		return
	}
	s.adjustLedger(ctx, b, (*inventory.Ledger).ReleaseHold)
	s.publish(ctx, b.TenantID, b)
	if s.Logger != nil {
		s.Logger.Info("hold expired", "tenant_id", b.TenantID, "booking_id", b.ID)
	}
}

func (s *Service) bucketKey(sailingID string, req pricing.QuoteRequest) (inventory.BucketKey, error) {
	bucket := req.CabinCategoryCode
	if bucket == "" {
		bucket = string(req.CabinType)
	}
	return inventory.NewBucketKey(sailingID, bucket)
}

func (s *Service) adjustLedger(ctx context.Context, b *domainbooking.Booking, op func(*inventory.Ledger, inventory.BucketKey)) {
	ledger, err := s.Inventory.Ledger(ctx, b.TenantID)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Warn("ledger unavailable", "tenant_id", b.TenantID, "error", err)
		}
		return
	}
	key, err := inventory.NewBucketKey(b.SailingID, b.InventoryBucket())
	if err != nil {
		return
	}
	op(ledger, key)
}

func (s *Service) publish(ctx context.Context, tenantID string, b *domainbooking.Booking) {
	if s.Events == nil {
		return
	}
	for _, e := range b.PendingEvents() {
		s.Events.Publish(ctx, tenantID, e)
	}
	b.ClearEvents()
}

func (s *Service) defaultCapacity() int {
	if s.DefaultCapacity > 0 {
		return s.DefaultCapacity
	}
	return 10
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *Service) ensureDependencies() error {
	switch {
	case s.Bookings == nil:
		return errors.New("reservation: booking repository required")
	case s.Pricing == nil:
		return errors.New("reservation: pricing config source required")
	case s.Inventory == nil:
		return errors.New("reservation: inventory source required")
	default:
		return nil
	}
}
