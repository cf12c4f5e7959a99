package reservation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainbooking "seabook/internal/domain/booking"
	"seabook/internal/domain/inventory"
	"seabook/internal/domain/pricing"
	"seabook/internal/domain/shared/events"
	"seabook/internal/infra/storage/memory"
)

const tenant = "tenant-a"

type capturedEvent struct {
	tenantID string
	name     string
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []capturedEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, tenantID string, event events.DomainEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, capturedEvent{tenantID: tenantID, name: event.EventName()})
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.name)
	}
	return out
}

type fixture struct {
	service   *Service
	inventory *memory.InventoryStore
	publisher *recordingPublisher
	clock     *time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	inv := memory.NewInventoryStore()
	pub := &recordingPublisher{}
	svc := &Service{
		Bookings:        memory.NewBookingRepository(),
		Pricing:         memory.NewPricingStore(),
		Inventory:       inv,
		Events:          pub,
		DefaultCapacity: 2,
		Now:             func() time.Time { return now },
	}
	return &fixture{service: svc, inventory: inv, publisher: pub, clock: &now}
}

func (f *fixture) advance(d time.Duration) { *f.clock = f.clock.Add(d) }

func (f *fixture) counts(t *testing.T, sailingID, bucket string) inventory.Counts {
	t.Helper()
	ledger, err := f.inventory.Ledger(context.Background(), tenant)
	require.NoError(t, err)
	key, err := inventory.NewBucketKey(sailingID, bucket)
	require.NoError(t, err)
	return ledger.Counts(key)
}

func holdParams() HoldParams {
	return HoldParams{
		TenantID:  tenant,
		SailingID: "sail-1",
		Request: pricing.QuoteRequest{
			CabinType: pricing.CabinInside,
			Guests:    pricing.GuestManifest{pricing.PaxAdult},
		},
		HoldMinutes: 15,
	}
}

func TestQuoteDoesNotTouchInventory(t *testing.T) {
	f := newFixture(t)
	q, err := f.service.Quote(context.Background(), QuoteParams{TenantID: tenant, Request: holdParams().Request})
	require.NoError(t, err)
	assert.Equal(t, int64(108_000), q.Total.Amount)
	assert.Zero(t, f.counts(t, "sail-1", "inside").Held)
}

func TestCreateHoldReservesUnitAndPersists(t *testing.T) {
	f := newFixture(t)
	b, err := f.service.CreateHold(context.Background(), holdParams())
	require.NoError(t, err)

	assert.Equal(t, domainbooking.StateHeld, b.State)
	assert.Equal(t, f.clock.Add(15*time.Minute), b.HoldExpiresAt)
	assert.Equal(t, int64(108_000), b.QuoteTotal.Amount)
	assert.Equal(t, 1, f.counts(t, "sail-1", "inside").Held)

	stored, err := f.service.Get(context.Background(), tenant, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StateHeld, stored.State)
	assert.Equal(t, []string{"booking.held"}, f.publisher.names())
}

func TestCreateHoldSoldOut(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := f.service.CreateHold(ctx, holdParams())
		require.NoError(t, err)
	}
	_, err := f.service.CreateHold(ctx, holdParams())
	assert.ErrorIs(t, err, inventory.ErrSoldOut)
}

func TestCreateHoldRejectsBadQuoteWithoutLeakingInventory(t *testing.T) {
	f := newFixture(t)
	params := holdParams()
	params.Request.Guests = nil
	_, err := f.service.CreateHold(context.Background(), params)
	assert.ErrorIs(t, err, pricing.ErrNoGuests)
	assert.Zero(t, f.counts(t, "sail-1", "inside").Held)
}

type brokenSaveRepository struct {
	domainbooking.Repository
	saveErr error
}

func (r brokenSaveRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	return r.saveErr
}

func TestCreateHoldReleasesUnitWhenPersistFails(t *testing.T) {
	f := newFixture(t)
	saveErr := errors.New("write concern timeout")
	f.service.Bookings = brokenSaveRepository{Repository: f.service.Bookings, saveErr: saveErr}

	_, err := f.service.CreateHold(context.Background(), holdParams())
	assert.ErrorIs(t, err, saveErr)
	assert.Zero(t, f.counts(t, "sail-1", "inside").Held)
	assert.Empty(t, f.publisher.names())
}

func TestConfirmMovesUnitToConfirmed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b, err := f.service.CreateHold(ctx, holdParams())
	require.NoError(t, err)

	f.advance(10 * time.Minute)
	confirmed, err := f.service.Confirm(ctx, tenant, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StateConfirmed, confirmed.State)

	c := f.counts(t, "sail-1", "inside")
	assert.Equal(t, 0, c.Held)
	assert.Equal(t, 1, c.Confirmed)
	assert.Equal(t, []string{"booking.held", "booking.confirmed"}, f.publisher.names())
}

func TestConfirmAfterExpiryCancelsAndReleases(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b, err := f.service.CreateHold(ctx, holdParams())
	require.NoError(t, err)

	f.advance(16 * time.Minute)
	_, err = f.service.Confirm(ctx, tenant, b.ID)
	assert.ErrorIs(t, err, domainbooking.ErrHoldExpired)

	stored, err := f.service.Get(ctx, tenant, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StateCancelled, stored.State)

	c := f.counts(t, "sail-1", "inside")
	assert.Equal(t, 0, c.Held)
	assert.Equal(t, 0, c.Confirmed)
	assert.Equal(t, []string{"booking.held", "booking.cancelled"}, f.publisher.names())
}

func TestCancelReleasesUnit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b, err := f.service.CreateHold(ctx, holdParams())
	require.NoError(t, err)

	cancelled, err := f.service.Cancel(ctx, tenant, b.ID, "guest request")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StateCancelled, cancelled.State)
	assert.Zero(t, f.counts(t, "sail-1", "inside").Held)

	// Terminal bookings cannot be cancelled again.
	_, err = f.service.Cancel(ctx, tenant, b.ID, "again")
	assert.ErrorIs(t, err, domainbooking.ErrInvalidState)
}

func TestExpiredHoldsAreSweptBeforeNewHolds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Fill the bucket (capacity 2), let both holds lapse.
	first, err := f.service.CreateHold(ctx, holdParams())
	require.NoError(t, err)
	_, err = f.service.CreateHold(ctx, holdParams())
	require.NoError(t, err)
	f.advance(time.Hour)

	// The sweep reclaims both units before the new hold is placed.
	b, err := f.service.CreateHold(ctx, holdParams())
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StateHeld, b.State)

	swept, err := f.service.Get(ctx, tenant, first.ID)
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StateCancelled, swept.State)

	c := f.counts(t, "sail-1", "inside")
	assert.Equal(t, 1, c.Held)
	assert.Equal(t, 0, c.Confirmed)
}

func TestGetReapsLapsedHold(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b, err := f.service.CreateHold(ctx, holdParams())
	require.NoError(t, err)

	f.advance(time.Hour)
	got, err := f.service.Get(ctx, tenant, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StateCancelled, got.State)
	assert.Zero(t, f.counts(t, "sail-1", "inside").Held)
}

func TestCategoryHoldsUseCategoryBucket(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	params := holdParams()
	params.Request.CabinCategoryCode = "BAL1"

	_, err := f.service.CreateHold(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, 1, f.counts(t, "sail-1", "bal1").Held)
	assert.Zero(t, f.counts(t, "sail-1", "inside").Held)
}

func TestConfirmUnknownBooking(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.Confirm(context.Background(), tenant, "missing")
	assert.ErrorIs(t, err, domainbooking.ErrBookingNotFound)
}
