package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "seabook/internal/domain/booking"
	"seabook/internal/domain/pricing"
	"seabook/internal/domain/shared/money"
)

var ErrConcurrentUpdate = errors.New("mongo: concurrent update detected")

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{col: db.Collection("bookings")}
}

func (r *BookingRepository) ByID(ctx context.Context, tenantID string, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	err := r.col.FindOne(ctx, bson.M{"_id": string(id), "tenant_id": tenantID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrBookingNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

// Save upserts with a compare-and-swap on the version field so two writers
// cannot both land an update over the same snapshot.
func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) ListExpiredHeld(ctx context.Context, tenantID string, now time.Time) ([]*domainbooking.Booking, error) {
	filter := bson.M{
		"tenant_id":       tenantID,
		"state":           string(domainbooking.StateHeld),
		"hold_expires_at": bson.M{"$gt": 0, "$lt": now.UnixMilli()},
	}
	cur, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*domainbooking.Booking
	for cur.Next(ctx) {
		var doc bookingDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cur.Err()
}

type bookingDocument struct {
	ID            string              `bson:"_id"`
	TenantID      string              `bson:"tenant_id"`
	State         string              `bson:"state"`
	SailingID     string              `bson:"sailing_id"`
	CabinType     string              `bson:"cabin_type"`
	CategoryCode  string              `bson:"category_code"`
	Guests        []string            `bson:"guests"`
	Currency      string              `bson:"currency"`
	QuoteTotal    money.Money         `bson:"quote_total"`
	QuoteLines    []pricing.QuoteLine `bson:"quote_lines"`
	HoldExpiresAt int64               `bson:"hold_expires_at"`
	CreatedAt     int64               `bson:"created_at"`
	UpdatedAt     int64               `bson:"updated_at"`
	Version       int64               `bson:"version"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	guests := make([]string, 0, len(b.Guests))
	for _, g := range b.Guests {
		guests = append(guests, string(g))
	}
	doc := bookingDocument{
		ID:           string(b.ID),
		TenantID:     b.TenantID,
		State:        string(b.State),
		SailingID:    b.SailingID,
		CabinType:    string(b.CabinType),
		CategoryCode: b.CabinCategoryCode,
		Guests:       guests,
		Currency:     string(b.Currency),
		QuoteTotal:   b.QuoteTotal,
		QuoteLines:   b.QuoteLines,
		CreatedAt:    b.CreatedAt.UnixMilli(),
		UpdatedAt:    b.UpdatedAt.UnixMilli(),
		Version:      b.Version,
	}
	if !b.HoldExpiresAt.IsZero() {
		doc.HoldExpiresAt = b.HoldExpiresAt.UnixMilli()
	}
	return doc
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	guests := make(pricing.GuestManifest, 0, len(d.Guests))
	for _, g := range d.Guests {
		guests = append(guests, pricing.PaxType(g))
	}
	b := &domainbooking.Booking{
		ID:                domainbooking.BookingID(d.ID),
		TenantID:          d.TenantID,
		State:             domainbooking.BookingState(d.State),
		SailingID:         d.SailingID,
		CabinType:         pricing.CabinType(d.CabinType),
		CabinCategoryCode: d.CategoryCode,
		Guests:            guests,
		Currency:          money.Currency(d.Currency),
		QuoteTotal:        d.QuoteTotal,
		QuoteLines:        d.QuoteLines,
		CreatedAt:         timestampToTime(d.CreatedAt),
		UpdatedAt:         timestampToTime(d.UpdatedAt),
		Version:           d.Version,
	}
	if d.HoldExpiresAt != 0 {
		b.HoldExpiresAt = timestampToTime(d.HoldExpiresAt)
	}
	return b
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
