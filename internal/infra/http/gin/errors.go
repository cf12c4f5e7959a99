package ginserver

import (
	"errors"
	"net/http"

	gin "github.com/gin-gonic/gin"

	domainbooking "seabook/internal/domain/booking"
	"seabook/internal/domain/inventory"
	"seabook/internal/domain/pricing"
	"seabook/internal/domain/shared/money"
	"seabook/internal/infra/db/mongo"
	"seabook/internal/infra/storage/memory"
)

// errInvalidDate marks malformed wire dates so they report as validation
// failures rather than the dependency-failure default.
var errInvalidDate = errors.New("invalid date, expected YYYY-MM-DD")

// writeError maps domain errors onto HTTP statuses: validation problems are
// 400, unknown resources 404, state conflicts 409. Anything unclassified
// came out of a storage or broker dependency and reports 502; by then any
// inventory allocation has already been rolled back.
func writeError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domainbooking.ErrBookingNotFound),
		errors.Is(err, memory.ErrRuleNotFound),
		errors.Is(err, memory.ErrCategoryNotFound):
		return http.StatusNotFound
	case errors.Is(err, inventory.ErrSoldOut),
		errors.Is(err, domainbooking.ErrHoldExpired),
		errors.Is(err, domainbooking.ErrInvalidState),
		errors.Is(err, mongo.ErrConcurrentUpdate):
		return http.StatusConflict
	case errors.Is(err, pricing.ErrNoGuests),
		errors.Is(err, pricing.ErrUnknownPaxType),
		errors.Is(err, pricing.ErrUnknownCabinType),
		errors.Is(err, pricing.ErrMissingFxRate),
		errors.Is(err, pricing.ErrInvalidRule),
		errors.Is(err, pricing.ErrInvalidMinGuests),
		errors.Is(err, pricing.ErrInvalidMultiplier),
		errors.Is(err, inventory.ErrInvalidCapacity),
		errors.Is(err, inventory.ErrEmptyBucketKey),
		errors.Is(err, domainbooking.ErrInvalidGuests),
		errors.Is(err, money.ErrInvalidCurrency),
		errors.Is(err, money.ErrCurrencyMismatch),
		errors.Is(err, money.ErrInvalidRate),
		errors.Is(err, memory.ErrBaseFareCurrency),
		errors.Is(err, memory.ErrInvalidMultiplier),
		errors.Is(err, errInvalidDate):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}
