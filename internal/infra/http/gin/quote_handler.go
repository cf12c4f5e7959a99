package ginserver

import (
	"fmt"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"seabook/internal/app/dto"
	"seabook/internal/app/services/reservation"
	"seabook/internal/domain/pricing"
	"seabook/internal/domain/shared/money"
)

type QuoteHandler struct {
	Service *reservation.Service
}

type quoteRequest struct {
	SailingDate       string   `json:"sailing_date"`
	CabinType         string   `json:"cabin_type"`
	CabinCategoryCode string   `json:"cabin_category_code"`
	PriceType         string   `json:"price_type"`
	Guests            []string `json:"guests"`
	CouponCode        string   `json:"coupon_code"`
	LoyaltyTier       string   `json:"loyalty_tier"`
	Currency          string   `json:"currency"`
}

func (h QuoteHandler) Create(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	parsed, err := parseQuoteRequest(req)
	if err != nil {
		writeError(c, err)
		return
	}
	q, err := h.Service.Quote(c.Request.Context(), reservation.QuoteParams{
		TenantID: tenantID(c),
		Request:  parsed,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewQuoteResponse(q))
}

// parseQuoteRequest validates the wire request into domain types. Sailing
// dates arrive as YYYY-MM-DD; empty means unknown.
func parseQuoteRequest(req quoteRequest) (pricing.QuoteRequest, error) {
	out := pricing.QuoteRequest{
		CabinCategoryCode: req.CabinCategoryCode,
		PriceType:         req.PriceType,
		CouponCode:        req.CouponCode,
		LoyaltyTier:       req.LoyaltyTier,
	}
	if req.SailingDate != "" {
		d, err := time.Parse("2006-01-02", req.SailingDate)
		if err != nil {
			return pricing.QuoteRequest{}, fmt.Errorf("%w: sailing_date %q", errInvalidDate, req.SailingDate)
		}
		out.SailingDate = d
	}
	if req.CabinType != "" {
		ct, err := pricing.ParseCabinType(req.CabinType)
		if err != nil {
			return pricing.QuoteRequest{}, err
		}
		out.CabinType = ct
	}
	for _, g := range req.Guests {
		pax, err := pricing.ParsePaxType(g)
		if err != nil {
			return pricing.QuoteRequest{}, err
		}
		out.Guests = append(out.Guests, pax)
	}
	if req.Currency != "" {
		cur, err := money.ParseCurrency(req.Currency)
		if err != nil {
			return pricing.QuoteRequest{}, err
		}
		out.Currency = cur
	}
	return out, nil
}

var _ QuoteHTTP = QuoteHandler{}
