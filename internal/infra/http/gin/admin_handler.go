package ginserver

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	gin "github.com/gin-gonic/gin"

	"seabook/internal/domain/inventory"
	"seabook/internal/domain/pricing"
	"seabook/internal/domain/shared/money"
	"seabook/internal/infra/storage/memory"
)

// AdminHandler exposes tenant pricing configuration and inventory capacity
// management.
type AdminHandler struct {
	Store     *memory.PricingStore
	Inventory *memory.InventoryStore
}

type baseFareRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func (h AdminHandler) SetBaseFare(c *gin.Context) {
	pax, err := pricing.ParsePaxType(c.Param("pax"))
	if err != nil {
		writeError(c, err)
		return
	}
	var req baseFareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	fare, err := money.New(req.Amount, req.Currency)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := h.Store.SetBaseFare(c.Request.Context(), tenantID(c), pax, fare); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type multiplierRequest struct {
	Multiplier float64 `json:"multiplier"`
}

func (h AdminHandler) SetCabinMultiplier(c *gin.Context) {
	cabin, err := pricing.ParseCabinType(c.Param("cabin"))
	if err != nil {
		writeError(c, err)
		return
	}
	var req multiplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Store.SetCabinMultiplier(c.Request.Context(), tenantID(c), cabin, req.Multiplier); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type demandMultiplierRequest struct {
	Multiplier *float64 `json:"multiplier"`
}

func (h AdminHandler) SetDemandMultiplier(c *gin.Context) {
	var req demandMultiplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Store.SetDemandMultiplier(c.Request.Context(), tenantID(c), req.Multiplier); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type ruleRequest struct {
	CategoryCode   string `json:"category_code"`
	PriceType      string `json:"price_type"`
	Currency       string `json:"currency"`
	MinGuests      int    `json:"min_guests"`
	PricePerPerson int64  `json:"price_per_person"`
	EffectiveStart string `json:"effective_start"`
	EffectiveEnd   string `json:"effective_end"`
}

func (r ruleRequest) toDomain() (pricing.CategoryPriceRule, error) {
	rule := pricing.CategoryPriceRule{
		CategoryCode:   r.CategoryCode,
		PriceType:      r.PriceType,
		Currency:       money.Currency(r.Currency),
		MinGuests:      r.MinGuests,
		PricePerPerson: money.Money{Amount: r.PricePerPerson, Currency: money.Currency(r.Currency)},
	}
	var err error
	if rule.EffectiveStart, err = parseOptionalDate(r.EffectiveStart); err != nil {
		return pricing.CategoryPriceRule{}, err
	}
	if rule.EffectiveEnd, err = parseOptionalDate(r.EffectiveEnd); err != nil {
		return pricing.CategoryPriceRule{}, err
	}
	return rule, nil
}

func (h AdminHandler) UpsertRule(c *gin.Context) {
	var req ruleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rule, err := req.toDomain()
	if err != nil {
		writeError(c, err)
		return
	}
	if err := h.Store.UpsertRule(c.Request.Context(), tenantID(c), rule); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h AdminHandler) UpsertRulesBulk(c *gin.Context) {
	var reqs []ruleRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rules := make([]pricing.CategoryPriceRule, 0, len(reqs))
	for _, r := range reqs {
		rule, err := r.toDomain()
		if err != nil {
			writeError(c, err)
			return
		}
		rules = append(rules, rule)
	}
	if err := h.Store.UpsertRules(c.Request.Context(), tenantID(c), rules); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"upserted": len(rules)})
}

func (h AdminHandler) DeleteRule(c *gin.Context) {
	var req ruleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rule, err := req.toDomain()
	if err != nil {
		writeError(c, err)
		return
	}
	if err := h.Store.DeleteRule(c.Request.Context(), tenantID(c), rule.Key()); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h AdminHandler) ListRules(c *gin.Context) {
	rules, err := h.Store.ListRules(c.Request.Context(), tenantID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]ruleRequest, 0, len(rules))
	for _, r := range rules {
		out = append(out, ruleToWire(r))
	}
	c.JSON(http.StatusOK, gin.H{"rules": out})
}

// ExportRulesCSV streams the tenant's category price rules as CSV, one rule
// per row.
func (h AdminHandler) ExportRulesCSV(c *gin.Context) {
	rules, err := h.Store.ListRules(c.Request.Context(), tenantID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="category_price_rules.csv"`)
	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"category_code", "price_type", "currency", "min_guests", "price_per_person", "effective_start", "effective_end"})
	for _, r := range rules {
		_ = w.Write([]string{
			r.CategoryCode,
			r.PriceType,
			string(r.Currency),
			strconv.Itoa(r.MinGuests),
			strconv.FormatInt(r.PricePerPerson.Amount, 10),
			formatOptionalDate(r.EffectiveStart),
			formatOptionalDate(r.EffectiveEnd),
		})
	}
	w.Flush()
}

type configOverview struct {
	BaseFares        map[string]baseFareRequest `json:"base_fares"`
	CabinMultipliers map[string]float64         `json:"cabin_multipliers"`
	DemandMultiplier *float64                   `json:"demand_multiplier,omitempty"`
	FxRates          []fxRequest                `json:"fx_rates"`
}

// GetConfig reports the tenant's pricing overrides and FX table; rules and
// categories have their own listings.
func (h AdminHandler) GetConfig(c *gin.Context) {
	snap, err := h.Store.Snapshot(c.Request.Context(), tenantID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	out := configOverview{
		BaseFares:        make(map[string]baseFareRequest, len(snap.BaseFareByPax)),
		CabinMultipliers: make(map[string]float64, len(snap.CabinMultiplier)),
		DemandMultiplier: snap.DemandMultiplier,
		FxRates:          make([]fxRequest, 0, len(snap.FxRates)),
	}
	for pax, fare := range snap.BaseFareByPax {
		out.BaseFares[string(pax)] = baseFareRequest{Amount: fare.Amount, Currency: string(fare.Currency)}
	}
	for cabin, mult := range snap.CabinMultiplier {
		out.CabinMultipliers[string(cabin)] = mult
	}
	for _, rate := range snap.FxRates {
		out.FxRates = append(out.FxRates, fxRequest{Base: string(rate.Base), Quote: string(rate.Quote), Rate: rate.Rate})
	}
	sort.Slice(out.FxRates, func(i, j int) bool {
		if out.FxRates[i].Base != out.FxRates[j].Base {
			return out.FxRates[i].Base < out.FxRates[j].Base
		}
		return out.FxRates[i].Quote < out.FxRates[j].Quote
	})
	c.JSON(http.StatusOK, out)
}

type fxRequest struct {
	Base  string  `json:"base"`
	Quote string  `json:"quote"`
	Rate  float64 `json:"rate"`
}

func (h AdminHandler) SetFxRate(c *gin.Context) {
	var req fxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rate := pricing.FxRate{Base: money.Currency(req.Base), Quote: money.Currency(req.Quote), Rate: req.Rate}
	if err := h.Store.SetFxRate(c.Request.Context(), tenantID(c), rate); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h AdminHandler) DeleteFxRate(c *gin.Context) {
	base, err := money.ParseCurrency(c.Query("base"))
	if err != nil {
		writeError(c, err)
		return
	}
	quote, err := money.ParseCurrency(c.Query("quote"))
	if err != nil {
		writeError(c, err)
		return
	}
	if err := h.Store.DeleteFxRate(c.Request.Context(), tenantID(c), base, quote); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h AdminHandler) ListCategories(c *gin.Context) {
	cats, err := h.Store.ListCategories(c.Request.Context(), tenantID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": cats})
}

func (h AdminHandler) UpsertCategory(c *gin.Context) {
	var cat pricing.PriceCategory
	if err := c.ShouldBindJSON(&cat); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if cat.Code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code is required"})
		return
	}
	stored, err := h.Store.UpsertCategory(c.Request.Context(), tenantID(c), cat)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stored)
}

func (h AdminHandler) DeleteCategory(c *gin.Context) {
	if err := h.Store.DeleteCategory(c.Request.Context(), tenantID(c), c.Param("code")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type capacityRequest struct {
	Capacity int `json:"capacity"`
}

func (h AdminHandler) SetCapacity(c *gin.Context) {
	var req capacityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	key, err := inventory.NewBucketKey(c.Param("sailing"), c.Param("bucket"))
	if err != nil {
		writeError(c, err)
		return
	}
	ledger, err := h.Inventory.Ledger(c.Request.Context(), tenantID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	if err := ledger.SetCapacity(key, req.Capacity); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ledger.Counts(key))
}

func (h AdminHandler) BucketCounts(c *gin.Context) {
	key, err := inventory.NewBucketKey(c.Param("sailing"), c.Param("bucket"))
	if err != nil {
		writeError(c, err)
		return
	}
	ledger, err := h.Inventory.Ledger(c.Request.Context(), tenantID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ledger.Counts(key))
}

func ruleToWire(r pricing.CategoryPriceRule) ruleRequest {
	return ruleRequest{
		CategoryCode:   r.CategoryCode,
		PriceType:      r.PriceType,
		Currency:       string(r.Currency),
		MinGuests:      r.MinGuests,
		PricePerPerson: r.PricePerPerson.Amount,
		EffectiveStart: formatOptionalDate(r.EffectiveStart),
		EffectiveEnd:   formatOptionalDate(r.EffectiveEnd),
	}
}

func parseOptionalDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	d, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", errInvalidDate, raw)
	}
	return d, nil
}

func formatOptionalDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

var _ AdminHTTP = AdminHandler{}
