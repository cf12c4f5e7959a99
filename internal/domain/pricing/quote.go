package pricing

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"seabook/internal/domain/shared/money"
)

const (
	fareLinePrefix   = "fare."
	discountLineCode = "discount"
	taxesLineCode    = "taxes_fees"
)

// QuoteRequest describes one pricing question. A zero SailingDate means the
// sailing date is unknown; an empty Currency means "whatever the
// configuration computes in".
type QuoteRequest struct {
	SailingDate       time.Time
	CabinType         CabinType
	CabinCategoryCode string
	PriceType         string
	Guests            GuestManifest
	CouponCode        string
	LoyaltyTier       string
	Currency          money.Currency
}

// QuoteLine is one itemized component of a quote. Discount lines carry a
// negative amount.
type QuoteLine struct {
	Code        string      `json:"code"`
	Description string      `json:"description"`
	Amount      money.Money `json:"amount"`
}

// Quote is the immutable result of a pricing computation.
// Invariant: Total == Subtotal - Discounts + TaxesFees and Subtotal equals
// the sum of all "fare."-prefixed lines.
type Quote struct {
	Currency  money.Currency `json:"currency"`
	Subtotal  money.Money    `json:"subtotal"`
	Discounts money.Money    `json:"discounts"`
	TaxesFees money.Money    `json:"taxes_fees"`
	Total     money.Money    `json:"total"`
	Lines     []QuoteLine    `json:"lines"`
}

// Compute prices a request against a configuration snapshot. Category
// pricing wins when a matching rule exists; otherwise cabin-type base fares
// apply. When the request names a currency different from the computed one,
// the whole quote is converted line by line through the tenant FX table.
func Compute(req QuoteRequest, cfg Config, today time.Time) (Quote, error) {
	if req.Guests.Count() == 0 {
		return Quote{}, ErrNoGuests
	}

	priceType := NormalizePriceType(req.PriceType)
	var (
		q   Quote
		err error
	)
	if rule, ok := resolveCategoryRule(cfg.CategoryRules, req, priceType); ok {
		q, err = categoryQuote(req, rule)
	} else {
		q, err = baseFareQuote(req, cfg, today)
	}
	if err != nil {
		return Quote{}, err
	}

	if req.Currency != "" && req.Currency != q.Currency {
		return cfg.FxRates.ConvertQuote(q, req.Currency)
	}
	return q, nil
}

// resolveCategoryRule narrows the rule set down to one winner, or reports
// that category pricing does not apply and base fares should be used.
//
// Filter order: category code, currency (only when the request names one and
// at least one rule matches it), price type with fallback to "regular", date
// applicability, then the occupancy-bracket tie-break.
func resolveCategoryRule(rules []CategoryPriceRule, req QuoteRequest, priceType string) (CategoryPriceRule, bool) {
	code := NormalizeCategoryCode(req.CabinCategoryCode)
	if code == "" {
		return CategoryPriceRule{}, false
	}

	candidates := make([]CategoryPriceRule, 0, len(rules))
	for _, r := range rules {
		if NormalizeCategoryCode(r.CategoryCode) == code {
			candidates = append(candidates, r)
		}
	}
	if len(candidates) == 0 {
		return CategoryPriceRule{}, false
	}

	// Currency preference is soft: when nothing is priced in the requested
	// currency the post-hoc FX conversion covers the difference.
	if req.Currency != "" {
		if same := filterRules(candidates, func(r CategoryPriceRule) bool { return r.Currency == req.Currency }); len(same) > 0 {
			candidates = same
		}
	}

	exact := filterRules(candidates, func(r CategoryPriceRule) bool { return NormalizePriceType(r.PriceType) == priceType })
	if len(exact) > 0 {
		candidates = exact
	} else if priceType != DefaultPriceType {
		candidates = filterRules(candidates, func(r CategoryPriceRule) bool { return NormalizePriceType(r.PriceType) == DefaultPriceType })
	} else {
		candidates = nil
	}
	if len(candidates) == 0 {
		return CategoryPriceRule{}, false
	}

	candidates = filterRules(candidates, func(r CategoryPriceRule) bool { return r.AppliesOn(req.SailingDate) })
	if len(candidates) == 0 {
		return CategoryPriceRule{}, false
	}

	return pickOccupancyBracket(candidates, req.Guests.Count()), true
}

// pickOccupancyBracket prefers the largest MinGuests not exceeding the guest
// count; when every bracket is above the party size, the smallest bracket
// wins and the party is billed at its minimum occupancy.
func pickOccupancyBracket(rules []CategoryPriceRule, guestCount int) CategoryPriceRule {
	sorted := append([]CategoryPriceRule(nil), rules...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].MinGuests < sorted[j].MinGuests })

	best := sorted[0]
	for _, r := range sorted {
		if r.MinGuests <= guestCount {
			best = r
		}
	}
	return best
}

func filterRules(rules []CategoryPriceRule, keep func(CategoryPriceRule) bool) []CategoryPriceRule {
	out := make([]CategoryPriceRule, 0, len(rules))
	for _, r := range rules {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func categoryQuote(req QuoteRequest, rule CategoryPriceRule) (Quote, error) {
	if rule.PricePerPerson.Amount < 0 {
		return Quote{}, ErrInvalidRule
	}
	minGuests := rule.MinGuests
	if minGuests < 1 {
		minGuests = 1
	}
	billable := req.Guests.Count()
	if billable < minGuests {
		billable = minGuests
	}

	code := NormalizeCategoryCode(rule.CategoryCode)
	priceType := NormalizePriceType(rule.PriceType)
	line := QuoteLine{
		Code:        fmt.Sprintf("fare.category.%s.%s", code, priceType),
		Description: fmt.Sprintf("Cabin category %s (%s) - %d pax billed (min %d)", code, priceType, billable, minGuests),
		Amount:      rule.PricePerPerson.MulInt(int64(billable)),
	}
	return finishQuote(req, rule.Currency, []QuoteLine{line}), nil
}

func baseFareQuote(req QuoteRequest, cfg Config, today time.Time) (Quote, error) {
	cabinMult := cfg.cabinMultiplier(req.CabinType)
	if cabinMult <= 0 {
		return Quote{}, ErrUnknownCabinType
	}
	demandMult := demandMultiplier(req.SailingDate, today)
	if cfg.DemandMultiplier != nil {
		demandMult = *cfg.DemandMultiplier
	}

	var (
		lines    []QuoteLine
		currency money.Currency
	)
	for _, pax := range paxTypeOrder {
		count := req.Guests.CountOf(pax)
		if count == 0 {
			continue
		}
		base := cfg.baseFare(pax)
		if currency == "" {
			currency = base.Currency
		} else if base.Currency != currency {
			return Quote{}, money.ErrCurrencyMismatch
		}
		// Per-unit amount is rounded before applying the pax count.
		unit := base.MulFloat(cabinMult * demandMult)
		lines = append(lines, QuoteLine{
			Code:        fareLinePrefix + string(pax),
			Description: fmt.Sprintf("Base fare (%s) x%d", pax, count),
			Amount:      unit.MulInt(int64(count)),
		})
	}
	return finishQuote(req, currency, lines), nil
}

// finishQuote appends discount and tax lines to the fare lines and derives
// the aggregates.
func finishQuote(req QuoteRequest, currency money.Currency, lines []QuoteLine) Quote {
	subtotal := int64(0)
	for _, l := range lines {
		subtotal += l.Amount.Amount
	}

	rate := discountRate(req)
	discounts := money.RoundHalfUp(float64(subtotal) * rate)
	if discounts != 0 {
		lines = append(lines, QuoteLine{
			Code:        discountLineCode,
			Description: fmt.Sprintf("Discount (%d%%)", int(rate*100)),
			Amount:      money.Money{Amount: -discounts, Currency: currency},
		})
	}

	taxes := money.RoundHalfUp(float64(subtotal-discounts) * taxRate)
	if taxes != 0 {
		lines = append(lines, QuoteLine{
			Code:        taxesLineCode,
			Description: "Estimated taxes & fees (8%)",
			Amount:      money.Money{Amount: taxes, Currency: currency},
		})
	}
	return sumLines(currency, lines)
}

// demandMultiplier scales base fares by how close the sailing is. An unknown
// sailing date gets no scaling.
func demandMultiplier(sailingDate, today time.Time) float64 {
	if sailingDate.IsZero() {
		return 1.0
	}
	days := int(sailingDate.Sub(today).Hours() / 24)
	switch {
	case days < 0:
		return 1.25
	case days <= 30:
		return 1.20
	case days <= 90:
		return 1.10
	default:
		return 1.0
	}
}

// discountRate returns the single highest applicable rate; promotions never
// stack.
func discountRate(req QuoteRequest) float64 {
	coupon := strings.ToUpper(strings.TrimSpace(req.CouponCode))
	tier := strings.ToUpper(strings.TrimSpace(req.LoyaltyTier))

	rate := 0.0
	if coupon == "WELCOME10" {
		rate = maxRate(rate, 0.10)
	}
	if coupon == "FAMILY5" && req.Guests.CountOf(PaxChild) >= 2 {
		rate = maxRate(rate, 0.05)
	}
	if tier == "GOLD" {
		rate = maxRate(rate, 0.15)
	}
	if tier == "SILVER" {
		rate = maxRate(rate, 0.07)
	}
	return rate
}

func maxRate(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
