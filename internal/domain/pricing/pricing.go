package pricing

import (
	"errors"
	"strings"
	"time"

	"seabook/internal/domain/shared/money"
)

var (
	ErrNoGuests          = errors.New("pricing: at least one guest is required")
	ErrInvalidRule       = errors.New("pricing: price per person must not be negative")
	ErrMissingFxRate     = errors.New("pricing: missing fx rate for requested conversion")
	ErrUnknownPaxType    = errors.New("pricing: unknown pax type")
	ErrUnknownCabinType  = errors.New("pricing: unknown cabin type")
	ErrInvalidMultiplier = errors.New("pricing: multiplier must be positive")
	ErrInvalidMinGuests  = errors.New("pricing: min guests must be at least 1")
)

// PaxType is the closed set of passenger classifications used in fares.
type PaxType string

const (
	PaxAdult  PaxType = "adult"
	PaxChild  PaxType = "child"
	PaxInfant PaxType = "infant"
)

// paxTypeOrder fixes the emission order of fare lines.
var paxTypeOrder = []PaxType{PaxAdult, PaxChild, PaxInfant}

func ParsePaxType(s string) (PaxType, error) {
	switch PaxType(strings.ToLower(strings.TrimSpace(s))) {
	case PaxAdult:
		return PaxAdult, nil
	case PaxChild:
		return PaxChild, nil
	case PaxInfant:
		return PaxInfant, nil
	}
	return "", ErrUnknownPaxType
}

// CabinType is the closed set of sellable cabin classes.
type CabinType string

const (
	CabinInside    CabinType = "inside"
	CabinOceanview CabinType = "oceanview"
	CabinBalcony   CabinType = "balcony"
	CabinSuite     CabinType = "suite"
)

func ParseCabinType(s string) (CabinType, error) {
	switch CabinType(strings.ToLower(strings.TrimSpace(s))) {
	case CabinInside:
		return CabinInside, nil
	case CabinOceanview:
		return CabinOceanview, nil
	case CabinBalcony:
		return CabinBalcony, nil
	case CabinSuite:
		return CabinSuite, nil
	}
	return "", ErrUnknownCabinType
}

// GuestManifest is the ordered multiset of pax types on a quote request.
type GuestManifest []PaxType

func (g GuestManifest) Count() int { return len(g) }

func (g GuestManifest) CountOf(p PaxType) int {
	n := 0
	for _, t := range g {
		if t == p {
			n++
		}
	}
	return n
}

const (
	// DefaultPriceType is the rate plan assumed when a request names none.
	DefaultPriceType = "regular"

	// DefaultCurrency denominates the system default base fares.
	DefaultCurrency = money.Currency("USD")

	taxRate = 0.08
)

// System default fares and multipliers; tenant overrides are layered on top,
// never merged into these tables.
var defaultBaseFares = map[PaxType]int64{
	PaxAdult:  100_000,
	PaxChild:  60_000,
	PaxInfant: 10_000,
}

var defaultCabinMultipliers = map[CabinType]float64{
	CabinInside:    1.0,
	CabinOceanview: 1.2,
	CabinBalcony:   1.4,
	CabinSuite:     2.0,
}

// CategoryPriceRule prices a cabin category per person for a rate plan,
// currency and optional sailing-date window, with a minimum billable
// occupancy: billable guests = max(actual guests, MinGuests).
type CategoryPriceRule struct {
	CategoryCode   string
	PriceType      string
	Currency       money.Currency
	MinGuests      int
	PricePerPerson money.Money
	EffectiveStart time.Time // zero = open start
	EffectiveEnd   time.Time // zero = open end
}

// RuleKey identifies a rule for upsert/replace purposes.
type RuleKey struct {
	CategoryCode   string
	PriceType      string
	Currency       money.Currency
	MinGuests      int
	EffectiveStart time.Time
	EffectiveEnd   time.Time
}

func (r CategoryPriceRule) Key() RuleKey {
	return RuleKey{
		CategoryCode:   r.CategoryCode,
		PriceType:      r.PriceType,
		Currency:       r.Currency,
		MinGuests:      r.MinGuests,
		EffectiveStart: r.EffectiveStart,
		EffectiveEnd:   r.EffectiveEnd,
	}
}

// AppliesOn reports whether the rule covers the given sailing date. Rules
// with any bound only apply when a sailing date is known and falls inside
// the window; open bounds are unbounded on that side.
func (r CategoryPriceRule) AppliesOn(sailingDate time.Time) bool {
	if sailingDate.IsZero() {
		return r.EffectiveStart.IsZero() && r.EffectiveEnd.IsZero()
	}
	if !r.EffectiveStart.IsZero() && sailingDate.Before(r.EffectiveStart) {
		return false
	}
	if !r.EffectiveEnd.IsZero() && sailingDate.After(r.EffectiveEnd) {
		return false
	}
	return true
}

func (r CategoryPriceRule) Validate() error {
	if strings.TrimSpace(r.CategoryCode) == "" {
		return errors.New("pricing: category code is required")
	}
	if strings.TrimSpace(r.PriceType) == "" {
		return errors.New("pricing: price type is required")
	}
	if _, err := money.ParseCurrency(string(r.Currency)); err != nil {
		return err
	}
	if r.MinGuests < 1 {
		return ErrInvalidMinGuests
	}
	if r.PricePerPerson.Amount < 0 {
		return ErrInvalidRule
	}
	return nil
}

// NormalizeCategoryCode upper-cases a cabin category code for matching.
func NormalizeCategoryCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// NormalizePriceType lower-cases a rate plan tag, defaulting to "regular".
func NormalizePriceType(pt string) string {
	p := strings.ToLower(strings.TrimSpace(pt))
	if p == "" {
		return DefaultPriceType
	}
	return p
}

// PriceCategory is an admin-defined rate plan entry: ordering, sales
// channels and localized display names.
type PriceCategory struct {
	Code                  string            `json:"code"`
	Active                bool              `json:"active"`
	Order                 int               `json:"order"`
	Channels              []string          `json:"enabled_channels"`
	RoomSelectionIncluded bool              `json:"room_selection_included"`
	RoomCategoryOnly      bool              `json:"room_category_only"`
	NameI18n              map[string]string `json:"name_i18n"`
	DescriptionI18n       map[string]string `json:"description_i18n"`
	CreatedAt             time.Time         `json:"created_at"`
	UpdatedAt             time.Time         `json:"updated_at"`
}

// Config is one tenant's pricing configuration snapshot. The zero value is a
// valid "defaults only" configuration (used when no tenant is supplied).
type Config struct {
	BaseFareByPax    map[PaxType]money.Money
	CabinMultiplier  map[CabinType]float64
	DemandMultiplier *float64
	CategoryRules    []CategoryPriceRule
	FxRates          FxTable
	PriceCategories  []PriceCategory
}

// Clone deep-copies the configuration so quote computation never observes a
// half-applied update.
func (c Config) Clone() Config {
	out := Config{}
	if c.BaseFareByPax != nil {
		out.BaseFareByPax = make(map[PaxType]money.Money, len(c.BaseFareByPax))
		for k, v := range c.BaseFareByPax {
			out.BaseFareByPax[k] = v
		}
	}
	if c.CabinMultiplier != nil {
		out.CabinMultiplier = make(map[CabinType]float64, len(c.CabinMultiplier))
		for k, v := range c.CabinMultiplier {
			out.CabinMultiplier[k] = v
		}
	}
	if c.DemandMultiplier != nil {
		d := *c.DemandMultiplier
		out.DemandMultiplier = &d
	}
	out.CategoryRules = append([]CategoryPriceRule(nil), c.CategoryRules...)
	if c.FxRates != nil {
		out.FxRates = make(FxTable, len(c.FxRates))
		for k, v := range c.FxRates {
			out.FxRates[k] = v
		}
	}
	out.PriceCategories = make([]PriceCategory, 0, len(c.PriceCategories))
	for _, pc := range c.PriceCategories {
		out.PriceCategories = append(out.PriceCategories, pc.clone())
	}
	return out
}

func (pc PriceCategory) clone() PriceCategory {
	out := pc
	out.Channels = append([]string(nil), pc.Channels...)
	out.NameI18n = cloneStringMap(pc.NameI18n)
	out.DescriptionI18n = cloneStringMap(pc.DescriptionI18n)
	return out
}

func cloneStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// baseFare resolves a pax fare as tenant override or system default; the
// default table is never mutated.
func (c Config) baseFare(p PaxType) money.Money {
	if m, ok := c.BaseFareByPax[p]; ok {
		return m
	}
	return money.Money{Amount: defaultBaseFares[p], Currency: DefaultCurrency}
}

func (c Config) cabinMultiplier(t CabinType) float64 {
	if m, ok := c.CabinMultiplier[t]; ok {
		return m
	}
	return defaultCabinMultipliers[t]
}
