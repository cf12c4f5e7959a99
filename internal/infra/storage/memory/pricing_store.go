package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"seabook/internal/domain/pricing"
	"seabook/internal/domain/shared/money"
)

var (
	// ErrBaseFareCurrency is returned when a tenant base-fare override is
	// denominated differently from the tenant's existing overrides.
	ErrBaseFareCurrency = errors.New("memory: base fare overrides must share one currency")
	// ErrInvalidMultiplier rejects non-positive multiplier values.
	ErrInvalidMultiplier = errors.New("memory: multiplier must be positive")
	// ErrCategoryNotFound is returned when a price category does not exist.
	ErrCategoryNotFound = errors.New("memory: price category not found")
	// ErrRuleNotFound is returned when a category price rule does not exist.
	ErrRuleNotFound = errors.New("memory: category price rule not found")
)

const categoryOrderStep = 10

// PricingStore keeps per-tenant pricing configuration in memory. Reads hand
// out deep copies, so a snapshot taken before an update never observes it.
// Every tenant starts with the "regular" price category seeded.
type PricingStore struct {
	mu      sync.RWMutex
	tenants map[string]*pricing.Config
	now     func() time.Time
}

func NewPricingStore() *PricingStore {
	return &PricingStore{tenants: make(map[string]*pricing.Config), now: time.Now}
}

// Snapshot returns a deep copy of the tenant's configuration. Unknown
// tenants get a defaults-only configuration.
func (s *PricingStore) Snapshot(ctx context.Context, tenantID string) (pricing.Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if cfg, ok := s.tenants[tenantID]; ok {
		return cfg.Clone(), nil
	}
	return pricing.Config{}, nil
}

// SetBaseFare overrides one pax-type base fare. All of a tenant's overrides
// must be denominated in a single currency; the check runs at write time so
// quote computation never has to reconcile mixed fares.
func (s *PricingStore) SetBaseFare(ctx context.Context, tenantID string, pax pricing.PaxType, fare money.Money) error {
	if _, err := money.ParseCurrency(string(fare.Currency)); err != nil {
		return err
	}
	if fare.Amount < 0 {
		return pricing.ErrInvalidRule
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg := s.tenant(tenantID)
	for p, existing := range cfg.BaseFareByPax {
		if p != pax && existing.Currency != fare.Currency {
			return ErrBaseFareCurrency
		}
	}
	if cfg.BaseFareByPax == nil {
		cfg.BaseFareByPax = make(map[pricing.PaxType]money.Money)
	}
	cfg.BaseFareByPax[pax] = fare
	return nil
}

func (s *PricingStore) SetCabinMultiplier(ctx context.Context, tenantID string, cabin pricing.CabinType, mult float64) error {
	if mult <= 0 {
		return ErrInvalidMultiplier
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg := s.tenant(tenantID)
	if cfg.CabinMultiplier == nil {
		cfg.CabinMultiplier = make(map[pricing.CabinType]float64)
	}
	cfg.CabinMultiplier[cabin] = mult
	return nil
}

// SetDemandMultiplier pins the tenant's demand multiplier, replacing the
// sailing-date heuristic entirely. A nil value restores the heuristic.
func (s *PricingStore) SetDemandMultiplier(ctx context.Context, tenantID string, mult *float64) error {
	if mult != nil && *mult <= 0 {
		return ErrInvalidMultiplier
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg := s.tenant(tenantID)
	if mult == nil {
		cfg.DemandMultiplier = nil
		return nil
	}
	v := *mult
	cfg.DemandMultiplier = &v
	return nil
}

// UpsertRule inserts or replaces one category price rule; identity is the
// rule key (category, price type, currency, occupancy, window), last write
// wins.
func (s *PricingStore) UpsertRule(ctx context.Context, tenantID string, rule pricing.CategoryPriceRule) error {
	rule = normalizeRule(rule)
	if err := rule.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertRuleLocked(s.tenant(tenantID), rule)
	return nil
}

// UpsertRules applies a batch atomically: either every rule validates and
// lands, or none do.
func (s *PricingStore) UpsertRules(ctx context.Context, tenantID string, rules []pricing.CategoryPriceRule) error {
	normalized := make([]pricing.CategoryPriceRule, 0, len(rules))
	for _, r := range rules {
		r = normalizeRule(r)
		if err := r.Validate(); err != nil {
			return err
		}
		normalized = append(normalized, r)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg := s.tenant(tenantID)
	for _, r := range normalized {
		s.upsertRuleLocked(cfg, r)
	}
	return nil
}

func (s *PricingStore) DeleteRule(ctx context.Context, tenantID string, key pricing.RuleKey) error {
	key.CategoryCode = pricing.NormalizeCategoryCode(key.CategoryCode)
	key.PriceType = pricing.NormalizePriceType(key.PriceType)
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg := s.tenant(tenantID)
	for i, r := range cfg.CategoryRules {
		if r.Key() == key {
			cfg.CategoryRules = append(cfg.CategoryRules[:i], cfg.CategoryRules[i+1:]...)
			return nil
		}
	}
	return ErrRuleNotFound
}

// ListRules returns the tenant's rules sorted by category, price type and
// occupancy.
func (s *PricingStore) ListRules(ctx context.Context, tenantID string) ([]pricing.CategoryPriceRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.tenants[tenantID]
	if !ok {
		return nil, nil
	}
	out := append([]pricing.CategoryPriceRule(nil), cfg.CategoryRules...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CategoryCode != out[j].CategoryCode {
			return out[i].CategoryCode < out[j].CategoryCode
		}
		if out[i].PriceType != out[j].PriceType {
			return out[i].PriceType < out[j].PriceType
		}
		return out[i].MinGuests < out[j].MinGuests
	})
	return out, nil
}

// SetFxRate stores one exchange rate keyed by (base, quote).
func (s *PricingStore) SetFxRate(ctx context.Context, tenantID string, rate pricing.FxRate) error {
	if _, err := money.ParseCurrency(string(rate.Base)); err != nil {
		return err
	}
	if _, err := money.ParseCurrency(string(rate.Quote)); err != nil {
		return err
	}
	if rate.Rate <= 0 {
		return money.ErrInvalidRate
	}
	if rate.AsOf.IsZero() {
		rate.AsOf = s.now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg := s.tenant(tenantID)
	if cfg.FxRates == nil {
		cfg.FxRates = make(pricing.FxTable)
	}
	cfg.FxRates[pricing.FxPair{Base: rate.Base, Quote: rate.Quote}] = rate
	return nil
}

func (s *PricingStore) DeleteFxRate(ctx context.Context, tenantID string, base, quote money.Currency) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg := s.tenant(tenantID)
	delete(cfg.FxRates, pricing.FxPair{Base: base, Quote: quote})
	return nil
}

// UpsertCategory creates or updates a price category. New categories with no
// explicit order slot in at the end with the next step-of-ten position.
func (s *PricingStore) UpsertCategory(ctx context.Context, tenantID string, cat pricing.PriceCategory) (pricing.PriceCategory, error) {
	cat.Code = pricing.NormalizePriceType(cat.Code)
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg := s.tenant(tenantID)
	now := s.now().UTC()

	for i, existing := range cfg.PriceCategories {
		if existing.Code == cat.Code {
			cat.CreatedAt = existing.CreatedAt
			cat.UpdatedAt = now
			if cat.Order == 0 {
				cat.Order = existing.Order
			}
			cfg.PriceCategories[i] = cat
			return cat, nil
		}
	}
	if cat.Order == 0 {
		cat.Order = nextCategoryOrder(cfg.PriceCategories)
	}
	cat.CreatedAt = now
	cat.UpdatedAt = now
	cfg.PriceCategories = append(cfg.PriceCategories, cat)
	return cat, nil
}

func (s *PricingStore) DeleteCategory(ctx context.Context, tenantID, code string) error {
	code = pricing.NormalizePriceType(code)
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg := s.tenant(tenantID)
	for i, existing := range cfg.PriceCategories {
		if existing.Code == code {
			cfg.PriceCategories = append(cfg.PriceCategories[:i], cfg.PriceCategories[i+1:]...)
			return nil
		}
	}
	return ErrCategoryNotFound
}

// ListCategories returns the tenant's categories sorted by display order.
func (s *PricingStore) ListCategories(ctx context.Context, tenantID string) ([]pricing.PriceCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.tenants[tenantID]
	if !ok {
		return []pricing.PriceCategory{seedCategory(s.now().UTC())}, nil
	}
	out := make([]pricing.PriceCategory, 0, len(cfg.PriceCategories))
	snap := cfg.Clone()
	out = append(out, snap.PriceCategories...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

// tenant returns the live (not cloned) config for mutation under s.mu.
func (s *PricingStore) tenant(tenantID string) *pricing.Config {
	cfg, ok := s.tenants[tenantID]
	if !ok {
		cfg = &pricing.Config{
			PriceCategories: []pricing.PriceCategory{seedCategory(s.now().UTC())},
		}
		s.tenants[tenantID] = cfg
	}
	return cfg
}

func (s *PricingStore) upsertRuleLocked(cfg *pricing.Config, rule pricing.CategoryPriceRule) {
	key := rule.Key()
	for i, existing := range cfg.CategoryRules {
		if existing.Key() == key {
			cfg.CategoryRules[i] = rule
			return
		}
	}
	cfg.CategoryRules = append(cfg.CategoryRules, rule)
}

func normalizeRule(rule pricing.CategoryPriceRule) pricing.CategoryPriceRule {
	rule.CategoryCode = pricing.NormalizeCategoryCode(rule.CategoryCode)
	rule.PriceType = pricing.NormalizePriceType(rule.PriceType)
	return rule
}

func nextCategoryOrder(cats []pricing.PriceCategory) int {
	max := 0
	for _, c := range cats {
		if c.Order > max {
			max = c.Order
		}
	}
	return max + categoryOrderStep
}

func seedCategory(now time.Time) pricing.PriceCategory {
	return pricing.PriceCategory{
		Code:      pricing.DefaultPriceType,
		Active:    true,
		Order:     categoryOrderStep,
		Channels:  []string{"web", "call_center"},
		NameI18n:  map[string]string{"en": "Regular"},
		CreatedAt: now,
		UpdatedAt: now,
	}
}
