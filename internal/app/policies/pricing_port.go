package policies

import (
	"context"

	"seabook/internal/domain/pricing"
)

// PricingConfigSource yields immutable pricing configuration snapshots.
// Implementations resolve the fallback chain: tenant overrides layered over
// system defaults.
type PricingConfigSource interface {
	Snapshot(ctx context.Context, tenantID string) (pricing.Config, error)
}
