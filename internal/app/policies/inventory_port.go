package policies

import (
	"context"

	"seabook/internal/domain/inventory"
)

// InventorySource hands out the per-tenant inventory ledger. Ledgers are
// created on first use; two calls with the same tenant return the same
// ledger.
type InventorySource interface {
	Ledger(ctx context.Context, tenantID string) (*inventory.Ledger, error)
}
