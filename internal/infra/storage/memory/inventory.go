package memory

import (
	"context"
	"sync"

	"seabook/internal/domain/inventory"
)

// InventoryStore hands out one inventory ledger per tenant, created lazily.
type InventoryStore struct {
	mu      sync.Mutex
	ledgers map[string]*inventory.Ledger
}

func NewInventoryStore() *InventoryStore {
	return &InventoryStore{ledgers: make(map[string]*inventory.Ledger)}
}

func (s *InventoryStore) Ledger(ctx context.Context, tenantID string) (*inventory.Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.ledgers[tenantID]
	if !ok {
		l = inventory.NewLedger()
		s.ledgers[tenantID] = l
	}
	return l, nil
}
