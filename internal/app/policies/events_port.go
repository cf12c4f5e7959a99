package policies

import (
	"context"

	"seabook/internal/domain/shared/events"
)

// EventPublisher delivers domain events after the primary write succeeds.
// Delivery is best effort: implementations log failures, callers never see
// them.
type EventPublisher interface {
	Publish(ctx context.Context, tenantID string, event events.DomainEvent)
}
