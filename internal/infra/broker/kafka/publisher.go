package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"seabook/internal/domain/shared/events"
)

type messageProducer interface {
	Publish(ctx context.Context, topic, key string, payload []byte, headers map[string]string) error
}

// EventPublisher posts domain events as CloudEvents JSON. Publishing is best
// effort: failures are logged and swallowed so event delivery never fails a
// booking write.
type EventPublisher struct {
	Producer    messageProducer
	TopicPrefix string
	Source      string
	Logger      *slog.Logger
}

func (p *EventPublisher) Publish(ctx context.Context, tenantID string, event events.DomainEvent) {
	if p == nil || p.Producer == nil || event == nil {
		return
	}
	payload, err := json.Marshal(map[string]any{
		"specversion":     "1.0",
		"id":              uuid.NewString(),
		"type":            event.EventName() + ".v1",
		"source":          p.source(),
		"time":            event.OccurredAt(),
		"datacontenttype": "application/json",
		"data":            event,
	})
	if err != nil {
		p.warn("event payload not serializable", event, err)
		return
	}
	headers := map[string]string{
		"content-type": "application/cloudevents+json",
		"tenant-id":    tenantID,
	}
	if err := p.Producer.Publish(ctx, p.topicFor(event.EventName()), event.AggregateID(), payload, headers); err != nil {
		p.warn("event publish failed", event, err)
	}
}

func (p *EventPublisher) topicFor(name string) string {
	base := name
	if idx := strings.IndexRune(name, '.'); idx > 0 {
		base = name[:idx]
	}
	return p.TopicPrefix + base + ".events.v1"
}

func (p *EventPublisher) source() string {
	if p.Source != "" {
		return p.Source
	}
	return "seabook"
}

func (p *EventPublisher) warn(msg string, event events.DomainEvent, err error) {
	if p.Logger == nil {
		return
	}
	p.Logger.Warn(msg, "event", event.EventName(), "aggregate_id", event.AggregateID(), "error", err)
}
