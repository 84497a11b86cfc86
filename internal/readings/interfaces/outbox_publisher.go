package interfaces

import (
	"context"

	"utility-cloud/internal/eventing"
	"utility-cloud/internal/readings/application/events"
)

// OutboxPublisher writes reading review events to the outbox.
type OutboxPublisher struct {
	publisher *eventing.Publisher
	tenantID  string
}

// NewOutboxPublisher constructs an outbox publisher. The tenant id is a
// fallback; events carrying their own tenant win.
func NewOutboxPublisher(publisher *eventing.Publisher, tenantID string) *OutboxPublisher {
	return &OutboxPublisher{publisher: publisher, tenantID: tenantID}
}

// PublishReadingValidated writes the event to the outbox.
func (p *OutboxPublisher) PublishReadingValidated(ctx context.Context, event events.ReadingValidated) error {
	if p == nil || p.publisher == nil {
		return nil
	}
	ctx = eventing.WithTenantID(ctx, p.eventTenant(event.TenantID))
	return p.publisher.Publish(ctx, event)
}

// PublishReadingRejected writes the event to the outbox.
func (p *OutboxPublisher) PublishReadingRejected(ctx context.Context, event events.ReadingRejected) error {
	if p == nil || p.publisher == nil {
		return nil
	}
	ctx = eventing.WithTenantID(ctx, p.eventTenant(event.TenantID))
	return p.publisher.Publish(ctx, event)
}

func (p *OutboxPublisher) eventTenant(tenantID string) string {
	if tenantID != "" {
		return tenantID
	}
	return p.tenantID
}
