package interfaces

import (
	"context"

	"utility-cloud/internal/eventing"
	"utility-cloud/internal/invoices/application/events"
)

// OutboxPublisher writes invoice lifecycle events to the outbox.
type OutboxPublisher struct {
	publisher *eventing.Publisher
	tenantID  string
}

// NewOutboxPublisher constructs an outbox publisher. The tenant id is a
// fallback; events carrying their own tenant win.
func NewOutboxPublisher(publisher *eventing.Publisher, tenantID string) *OutboxPublisher {
	return &OutboxPublisher{publisher: publisher, tenantID: tenantID}
}

// PublishInvoiceIssued writes the event to the outbox.
func (p *OutboxPublisher) PublishInvoiceIssued(ctx context.Context, event events.InvoiceIssued) error {
	if p == nil || p.publisher == nil {
		return nil
	}
	ctx = eventing.WithTenantID(ctx, p.eventTenant(event.TenantID))
	return p.publisher.Publish(ctx, event)
}

// PublishInvoiceVoided writes the event to the outbox.
func (p *OutboxPublisher) PublishInvoiceVoided(ctx context.Context, event events.InvoiceVoided) error {
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
