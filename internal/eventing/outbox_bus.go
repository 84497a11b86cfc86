package eventing

import (
	"context"

	"utility-cloud/internal/eventing/eventbus"
)

// OutboxWriter inserts envelopes into durable storage.
type OutboxWriter interface {
	Insert(ctx context.Context, env Envelope) (string, error)
}

// Subscriber registers event handlers.
type Subscriber interface {
	Subscribe(eventType string, handler eventbus.EventHandler)
}

// Publisher is the write side of the outbox pattern: events land in
// storage first, then an eager dispatch pass pushes them onto the bus.
// The periodic dispatcher loop picks up anything the eager pass missed.
type Publisher struct {
	outbox   OutboxWriter
	dispatch *Dispatcher
	tenantID string
	sub      Subscriber
}

// NewPublisher constructs a publisher. tenantID is the fallback tenant
// for events whose context carries none.
func NewPublisher(outbox OutboxWriter, dispatch *Dispatcher, tenantID string, sub Subscriber) *Publisher {
	return &Publisher{outbox: outbox, dispatch: dispatch, tenantID: tenantID, sub: sub}
}

// Publish stores the event and attempts immediate delivery.
func (p *Publisher) Publish(ctx context.Context, event any) error {
	if p == nil || p.outbox == nil {
		return nil
	}
	env, err := BuildEnvelope(event, MetaFromContext(ctx, p.tenantID))
	if err != nil {
		return err
	}
	if _, err := p.outbox.Insert(ctx, env); err != nil {
		return err
	}
	if p.dispatch != nil {
		_ = p.dispatch.Dispatch(ctx, 1)
	}
	return nil
}

// Subscribe registers a handler on the underlying bus.
func (p *Publisher) Subscribe(eventType string, handler eventbus.EventHandler) {
	if p == nil || p.sub == nil {
		return
	}
	p.sub.Subscribe(eventType, handler)
}
