package eventing

import "context"

// EventBus is the minimal publish surface the dispatcher needs.
type EventBus interface {
	Publish(ctx context.Context, event any) error
}

// OutboxStore reads and settles pending outbox records.
type OutboxStore interface {
	ListPending(ctx context.Context, limit int) ([]OutboxRecord, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string) error
}

// DLQStore keeps events that could not be delivered.
type DLQStore interface {
	RecordFailure(ctx context.Context, env Envelope, err error) error
}

// OutboxRecord is one pending outbox row.
type OutboxRecord struct {
	ID       string
	Envelope Envelope
}

// Dispatcher drains the outbox onto the in-process bus. Undecodable or
// undeliverable events go to the DLQ and are marked failed; delivery
// continues with the next record.
type Dispatcher struct {
	bus      EventBus
	outbox   OutboxStore
	registry *Registry
	dlq      DLQStore
}

// NewDispatcher constructs a dispatcher.
func NewDispatcher(bus EventBus, outbox OutboxStore, registry *Registry, dlq DLQStore) *Dispatcher {
	return &Dispatcher{bus: bus, outbox: outbox, registry: registry, dlq: dlq}
}

// Dispatch delivers up to limit pending events.
func (d *Dispatcher) Dispatch(ctx context.Context, limit int) error {
	if d == nil || d.outbox == nil || d.bus == nil || d.registry == nil {
		return nil
	}
	if limit <= 0 {
		limit = 50
	}
	records, err := d.outbox.ListPending(ctx, limit)
	if err != nil {
		return err
	}
	for _, record := range records {
		if err := d.deliver(ctx, record); err != nil {
			_ = d.outbox.MarkFailed(ctx, record.ID)
			if d.dlq != nil {
				_ = d.dlq.RecordFailure(ctx, record.Envelope, err)
			}
			continue
		}
		_ = d.outbox.MarkSent(ctx, record.ID)
	}
	return nil
}

func (d *Dispatcher) deliver(ctx context.Context, record OutboxRecord) error {
	event, err := d.registry.DecodePayload(record.Envelope)
	if err != nil {
		return err
	}
	return d.bus.Publish(WithEnvelope(ctx, record.Envelope), event)
}
