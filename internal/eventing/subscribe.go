package eventing

import (
	"context"

	"utility-cloud/internal/eventing/eventbus"
)

// ProcessedStore tracks handled (event, consumer) pairs.
type ProcessedStore interface {
	HasProcessed(ctx context.Context, eventID, consumerName string) (bool, error)
	MarkProcessed(ctx context.Context, eventID, consumerName string) error
}

// Subscribe registers a handler, made idempotent through the store
// when one is given.
func Subscribe(bus eventbus.EventBus, eventType, consumerName string, handler eventbus.EventHandler, store ProcessedStore) {
	if store != nil {
		handler = WrapHandler(consumerName, handler, store)
	}
	bus.Subscribe(eventType, handler)
}

// WrapHandler skips events the consumer already processed and records
// each successful handling. Events without an envelope (direct bus
// publishes) pass straight through.
func WrapHandler(consumerName string, handler eventbus.EventHandler, store ProcessedStore) eventbus.EventHandler {
	return func(ctx context.Context, event any) error {
		env, ok := EnvelopeFromContext(ctx)
		if !ok || env.EventID == "" {
			return handler(ctx, event)
		}
		done, err := store.HasProcessed(ctx, env.EventID, consumerName)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if err := handler(ctx, event); err != nil {
			return err
		}
		return store.MarkProcessed(ctx, env.EventID, consumerName)
	}
}
