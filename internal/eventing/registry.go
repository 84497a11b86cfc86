package eventing

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sync"
)

// Registry maps event type names to their Go types so envelope payloads
// can be decoded back into concrete events.
type Registry struct {
	mu    sync.RWMutex
	types map[string]reflect.Type
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[string]reflect.Type)}
}

// Register adds an event type by sample value. Pointers are unwrapped.
func (r *Registry) Register(sample any) {
	if r == nil || sample == nil {
		return
	}
	t := reflect.TypeOf(sample)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	r.mu.Lock()
	r.types[t.String()] = t
	r.mu.Unlock()
}

// DecodePayload unmarshals an envelope payload into the registered type.
func (r *Registry) DecodePayload(env Envelope) (any, error) {
	if r == nil {
		return nil, fmt.Errorf("eventing: nil registry")
	}
	r.mu.RLock()
	t, ok := r.types[env.EventType]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("eventing: unknown event type %q", env.EventType)
	}
	target := reflect.New(t)
	if err := json.Unmarshal(env.Payload, target.Interface()); err != nil {
		return nil, err
	}
	return target.Elem().Interface(), nil
}
