package eventing

import (
	"testing"
	"time"
)

type sampleEvent struct {
	MeterID    string    `json:"meter_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Value      float64   `json:"value"`
}

func TestBuildEnvelope_ExtractsMeterAndTime(t *testing.T) {
	occurred := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	env, err := BuildEnvelope(sampleEvent{MeterID: "meter-1", OccurredAt: occurred, Value: 12.5}, Meta{TenantID: "tenant-a"})
	if err != nil {
		t.Fatalf("build envelope: %v", err)
	}
	if env.MeterID != "meter-1" {
		t.Fatalf("meter id: got %q", env.MeterID)
	}
	if !env.OccurredAt.Equal(occurred) {
		t.Fatalf("occurred at: got %s", env.OccurredAt)
	}
	if env.TenantID != "tenant-a" {
		t.Fatalf("tenant id: got %q", env.TenantID)
	}
	if env.EventID == "" || env.CorrelationID != env.EventID {
		t.Fatalf("event id / correlation defaults: %q %q", env.EventID, env.CorrelationID)
	}
	if env.EventType != "eventing.sampleEvent" {
		t.Fatalf("event type: got %q", env.EventType)
	}
}

func TestRegistryRoundTrip(t *testing.T) {
	registry := NewRegistry()
	registry.Register(sampleEvent{})

	env, err := BuildEnvelope(sampleEvent{MeterID: "meter-2", Value: 3}, Meta{})
	if err != nil {
		t.Fatalf("build envelope: %v", err)
	}
	decoded, err := registry.DecodePayload(env)
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	event, ok := decoded.(sampleEvent)
	if !ok {
		t.Fatalf("decoded type: %T", decoded)
	}
	if event.MeterID != "meter-2" || event.Value != 3 {
		t.Fatalf("decoded event: %+v", event)
	}
}

func TestRegistryUnknownType(t *testing.T) {
	registry := NewRegistry()
	_, err := registry.DecodePayload(Envelope{EventType: "nope"})
	if err == nil {
		t.Fatal("expected unknown type error")
	}
}
