package eventing

import (
	"encoding/json"
	"errors"
	"reflect"
	"time"
)

// Envelope wraps an event payload with delivery metadata. Events are
// named by their Go type; the payload is the JSON-encoded event itself.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	OccurredAt    time.Time       `json:"occurred_at"`
	CorrelationID string          `json:"correlation_id"`
	TenantID      string          `json:"tenant_id"`
	MeterID       string          `json:"meter_id"`
	SchemaVersion int             `json:"schema_version"`
	Payload       json.RawMessage `json:"payload"`
}

// Meta overrides envelope fields that cannot be derived from the event.
type Meta struct {
	EventID       string
	OccurredAt    time.Time
	CorrelationID string
	TenantID      string
	MeterID       string
	SchemaVersion int
}

// BuildEnvelope wraps an event. Meter id and occurrence time are read
// off the event struct when the meta leaves them empty; a fresh event
// id doubles as correlation id for root events.
func BuildEnvelope(event any, meta Meta) (Envelope, error) {
	if event == nil {
		return Envelope{}, errors.New("eventing: nil event")
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return Envelope{}, err
	}

	env := Envelope{
		EventID:       meta.EventID,
		EventType:     typeName(event),
		OccurredAt:    meta.OccurredAt,
		CorrelationID: meta.CorrelationID,
		TenantID:      meta.TenantID,
		MeterID:       meta.MeterID,
		SchemaVersion: meta.SchemaVersion,
		Payload:       payload,
	}
	if env.MeterID == "" {
		env.MeterID, _ = structField(event, "MeterID").(string)
	}
	if env.OccurredAt.IsZero() {
		env.OccurredAt, _ = structField(event, "OccurredAt").(time.Time)
	}
	if env.OccurredAt.IsZero() {
		env.OccurredAt = time.Now()
	}
	env.OccurredAt = env.OccurredAt.UTC()
	if env.EventID == "" {
		env.EventID = newEventID()
	}
	if env.CorrelationID == "" {
		env.CorrelationID = env.EventID
	}
	if env.SchemaVersion == 0 {
		env.SchemaVersion = 1
	}
	return env, nil
}

func typeName(event any) string {
	t := reflect.TypeOf(event)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.String()
}

// structField reads a named field off a struct event, or nil.
func structField(event any, name string) any {
	v := reflect.ValueOf(event)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}
	field := v.FieldByName(name)
	if !field.IsValid() || !field.CanInterface() {
		return nil
	}
	return field.Interface()
}
