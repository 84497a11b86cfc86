package eventing

import "context"

type contextKey int

const (
	ctxEnvelope contextKey = iota
	ctxTenant
	ctxCorrelation
	ctxEventID
)

// WithEnvelope attaches delivery metadata for downstream consumers.
func WithEnvelope(ctx context.Context, env Envelope) context.Context {
	return context.WithValue(ctx, ctxEnvelope, env)
}

// EnvelopeFromContext returns the envelope attached by the dispatcher.
func EnvelopeFromContext(ctx context.Context) (Envelope, bool) {
	env, ok := ctx.Value(ctxEnvelope).(Envelope)
	return env, ok
}

// WithTenantID sets the tenant a published event belongs to.
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, ctxTenant, tenantID)
}

// WithCorrelationID chains a published event to an earlier one.
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, ctxCorrelation, correlationID)
}

// WithEventID pins the event id instead of generating one.
func WithEventID(ctx context.Context, eventID string) context.Context {
	return context.WithValue(ctx, ctxEventID, eventID)
}

// MetaFromContext collects envelope metadata off the context, falling
// back to the given tenant when none was set.
func MetaFromContext(ctx context.Context, defaultTenantID string) Meta {
	var meta Meta
	meta.TenantID, _ = ctx.Value(ctxTenant).(string)
	if meta.TenantID == "" {
		meta.TenantID = defaultTenantID
	}
	meta.CorrelationID, _ = ctx.Value(ctxCorrelation).(string)
	meta.EventID, _ = ctx.Value(ctxEventID).(string)
	return meta
}
