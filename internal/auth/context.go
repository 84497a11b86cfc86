package auth

import "context"

type contextKey int

const (
	ctxTenant contextKey = iota
	ctxRole
	ctxSubject
)

// WithIdentity stores the caller's identity on the context.
func WithIdentity(ctx context.Context, tenantID string, role Role, subject string) context.Context {
	ctx = context.WithValue(ctx, ctxTenant, tenantID)
	ctx = context.WithValue(ctx, ctxRole, role)
	return context.WithValue(ctx, ctxSubject, subject)
}

// TenantIDFromContext returns the caller's tenant id, or "".
func TenantIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	tenantID, _ := ctx.Value(ctxTenant).(string)
	return tenantID
}

// RoleFromContext returns the caller's role, or "".
func RoleFromContext(ctx context.Context) Role {
	if ctx == nil {
		return ""
	}
	switch value := ctx.Value(ctxRole).(type) {
	case Role:
		return value
	case string:
		if role, ok := NormalizeRole(value); ok {
			return role
		}
	}
	return ""
}

// SubjectFromContext returns the caller's subject claim, or "".
func SubjectFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	subject, _ := ctx.Value(ctxSubject).(string)
	return subject
}
