package tenant

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/fleetkit/pkg/tenantid"
)

// contextKey is a private type to prevent collisions with other context keys.
type contextKey struct{}

// WithIdentity adds the resolved identity to the context.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, identity)
}

// FromContext retrieves the identity from the context.
func FromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(contextKey{}).(Identity)
	return identity, ok
}

// MustFromContext retrieves the identity from the context and panics if
// absent. Use only in handlers mounted behind RequireIdentity.
func MustFromContext(ctx context.Context) Identity {
	identity, ok := FromContext(ctx)
	if !ok {
		panic("tenant: no identity in context")
	}
	return identity
}

// TenantIDFromContext provides fast access to the tenant identifier
// without exposing the full identity.
func TenantIDFromContext(ctx context.Context) (tenantid.ID, bool) {
	identity, ok := FromContext(ctx)
	if !ok {
		return "", false
	}
	return identity.TenantID, true
}

// LoggerExtractor returns a context extractor that enriches log records
// with the tenant identifier, for use with the logger package.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id, ok := TenantIDFromContext(ctx); ok {
			return slog.String("tenant_id", id.String()), true
		}
		return slog.Attr{}, false
	}
}
