package shared

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/totem-api/internal/domain"
)

// ContextKey is the type of request context keys set by the API layer.
type ContextKey string

const (
	// PrincipalContextKey holds the domain.Principal of the authenticated caller.
	PrincipalContextKey ContextKey = "principal"

	// TraceIDKey is the key for the trace ID in the request context
	TraceIDKey ContextKey = "traceID"
)

// SetTraceID adds a fresh trace ID to the context.
// The ID is a random UUID without dashes (32 hex characters).
func SetTraceID(ctx context.Context) context.Context {
	return context.WithValue(ctx, TraceIDKey, strings.ReplaceAll(uuid.NewString(), "-", ""))
}

// GetTraceID retrieves the trace ID from the context.
// If no trace ID exists, it returns an empty string.
func GetTraceID(ctx context.Context) string {
	traceID, _ := ctx.Value(TraceIDKey).(string)
	return traceID
}

// WithPrincipal stores the caller identity in the context.
func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, PrincipalContextKey, p)
}

// PrincipalFromContext returns the caller identity, or the anonymous
// principal when the request carried no valid token.
func PrincipalFromContext(ctx context.Context) domain.Principal {
	p, _ := ctx.Value(PrincipalContextKey).(domain.Principal)
	return p
}
