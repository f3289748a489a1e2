// Package requestcontext carries request-scoped values that cut across
// layers: the request clock and the request id.
package requestcontext

import (
	"context"
	"time"
)

type requestTimeKey struct{}
type requestIDKey struct{}

// WithRequestTime pins the clock for a request. Middleware sets this once at
// the edge so every time comparison within the request observes the same
// instant, and tests can inject a fixed clock.
func WithRequestTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}

// Now returns the pinned request time, falling back to the wall clock when
// no middleware has set one (e.g. in background workers).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithRequestID attaches the correlation id for a request.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the correlation id, or "" when none was set.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}
