// Package requestcontext provides HTTP-independent accessors for
// request-scoped values.
//
// Middleware sets the values; services read them. Keeping this package free of
// net/http lets the registry service depend on it without pulling transport
// code in.
//
//	caller := requestcontext.Caller(ctx)
//	now := requestcontext.Now(ctx)
//
// Tests inject values directly:
//
//	ctx = requestcontext.WithCaller(ctx, owner)
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"

	"proptoken/pkg/domain"
)

type (
	callerKey      struct{}
	tokenIDKey     struct{}
	tokenExpiryKey struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Caller returns the authenticated identity making the call, or the zero
// identity when the request is unauthenticated.
func Caller(ctx context.Context) domain.Identity {
	if caller, ok := ctx.Value(callerKey{}).(domain.Identity); ok {
		return caller
	}
	return domain.Identity{}
}

// WithCaller injects the calling identity.
func WithCaller(ctx context.Context, caller domain.Identity) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// TokenID returns the jti of the bearer token that authenticated the caller.
func TokenID(ctx context.Context) string {
	if jti, ok := ctx.Value(tokenIDKey{}).(string); ok {
		return jti
	}
	return ""
}

// WithTokenID injects the bearer token id.
func WithTokenID(ctx context.Context, jti string) context.Context {
	return context.WithValue(ctx, tokenIDKey{}, jti)
}

// TokenExpiry returns when the bearer token stops being valid, or the zero
// time when no token authenticated the request.
func TokenExpiry(ctx context.Context) time.Time {
	if exp, ok := ctx.Value(tokenExpiryKey{}).(time.Time); ok {
		return exp
	}
	return time.Time{}
}

// WithTokenExpiry injects the bearer token's expiry.
func WithTokenExpiry(ctx context.Context, exp time.Time) context.Context {
	return context.WithValue(ctx, tokenExpiryKey{}, exp)
}

// RequestID retrieves the correlation id of the current request.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(requestIDKey{}).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a correlation id.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// Now retrieves the request-scoped time. Falls back to time.Now() outside
// HTTP requests (seed loading, CLI, tests that don't care).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a fixed request time.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
