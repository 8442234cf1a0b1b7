// Package shield provides the HTTP middleware stack guarding the snapshot
// API: security headers, JSON body limits, per-IP rate limiting, request IDs,
// and HEAD method handling.
//
// Usage:
//
//	r := chi.NewRouter()
//	stack, rl := shield.DefaultAPIStack(shield.RateLimitConfig{})
//	rl.StartGC(done)
//	for _, mw := range stack {
//		r.Use(mw)
//	}
package shield

import (
	"context"
	"log/slog"
	"net/http"
)

type contextKey string

// LoggerKey is the context key for the per-request structured logger.
const LoggerKey contextKey = "shield_logger"

// GetLogger retrieves the per-request logger from the context. Returns
// slog.Default() if no logger was set.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(LoggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

// DefaultAPIStack returns the standard middleware stack for the JSON API.
// Order: HeadToGet -> SecurityHeaders -> MaxJSONBody -> RequestID ->
// RateLimiter. Call StartGC on the returned limiter for long-lived servers.
func DefaultAPIStack(limit RateLimitConfig) ([]func(http.Handler) http.Handler, *RateLimiter) {
	rl := NewRateLimiter(limit)
	return []func(http.Handler) http.Handler{
		HeadToGet,
		SecurityHeaders(DefaultHeaders()),
		MaxJSONBody(1 << 20),
		RequestID,
		rl.Middleware,
	}, rl
}
