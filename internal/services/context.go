package services

import "context"

type contextKey string

const (
	signalKey    contextKey = "signal"
	backendKey   contextKey = "backend"
	requestIDKey contextKey = "request_id"
)

// WithSignal annotates context with the signal kind being serviced.
func WithSignal(ctx context.Context, signal string) context.Context {
	if signal == "" {
		return ctx
	}
	return context.WithValue(ctx, signalKey, signal)
}

// SignalFromContext returns the signal kind if present.
func SignalFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(signalKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithBackend annotates context with the backend currently being attempted.
func WithBackend(ctx context.Context, backend string) context.Context {
	if backend == "" {
		return ctx
	}
	return context.WithValue(ctx, backendKey, backend)
}

// BackendFromContext returns the backend name if present.
func BackendFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(backendKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
