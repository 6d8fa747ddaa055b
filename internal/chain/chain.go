package chain

import (
	"context"
	"log/slog"
	"time"

	"chime/internal/logging"
	"chime/internal/services"
)

// Backend is one ranked participant in a fallback chain.
type Backend[T any] interface {
	// Name identifies the backend in logs and results.
	Name() string
	// Eligible reports whether the backend can run at all right now
	// (credentials present, binary installed, service reachable).
	Eligible(ctx context.Context) bool
	// Timeout bounds a single attempt. Zero means the caller's context
	// alone governs.
	Timeout() time.Duration
	// Invoke performs one attempt.
	Invoke(ctx context.Context, input string) (T, error)
}

// Attempt records one backend try within a pass.
type Attempt struct {
	Backend  string
	Duration time.Duration
	Err      error
}

// Result is the outcome of one pass over a chain.
type Result[T any] struct {
	Value T
	// Backend names the backend that produced Value; empty when Fallback.
	Backend string
	// Fallback is set when the value came from the static fallback rather
	// than any backend.
	Fallback bool
	Duration time.Duration
	Attempts []Attempt
}

// Chain resolves values across ranked backends.
type Chain[T any] struct {
	name     string
	backends []Backend[T]
	fallback func() T
	// empty reports whether a backend result counts as no result. Nil
	// means any error-free result is accepted.
	empty  func(T) bool
	logger *slog.Logger
}

// Option configures a Chain.
type Option[T any] func(*Chain[T])

// WithEmpty installs the empty-result predicate; empty results advance the
// chain exactly like failures.
func WithEmpty[T any](empty func(T) bool) Option[T] {
	return func(c *Chain[T]) {
		c.empty = empty
	}
}

// WithLogger attaches a logger for per-attempt diagnostics.
func WithLogger[T any](logger *slog.Logger) Option[T] {
	return func(c *Chain[T]) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New constructs a chain. The fallback must not be nil; it is consulted only
// on exhaustion.
func New[T any](name string, backends []Backend[T], fallback func() T, opts ...Option[T]) *Chain[T] {
	c := &Chain[T]{
		name:     name,
		backends: backends,
		fallback: fallback,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve runs one pass: each eligible backend in rank order, at most one
// attempt each. Exhaustion yields the fallback value, never an error.
func (c *Chain[T]) Resolve(ctx context.Context, input string) Result[T] {
	started := time.Now()
	attempts := make([]Attempt, 0, len(c.backends))

	for _, backend := range c.backends {
		if ctx.Err() != nil {
			break
		}
		if !backend.Eligible(ctx) {
			continue
		}

		value, attempt := c.invoke(ctx, backend, input)
		attempts = append(attempts, attempt)
		if attempt.Err == nil {
			return Result[T]{
				Value:    value,
				Backend:  backend.Name(),
				Duration: time.Since(started),
				Attempts: attempts,
			}
		}

		c.logger.Warn("backend attempt failed",
			logging.String(logging.FieldComponent, c.name),
			logging.String(logging.FieldBackend, backend.Name()),
			logging.Duration("attempt_duration", attempt.Duration),
			logging.Error(attempt.Err))
		if !services.Retriable(attempt.Err) {
			break
		}
	}

	return Result[T]{
		Value:    c.fallback(),
		Fallback: true,
		Duration: time.Since(started),
		Attempts: attempts,
	}
}

func (c *Chain[T]) invoke(ctx context.Context, backend Backend[T], input string) (T, Attempt) {
	attemptCtx := ctx
	if timeout := backend.Timeout(); timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	began := time.Now()
	value, err := backend.Invoke(services.WithBackend(attemptCtx, backend.Name()), input)
	attempt := Attempt{Backend: backend.Name(), Duration: time.Since(began), Err: err}
	if err == nil && attemptCtx.Err() != nil {
		attempt.Err = services.Wrap(services.ErrTimeout, backend.Name(), "invoke", "deadline exceeded", attemptCtx.Err())
	}
	if attempt.Err == nil && c.empty != nil && c.empty(value) {
		attempt.Err = services.Wrap(services.ErrBackendFailure, backend.Name(), "invoke", "empty result", nil)
	}
	return value, attempt
}

// Func adapts plain functions into a Backend, primarily for small backends
// and tests.
type Func[T any] struct {
	BackendName string
	EligibleFn  func(ctx context.Context) bool
	TimeoutVal  time.Duration
	InvokeFn    func(ctx context.Context, input string) (T, error)
}

func (f Func[T]) Name() string { return f.BackendName }

func (f Func[T]) Eligible(ctx context.Context) bool {
	if f.EligibleFn == nil {
		return true
	}
	return f.EligibleFn(ctx)
}

func (f Func[T]) Timeout() time.Duration { return f.TimeoutVal }

func (f Func[T]) Invoke(ctx context.Context, input string) (T, error) {
	return f.InvokeFn(ctx, input)
}
