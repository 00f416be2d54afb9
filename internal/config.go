package internal

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// DefaultMaxUpdateCount is how many times an observer may re-queue itself
// within one flush before it is reported as a circular update.
const DefaultMaxUpdateCount = 100

// Config holds the settings of a runtime.
type Config struct {
	// Logger receives diagnostics (default: slog.Default()).
	Logger *slog.Logger

	// ErrorHandler receives the errors no owner handled.
	// If nil, they are logged.
	ErrorHandler func(error)

	// MaxUpdateCount bounds how many times one observer may re-run in a flush.
	MaxUpdateCount int

	// Async batches observer re-runs into a deferred flush (default: true).
	// When false, every queued observer is flushed immediately.
	Async bool

	// Registerer receives the runtime metrics.
	// If nil, metrics are collected but not registered.
	Registerer prometheus.Registerer

	// Namespace of the metrics (default: "reactor").
	Namespace string

	// Tracer creates a span per flush (default: the global otel tracer provider).
	Tracer trace.Tracer

	// Context is the parent of the flush spans.
	Context context.Context
}

// Option configures a runtime.
type Option func(*Config)

func DefaultConfig() Config {
	return Config{
		Logger:         slog.Default(),
		MaxUpdateCount: DefaultMaxUpdateCount,
		Async:          true,
		Namespace:      "reactor",
		Tracer:         otel.Tracer(tracerName),
		Context:        context.Background(),
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// WithErrorHandler sets the handler of errors no owner handled.
func WithErrorHandler(fn func(error)) Option {
	return func(c *Config) {
		c.ErrorHandler = fn
	}
}

// WithMaxUpdateCount sets the circular update threshold.
func WithMaxUpdateCount(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.MaxUpdateCount = n
		}
	}
}

// WithAsync enables or disables batched flushing.
func WithAsync(async bool) Option {
	return func(c *Config) {
		c.Async = async
	}
}

// WithRegisterer sets the prometheus registerer.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registerer = reg
	}
}

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithTracer sets the tracer used for flush spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Config) {
		if tracer != nil {
			c.Tracer = tracer
		}
	}
}

// WithContext sets the parent context of flush spans.
func WithContext(ctx context.Context) Option {
	return func(c *Config) {
		if ctx != nil {
			c.Context = ctx
		}
	}
}
