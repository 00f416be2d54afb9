package reactor

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"github.com/AnatoleLucet/reactor/internal"
)

// WatchOption configures a watcher.
type WatchOption func(*internal.ObserverOptions)

// Lazy watchers do not evaluate until asked to: a change only marks them dirty.
func Lazy() WatchOption {
	return func(o *internal.ObserverOptions) { o.Lazy = true }
}

// Sync watchers re-run as soon as a dependency changes, without batching.
func Sync() WatchOption {
	return func(o *internal.ObserverOptions) { o.Sync = true }
}

// Deep watchers depend on every value nested in their result.
func Deep() WatchOption {
	return func(o *internal.ObserverOptions) { o.Deep = true }
}

// Immediate calls the callback once with the initial value.
func Immediate() WatchOption {
	return func(o *internal.ObserverOptions) { o.Immediate = true }
}

// Before registers fn to run right before each batched re-run.
func Before(fn func()) WatchOption {
	return func(o *internal.ObserverOptions) { o.Before = fn }
}

// OnStop registers fn to run when the watcher is torn down.
func OnStop(fn func()) WatchOption {
	return func(o *internal.ObserverOptions) { o.OnStop = fn }
}

// OnTrack registers fn to be called for every tracked read.
func OnTrack(fn func(DebugEvent)) WatchOption {
	return func(o *internal.ObserverOptions) { o.OnTrack = fn }
}

// OnTrigger registers fn to be called for every notification the watcher receives.
func OnTrigger(fn func(DebugEvent)) WatchOption {
	return func(o *internal.ObserverOptions) { o.OnTrigger = fn }
}

// Expression names the watcher in error reports.
func Expression(expr string) WatchOption {
	return func(o *internal.ObserverOptions) { o.Expression = expr }
}

type (
	Option         = internal.Option
	Error          = internal.Error
	ErrorKind      = internal.ErrorKind
	DebugEvent     = internal.DebugEvent
	DebugEventType = internal.DebugEventType
)

const (
	KindGetter   = internal.KindGetter
	KindCallback = internal.KindCallback
	KindHook     = internal.KindHook
	KindCircular = internal.KindCircular

	DebugTrack   = internal.DebugTrack
	DebugTrigger = internal.DebugTrigger

	DefaultMaxUpdateCount = internal.DefaultMaxUpdateCount
)

var (
	ErrCircularUpdate = internal.ErrCircularUpdate
	ErrInvalidPath    = internal.ErrInvalidPath
)

func WithLogger(logger *slog.Logger) Option { return internal.WithLogger(logger) }

func WithErrorHandler(fn func(error)) Option { return internal.WithErrorHandler(fn) }

func WithMaxUpdateCount(n int) Option { return internal.WithMaxUpdateCount(n) }

func WithAsync(async bool) Option { return internal.WithAsync(async) }

func WithRegisterer(reg prometheus.Registerer) Option { return internal.WithRegisterer(reg) }

func WithNamespace(namespace string) Option { return internal.WithNamespace(namespace) }

func WithTracer(tracer trace.Tracer) Option { return internal.WithTracer(tracer) }

func WithContext(ctx context.Context) Option { return internal.WithContext(ctx) }
