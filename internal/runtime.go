package internal

import (
	"log/slog"

	"github.com/google/uuid"
)

// Runtime holds the reactive state of one goroutine:
// its evaluation tracker, task loop and scheduler.
type Runtime struct {
	id string

	config  Config
	logger  *slog.Logger
	metrics *Metrics

	tracker   *Tracker
	loop      *Loop
	scheduler *Scheduler
}

func NewRuntime(opts ...Option) *Runtime {
	r := &Runtime{
		id:      uuid.NewString(),
		tracker: NewTracker(),
		loop:    NewLoop(),
	}
	r.scheduler = NewScheduler(r)
	r.Configure(opts...)

	return r
}

// Configure replaces the runtime settings, starting from the defaults.
func (r *Runtime) Configure(opts ...Option) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	r.config = cfg
	r.logger = cfg.Logger.With("runtime", r.id)
	r.metrics = NewMetrics(cfg.Registerer, cfg.Namespace)
}

func (r *Runtime) ID() string { return r.id }

func (r *Runtime) Config() Config { return r.config }

func (r *Runtime) Logger() *slog.Logger { return r.logger }

func (r *Runtime) Tracker() *Tracker { return r.tracker }

func (r *Runtime) Loop() *Loop { return r.loop }

func (r *Runtime) Scheduler() *Scheduler { return r.scheduler }

// Batch runs fn as a single turn: observers notified inside it are flushed once it returns.
func (r *Runtime) Batch(fn func()) {
	r.loop.Turn(fn)
}

// Untrack runs fn without linking any read to the active observer.
func (r *Runtime) Untrack(fn func()) {
	r.tracker.RunUntracked(fn)
}

// OnCleanup registers fn on the current owner, if any.
func (r *Runtime) OnCleanup(fn func()) {
	if owner := r.tracker.CurrentOwner(); owner != nil {
		owner.OnCleanup(fn)
	}
}

func (r *Runtime) OnFlushed(fn func()) {
	r.scheduler.OnFlushed(fn)
}

// HandleError hands err to the closest owner with error handlers,
// then to the configured handler, and logs it if nobody took it.
func (r *Runtime) HandleError(owner *Owner, err error) {
	kind := errorKind(err)
	r.metrics.errors.WithLabelValues(kind.String()).Inc()

	if owner != nil && owner.catch(err) {
		return
	}

	if r.config.ErrorHandler != nil {
		r.config.ErrorHandler(err)
		return
	}

	if kind == KindCircular {
		r.logger.Warn("unhandled reactor error", "err", err)
		return
	}
	r.logger.Error("unhandled reactor error", "err", err)
}

// call runs a runtime-level hook, routing a panic to the error handler.
func (r *Runtime) call(owner *Owner, fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			r.HandleError(owner, &Error{Kind: KindHook, Err: asError(rec)})
		}
	}()

	GetRuntime().tracker.RunUntracked(fn)
}
