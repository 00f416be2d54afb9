package reactor

import "github.com/AnatoleLucet/reactor/internal"

func as[T any](v any) T {
	if v == nil {
		var zero T
		return zero
	}

	return v.(T)
}

// Watcher observes a getter and calls back with the new and previous value when it changes.
type Watcher[T any] struct {
	observer *internal.Observer
}

// Watch evaluates getter, tracking every reactive value it reads,
// and calls cb whenever a later evaluation yields a different value.
//
// By default re-evaluations are batched: they run once, after the write
// (or the Batch) that triggered them returns.
func Watch[T any](getter func() T, cb func(newValue, oldValue T), opts ...WatchOption) *Watcher[T] {
	options := internal.ObserverOptions{
		User:       true,
		Expression: internal.FuncName(getter),
	}

	return newWatcher(func() any { return getter() }, cb, options, opts)
}

// WatchPath watches a dot-delimited path into root, such as "user.address.city".
func WatchPath(root *Object, path string, cb func(newValue, oldValue any), opts ...WatchOption) (*Watcher[any], error) {
	get, err := internal.ParsePath(path)
	if err != nil {
		return nil, err
	}

	options := internal.ObserverOptions{
		User:       true,
		Expression: path,
	}

	return newWatcher(func() any { return get(root) }, cb, options, opts), nil
}

func newWatcher[T any](getter func() any, cb func(newValue, oldValue T), options internal.ObserverOptions, opts []WatchOption) *Watcher[T] {
	for _, opt := range opts {
		opt(&options)
	}

	var callback func(newValue, oldValue any)
	if cb != nil {
		callback = func(newValue, oldValue any) {
			cb(as[T](newValue), as[T](oldValue))
		}
	}

	return &Watcher[T]{
		internal.GetRuntime().NewObserver(getter, callback, options),
	}
}

// ID returns the watcher id. Ids increase in creation order.
func (w *Watcher[T]) ID() uint64 { return w.observer.ID() }

// Value returns the last computed value.
func (w *Watcher[T]) Value() T { return as[T](w.observer.Value()) }

// Dirty reports whether a lazy watcher has a dependency that changed since its last evaluation.
func (w *Watcher[T]) Dirty() bool { return w.observer.Dirty() }

// Active reports whether the watcher has not been torn down.
func (w *Watcher[T]) Active() bool { return w.observer.Active() }

// Run re-evaluates the watcher now, firing the callback if the value changed.
func (w *Watcher[T]) Run() { w.observer.Run() }

// Evaluate recomputes the value without firing the callback.
func (w *Watcher[T]) Evaluate() { w.observer.Evaluate() }

// Depend makes the watcher currently evaluating depend on everything w depends on.
func (w *Watcher[T]) Depend() { w.observer.Depend() }

// Teardown stops the watcher. It is safe to call more than once, including from its own callback.
func (w *Watcher[T]) Teardown() { w.observer.Teardown() }

type Computed[T any] struct {
	observer *internal.Observer
}

// NewComputed creates a cached derived value. It is only recomputed when read
// after one of its dependencies changed.
// A panic inside compute is not recovered: it reaches the caller of Read.
func NewComputed[T any](compute func() T) *Computed[T] {
	return &Computed[T]{
		internal.GetRuntime().NewObserver(func() any { return compute() }, nil, internal.ObserverOptions{
			Lazy:       true,
			Expression: internal.FuncName(compute),
		}),
	}
}

// Read the current value, recomputing it if needed. Within a reactive context,
// the reader also depends on everything the computed value depends on.
func (c *Computed[T]) Read() T {
	if c.observer.Dirty() {
		c.observer.Evaluate()
	}
	c.observer.Depend()

	return as[T](c.observer.Value())
}

// Dispose stops tracking. Reading afterwards returns the last value.
func (c *Computed[T]) Dispose() { c.observer.Teardown() }

type Effect struct {
	observer *internal.Observer
}

// NewEffect runs fn, and runs it again after any value it read changes.
// Cleanups registered with OnCleanup inside fn run before the next run and on disposal.
// A panic inside fn is handed to the closest owner with an error handler.
func NewEffect(fn func()) *Effect {
	return &Effect{
		internal.GetRuntime().NewObserver(func() any { fn(); return nil }, nil, internal.ObserverOptions{
			User:       true,
			Expression: internal.FuncName(fn),
		}),
	}
}

// Dispose stops the effect and runs its cleanups.
func (e *Effect) Dispose() { e.observer.Teardown() }

// Batch groups writes: the watchers and effects they trigger run once, after fn returns.
func Batch(fn func()) {
	internal.GetRuntime().Batch(fn)
}

// Untrack runs the given function without tracking any reactive dependencies.
func Untrack[T any](fn func() T) T {
	var result T
	internal.GetRuntime().Untrack(func() { result = fn() })
	return result
}

// OnCleanup registers a function to be called when the current owner is disposed,
// or, inside an effect, before the effect runs again.
func OnCleanup(fn func()) {
	internal.GetRuntime().OnCleanup(fn)
}

// OnFlushed calls fn once the pending updates have run.
// With nothing pending, fn runs once the current batch returns.
func OnFlushed(fn func()) {
	internal.GetRuntime().OnFlushed(fn)
}

// Configure replaces the settings of the calling goroutine's runtime.
func Configure(opts ...Option) {
	internal.GetRuntime().Configure(opts...)
}

type Owner struct {
	owner *internal.Owner
}

// NewOwner creates a new reactive owner.
// An owner manages the lifecycle of reactive nodes created within its context.
func NewOwner() *Owner {
	return &Owner{
		internal.GetRuntime().NewOwner(),
	}
}

// Run a function within the context of this owner.
// Each reactive node created within the function will be a child of this owner,
// and will be disposed when owner.Dispose() is called on this owner.
func (o *Owner) Run(fn func() error) error {
	var err error
	o.owner.Run(func() { err = fn() })
	return err
}

// Dispose this owner and all its children.
func (o *Owner) Dispose() { o.owner.Dispose() }

// Add a cleanup function to be called when the owner is disposed.
func (o *Owner) OnCleanup(fn func()) { o.owner.OnCleanup(fn) }

// Add a function to be called once the owner and its children are disposed.
func (o *Owner) OnDispose(fn func()) { o.owner.OnDispose(fn) }

// Add a function to be called with the errors raised within this owner:
// panics in Run, and the errors of the watchers it owns.
// If no error listener is registered, panics propagate as usual.
func (o *Owner) OnError(fn func(error)) { o.owner.OnError(fn) }
