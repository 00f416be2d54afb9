package internal

import (
	"cmp"
	"sync/atomic"
)

var observerUID atomic.Uint64

// ObserverOptions configures how an observer reacts to changes.
type ObserverOptions struct {
	// Lazy observers only mark themselves dirty and recompute on Evaluate.
	Lazy bool
	// Sync observers re-run inside Notify instead of going through the scheduler.
	Sync bool
	// Deep observers traverse their value so nested cells become dependencies.
	Deep bool
	// User observers have their getter panics routed to the error handler.
	User bool
	// Immediate fires the callback once with the initial value.
	Immediate bool

	// Before runs right before the scheduler re-runs the observer.
	Before func()
	// OnStop runs once the observer is torn down.
	OnStop func()

	OnTrack   func(DebugEvent)
	OnTrigger func(DebugEvent)

	// Expression describes the getter in diagnostics.
	Expression string
}

// Observer re-evaluates a getter whenever one of the publishers it read notifies,
// and calls its callback with the new and previous value.
type Observer struct {
	// owns the observers and cleanups created by the current evaluation
	*Owner

	id uint64
	rt *Runtime

	getter func() any
	cb     func(newValue, oldValue any)
	opts   ObserverOptions

	// publishers read by the last evaluation
	deps   []*Publisher
	depIDs map[uint64]struct{}

	// publishers read by the evaluation in progress
	newDeps   []*Publisher
	newDepIDs map[uint64]struct{}

	value  any
	dirty  bool
	active bool
}

// NewObserver creates an observer and, unless lazy, evaluates it right away.
// The observer is owned by the current owner and torn down with it.
func (r *Runtime) NewObserver(getter func() any, cb func(newValue, oldValue any), opts ObserverOptions) *Observer {
	o := &Observer{
		Owner: r.NewOwner(),

		id: observerUID.Add(1),
		rt: r,

		getter: getter,
		cb:     cb,
		opts:   opts,

		depIDs:    make(map[uint64]struct{}),
		newDepIDs: make(map[uint64]struct{}),

		dirty:  opts.Lazy,
		active: true,
	}
	o.OnDispose(o.Teardown)

	if !opts.Lazy {
		if value, err := o.get(); err != nil {
			r.HandleError(o.Owner, err)
		} else {
			o.value = value
		}
	}

	if opts.Immediate && o.cb != nil {
		value := o.value
		o.call(KindCallback, func() { o.cb(value, nil) })
	}

	return o
}

func (o *Observer) ID() uint64 { return o.id }

func (o *Observer) Value() any { return o.value }

func (o *Observer) Dirty() bool { return o.dirty }

func (o *Observer) Active() bool { return o.active }

func (o *Observer) Lazy() bool { return o.opts.Lazy }

func (o *Observer) Expression() string { return o.opts.Expression }

// Deps returns the publishers the observer is subscribed to.
func (o *Observer) Deps() []*Publisher {
	return append([]*Publisher(nil), o.deps...)
}

// get runs the getter with o as the active observer and re-links its dependencies.
// Panics from user getters come back as an error; other panics propagate once
// the tracker and the dependency sets are restored.
func (o *Observer) get() (value any, err error) {
	t := GetRuntime().tracker

	// observers and cleanups from the previous run belong to that run
	o.Owner.Reset()

	prevOwner := t.SetOwner(o.Owner)
	t.Push(o)

	defer func() {
		if o.opts.User {
			if r := recover(); r != nil {
				err = o.wrap(KindGetter, r)
			}
		}

		if o.opts.Deep && err == nil {
			Traverse(value)
		}

		t.Pop()
		t.SetOwner(prevOwner)
		o.cleanupDeps()
	}()

	value = o.getter()
	return value, nil
}

// AddDep records p as read by the evaluation in progress, subscribing to it
// only if the previous evaluation did not already.
func (o *Observer) AddDep(p *Publisher) {
	if o.opts.OnTrack != nil {
		o.opts.OnTrack(DebugEvent{ObserverID: o.id, PublisherID: p.ID(), Key: p.Key(), Type: DebugTrack})
	}

	id := p.ID()
	if _, ok := o.newDepIDs[id]; ok {
		return
	}

	o.newDepIDs[id] = struct{}{}
	o.newDeps = append(o.newDeps, p)

	if _, ok := o.depIDs[id]; !ok {
		p.AddSub(o)
	}
}

// cleanupDeps drops subscriptions the last evaluation no longer needs,
// then swaps the dependency buffers.
func (o *Observer) cleanupDeps() {
	for _, p := range o.deps {
		if _, ok := o.newDepIDs[p.ID()]; !ok {
			p.RemoveSub(o)
		}
	}

	o.depIDs, o.newDepIDs = o.newDepIDs, o.depIDs
	clear(o.newDepIDs)

	o.deps, o.newDeps = o.newDeps, o.deps
	clear(o.newDeps)
	o.newDeps = o.newDeps[:0]
}

// Update is called by a publisher when one of the dependencies changed.
func (o *Observer) Update() {
	if !o.active {
		return
	}

	switch {
	case o.opts.Lazy:
		o.dirty = true
	case o.opts.Sync:
		o.Run()
	default:
		o.rt.scheduler.Enqueue(o)
	}
}

// Run re-evaluates the observer and fires its callback when the value changed.
// Composite values and deep observers always fire: they may have mutated in place.
func (o *Observer) Run() {
	if !o.active {
		return
	}

	value, err := o.get()
	if err != nil {
		o.rt.HandleError(o.Owner, err)
		return
	}

	if !SameValue(value, o.value) || IsComposite(value) || o.opts.Deep {
		oldValue := o.value
		o.value = value

		if o.cb != nil {
			o.call(KindCallback, func() { o.cb(value, oldValue) })
		}
	}
}

// Evaluate recomputes the value on demand and clears the dirty flag.
// A torn down observer keeps its last value.
func (o *Observer) Evaluate() {
	if !o.active {
		o.dirty = false
		return
	}

	value, err := o.get()
	if err != nil {
		o.rt.HandleError(o.Owner, err)
	} else {
		o.value = value
	}

	o.dirty = false
}

// Depend makes the active observer, if any, depend on everything o depends on.
func (o *Observer) Depend() {
	t := GetRuntime().tracker
	if !t.ShouldTrack() {
		return
	}

	for _, p := range o.deps {
		t.Track(p)
	}
}

// Teardown unsubscribes the observer from all its publishers and disposes what it owns.
// Calling it more than once is a no-op.
func (o *Observer) Teardown() {
	if !o.active {
		return
	}
	o.active = false

	for _, p := range o.deps {
		p.RemoveSub(o)
	}
	o.deps = nil
	clear(o.depIDs)

	o.Owner.Dispose()

	if o.opts.OnStop != nil {
		o.call(KindHook, o.opts.OnStop)
	}

	o.rt.logger.Debug("observer torn down", "observer", o.id, "expression", o.opts.Expression)
}

func (o *Observer) before() {
	if o.opts.Before != nil {
		o.call(KindHook, o.opts.Before)
	}
}

func (o *Observer) trigger(p *Publisher) {
	if o.opts.OnTrigger != nil {
		o.opts.OnTrigger(DebugEvent{ObserverID: o.id, PublisherID: p.ID(), Key: p.Key(), Type: DebugTrigger})
	}
}

// call runs user code untracked, routing a panic to the error handler.
func (o *Observer) call(kind ErrorKind, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			o.rt.HandleError(o.Owner, o.wrap(kind, r))
		}
	}()

	GetRuntime().tracker.RunUntracked(fn)
}

func (o *Observer) wrap(kind ErrorKind, recovered any) *Error {
	return &Error{
		Kind:       kind,
		ObserverID: o.id,
		Expression: o.opts.Expression,
		Err:        asError(recovered),
	}
}

func compareObservers(a, b *Observer) int {
	return cmp.Compare(a.id, b.id)
}
