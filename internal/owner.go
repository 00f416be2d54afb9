package internal

import (
	"iter"
	"slices"
)

// Owner is a disposal scope. Observers and owners created while an owner is
// current become its children and are disposed along with it.
type Owner struct {
	// cleanup functions, run when the owner is reset or disposed
	cleanups []func()

	// functions run once, when the owner is disposed
	disposers []func()

	// error handlers for this scope
	catchers []func(error)

	parent   *Owner
	children []*Owner

	disposed bool
}

// NewOwner creates an owner as a child of the current owner, if any.
func (r *Runtime) NewOwner() *Owner {
	o := &Owner{
		cleanups: make([]func(), 0),
	}

	if parent := GetRuntime().tracker.CurrentOwner(); parent != nil {
		parent.AddChild(o)
	}

	return o
}

// Run fn with o as the current owner.
// A panic is handed to the owner's error handlers, or re-raised if it has none.
func (o *Owner) Run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			if !o.catch(asError(r)) {
				panic(r)
			}
		}
	}()

	GetRuntime().tracker.RunWithOwner(o, fn)
}

func (o *Owner) Parent() *Owner {
	return o.parent
}

func (parent *Owner) AddChild(child *Owner) {
	child.parent = parent
	parent.children = append(parent.children, child)
}

func (parent *Owner) removeChild(child *Owner) {
	if i := slices.Index(parent.children, child); i >= 0 {
		parent.children = slices.Delete(parent.children, i, i+1)
	}
}

func (o *Owner) Children() iter.Seq[*Owner] {
	return slices.Values(slices.Clone(o.children))
}

// Reset disposes the children and runs the cleanups, leaving the owner usable.
func (o *Owner) Reset() {
	o.DisposeChildren()

	cleanups := o.cleanups
	o.cleanups = nil
	for _, fn := range cleanups {
		fn()
	}
}

// Dispose resets the owner, runs its dispose hooks and detaches it from its parent.
// Disposing twice is a no-op.
func (o *Owner) Dispose() {
	if o.disposed {
		return
	}
	o.disposed = true

	o.Reset()

	disposers := o.disposers
	o.disposers = nil
	for _, fn := range disposers {
		fn()
	}

	if o.parent != nil {
		o.parent.removeChild(o)
	}
}

func (o *Owner) DisposeChildren() {
	children := o.children
	o.children = nil

	for _, child := range children {
		child.Dispose()
	}
}

func (o *Owner) Disposed() bool {
	return o.disposed
}

// OnCleanup registers fn to run on the next reset or dispose.
// On a disposed owner fn runs immediately.
func (o *Owner) OnCleanup(fn func()) {
	if o.disposed {
		fn()
		return
	}

	o.cleanups = append(o.cleanups, fn)
}

// OnDispose registers fn to run once, when the owner is disposed.
func (o *Owner) OnDispose(fn func()) {
	if o.disposed {
		fn()
		return
	}

	o.disposers = append(o.disposers, fn)
}

// OnError registers an error handler for this scope and its descendants.
func (o *Owner) OnError(fn func(error)) {
	o.catchers = append(o.catchers, fn)
}

// catch hands err to the closest owner with error handlers.
func (o *Owner) catch(err error) bool {
	for owner := o; owner != nil; owner = owner.parent {
		if len(owner.catchers) == 0 {
			continue
		}

		for _, catcher := range owner.catchers {
			catcher(err)
		}
		return true
	}

	return false
}
