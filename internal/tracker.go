package internal

// Tracker holds the evaluation state of one goroutine:
// the stack of observers currently running their getter, and the owner
// that newly created observers and cleanups attach to.
type Tracker struct {
	// stack of evaluating observers, the innermost last.
	// a nil entry marks an untracked section.
	stack []*Observer

	currentOwner *Owner
}

func NewTracker() *Tracker {
	return &Tracker{
		stack: make([]*Observer, 0, 8),
	}
}

// Push makes o the active observer.
func (t *Tracker) Push(o *Observer) {
	t.stack = append(t.stack, o)
}

// Pop restores the previously active observer. Popping an empty stack is a no-op.
func (t *Tracker) Pop() {
	if len(t.stack) == 0 {
		return
	}

	t.stack[len(t.stack)-1] = nil
	t.stack = t.stack[:len(t.stack)-1]
}

// Current returns the active observer, or nil when nothing is tracking.
func (t *Tracker) Current() *Observer {
	if len(t.stack) == 0 {
		return nil
	}

	return t.stack[len(t.stack)-1]
}

func (t *Tracker) Depth() int {
	return len(t.stack)
}

func (t *Tracker) CurrentOwner() *Owner {
	return t.currentOwner
}

// SetOwner replaces the current owner and returns the previous one.
func (t *Tracker) SetOwner(o *Owner) *Owner {
	prev := t.currentOwner
	t.currentOwner = o
	return prev
}

func (t *Tracker) RunWithOwner(owner *Owner, fn func()) {
	prev := t.SetOwner(owner)
	defer t.SetOwner(prev)

	fn()
}

// RunUntracked runs fn with no active observer, so reads inside it link nothing.
func (t *Tracker) RunUntracked(fn func()) {
	t.Push(nil)
	defer t.Pop()

	fn()
}

// Track links the active observer to p.
func (t *Tracker) Track(p *Publisher) {
	if o := t.Current(); o != nil {
		o.AddDep(p)
	}
}

func (t *Tracker) ShouldTrack() bool {
	return t.Current() != nil
}
