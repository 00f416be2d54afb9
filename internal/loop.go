package internal

import "sync"

// Loop is the task loop of a runtime.
//
// A turn is the outermost synchronous burst of work (a batch, or a single write).
// Deferred tasks run in order once the outermost turn returns; deferring with no
// turn open runs the tasks right away.
type Loop struct {
	mu sync.Mutex

	// each nested turn increases the depth by 1
	// deferred tasks wait until the depth is back to 0
	depth int

	draining bool
	tasks    *TaskQueue
}

func NewLoop() *Loop {
	return &Loop{
		tasks: NewTaskQueue(),
	}
}

// InTurn reports whether a turn is open.
func (l *Loop) InTurn() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.depth > 0
}

// Turn runs fn and, if it is the outermost turn, drains the deferred tasks afterwards.
func (l *Loop) Turn(fn func()) {
	l.mu.Lock()
	l.depth++
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		l.depth--
		done := l.depth == 0
		l.mu.Unlock()

		if done {
			l.Drain()
		}
	}()

	fn()
}

// Defer queues a task for the end of the current turn.
func (l *Loop) Defer(task func()) {
	l.mu.Lock()
	l.tasks.Enqueue(task)
	idle := l.depth == 0
	l.mu.Unlock()

	if idle {
		l.Drain()
	}
}

// Drain runs deferred tasks until none are left, including the ones they defer.
// A nested call while draining returns immediately; the outer call picks up its work.
func (l *Loop) Drain() {
	l.mu.Lock()
	if l.draining {
		l.mu.Unlock()
		return
	}
	l.draining = true
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		l.draining = false
		l.mu.Unlock()
	}()

	for {
		l.mu.Lock()
		task, ok := l.tasks.Dequeue()
		l.mu.Unlock()

		if !ok {
			return
		}

		task()
	}
}

// Pending returns the number of tasks waiting to run.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.tasks.Len()
}
