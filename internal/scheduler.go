package internal

import (
	"fmt"
	"slices"
	"sync"
	"time"
)

// Scheduler batches observer re-runs into a single flush per turn.
// Within a flush observers run in ascending id order, so observers created
// first (parents) run before the ones created after them (children).
type Scheduler struct {
	rt *Runtime

	mu sync.Mutex

	queue []*Observer
	// observers queued and not yet run in the current cycle
	has map[uint64]bool
	// number of times each observer ran during the current flush
	ran map[uint64]int
	// observers dropped for the rest of the flush after a circular update
	suppressed map[uint64]bool

	// callbacks to run once the pending flush completes
	afterFlush *TaskQueue

	// index of the observer being run
	index int

	waiting  bool
	flushing bool

	// incremented each time a flush completes
	clock int
}

func NewScheduler(rt *Runtime) *Scheduler {
	return &Scheduler{
		rt: rt,

		queue:      make([]*Observer, 0),
		has:        make(map[uint64]bool),
		ran:        make(map[uint64]int),
		suppressed: make(map[uint64]bool),
		afterFlush: NewTaskQueue(),
	}
}

// Enqueue queues o for the next flush. Queuing an observer already waiting to run is a no-op.
// During a flush, o is inserted among the observers not yet run at its id position.
func (s *Scheduler) Enqueue(o *Observer) {
	s.mu.Lock()

	id := o.ID()
	if s.has[id] || s.suppressed[id] {
		s.mu.Unlock()
		return
	}
	s.has[id] = true

	if !s.flushing {
		s.queue = append(s.queue, o)
	} else {
		i := len(s.queue) - 1
		for i > s.index && s.queue[i].ID() > id {
			i--
		}
		s.queue = slices.Insert(s.queue, i+1, o)
	}

	schedule := !s.waiting
	s.waiting = true
	s.mu.Unlock()

	if !schedule {
		return
	}

	if !s.rt.config.Async {
		s.Flush()
		return
	}
	s.rt.loop.Defer(s.Flush)
}

// Flush runs every queued observer once, in ascending id order.
func (s *Scheduler) Flush() {
	start := time.Now()

	s.mu.Lock()
	s.flushing = true
	slices.SortFunc(s.queue, compareObservers)
	size := len(s.queue)
	s.mu.Unlock()

	span := s.rt.startFlushSpan(size)
	defer span.End()

	runs, suppressed := 0, 0
	completed := false
	defer func() {
		// leave the scheduler usable even if an internal observer panicked
		if !completed {
			s.reset(false)
		}
	}()

	for {
		s.mu.Lock()
		if s.index >= len(s.queue) {
			s.mu.Unlock()
			break
		}

		o := s.queue[s.index]
		id := o.ID()
		delete(s.has, id)

		// an observer running again past the limit is looping, whether it
		// re-queued itself or was re-queued by the observers it triggered
		var circular error
		skip := s.suppressed[id]
		if !skip && s.ran[id] > s.rt.config.MaxUpdateCount {
			skip = true
			s.suppressed[id] = true
			circular = &Error{
				Kind:       KindCircular,
				ObserverID: id,
				Expression: o.Expression(),
				Err:        fmt.Errorf("%w: more than %d updates in one flush", ErrCircularUpdate, s.rt.config.MaxUpdateCount),
			}
		}
		if !skip {
			s.ran[id]++
		}
		s.mu.Unlock()

		if circular != nil {
			suppressed++
			s.rt.metrics.circular.Inc()
			span.RecordError(circular)
			s.rt.logger.Warn("circular update", "observer", id, "expression", o.Expression())
			s.rt.HandleError(o.Owner, circular)
		}

		if !skip {
			o.before()
			o.Run()
			runs++
		}

		s.mu.Lock()
		s.index++
		s.mu.Unlock()
	}

	completed = true
	callbacks := s.reset(true)

	elapsed := time.Since(start)
	s.rt.metrics.flushes.Inc()
	s.rt.metrics.runs.Add(float64(runs))
	s.rt.metrics.queueLength.Observe(float64(size))
	s.rt.metrics.flushDuration.Observe(elapsed.Seconds())
	s.rt.endFlushSpan(span, runs, suppressed)
	s.rt.logger.Debug("flushed", "queued", size, "runs", runs, "elapsed", elapsed)

	for _, cb := range callbacks {
		s.rt.call(nil, cb)
	}
}

// reset clears the per-flush state. Once the flush completed, it also hands back
// the callbacks waiting for it; otherwise they wait for the next flush.
func (s *Scheduler) reset(completed bool) []func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	clear(s.queue)
	s.queue = s.queue[:0]
	clear(s.has)
	clear(s.ran)
	clear(s.suppressed)

	s.index = 0
	s.flushing = false
	s.waiting = false

	if !completed {
		return nil
	}

	s.clock++
	return s.afterFlush.Take()
}

// OnFlushed runs fn once the pending flush completes,
// or at the end of the current turn when no flush is pending.
func (s *Scheduler) OnFlushed(fn func()) {
	s.mu.Lock()
	if s.waiting {
		s.afterFlush.Enqueue(fn)
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	s.rt.loop.Defer(func() { s.rt.call(nil, fn) })
}

// Waiting reports whether a flush is scheduled or running.
func (s *Scheduler) Waiting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.waiting
}

func (s *Scheduler) Flushing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.flushing
}

// Len returns the number of observers in the queue, including the ones already run.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.queue)
}

// Time returns the number of completed flushes.
func (s *Scheduler) Time() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.clock
}
