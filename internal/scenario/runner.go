package scenario

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/AnatoleLucet/reactor"
	"github.com/AnatoleLucet/reactor/internal"
)

// Result is the outcome of a scenario run.
type Result struct {
	// Trace holds one line per step, callback, error and flush, in order.
	Trace []string `json:"trace"`

	// State is a plain copy of the final state.
	State map[string]any `json:"state"`

	Flushes int `json:"flushes"`
	Errors  int `json:"errors"`
}

// String renders the trace followed by the final state.
func (r *Result) String() string {
	var b strings.Builder
	for _, line := range r.Trace {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "state: %v\n", r.State)

	return b.String()
}

type runner struct {
	rt   *internal.Runtime
	root *reactor.Object

	watchers map[string]*reactor.Watcher[any]
	// watcher names by observer id, so traces do not depend on ids
	names map[uint64]string

	result *Result
}

// Run replays the scenario in a runtime of its own, made current on the
// calling goroutine for the duration of the run.
func Run(s *Scenario, opts ...reactor.Option) (*Result, error) {
	r := &runner{
		watchers: make(map[string]*reactor.Watcher[any], len(s.Watchers)),
		names:    make(map[uint64]string, len(s.Watchers)),
		result:   &Result{},
	}

	options := []reactor.Option{reactor.WithLogger(slog.New(slog.DiscardHandler))}
	options = append(options, opts...)
	if s.MaxUpdates > 0 {
		options = append(options, reactor.WithMaxUpdateCount(s.MaxUpdates))
	}
	options = append(options, reactor.WithErrorHandler(r.handleError))

	r.rt = internal.NewRuntime(options...)
	restore := internal.Use(r.rt)
	defer restore()

	r.root = reactor.NewObject(s.State)

	for _, w := range s.Watchers {
		if err := r.watch(w); err != nil {
			return nil, fmt.Errorf("watcher %q: %w", w.Name, err)
		}
	}

	for i, step := range s.Steps {
		clock := r.rt.Scheduler().Time()

		if err := r.step(step, 0); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}

		if now := r.rt.Scheduler().Time(); now != clock {
			r.printf("flush %d", now)
		}
	}

	r.result.Flushes = r.rt.Scheduler().Time()
	r.result.State = r.root.Snapshot()

	return r.result, nil
}

func (r *runner) watch(w Watcher) error {
	var opts []reactor.WatchOption
	if w.Lazy {
		opts = append(opts, reactor.Lazy())
	}
	if w.Sync {
		opts = append(opts, reactor.Sync())
	}
	if w.Deep {
		opts = append(opts, reactor.Deep())
	}
	if w.Immediate {
		opts = append(opts, reactor.Immediate())
	}

	watcher, err := reactor.WatchPath(r.root, w.Path, func(newValue, oldValue any) {
		r.printf("%s: %v -> %v", w.Name, oldValue, newValue)

		for _, step := range w.Then {
			if err := r.apply(step); err != nil {
				panic(err)
			}
		}
	}, opts...)
	if err != nil {
		return err
	}

	r.watchers[w.Name] = watcher
	r.names[watcher.ID()] = w.Name

	return nil
}

// step traces and applies a step.
func (r *runner) step(step Step, depth int) error {
	r.printf("%s> %s", strings.Repeat("  ", depth), step)

	if step.Batch == nil {
		return r.apply(step)
	}

	var err error
	reactor.Batch(func() {
		for _, s := range step.Batch {
			if err = r.step(s, depth+1); err != nil {
				return
			}
		}
	})

	return err
}

// apply performs a step without tracing it.
func (r *runner) apply(step Step) error {
	switch {
	case step.Set != "":
		parent, key, err := r.resolve(step.Set)
		if err != nil {
			return err
		}
		parent.Set(key, step.Value)

	case step.Incr != "":
		parent, key, err := r.resolve(step.Incr)
		if err != nil {
			return err
		}

		switch v := parent.Peek(key).(type) {
		case int:
			parent.Set(key, v+1)
		case float64:
			parent.Set(key, v+1)
		default:
			return fmt.Errorf("incr %s: %v is not a number", step.Incr, v)
		}

	case step.Delete != "":
		parent, key, err := r.resolve(step.Delete)
		if err != nil {
			return err
		}
		parent.Delete(key)

	case step.Batch != nil:
		var err error
		reactor.Batch(func() {
			for _, s := range step.Batch {
				if err = r.apply(s); err != nil {
					return
				}
			}
		})
		return err

	case step.Teardown != "":
		w, err := r.watcher(step.Teardown)
		if err != nil {
			return err
		}
		w.Teardown()

	case step.Evaluate != "":
		w, err := r.watcher(step.Evaluate)
		if err != nil {
			return err
		}
		w.Evaluate()
		r.printf("%s = %v", step.Evaluate, w.Value())

	default:
		return ErrNoAction
	}

	return nil
}

// resolve walks a dot-delimited path to the object holding its last key.
func (r *runner) resolve(path string) (*reactor.Object, string, error) {
	segments := strings.Split(path, ".")

	parent := r.root
	for _, seg := range segments[:len(segments)-1] {
		child, ok := parent.Peek(seg).(*reactor.Object)
		if !ok {
			return nil, "", fmt.Errorf("path %q: %q is not an object", path, seg)
		}
		parent = child
	}

	return parent, segments[len(segments)-1], nil
}

func (r *runner) watcher(name string) (*reactor.Watcher[any], error) {
	w, ok := r.watchers[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownWatcher, name)
	}
	return w, nil
}

func (r *runner) handleError(err error) {
	r.result.Errors++

	var rerr *reactor.Error
	if !errors.As(err, &rerr) {
		r.printf("error: %v", err)
		return
	}

	name, ok := r.names[rerr.ObserverID]
	if !ok {
		name = rerr.Expression
	}
	r.printf("error: %s in %s: %v", rerr.Kind, name, rerr.Err)
}

func (r *runner) printf(format string, args ...any) {
	r.result.Trace = append(r.result.Trace, fmt.Sprintf(format, args...))
}
