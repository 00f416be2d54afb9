package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario describes a reactive state, the watchers observing it,
// and the writes to replay against it.
type Scenario struct {
	// Name identifies the scenario, and names its golden trace.
	Name string `yaml:"name"`

	Description string `yaml:"description,omitempty"`

	// MaxUpdates overrides the circular update threshold.
	MaxUpdates int `yaml:"max_updates,omitempty"`

	// State is the initial state. Nested maps become nested objects.
	State map[string]any `yaml:"state"`

	Watchers []Watcher `yaml:"watchers"`

	Steps []Step `yaml:"steps"`
}

// Watcher watches a dot-delimited path into the state.
type Watcher struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`

	Lazy      bool `yaml:"lazy,omitempty"`
	Sync      bool `yaml:"sync,omitempty"`
	Deep      bool `yaml:"deep,omitempty"`
	Immediate bool `yaml:"immediate,omitempty"`

	// Then lists writes performed by the watcher callback.
	Then []Step `yaml:"then,omitempty"`
}

// Step is a single action. Exactly one of its action fields is set.
type Step struct {
	Set   string `yaml:"set,omitempty"`
	Value any    `yaml:"value,omitempty"`

	Incr   string `yaml:"incr,omitempty"`
	Delete string `yaml:"delete,omitempty"`
	Batch  []Step `yaml:"batch,omitempty"`

	Teardown string `yaml:"teardown,omitempty"`
	Evaluate string `yaml:"evaluate,omitempty"`
}

var (
	ErrNoAction       = errors.New("step has no action")
	ErrManyActions    = errors.New("step has more than one action")
	ErrUnknownWatcher = errors.New("unknown watcher")
)

func (s Step) String() string {
	switch {
	case s.Set != "":
		return fmt.Sprintf("set %s = %v", s.Set, s.Value)
	case s.Incr != "":
		return "incr " + s.Incr
	case s.Delete != "":
		return "delete " + s.Delete
	case s.Batch != nil:
		return "batch"
	case s.Teardown != "":
		return "teardown " + s.Teardown
	case s.Evaluate != "":
		return "evaluate " + s.Evaluate
	default:
		return "noop"
	}
}

// Load parses a scenario document. Unknown fields are rejected.
func Load(r io.Reader) (*Scenario, error) {
	var s Scenario

	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &s, nil
}

// LoadFile reads and parses a scenario file.
func LoadFile(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	return Load(bytes.NewReader(data))
}

// Validate checks that the scenario is well formed: named, with unique
// watcher names, and steps that each do exactly one thing.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return errors.New("name is required")
	}

	names := make(map[string]bool, len(s.Watchers))
	for i, w := range s.Watchers {
		if w.Name == "" {
			return fmt.Errorf("watcher %d: name is required", i+1)
		}
		if names[w.Name] {
			return fmt.Errorf("watcher %q: duplicate name", w.Name)
		}
		names[w.Name] = true

		if w.Path == "" {
			return fmt.Errorf("watcher %q: path is required", w.Name)
		}
	}

	for _, w := range s.Watchers {
		if err := validateSteps(w.Then, names, "watcher "+w.Name+" then"); err != nil {
			return err
		}
	}

	return validateSteps(s.Steps, names, "step")
}

func validateSteps(steps []Step, watchers map[string]bool, prefix string) error {
	for i, step := range steps {
		where := fmt.Sprintf("%s %d", prefix, i+1)

		if err := step.validate(); err != nil {
			return fmt.Errorf("%s: %w", where, err)
		}

		for _, name := range []string{step.Teardown, step.Evaluate} {
			if name != "" && !watchers[name] {
				return fmt.Errorf("%s: %w %q", where, ErrUnknownWatcher, name)
			}
		}

		if err := validateSteps(step.Batch, watchers, where+" batch"); err != nil {
			return err
		}
	}

	return nil
}

func (s Step) validate() error {
	actions := 0
	for _, set := range []bool{
		s.Set != "",
		s.Incr != "",
		s.Delete != "",
		s.Batch != nil,
		s.Teardown != "",
		s.Evaluate != "",
	} {
		if set {
			actions++
		}
	}

	switch {
	case actions == 0:
		return ErrNoAction
	case actions > 1:
		return ErrManyActions
	}

	for _, path := range []string{s.Set, s.Incr, s.Delete} {
		if strings.HasPrefix(path, ".") || strings.HasSuffix(path, ".") || strings.Contains(path, "..") {
			return fmt.Errorf("invalid path %q", path)
		}
	}

	return nil
}
