package internal

import (
	"reflect"
	"runtime"
)

type DebugEventType int

const (
	// DebugTrack is emitted when an evaluating observer reads a publisher.
	DebugTrack DebugEventType = iota + 1
	// DebugTrigger is emitted when a publisher notifies an observer.
	DebugTrigger
)

func (t DebugEventType) String() string {
	switch t {
	case DebugTrack:
		return "track"
	case DebugTrigger:
		return "trigger"
	default:
		return "unknown"
	}
}

// DebugEvent describes a single link or notification between a publisher and an observer.
type DebugEvent struct {
	Type        DebugEventType
	ObserverID  uint64
	PublisherID uint64
	Key         string
}

// FuncName describes a function by its symbol name, for diagnostics.
func FuncName(fn any) string {
	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func || rv.IsNil() {
		return ""
	}

	if f := runtime.FuncForPC(rv.Pointer()); f != nil {
		return f.Name()
	}

	return ""
}
