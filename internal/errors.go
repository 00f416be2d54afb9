package internal

import (
	"errors"
	"fmt"
)

var (
	// ErrCircularUpdate is wrapped by the error reported when an observer keeps
	// re-queuing itself within one flush.
	ErrCircularUpdate = errors.New("circular update")

	// ErrInvalidPath is returned for watch paths that are not dot-delimited identifiers.
	ErrInvalidPath = errors.New("invalid watch path")
)

// ErrorKind tells where an error routed to the error handler came from.
type ErrorKind int

const (
	KindGetter ErrorKind = iota + 1
	KindCallback
	KindHook
	KindCircular
)

func (k ErrorKind) String() string {
	switch k {
	case KindGetter:
		return "getter"
	case KindCallback:
		return "callback"
	case KindHook:
		return "hook"
	case KindCircular:
		return "circular"
	default:
		return "unknown"
	}
}

// Error is an error raised by user code run by an observer.
type Error struct {
	Kind       ErrorKind
	ObserverID uint64
	Expression string
	Err        error
}

func (e *Error) Error() string {
	if e.ObserverID == 0 {
		return fmt.Sprintf("reactor: %s error: %v", e.Kind, e.Err)
	}

	if e.Expression != "" {
		return fmt.Sprintf("reactor: %s error in observer %d (%s): %v", e.Kind, e.ObserverID, e.Expression, e.Err)
	}

	return fmt.Sprintf("reactor: %s error in observer %d: %v", e.Kind, e.ObserverID, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// asError turns a recovered panic value into an error.
func asError(recovered any) error {
	if err, ok := recovered.(error); ok {
		return err
	}

	return fmt.Errorf("panic: %v", recovered)
}

func errorKind(err error) ErrorKind {
	var rerr *Error
	if errors.As(err, &rerr) {
		return rerr.Kind
	}

	return 0
}
