package internal

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuntime(t *testing.T) {
	t.Run("one runtime per goroutine", func(t *testing.T) {
		rt := GetRuntime()
		assert.Same(t, rt, GetRuntime())

		var other *Runtime
		var wg sync.WaitGroup
		wg.Go(func() {
			other = GetRuntime()
		})
		wg.Wait()

		assert.NotSame(t, rt, other)
		assert.NotEqual(t, rt.ID(), other.ID())
	})

	t.Run("use swaps the runtime until restored", func(t *testing.T) {
		prev := GetRuntime()
		rt := NewRuntime()

		restore := Use(rt)
		assert.Same(t, rt, GetRuntime())

		restore()
		assert.Same(t, prev, GetRuntime())
	})

	t.Run("configure starts from the defaults", func(t *testing.T) {
		rt := newTestRuntime(t, WithMaxUpdateCount(5), WithAsync(false))
		assert.Equal(t, 5, rt.Config().MaxUpdateCount)
		assert.False(t, rt.Config().Async)

		rt.Configure(WithMaxUpdateCount(0))
		assert.Equal(t, DefaultMaxUpdateCount, rt.Config().MaxUpdateCount)
		assert.True(t, rt.Config().Async)
	})
}

func TestHandleError(t *testing.T) {
	t.Run("owner catchers come first", func(t *testing.T) {
		var handled, caught []error
		rt := newTestRuntime(t, WithErrorHandler(func(err error) { handled = append(handled, err) }))

		o := rt.NewOwner()
		o.OnError(func(err error) { caught = append(caught, err) })

		rt.HandleError(o, errors.New("owned"))
		rt.HandleError(nil, errors.New("orphan"))

		assert.Len(t, caught, 1)
		assert.Len(t, handled, 1)
	})

	t.Run("logs unhandled errors", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				if a.Key == slog.TimeKey || a.Key == "runtime" {
					return slog.Attr{}
				}
				return a
			},
		}))

		rt := newTestRuntime(t, WithLogger(logger))

		rt.HandleError(nil, &Error{Kind: KindCallback, Err: errors.New("boom")})
		rt.HandleError(nil, &Error{Kind: KindCircular, Err: ErrCircularUpdate})

		assert.Equal(t, ""+
			"level=ERROR msg=\"unhandled reactor error\" err=\"reactor: callback error: boom\"\n"+
			"level=WARN msg=\"unhandled reactor error\" err=\"reactor: circular error: circular update\"\n",
			buf.String())
	})

	t.Run("hook panics are routed", func(t *testing.T) {
		var handled []error
		rt := newTestRuntime(t, WithErrorHandler(func(err error) { handled = append(handled, err) }))

		rt.call(nil, func() { panic("hook") })

		assert.Len(t, handled, 1)
		assert.Equal(t, KindHook, errorKind(handled[0]))
	})
}

func TestError(t *testing.T) {
	err := &Error{Kind: KindGetter, ObserverID: 3, Expression: "user.name", Err: errors.New("boom")}
	assert.EqualError(t, err, "reactor: getter error in observer 3 (user.name): boom")

	err.Expression = ""
	assert.EqualError(t, err, "reactor: getter error in observer 3: boom")

	wrapped := fmt.Errorf("flush: %w", &Error{Kind: KindCircular, Err: ErrCircularUpdate})
	assert.ErrorIs(t, wrapped, ErrCircularUpdate)
	assert.Equal(t, KindCircular, errorKind(wrapped))
	assert.Equal(t, ErrorKind(0), errorKind(errors.New("plain")))
	assert.Equal(t, "unknown", ErrorKind(0).String())
}
