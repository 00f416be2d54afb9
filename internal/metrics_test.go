package internal

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestMetrics(t *testing.T) {
	t.Run("counts flushes and runs", func(t *testing.T) {
		rt := newTestRuntime(t)

		c := newCell("count", 0)
		rt.NewObserver(c.get, nil, ObserverOptions{})
		rt.NewObserver(c.get, nil, ObserverOptions{})

		c.set(1)
		c.set(2)

		assert.Equal(t, 2.0, testutil.ToFloat64(rt.metrics.flushes))
		assert.Equal(t, 4.0, testutil.ToFloat64(rt.metrics.runs))
		assert.Equal(t, 0.0, testutil.ToFloat64(rt.metrics.circular))
	})

	t.Run("counts routed errors by kind", func(t *testing.T) {
		rt := newTestRuntime(t, WithErrorHandler(func(error) {}), WithMaxUpdateCount(1))

		c := newCell("count", 0)
		rt.NewObserver(c.get, func(v, _ any) { c.set(v.(int) + 1) }, ObserverOptions{User: true})
		rt.NewObserver(c.get, func(any, any) { panic("callback") }, ObserverOptions{User: true})

		c.set(1)

		assert.Equal(t, 1.0, testutil.ToFloat64(rt.metrics.circular))
		assert.Equal(t, 1.0, testutil.ToFloat64(rt.metrics.errors.WithLabelValues("circular")))
		assert.Equal(t, 1.0, testutil.ToFloat64(rt.metrics.errors.WithLabelValues("callback")))
	})

	t.Run("runtimes share a registry", func(t *testing.T) {
		reg := prometheus.NewRegistry()

		a := NewRuntime(WithRegisterer(reg), WithNamespace("test"))
		b := NewRuntime(WithRegisterer(reg), WithNamespace("test"))

		a.metrics.flushes.Inc()
		b.metrics.flushes.Inc()

		count, err := testutil.GatherAndCount(reg, "test_flushes_total")
		require.NoError(t, err)
		assert.Equal(t, 1, count)
		assert.Equal(t, 2.0, testutil.ToFloat64(a.metrics.flushes))
	})
}

func TestTracing(t *testing.T) {
	t.Run("records a span per flush", func(t *testing.T) {
		sr := tracetest.NewSpanRecorder()
		tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

		rt := newTestRuntime(t, WithTracer(tp.Tracer("test")))

		c := newCell("count", 0)
		rt.NewObserver(c.get, nil, ObserverOptions{})

		c.set(1)

		spans := sr.Ended()
		require.Len(t, spans, 1)
		assert.Equal(t, "reactor.flush", spans[0].Name())
		assert.Contains(t, spans[0].Attributes(), attribute.Int("reactor.queued", 1))
		assert.Contains(t, spans[0].Attributes(), attribute.Int("reactor.runs", 1))
		assert.Contains(t, spans[0].Attributes(), attribute.String("reactor.runtime", rt.ID()))
		assert.Equal(t, codes.Unset, spans[0].Status().Code)
	})

	t.Run("marks flushes with circular updates", func(t *testing.T) {
		sr := tracetest.NewSpanRecorder()
		tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

		rt := newTestRuntime(t,
			WithTracer(tp.Tracer("test")),
			WithMaxUpdateCount(2),
			WithErrorHandler(func(error) {}),
		)

		c := newCell("count", 0)
		rt.NewObserver(c.get, func(v, _ any) { c.set(v.(int) + 1) }, ObserverOptions{})

		c.set(1)

		spans := sr.Ended()
		require.Len(t, spans, 1)
		assert.Equal(t, codes.Error, spans[0].Status().Code)
		assert.Contains(t, spans[0].Attributes(), attribute.Int("reactor.suppressed", 1))
		assert.Len(t, spans[0].Events(), 1)
	})
}
