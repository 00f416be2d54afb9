package internal

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the prometheus collectors of a runtime.
type Metrics struct {
	flushes       prometheus.Counter
	flushDuration prometheus.Histogram
	queueLength   prometheus.Histogram
	runs          prometheus.Counter
	circular      prometheus.Counter
	errors        *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg, if not nil.
// Collectors already registered by another runtime are shared.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	return &Metrics{
		flushes: register(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flushes_total",
			Help:      "Total number of scheduler flushes",
		})),

		flushDuration: register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "flush_duration_seconds",
			Help:      "Scheduler flush duration in seconds",
			Buckets:   []float64{.00001, .0001, .001, .01, .1, 1},
		})),

		queueLength: register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "flush_queue_length",
			Help:      "Number of observers queued when a flush starts",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 6),
		})),

		runs: register(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "observer_runs_total",
			Help:      "Total number of observer re-runs performed by the scheduler",
		})),

		circular: register(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "circular_updates_total",
			Help:      "Total number of observers suppressed for re-queuing themselves in a flush",
		})),

		errors: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Total number of errors routed to the error handler",
		}, []string{"kind"})),
	}
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if reg == nil {
		return c
	}

	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
	}

	return c
}
