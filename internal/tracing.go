package internal

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/AnatoleLucet/reactor"

func (r *Runtime) startFlushSpan(queued int) trace.Span {
	_, span := r.config.Tracer.Start(r.config.Context, "reactor.flush",
		trace.WithAttributes(
			attribute.String("reactor.runtime", r.id),
			attribute.Int("reactor.queued", queued),
		),
	)

	return span
}

func (r *Runtime) endFlushSpan(span trace.Span, runs, suppressed int) {
	span.SetAttributes(
		attribute.Int("reactor.runs", runs),
		attribute.Int("reactor.suppressed", suppressed),
	)

	if suppressed > 0 {
		span.SetStatus(codes.Error, ErrCircularUpdate.Error())
	}
}
