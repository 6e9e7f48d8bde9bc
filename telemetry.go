package prolog

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/mailstepcz/prolog"

// telemetry holds the tracer and the instruments of a solver.
// Instruments are nil if they could not be created.
type telemetry struct {
	tracer       trace.Tracer
	solveLatency metric.Float64Histogram
	solveTotal   metric.Int64Counter
}

func newTelemetry(tp trace.TracerProvider, mp metric.MeterProvider) (*telemetry, error) {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	t := &telemetry{tracer: tp.Tracer(instrumentationName)}
	meter := mp.Meter(instrumentationName)

	solveLatency, err := meter.Float64Histogram(
		"prolog_solve_duration_seconds",
		metric.WithDescription("Duration of query resolution"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return t, err
	}
	solveTotal, err := meter.Int64Counter(
		"prolog_solve_total",
		metric.WithDescription("Total number of solved queries"),
	)
	if err != nil {
		return t, err
	}
	t.solveLatency, t.solveTotal = solveLatency, solveTotal
	return t, nil
}

func (t *telemetry) startSolveSpan(ctx context.Context, session, query string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "Solver.Solve",
		trace.WithAttributes(
			attribute.String("prolog.session", session),
			attribute.String("prolog.query", query),
		),
	)
}

func setSolveSpanResult(span trace.Span, res *Result) {
	span.SetAttributes(
		attribute.String("prolog.result", res.Kind.String()),
		attribute.Int("prolog.solutions", res.Solutions()),
	)
}

func failSolveSpan(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func (t *telemetry) recordSolve(ctx context.Context, duration time.Duration, result string) {
	if t.solveTotal == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("result", result))
	t.solveLatency.Record(ctx, duration.Seconds(), attrs)
	t.solveTotal.Add(ctx, 1, attrs)
}
