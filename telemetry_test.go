package prolog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestSolverTelemetry(t *testing.T) {
	req := require.New(t)

	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	defer tp.Shutdown(context.Background())
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	s, err := NewSolver(siblings, WithTracerProvider(tp), WithMeterProvider(mp), WithSessionID("s1"))
	req.NoError(err)
	_, err = s.Solve(context.Background(), `brother_sister(X, rebecca)`)
	req.NoError(err)
	_, err = s.Solve(context.Background(), `brother_sister(`)
	req.Error(err)

	ended := spans.Ended()
	req.Equal(2, len(ended))
	req.Equal("Solver.Solve", ended[0].Name())
	attrs := attribute.NewSet(ended[0].Attributes()...)
	v, ok := attrs.Value("prolog.session")
	req.True(ok)
	req.Equal("s1", v.AsString())
	v, ok = attrs.Value("prolog.result")
	req.True(ok)
	req.Equal("bindings", v.AsString())
	v, ok = attrs.Value("prolog.solutions")
	req.True(ok)
	req.Equal(int64(1), v.AsInt64())
	req.Equal(codes.Error, ended[1].Status().Code)

	var rm metricdata.ResourceMetrics
	req.NoError(reader.Collect(context.Background(), &rm))
	counts := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "prolog_solve_total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			req.True(ok)
			for _, dp := range sum.DataPoints {
				r, _ := dp.Attributes.Value("result")
				counts[r.AsString()] += dp.Value
			}
		}
	}
	req.Equal(map[string]int64{"bindings": 1, "error": 1}, counts)
}
