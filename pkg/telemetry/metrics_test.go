package telemetry

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestSetupMetricsExposesInstrumentsOnRegistry(t *testing.T) {
	ctx := context.Background()
	prev := otel.GetMeterProvider()
	t.Cleanup(func() { otel.SetMeterProvider(prev) })

	registry := prometheus.NewRegistry()
	shutdown, err := SetupMetrics(ctx, Config{ServiceName: "sslopts-test"}, registry)
	require.NoError(t, err)
	t.Cleanup(func() { _ = shutdown(ctx) })

	counter, err := otel.GetMeterProvider().Meter("test").Int64Counter("sslopts_test_events")
	require.NoError(t, err)
	counter.Add(ctx, 3)

	families, err := registry.Gather()
	require.NoError(t, err)

	var found bool
	for _, family := range families {
		if strings.HasPrefix(family.GetName(), "sslopts_test_events") {
			found = true
			require.Len(t, family.GetMetric(), 1)
			assert.Equal(t, 3.0, family.GetMetric()[0].GetCounter().GetValue())
		}
	}
	assert.True(t, found, "counter not exported")
}

func TestSetupProviderWithoutEndpointIsNoop(t *testing.T) {
	shutdown, err := SetupProvider(context.Background(), Config{ServiceName: "sslopts"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestCombineJoinsErrors(t *testing.T) {
	var calls int
	ok := func(context.Context) error { calls++; return nil }
	fail := func(context.Context) error { calls++; return assert.AnError }

	err := Combine(ok, nil, fail, ok)(context.Background())
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 3, calls)
}

func TestRecordIgnoredOption(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider()
	tp.RegisterSpanProcessor(recorder)
	tracer := tp.Tracer("test")

	_, span := tracer.Start(context.Background(), "tls.BuildClient")
	RecordIgnoredOption(span, "npn", "crypto/tls does not implement NPN")
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	events := spans[0].Events()
	require.Len(t, events, 1)
	assert.Equal(t, "tls.option_ignored", events[0].Name)

	attrs := attribute.NewSet(events[0].Attributes...)
	kind, ok := attrs.Value("tls.option.kind")
	require.True(t, ok)
	assert.Equal(t, "npn", kind.AsString())

	require.NoError(t, tp.Shutdown(context.Background()))
}

func TestNewResourceCarriesServiceAndTags(t *testing.T) {
	res, err := newResource(context.Background(), Config{
		ServiceName:    "sslopts",
		ServiceVersion: "1.2.3",
		Environment:    "staging",
		ResourceTags:   map[string]string{"team": "edge"},
	})
	require.NoError(t, err)

	for key, want := range map[attribute.Key]string{
		"service.name":           "sslopts",
		"service.version":        "1.2.3",
		"deployment.environment": "staging",
		"team":                   "edge",
	} {
		got, ok := res.Set().Value(key)
		require.True(t, ok, "missing %s", key)
		assert.Equal(t, want, got.AsString())
	}
}

func TestExporterOptions(t *testing.T) {
	secure := exporterOptions(Config{Endpoint: "collector:4317"})
	insecure := exporterOptions(Config{Endpoint: "collector:4317", Insecure: true, Headers: map[string]string{"x-token": "t"}})

	assert.Len(t, secure, 3)
	assert.Len(t, insecure, 4)
}
