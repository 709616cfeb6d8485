package telemetry

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/trace"
)

// SetupMetrics installs a global meter provider whose instruments are
// exposed through registerer, so OpenTelemetry metrics share the Prometheus
// endpoint with native collectors.
func SetupMetrics(ctx context.Context, cfg Config, registerer prometheus.Registerer) (ShutdownFunc, error) {
	exporter, err := otelprom.New(otelprom.WithRegisterer(registerer))
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(provider)

	return provider.Shutdown, nil
}

// RecordIgnoredOption attaches an option the TLS layer could not honour to
// span as an event.
func RecordIgnoredOption(span trace.Span, kind, reason string) {
	if span == nil || !span.IsRecording() {
		return
	}

	span.AddEvent("tls.option_ignored", trace.WithAttributes(
		attribute.String("tls.option.kind", kind),
		attribute.String("tls.option.reason", reason),
	))
}
