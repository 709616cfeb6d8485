package tls

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MeterName is the instrumentation scope of the TLS metrics.
const MeterName = "sslopts.tls"

var (
	metricsOnce    sync.Once
	metricsInitErr error
	tlsMetricsInst *TLSMetricsCollector
)

// TLSMetricsCollector handles TLS-specific metrics collection
type TLSMetricsCollector struct {
	configsBuilt      metric.Int64Counter
	configErrors      metric.Int64Counter
	optionsIgnored    metric.Int64Counter
	buildDuration     metric.Float64Histogram
	peerVerifications metric.Int64Counter
	certificateExpiry metric.Float64Gauge
	certificateChecks metric.Int64Counter

	logger *slog.Logger
}

// GetTLSMetricsCollector returns the singleton TLS metrics collector bound to
// the global meter provider.
func GetTLSMetricsCollector(logger *slog.Logger) (*TLSMetricsCollector, error) {
	metricsOnce.Do(func() {
		tlsMetricsInst, metricsInitErr = NewTLSMetricsCollector(otel.GetMeterProvider(), logger)
	})
	return tlsMetricsInst, metricsInitErr
}

// NewTLSMetricsCollector creates a collector on the given meter provider.
func NewTLSMetricsCollector(provider metric.MeterProvider, logger *slog.Logger) (*TLSMetricsCollector, error) {
	if logger == nil {
		logger = slog.Default()
	}

	meter := provider.Meter(MeterName)

	collector := &TLSMetricsCollector{
		logger: logger,
	}

	var err error

	collector.configsBuilt, err = meter.Int64Counter(
		"tls_client_configs_total",
		metric.WithDescription("Total number of client TLS configurations built"),
		metric.WithUnit("{config}"),
	)
	if err != nil {
		return nil, err
	}

	collector.configErrors, err = meter.Int64Counter(
		"tls_client_config_errors_total",
		metric.WithDescription("Total number of client TLS configurations that failed to build"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	collector.optionsIgnored, err = meter.Int64Counter(
		"tls_options_ignored_total",
		metric.WithDescription("Options present in a record that crypto/tls cannot apply"),
		metric.WithUnit("{option}"),
	)
	if err != nil {
		return nil, err
	}

	collector.buildDuration, err = meter.Float64Histogram(
		"tls_client_config_build_duration_seconds",
		metric.WithDescription("Time spent loading files and building a client TLS configuration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	collector.peerVerifications, err = meter.Int64Counter(
		"tls_peer_verifications_total",
		metric.WithDescription("Peer checks performed during handshakes by check and result"),
		metric.WithUnit("{verification}"),
	)
	if err != nil {
		return nil, err
	}

	collector.certificateExpiry, err = meter.Float64Gauge(
		"tls_certificate_expiry_timestamp",
		metric.WithDescription("Certificate expiry timestamp in Unix seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	collector.certificateChecks, err = meter.Int64Counter(
		"tls_certificate_checks_total",
		metric.WithDescription("Certificate expiry checks by status"),
		metric.WithUnit("{check}"),
	)
	if err != nil {
		return nil, err
	}

	return collector, nil
}

// RecordConfigBuilt records a successful translation.
func (c *TLSMetricsCollector) RecordConfigBuilt(ctx context.Context, minVersion string, clientCert bool, duration time.Duration) {
	if c == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("min_version", minVersion),
		attribute.Bool("client_cert", clientCert),
	)
	c.configsBuilt.Add(ctx, 1, attrs)
	c.buildDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordConfigError records a failed translation.
func (c *TLSMetricsCollector) RecordConfigError(ctx context.Context, errorType string) {
	if c == nil {
		return
	}
	c.configErrors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("error_type", errorType),
	))
}

// RecordIgnoredOption records a record setting that was not applied.
func (c *TLSMetricsCollector) RecordIgnoredOption(ctx context.Context, kind string) {
	if c == nil {
		return
	}
	c.optionsIgnored.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
	))
}

// RecordPeerVerification records the outcome of one peer check.
func (c *TLSMetricsCollector) RecordPeerVerification(ctx context.Context, check string, success bool) {
	if c == nil {
		return
	}
	c.peerVerifications.Add(ctx, 1, metric.WithAttributes(
		attribute.String("check", check),
		attribute.Bool("success", success),
	))
}

// RecordCertificateExpiry records certificate expiry information
func (c *TLSMetricsCollector) RecordCertificateExpiry(ctx context.Context, status *CertificateStatus) {
	if c == nil {
		return
	}
	c.certificateExpiry.Record(ctx, float64(status.NotAfter.Unix()), metric.WithAttributes(
		attribute.String("role", status.Role),
		attribute.String("subject", status.Subject),
	))
	c.certificateChecks.Add(ctx, 1, metric.WithAttributes(
		attribute.String("role", status.Role),
		attribute.String("status", status.Status),
	))
}
