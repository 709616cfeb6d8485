// Package telemetry wires OpenTelemetry tracing and metrics for sslopts.
//
// SetupProvider exports spans over OTLP/gRPC when an endpoint is set.
// SetupMetrics bridges OpenTelemetry instruments into a Prometheus registry.
package telemetry
