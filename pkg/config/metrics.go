package config

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Reload outcomes recorded by ReloadMetrics.
const (
	ReloadSuccess   = "success"
	ReloadFailure   = "failure"
	ReloadUnchanged = "unchanged"
)

// ReloadMetrics counts configuration reloads by outcome.
type ReloadMetrics struct {
	reloads    *prometheus.CounterVec
	generation prometheus.Gauge
}

// NewReloadMetrics creates the reload metrics and registers them with reg.
// A nil reg leaves them unregistered.
func NewReloadMetrics(reg prometheus.Registerer) *ReloadMetrics {
	m := &ReloadMetrics{
		reloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sslopts_config_reloads_total",
				Help: "Total number of configuration reloads by result",
			},
			[]string{"result"},
		),
		generation: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "sslopts_config_generation",
				Help: "Generation of the active configuration snapshot",
			},
		),
	}
	if reg != nil {
		reg.MustRegister(m.reloads, m.generation)
	}
	return m
}

// RecordReload counts one reload with the given result.
func (m *ReloadMetrics) RecordReload(result string) {
	if m == nil {
		return
	}
	m.reloads.WithLabelValues(result).Inc()
}

// SetGeneration publishes the active snapshot generation.
func (m *ReloadMetrics) SetGeneration(gen int64) {
	if m == nil {
		return
	}
	m.generation.Set(float64(gen))
}
