package tls

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/polisai/sslopts/pkg/ssl"
)

// Certificate expiry states.
const (
	StatusOK       = "OK"
	StatusWarning  = "WARNING"
	StatusCritical = "CRITICAL"
	StatusExpired  = "EXPIRED"
)

// Certificate roles inspected by the monitor.
const (
	RoleClient = "client"
	RoleCA     = "ca"
)

const (
	// DefaultExpirySchedule runs a check every six hours.
	DefaultExpirySchedule = "0 */6 * * *"
	DefaultWarningDays    = 30
	DefaultCriticalDays   = 7
)

// CertificateStatus is the expiry state of one certificate referenced by a
// record.
type CertificateStatus struct {
	Role            string    `json:"role"`
	File            string    `json:"file"`
	Subject         string    `json:"subject"`
	Issuer          string    `json:"issuer"`
	NotBefore       time.Time `json:"not_before"`
	NotAfter        time.Time `json:"not_after"`
	DaysUntilExpiry int       `json:"days_until_expiry"`
	Status          string    `json:"status"`
	LastChecked     time.Time `json:"last_checked"`
}

// ExpiryMonitor periodically inspects the client certificate and trust
// anchors named by a record and reports those nearing expiry.
type ExpiryMonitor struct {
	source       func() ssl.Config
	schedule     string
	warningDays  int
	criticalDays int

	cron    *cron.Cron
	logger  *TLSLogger
	metrics *TLSMetricsCollector
	now     func() time.Time

	mu           sync.Mutex
	running      bool
	lastWarnings map[string]time.Time
}

// MonitorOption customises an ExpiryMonitor.
type MonitorOption func(*ExpiryMonitor)

// WithMonitorLogger sets the monitor logger.
func WithMonitorLogger(logger *slog.Logger) MonitorOption {
	return func(m *ExpiryMonitor) { m.logger = NewTLSLogger(logger) }
}

// WithMonitorMetrics records expiry gauges on collector.
func WithMonitorMetrics(collector *TLSMetricsCollector) MonitorOption {
	return func(m *ExpiryMonitor) { m.metrics = collector }
}

// WithMonitorClock sets the time source.
func WithMonitorClock(now func() time.Time) MonitorOption {
	return func(m *ExpiryMonitor) { m.now = now }
}

// WithThresholds sets the day counts below which a certificate is reported
// as WARNING and CRITICAL.
func WithThresholds(warningDays, criticalDays int) MonitorOption {
	return func(m *ExpiryMonitor) {
		m.warningDays = warningDays
		m.criticalDays = criticalDays
	}
}

// NewExpiryMonitor creates a monitor that reads the current record from
// source on every run. An empty schedule selects DefaultExpirySchedule.
func NewExpiryMonitor(source func() ssl.Config, schedule string, opts ...MonitorOption) (*ExpiryMonitor, error) {
	if schedule == "" {
		schedule = DefaultExpirySchedule
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid expiry schedule %q: %w", schedule, err)
	}

	m := &ExpiryMonitor{
		source:       source,
		schedule:     schedule,
		warningDays:  DefaultWarningDays,
		criticalDays: DefaultCriticalDays,
		cron:         cron.New(),
		logger:       NewTLSLogger(nil),
		now:          time.Now,
		lastWarnings: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.criticalDays > m.warningDays {
		return nil, fmt.Errorf("critical threshold %d exceeds warning threshold %d", m.criticalDays, m.warningDays)
	}
	return m, nil
}

// Start runs an initial check and schedules the rest. The monitor stops when
// ctx is cancelled.
func (m *ExpiryMonitor) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return fmt.Errorf("expiry monitor already running")
	}
	if _, err := m.cron.AddFunc(m.schedule, func() { m.Check(ctx) }); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("failed to schedule expiry checks: %w", err)
	}
	m.cron.Start()
	m.running = true
	m.mu.Unlock()

	m.logger.logger.Info("Certificate expiry monitor started",
		"schedule", m.schedule,
		"warning_days", m.warningDays,
		"critical_days", m.criticalDays)

	m.Check(ctx)

	go func() {
		<-ctx.Done()
		m.Stop()
	}()
	return nil
}

// Stop stops scheduling and waits for a running check to finish.
func (m *ExpiryMonitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	stopped := m.cron.Stop()
	m.mu.Unlock()

	<-stopped.Done()
	m.logger.logger.Info("Certificate expiry monitor stopped")
}

// IsRunning reports whether checks are scheduled.
func (m *ExpiryMonitor) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// NextRun returns the time of the next scheduled check, or nil.
func (m *ExpiryMonitor) NextRun() *time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := m.cron.Entries()
	if !m.running || len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}

// Check inspects every certificate the current record references and
// returns their states.
func (m *ExpiryMonitor) Check(ctx context.Context) []*CertificateStatus {
	cfg := m.source()
	now := m.now()

	statuses := m.inspect(ctx, cfg, now)

	counts := make(map[string]int)
	for _, status := range statuses {
		counts[status.Status]++
		m.metrics.RecordCertificateExpiry(ctx, status)
		m.warn(ctx, status, now)
	}

	m.logger.logger.InfoContext(ctx, "Certificate expiry check completed",
		"checked_count", len(statuses),
		"warning_count", counts[StatusWarning],
		"critical_count", counts[StatusCritical],
		"expired_count", counts[StatusExpired])

	return statuses
}

func (m *ExpiryMonitor) inspect(ctx context.Context, cfg ssl.Config, now time.Time) []*CertificateStatus {
	var statuses []*CertificateStatus
	add := func(role, file string, data []byte, enc ssl.Encoding, err error) {
		if err == nil {
			var certs []*CertificateStatus
			certs, err = m.statusesFor(role, file, data, enc, now)
			statuses = append(statuses, certs...)
		}
		if err != nil {
			m.logger.logger.ErrorContext(ctx, "Failed to inspect certificate",
				"role", role,
				"file", file,
				"error", err)
		}
	}

	if cfg.CertFile != "" {
		data, err := readFile(cfg.CertFile, "read")
		add(RoleClient, cfg.CertFile, data, cfg.CertType, err)
	}
	if cfg.CAInfo != "" {
		data, err := readFile(cfg.CAInfo, "read")
		add(RoleCA, cfg.CAInfo, data, ssl.EncodingPEM, err)
	}
	if cfg.CAPath != "" {
		entries, err := os.ReadDir(filepath.Clean(cfg.CAPath))
		if err != nil {
			add(RoleCA, cfg.CAPath, nil, ssl.EncodingPEM, fileError(cfg.CAPath, "list", err))
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			path := filepath.Join(cfg.CAPath, entry.Name())
			data, err := readFile(path, "read")
			if err == nil {
				// Directories may hold CRLs and other non-certificate files.
				if certs, parseErr := parseCertificates(data, ssl.EncodingPEM); parseErr != nil || len(certs) == 0 {
					continue
				}
			}
			add(RoleCA, path, data, ssl.EncodingPEM, err)
		}
	}
	if cfg.CABuffer != "" {
		add(RoleCA, "ca_buffer", []byte(cfg.CABuffer), ssl.EncodingPEM, nil)
	}
	return statuses
}

func (m *ExpiryMonitor) statusesFor(role, file string, data []byte, enc ssl.Encoding, now time.Time) ([]*CertificateStatus, error) {
	certs, err := parseCertificates(data, enc)
	if err != nil {
		return nil, NewCertificateLoadError(file, err)
	}
	if role == RoleClient {
		// Only the leaf identifies the client.
		certs = certs[:1]
	}

	statuses := make([]*CertificateStatus, 0, len(certs))
	for _, cert := range certs {
		days := int(cert.NotAfter.Sub(now).Hours() / 24)
		statuses = append(statuses, &CertificateStatus{
			Role:            role,
			File:            file,
			Subject:         cert.Subject.String(),
			Issuer:          cert.Issuer.String(),
			NotBefore:       cert.NotBefore,
			NotAfter:        cert.NotAfter,
			DaysUntilExpiry: days,
			Status:          m.classify(cert.NotAfter, days, now),
			LastChecked:     now,
		})
	}
	return statuses, nil
}

func (m *ExpiryMonitor) classify(notAfter time.Time, days int, now time.Time) string {
	switch {
	case !now.Before(notAfter):
		return StatusExpired
	case days <= m.criticalDays:
		return StatusCritical
	case days <= m.warningDays:
		return StatusWarning
	default:
		return StatusOK
	}
}

// warn logs a non-OK status at most once a day per certificate.
func (m *ExpiryMonitor) warn(ctx context.Context, status *CertificateStatus, now time.Time) {
	if status.Status == StatusOK {
		return
	}

	key := status.Role + "|" + status.File + "|" + status.Subject
	m.mu.Lock()
	last, seen := m.lastWarnings[key]
	if seen && now.Sub(last) < 24*time.Hour {
		m.mu.Unlock()
		return
	}
	m.lastWarnings[key] = now
	m.mu.Unlock()

	m.logger.LogCertificateExpiry(ctx, status)
}
