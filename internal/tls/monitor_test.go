package tls

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polisai/sslopts/pkg/ssl"
)

func TestExpiryMonitorClassifiesCertificates(t *testing.T) {
	pki := newTestPKI(t)
	now := time.Now()

	issue := func(name string, validFor time.Duration) string {
		cert, err := GenerateCertificate(CertificateRequest{
			CommonName: name,
			IsClient:   true,
			NotBefore:  now.Add(-time.Hour),
			ValidFor:   validFor + time.Hour,
			Parent:     pki.ca,
		})
		require.NoError(t, err)
		return pki.write(t, name+".pem", cert.CertPEM())
	}

	tests := []struct {
		name     string
		validFor time.Duration
		want     string
	}{
		{name: "healthy", validFor: 90 * 24 * time.Hour, want: StatusOK},
		{name: "warning", validFor: 20 * 24 * time.Hour, want: StatusWarning},
		{name: "critical", validFor: 3 * 24 * time.Hour, want: StatusCritical},
		{name: "expired", validFor: -time.Minute, want: StatusExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := ssl.DefaultConfig()
			cfg.CertFile = issue(tt.name, tt.validFor)

			monitor, err := NewExpiryMonitor(func() ssl.Config { return cfg }, "",
				WithMonitorClock(func() time.Time { return now }))
			require.NoError(t, err)

			statuses := monitor.Check(context.Background())
			require.Len(t, statuses, 1)
			assert.Equal(t, RoleClient, statuses[0].Role)
			assert.Equal(t, "CN="+tt.name, statuses[0].Subject)
			assert.Equal(t, tt.want, statuses[0].Status)
		})
	}
}

func TestExpiryMonitorInspectsTrustAnchors(t *testing.T) {
	pki := newTestPKI(t)

	cfg := ssl.DefaultConfig()
	cfg.CAInfo = pki.caFile
	cfg.CABuffer = string(pki.ca.CertPEM())
	cfg.CertFile = pki.clientCertFile

	monitor, err := NewExpiryMonitor(func() ssl.Config { return cfg }, "")
	require.NoError(t, err)

	statuses := monitor.Check(context.Background())
	require.Len(t, statuses, 3)

	roles := map[string]int{}
	for _, s := range statuses {
		roles[s.Role]++
		assert.Equal(t, StatusOK, s.Status)
	}
	assert.Equal(t, map[string]int{RoleClient: 1, RoleCA: 2}, roles)
}

func TestExpiryMonitorWarnsOncePerDay(t *testing.T) {
	pki := newTestPKI(t)
	soon, err := GenerateCertificate(CertificateRequest{CommonName: "soon", IsClient: true, ValidFor: 48 * time.Hour, Parent: pki.ca})
	require.NoError(t, err)

	cfg := ssl.DefaultConfig()
	cfg.CertFile = pki.write(t, "soon.pem", soon.CertPEM())

	var logs bytes.Buffer
	now := time.Now()
	monitor, err := NewExpiryMonitor(func() ssl.Config { return cfg }, "",
		WithMonitorLogger(slog.New(slog.NewJSONHandler(&logs, nil))),
		WithMonitorClock(func() time.Time { return now }))
	require.NoError(t, err)

	monitor.Check(context.Background())
	monitor.Check(context.Background())
	assert.Equal(t, 1, bytes.Count(logs.Bytes(), []byte(`"event":"certificate_expiry"`)))

	now = now.Add(25 * time.Hour)
	monitor.Check(context.Background())
	assert.Equal(t, 2, bytes.Count(logs.Bytes(), []byte(`"event":"certificate_expiry"`)))
}

func TestExpiryMonitorSkipsUnreadableFiles(t *testing.T) {
	cfg := ssl.DefaultConfig()
	cfg.CertFile = t.TempDir() + "/missing.pem"

	monitor, err := NewExpiryMonitor(func() ssl.Config { return cfg }, "")
	require.NoError(t, err)
	assert.Empty(t, monitor.Check(context.Background()))
}

func TestExpiryMonitorSchedule(t *testing.T) {
	_, err := NewExpiryMonitor(ssl.DefaultConfig, "not a schedule")
	require.Error(t, err)

	_, err = NewExpiryMonitor(ssl.DefaultConfig, "", WithThresholds(7, 30))
	require.Error(t, err)

	monitor, err := NewExpiryMonitor(ssl.DefaultConfig, "*/5 * * * *")
	require.NoError(t, err)
	assert.Nil(t, monitor.NextRun())

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, monitor.Start(ctx))
	assert.True(t, monitor.IsRunning())
	require.NotNil(t, monitor.NextRun())
	assert.WithinDuration(t, time.Now(), *monitor.NextRun(), 5*time.Minute+time.Second)
	assert.Error(t, monitor.Start(ctx))

	cancel()
	assert.Eventually(t, func() bool { return !monitor.IsRunning() }, time.Second, 10*time.Millisecond)
}
