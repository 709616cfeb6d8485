package tls

import (
	"context"
	"crypto/x509"
	"log/slog"
	"time"

	"github.com/polisai/sslopts/pkg/ssl"
)

// TLSLogger writes TLS events as structured records tagged component=tls.
type TLSLogger struct {
	logger *slog.Logger
}

// NewTLSLogger wraps logger, or slog.Default when nil.
func NewTLSLogger(logger *slog.Logger) *TLSLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &TLSLogger{logger: logger.With("component", "tls")}
}

// LogConfigBuilt logs a finished record translation.
func (l *TLSLogger) LogConfigBuilt(ctx context.Context, cfg ssl.Config, report *Report, duration time.Duration) {
	l.logger.LogAttrs(ctx, slog.LevelInfo, "TLS client configuration built",
		slog.String("event", "config_built"),
		slog.String("min_version", cfg.MinVersion.String()),
		slog.String("max_version", cfg.MaxVersion.String()),
		slog.Bool("client_certificate", cfg.HasClientCertificate()),
		slog.Bool("verify_peer", cfg.VerifyPeer),
		slog.Bool("verify_host", cfg.VerifyHost),
		slog.Int("applied", len(report.Applied)),
		slog.Int("ignored", len(report.Ignored)),
		slog.Duration("duration", duration),
	)
}

// LogConfigFailed logs a record that could not be translated.
func (l *TLSLogger) LogConfigFailed(ctx context.Context, err error) {
	l.logger.LogAttrs(ctx, slog.LevelError, "TLS client configuration failed",
		slog.String("event", "config_failed"),
		slog.String("error_type", ErrorType(err)),
		slog.String("error", err.Error()),
	)
}

// LogIgnoredOption logs a record setting that crypto/tls cannot honour.
func (l *TLSLogger) LogIgnoredOption(ctx context.Context, finding Finding) {
	l.logger.LogAttrs(ctx, slog.LevelWarn, "TLS option not applied",
		slog.String("event", "option_ignored"),
		slog.String("kind", finding.Kind.String()),
		slog.String("reason", finding.Reason),
	)
}

// outcome picks the level and message for an operation that may have
// failed and appends the error to attrs.
func outcome(err error, okLevel slog.Level, okMessage, failMessage string, attrs []slog.Attr) (slog.Level, string, []slog.Attr) {
	attrs = append(attrs, slog.Bool("success", err == nil))
	if err != nil {
		return slog.LevelError, failMessage, append(attrs, slog.String("error", err.Error()))
	}
	return okLevel, okMessage, attrs
}

// LogCertificateLoad logs reading the client certificate and key.
func (l *TLSLogger) LogCertificateLoad(ctx context.Context, certFile, keySource string, err error) {
	level, message, attrs := outcome(err, slog.LevelInfo, "Client certificate loaded", "Client certificate loading failed", []slog.Attr{
		slog.String("event", "certificate_load"),
		slog.String("cert_file", certFile),
		slog.String("key_source", keySource),
	})
	l.logger.LogAttrs(ctx, level, message, attrs...)
}

// LogPeerVerification logs the outcome of one peer check.
func (l *TLSLogger) LogPeerVerification(ctx context.Context, serverName string, cert *x509.Certificate, check string, err error) {
	attrs := []slog.Attr{
		slog.String("event", "peer_verification"),
		slog.String("server_name", serverName),
		slog.String("check", check),
	}
	if cert != nil {
		attrs = append(attrs,
			slog.String("subject", cert.Subject.String()),
			slog.String("issuer", cert.Issuer.String()),
			slog.Time("not_after", cert.NotAfter),
		)
	}

	level, message, attrs := outcome(err, slog.LevelDebug, "Peer verification passed", "Peer verification failed", attrs)
	l.logger.LogAttrs(ctx, level, message, attrs...)
}

var expiryMessages = map[string]struct {
	level   slog.Level
	message string
}{
	StatusExpired:  {slog.LevelError, "Certificate has expired"},
	StatusCritical: {slog.LevelError, "Certificate expires within the critical window"},
	StatusWarning:  {slog.LevelWarn, "Certificate expires soon"},
	StatusOK:       {slog.LevelInfo, "Certificate expiry status"},
}

// LogCertificateExpiry logs the expiry state of one certificate.
func (l *TLSLogger) LogCertificateExpiry(ctx context.Context, status *CertificateStatus) {
	m, ok := expiryMessages[status.Status]
	if !ok {
		m = expiryMessages[StatusOK]
	}

	l.logger.LogAttrs(ctx, m.level, m.message,
		slog.String("event", "certificate_expiry"),
		slog.String("role", status.Role),
		slog.String("file", status.File),
		slog.String("subject", status.Subject),
		slog.Time("expires_on", status.NotAfter),
		slog.Int("days_remaining", status.DaysUntilExpiry),
		slog.String("status", status.Status),
	)
}

// LogInsecureCiphers logs a cipher list accepted despite weak suites.
func (l *TLSLogger) LogInsecureCiphers(ctx context.Context, err error) {
	l.logger.LogAttrs(ctx, slog.LevelWarn, "Insecure cipher suites enabled",
		slog.String("event", "insecure_ciphers"),
		slog.String("details", err.Error()),
	)
}
