package tls

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/polisai/sslopts/pkg/ssl"
	"github.com/polisai/sslopts/pkg/telemetry"
)

// TracerName is the instrumentation scope of spans started here.
const TracerName = "github.com/polisai/sslopts/internal/tls"

const defaultSessionCacheSize = 1000

// alpnProtocols is the list advertised when ALPN is enabled.
var alpnProtocols = []string{"h2", "http/1.1"}

var minVersionKinds = map[ssl.ProtocolVersion]ssl.Kind{
	ssl.VersionSSL2:  ssl.KindMinSSL2,
	ssl.VersionSSL3:  ssl.KindMinSSL3,
	ssl.VersionTLS10: ssl.KindMinTLS10,
	ssl.VersionTLS11: ssl.KindMinTLS11,
	ssl.VersionTLS12: ssl.KindMinTLS12,
	ssl.VersionTLS13: ssl.KindMinTLS13,
}

var maxVersionKinds = map[ssl.ProtocolVersion]ssl.Kind{
	ssl.VersionTLS10: ssl.KindMaxTLS10,
	ssl.VersionTLS11: ssl.KindMaxTLS11,
	ssl.VersionTLS12: ssl.KindMaxTLS12,
	ssl.VersionTLS13: ssl.KindMaxTLS13,
}

// ClientOption customises BuildClient.
type ClientOption func(*clientOptions)

type clientOptions struct {
	logger               *slog.Logger
	metrics              *TLSMetricsCollector
	tracer               trace.Tracer
	serverName           string
	allowInsecureCiphers bool
	sessionCacheSize     int
	now                  func() time.Time
}

// WithLogger sets the logger. slog.Default is used otherwise.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(o *clientOptions) { o.logger = logger }
}

// WithMetrics records build and verification metrics on collector.
func WithMetrics(collector *TLSMetricsCollector) ClientOption {
	return func(o *clientOptions) { o.metrics = collector }
}

// WithTracer sets the tracer. The global provider is used otherwise.
func WithTracer(tracer trace.Tracer) ClientOption {
	return func(o *clientOptions) { o.tracer = tracer }
}

// WithServerName sets the SNI and hostname used for verification.
func WithServerName(name string) ClientOption {
	return func(o *clientOptions) { o.serverName = name }
}

// WithInsecureCiphers lets cipher lists contain RC4, 3DES and CBC suites.
func WithInsecureCiphers() ClientOption {
	return func(o *clientOptions) { o.allowInsecureCiphers = true }
}

// WithSessionCacheSize sets the capacity of the client session cache.
func WithSessionCacheSize(size int) ClientOption {
	return func(o *clientOptions) { o.sessionCacheSize = size }
}

// WithClock sets the time source used for chain, CRL and OCSP freshness
// checks.
func WithClock(now func() time.Time) ClientOption {
	return func(o *clientOptions) { o.now = now }
}

func newClientOptions(opts []ClientOption) clientOptions {
	o := clientOptions{
		sessionCacheSize: defaultSessionCacheSize,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer(TracerName)
	}
	return o
}

// BuildClient translates a canonical record into a crypto/tls client
// configuration. Files named by the record are read here. The report lists
// what was applied and what crypto/tls cannot express.
func BuildClient(ctx context.Context, cfg ssl.Config, opts ...ClientOption) (*tls.Config, *Report, error) {
	o := newClientOptions(opts)
	logger := NewTLSLogger(o.logger)

	ctx, span := o.tracer.Start(ctx, "tls.BuildClient")
	defer span.End()

	start := time.Now()
	tlsConfig, report, err := buildClient(ctx, cfg, o, logger)
	duration := time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, ErrorType(err))
		logger.LogConfigFailed(ctx, err)
		o.metrics.RecordConfigError(ctx, ErrorType(err))
		return nil, nil, err
	}

	for _, finding := range report.Ignored {
		logger.LogIgnoredOption(ctx, finding)
		o.metrics.RecordIgnoredOption(ctx, finding.Kind.String())
		telemetry.RecordIgnoredOption(span, finding.Kind.String(), finding.Reason)
	}

	clientCert := len(tlsConfig.Certificates) > 0
	span.SetAttributes(
		attribute.String("tls.min_version", report.MinVersion),
		attribute.String("tls.max_version", report.MaxVersion),
		attribute.Bool("tls.client_certificate", clientCert),
		attribute.StringSlice("tls.checks", report.Checks),
		attribute.Int("tls.options_ignored", len(report.Ignored)),
	)
	logger.LogConfigBuilt(ctx, cfg, report, duration)
	o.metrics.RecordConfigBuilt(ctx, report.MinVersion, clientCert, duration)

	return tlsConfig, report, nil
}

func buildClient(ctx context.Context, cfg ssl.Config, o clientOptions, logger *TLSLogger) (*tls.Config, *Report, error) {
	report := &Report{
		MinVersion: cfg.MinVersion.String(),
		MaxVersion: cfg.MaxVersion.String(),
		RootSource: "system",
	}
	tlsConfig := &tls.Config{
		ServerName:    o.serverName,
		Renegotiation: tls.RenegotiateNever,
	}

	if err := applyVersions(tlsConfig, cfg, report); err != nil {
		return nil, nil, err
	}
	if err := applyCiphers(ctx, tlsConfig, cfg, o, logger, report); err != nil {
		return nil, nil, err
	}

	switch {
	case cfg.CertFile != "":
		cert, err := loadClientCertificate(cfg)
		logger.LogCertificateLoad(ctx, cfg.CertFile, keySource(cfg), err)
		if err != nil {
			return nil, nil, err
		}
		tlsConfig.Certificates = []tls.Certificate{*cert}
		report.apply(certKind(cfg))
		if kind, ok := keyKind(cfg); ok {
			report.apply(kind)
		}
	case cfg.KeyFile != "" || !cfg.KeyBlob.IsEmpty():
		return nil, nil, NewConfigMissingError("cert_file").
			WithSuggestion("A private key is configured without a client certificate")
	}

	roots, rootKinds, err := loadRootPool(cfg)
	if err != nil {
		return nil, nil, err
	}
	if roots != nil {
		tlsConfig.RootCAs = roots
		report.RootSource = "custom"
		report.apply(rootKinds...)
	}

	verifier := &peerVerifier{
		roots:      roots,
		serverName: o.serverName,
		logger:     logger,
		metrics:    o.metrics,
		now:        o.now,
	}
	if err := applyVerification(tlsConfig, cfg, verifier, report); err != nil {
		return nil, nil, err
	}
	if verifier.active() {
		tlsConfig.VerifyConnection = verifier.verifyConnection
	}

	if cfg.EnableALPN {
		tlsConfig.NextProtos = slices.Clone(alpnProtocols)
		report.NextProtos = slices.Clone(alpnProtocols)
	} else {
		report.apply(ssl.KindALPN)
	}
	if cfg.EnableNPN && ssl.Current().Supports(ssl.KindNPN) {
		report.ignore(ssl.KindNPN, "crypto/tls does not implement NPN")
	}
	if cfg.FastStart {
		report.ignore(ssl.KindFastStart, "TCP Fast Open is a socket option outside the TLS configuration")
	}

	if cfg.SessionIDCache {
		tlsConfig.ClientSessionCache = tls.NewLRUClientSessionCache(o.sessionCacheSize)
	} else {
		tlsConfig.SessionTicketsDisabled = true
		report.apply(ssl.KindSessionIDCache)
	}

	return tlsConfig, report, nil
}

func applyVersions(tlsConfig *tls.Config, cfg ssl.Config, report *Report) error {
	minVersion, err := tlsVersion("min_version", cfg.MinVersion)
	if err != nil {
		return err
	}
	maxVersion, err := tlsVersion("max_version", cfg.MaxVersion)
	if err != nil {
		return err
	}

	switch cfg.MinVersion {
	case ssl.VersionSSL2, ssl.VersionSSL3:
		// Any TLS version satisfies an SSL floor.
		minVersion = tls.VersionTLS10
		report.MinVersion = ssl.VersionTLS10.String()
		report.ignore(minVersionKinds[cfg.MinVersion],
			fmt.Sprintf("crypto/tls cannot negotiate %s, floor raised to TLSv1.0", cfg.MinVersion))
	}

	if minVersion == 0 && maxVersion != 0 && maxVersion < tls.VersionTLS12 {
		// crypto/tls clients otherwise default to a TLS 1.2 floor.
		minVersion = tls.VersionTLS10
		report.MinVersion = ssl.VersionTLS10.String()
	}

	if minVersion != 0 && maxVersion != 0 && minVersion > maxVersion {
		return NewConfigValidationError("max_version", cfg.MaxVersion.String(),
			fmt.Sprintf("ceiling is below the floor %s", cfg.MinVersion))
	}

	tlsConfig.MinVersion = minVersion
	tlsConfig.MaxVersion = maxVersion
	if kind, ok := minVersionKinds[cfg.MinVersion]; ok && minVersion == uint16(cfg.MinVersion) {
		report.apply(kind)
	}
	if kind, ok := maxVersionKinds[cfg.MaxVersion]; ok {
		report.apply(kind)
	}
	return nil
}

func tlsVersion(field string, v ssl.ProtocolVersion) (uint16, error) {
	switch v {
	case ssl.VersionDefault, ssl.VersionSSL2, ssl.VersionSSL3:
		if field == "max_version" && v != ssl.VersionDefault {
			return 0, NewProtocolUnsupportedError(field, v.String())
		}
		return 0, nil
	case ssl.VersionTLS10, ssl.VersionTLS11, ssl.VersionTLS12, ssl.VersionTLS13:
		return uint16(v), nil
	}
	return 0, NewProtocolUnsupportedError(field, v.String())
}

func applyCiphers(ctx context.Context, tlsConfig *tls.Config, cfg ssl.Config, o clientOptions, logger *TLSLogger, report *Report) error {
	if cfg.Ciphers != "" {
		suites, tls13, err := ParseCipherList(cfg.Ciphers)
		if err != nil {
			return err
		}
		if err := ValidateCipherSuiteSecurity(suites); err != nil {
			if !o.allowInsecureCiphers {
				return err
			}
			logger.LogInsecureCiphers(ctx, err)
		}
		if len(tls13) > 0 {
			report.ignore(ssl.KindCiphers,
				fmt.Sprintf("TLS 1.3 suites %s are always enabled by crypto/tls", strings.Join(tls13, ",")))
		}
		if len(suites) > 0 {
			tlsConfig.CipherSuites = suites
			report.CipherSuites = CipherSuiteNames(suites)
			report.apply(ssl.KindCiphers)
		}
	}

	if cfg.TLS13Ciphers != "" {
		if _, err := ParseTLS13CipherList(cfg.TLS13Ciphers); err != nil {
			return err
		}
		report.ignore(ssl.KindTLS13Ciphers, "crypto/tls does not allow TLS 1.3 suites to be configured")
	}
	return nil
}

func applyVerification(tlsConfig *tls.Config, cfg ssl.Config, verifier *peerVerifier, report *Report) error {
	switch {
	case !cfg.VerifyPeer:
		tlsConfig.InsecureSkipVerify = true //nolint:gosec // verify_peer disabled by configuration
		report.apply(ssl.KindVerifyPeer)
		if cfg.VerifyHost {
			verifier.verifyHostname = true
			report.check(CheckHostname)
		} else {
			report.apply(ssl.KindVerifyHost)
		}
	case !cfg.VerifyHost:
		// The chain is still verified in VerifyConnection.
		tlsConfig.InsecureSkipVerify = true //nolint:gosec
		verifier.verifyChain = true
		report.apply(ssl.KindVerifyHost)
		report.check(CheckChain)
	default:
		report.check(CheckChain)
		report.check(CheckHostname)
	}

	if cfg.PinnedPublicKey != "" {
		pins, err := parsePinnedPublicKey(cfg.PinnedPublicKey)
		if err != nil {
			return err
		}
		verifier.pins = pins
		report.apply(ssl.KindPinnedPublicKey)
		report.check(CheckPin)
	}

	if cfg.VerifyStatus {
		verifier.requireStaple = true
		report.apply(ssl.KindVerifyStatus)
		report.check(CheckOCSP)
	}

	if cfg.NoRevoke {
		report.apply(ssl.KindNoRevoke)
	}
	if cfg.CRLFile != "" {
		if cfg.NoRevoke {
			report.ignore(ssl.KindCRLFile, "revocation checks disabled by no_revoke")
			return nil
		}
		crl, err := loadRevocationList(cfg.CRLFile)
		if err != nil {
			return err
		}
		verifier.crl = crl
		report.apply(ssl.KindCRLFile)
		report.check(CheckCRL)
	}
	return nil
}

func certKind(cfg ssl.Config) ssl.Kind {
	if cfg.CertType == ssl.EncodingDER {
		return ssl.KindCertDER
	}
	return ssl.KindCertPEM
}

func keyKind(cfg ssl.Config) (ssl.Kind, bool) {
	switch {
	case !cfg.KeyBlob.IsEmpty():
		return ssl.KindKeyBlob, true
	case cfg.KeyFile == "":
		return 0, false
	case cfg.KeyType == ssl.EncodingDER:
		return ssl.KindKeyDER, true
	default:
		return ssl.KindKeyPEM, true
	}
}
