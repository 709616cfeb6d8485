package tls

import (
	"context"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/net/http2"

	"github.com/polisai/sslopts/pkg/ssl"
)

// TransportSettings tunes the HTTP transport built around a TLS client
// configuration.
type TransportSettings struct {
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration
	HandshakeTimeout    time.Duration
	DialTimeout         time.Duration
	// DisableTracing skips the otelhttp wrapper.
	DisableTracing bool
}

// DefaultTransportSettings returns the connection pool settings used when
// none are given.
func DefaultTransportSettings() TransportSettings {
	return TransportSettings{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		HandshakeTimeout:    10 * time.Second,
		DialTimeout:         30 * time.Second,
	}
}

// NewHTTPTransport returns an http.RoundTripper that speaks TLS as described
// by cfg. HTTP/2 is configured when ALPN is enabled.
func NewHTTPTransport(ctx context.Context, cfg ssl.Config, settings TransportSettings, opts ...ClientOption) (http.RoundTripper, *Report, error) {
	tlsConfig, report, err := BuildClient(ctx, cfg, opts...)
	if err != nil {
		return nil, nil, err
	}

	dialer := &net.Dialer{Timeout: settings.DialTimeout, KeepAlive: 30 * time.Second}
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		TLSClientConfig:     tlsConfig,
		TLSHandshakeTimeout: settings.HandshakeTimeout,
		MaxIdleConns:        settings.MaxIdleConns,
		MaxIdleConnsPerHost: settings.MaxIdleConnsPerHost,
		IdleConnTimeout:     settings.IdleConnTimeout,
	}

	if cfg.EnableALPN {
		if err := http2.ConfigureTransport(transport); err != nil {
			return nil, nil, NewTLSErrorWithCause(ErrorTypeConfigValidation, "failed to enable HTTP/2", err)
		}
	}

	if settings.DisableTracing {
		return transport, report, nil
	}
	return otelhttp.NewTransport(transport), report, nil
}
