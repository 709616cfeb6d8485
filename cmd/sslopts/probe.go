package main

import (
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	tlsclient "github.com/polisai/sslopts/internal/tls"
)

// probeResult summarises one request made with a translated configuration.
type probeResult struct {
	URL                string   `json:"url" yaml:"url"`
	Status             int      `json:"status" yaml:"status"`
	Proto              string   `json:"proto" yaml:"proto"`
	TLSVersion         string   `json:"tls_version,omitempty" yaml:"tls_version,omitempty"`
	CipherSuite        string   `json:"cipher_suite,omitempty" yaml:"cipher_suite,omitempty"`
	NegotiatedProtocol string   `json:"negotiated_protocol,omitempty" yaml:"negotiated_protocol,omitempty"`
	PeerSubject        string   `json:"peer_subject,omitempty" yaml:"peer_subject,omitempty"`
	PeerPin            string   `json:"peer_pin,omitempty" yaml:"peer_pin,omitempty"`
	Checks             []string `json:"checks" yaml:"checks"`
}

func newProbeCmd(opts *globalOptions) *cobra.Command {
	check := &checkOptions{}
	settings := tlsclient.DefaultTransportSettings()
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "probe URL",
		Short: "Make one HTTPS request with the translated configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			record, err := loadRecord(opts)
			if err != nil {
				return err
			}

			transport, report, err := tlsclient.NewHTTPTransport(cmd.Context(), record, settings, check.clientOptions()...)
			if err != nil {
				return err
			}

			result, err := probe(cmd, &http.Client{Transport: transport, Timeout: timeout}, args[0])
			if err != nil {
				return err
			}
			result.Checks = report.Checks
			return render(cmd.OutOrStdout(), opts.Output, result)
		},
	}

	check.bind(cmd)
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Overall request timeout")
	cmd.Flags().DurationVar(&settings.HandshakeTimeout, "handshake-timeout", settings.HandshakeTimeout, "TLS handshake timeout")
	cmd.Flags().BoolVar(&settings.DisableTracing, "no-tracing", false, "Do not wrap the transport with OpenTelemetry tracing")
	return cmd
}

func probe(cmd *cobra.Command, client *http.Client, url string) (*probeResult, error) {
	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	result := &probeResult{
		URL:    url,
		Status: resp.StatusCode,
		Proto:  resp.Proto,
	}
	if state := resp.TLS; state != nil {
		result.TLSVersion = tls.VersionName(state.Version)
		result.CipherSuite = tls.CipherSuiteName(state.CipherSuite)
		result.NegotiatedProtocol = state.NegotiatedProtocol
		if len(state.PeerCertificates) > 0 {
			leaf := state.PeerCertificates[0]
			result.PeerSubject = leaf.Subject.String()
			result.PeerPin = tlsclient.PublicKeyPin(leaf)
		}
	}
	return result, nil
}
