package tls

import "github.com/polisai/sslopts/pkg/ssl"

// Finding records a record setting that was not carried into the
// crypto/tls configuration.
type Finding struct {
	Kind   ssl.Kind `json:"kind"`
	Reason string   `json:"reason"`
}

// Report describes how BuildClient translated a record.
type Report struct {
	// Applied lists the kinds whose non-default values shaped the result.
	Applied []ssl.Kind `json:"applied"`
	Ignored []Finding  `json:"ignored,omitempty"`

	MinVersion   string   `json:"min_version"`
	MaxVersion   string   `json:"max_version"`
	CipherSuites []string `json:"cipher_suites,omitempty"`
	NextProtos   []string `json:"next_protos,omitempty"`

	// RootSource is "system" or "custom".
	RootSource string `json:"root_source"`
	// Checks names the peer checks run on every handshake.
	Checks []string `json:"checks"`
}

func (r *Report) apply(kinds ...ssl.Kind) {
	r.Applied = append(r.Applied, kinds...)
}

func (r *Report) ignore(kind ssl.Kind, reason string) {
	r.Ignored = append(r.Ignored, Finding{Kind: kind, Reason: reason})
}

func (r *Report) check(name string) {
	r.Checks = append(r.Checks, name)
}
