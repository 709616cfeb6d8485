package ssl

import "github.com/polisai/sslopts/pkg/securestring"

// Config is the canonical record handed to the transport layer. Build
// returns a fresh value per call; consumers treat it as read-only.
//
// Fields belonging to a kind the build profile does not support keep their
// default.
type Config struct {
	// Paths are stored as given and never opened here.
	CertFile string   `json:"cert_file,omitempty" yaml:"cert_file,omitempty"`
	CertType Encoding `json:"cert_type" yaml:"cert_type"`

	KeyFile     string              `json:"key_file,omitempty" yaml:"key_file,omitempty"`
	KeyBlob     securestring.String `json:"key_blob,omitempty" yaml:"key_blob,omitempty"`
	KeyType     Encoding            `json:"key_type" yaml:"key_type"`
	KeyPassword securestring.String `json:"key_password,omitempty" yaml:"key_password,omitempty"`

	PinnedPublicKey string `json:"pinned_public_key,omitempty" yaml:"pinned_public_key,omitempty"`

	EnableALPN bool `json:"enable_alpn" yaml:"enable_alpn"`
	EnableNPN  bool `json:"enable_npn" yaml:"enable_npn"`

	VerifyHost   bool `json:"verify_host" yaml:"verify_host"`
	VerifyPeer   bool `json:"verify_peer" yaml:"verify_peer"`
	VerifyStatus bool `json:"verify_status" yaml:"verify_status"`

	MinVersion ProtocolVersion `json:"min_version" yaml:"min_version"`
	MaxVersion ProtocolVersion `json:"max_version" yaml:"max_version"`

	NoRevoke bool `json:"no_revoke" yaml:"no_revoke"`

	CAInfo   string `json:"ca_info,omitempty" yaml:"ca_info,omitempty"`
	CAPath   string `json:"ca_path,omitempty" yaml:"ca_path,omitempty"`
	CABuffer string `json:"ca_buffer,omitempty" yaml:"ca_buffer,omitempty"`
	CRLFile  string `json:"crl_file,omitempty" yaml:"crl_file,omitempty"`

	Ciphers      string `json:"ciphers,omitempty" yaml:"ciphers,omitempty"`
	TLS13Ciphers string `json:"tls13_ciphers,omitempty" yaml:"tls13_ciphers,omitempty"`

	SessionIDCache bool `json:"session_id_cache" yaml:"session_id_cache"`
	FastStart      bool `json:"fast_start" yaml:"fast_start"`
}

// DefaultConfig returns the record every build starts from.
func DefaultConfig() Config {
	return Config{
		CertType:       EncodingPEM,
		KeyType:        EncodingPEM,
		EnableALPN:     true,
		EnableNPN:      true,
		VerifyHost:     true,
		VerifyPeer:     true,
		VerifyStatus:   false,
		MinVersion:     VersionDefault,
		MaxVersion:     VersionDefault,
		NoRevoke:       false,
		SessionIDCache: true,
		FastStart:      false,
	}
}

// With returns a copy of c with opts applied after everything already in c.
func (c Config) With(opts ...Option) Config {
	apply(&c, opts)
	return c
}

// HasClientCertificate reports whether a certificate and a key source are
// both configured.
func (c Config) HasClientCertificate() bool {
	return c.CertFile != "" && (c.KeyFile != "" || !c.KeyBlob.IsEmpty())
}
