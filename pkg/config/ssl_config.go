package config

import (
	"fmt"
	"strings"

	"github.com/polisai/sslopts/pkg/securestring"
	"github.com/polisai/sslopts/pkg/ssl"
)

// SSLConfig is the declarative form of a client TLS option list.
type SSLConfig struct {
	Cert            *CertSpec    `yaml:"cert,omitempty" json:"cert,omitempty"`
	Key             *KeySpec     `yaml:"key,omitempty" json:"key,omitempty"`
	PinnedPublicKey string       `yaml:"pinned_public_key,omitempty" json:"pinned_public_key,omitempty"`
	CAInfo          string       `yaml:"ca_info,omitempty" json:"ca_info,omitempty"`
	CAPath          string       `yaml:"ca_path,omitempty" json:"ca_path,omitempty"`
	CABuffer        *TrustBundle `yaml:"ca_buffer,omitempty" json:"ca_buffer,omitempty"`
	CRLFile         string       `yaml:"crl_file,omitempty" json:"crl_file,omitempty"`
	Ciphers         string       `yaml:"ciphers,omitempty" json:"ciphers,omitempty"`
	TLS13Ciphers    string       `yaml:"tls13_ciphers,omitempty" json:"tls13_ciphers,omitempty"`
	MinVersion      string       `yaml:"min_version,omitempty" json:"min_version,omitempty"`
	MaxVersion      string       `yaml:"max_version,omitempty" json:"max_version,omitempty"`

	VerifyPeer     *bool `yaml:"verify_peer,omitempty" json:"verify_peer,omitempty"`
	VerifyHost     *bool `yaml:"verify_host,omitempty" json:"verify_host,omitempty"`
	VerifyStatus   *bool `yaml:"verify_status,omitempty" json:"verify_status,omitempty"`
	ALPN           *bool `yaml:"alpn,omitempty" json:"alpn,omitempty"`
	NPN            *bool `yaml:"npn,omitempty" json:"npn,omitempty"`
	SessionIDCache *bool `yaml:"session_id_cache,omitempty" json:"session_id_cache,omitempty"`
	FastStart      *bool `yaml:"fast_start,omitempty" json:"fast_start,omitempty"`
	NoRevoke       *bool `yaml:"no_revoke,omitempty" json:"no_revoke,omitempty"`
}

// CertSpec locates the client certificate.
type CertSpec struct {
	Path string `yaml:"path" json:"path"`
	Type string `yaml:"type,omitempty" json:"type,omitempty"`
}

// KeySpec locates the client private key, either as a file or as an
// in-memory blob.
type KeySpec struct {
	Path     string     `yaml:"path,omitempty" json:"path,omitempty"`
	Type     string     `yaml:"type,omitempty" json:"type,omitempty"`
	Password *SecretRef `yaml:"password,omitempty" json:"password,omitempty"`
	Blob     *SecretRef `yaml:"blob,omitempty" json:"blob,omitempty"`
}

type toggleField struct {
	name  string
	kind  ssl.Kind
	value *bool
}

// toggles lists the boolean fields in the order their options are emitted.
func (c *SSLConfig) toggles() []toggleField {
	return []toggleField{
		{"verify_peer", ssl.KindVerifyPeer, c.VerifyPeer},
		{"verify_host", ssl.KindVerifyHost, c.VerifyHost},
		{"verify_status", ssl.KindVerifyStatus, c.VerifyStatus},
		{"alpn", ssl.KindALPN, c.ALPN},
		{"npn", ssl.KindNPN, c.NPN},
		{"session_id_cache", ssl.KindSessionIDCache, c.SessionIDCache},
		{"fast_start", ssl.KindFastStart, c.FastStart},
		{"no_revoke", ssl.KindNoRevoke, c.NoRevoke},
	}
}

type textField struct {
	name  string
	kind  ssl.Kind
	value string
}

func (c *SSLConfig) texts() []textField {
	return []textField{
		{"pinned_public_key", ssl.KindPinnedPublicKey, c.PinnedPublicKey},
		{"ca_info", ssl.KindCAInfo, c.CAInfo},
		{"ca_path", ssl.KindCAPath, c.CAPath},
		{"crl_file", ssl.KindCRLFile, c.CRLFile},
		{"ciphers", ssl.KindCiphers, c.Ciphers},
		{"tls13_ciphers", ssl.KindTLS13Ciphers, c.TLS13Ciphers},
	}
}

func parseEncoding(field, name string) (ssl.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "pem":
		return ssl.EncodingPEM, nil
	case "der":
		return ssl.EncodingDER, nil
	default:
		return 0, NewConfigValidationError(field, name, "unknown encoding").
			WithSuggestion("Use 'pem' or 'der'")
	}
}

func certKind(enc ssl.Encoding) ssl.Kind {
	if enc == ssl.EncodingDER {
		return ssl.KindCertDER
	}
	return ssl.KindCertPEM
}

func keyKind(enc ssl.Encoding) ssl.Kind {
	if enc == ssl.EncodingDER {
		return ssl.KindKeyDER
	}
	return ssl.KindKeyPEM
}

// Validate checks c against the capabilities of the running build.
func (c *SSLConfig) Validate() error {
	return c.ValidateFor(ssl.Current())
}

// ValidateFor checks c against caps. Every set field must map to a kind
// that caps supports.
func (c *SSLConfig) ValidateFor(caps ssl.Capabilities) error {
	profile := string(caps.Profile)
	if profile == "" {
		profile = caps.Version.String()
	}
	require := func(field string, value interface{}, k ssl.Kind) error {
		if !caps.Supports(k) {
			return NewUnsupportedError(field, value, profile)
		}
		return nil
	}

	if c.Cert != nil {
		if strings.TrimSpace(c.Cert.Path) == "" {
			return NewConfigMissingError("cert.path").
				WithSuggestion("Provide a path to the client certificate file")
		}
		if _, err := parseEncoding("cert.type", c.Cert.Type); err != nil {
			return err
		}
	}

	if c.Key != nil {
		if err := c.validateKey(require); err != nil {
			return err
		}
	}

	for _, f := range c.texts() {
		if f.value != "" {
			if err := require(f.name, f.value, f.kind); err != nil {
				return err
			}
		}
	}

	if c.CABuffer != nil {
		if err := require("ca_buffer", c.CABuffer.Name, ssl.KindCABuffer); err != nil {
			return err
		}
		if err := c.CABuffer.validate("ca_buffer"); err != nil {
			return err
		}
	}

	if err := c.validateVersions(require); err != nil {
		return err
	}

	for _, f := range c.toggles() {
		if f.value != nil {
			if err := require(f.name, *f.value, f.kind); err != nil {
				return err
			}
		}
	}

	return nil
}

func (c *SSLConfig) validateKey(require func(string, interface{}, ssl.Kind) error) error {
	k := c.Key
	hasPath := strings.TrimSpace(k.Path) != ""
	hasBlob := k.Blob != nil && !k.Blob.IsZero()

	switch {
	case hasPath && hasBlob:
		return NewConfigValidationError("key", k.Path, "path and blob are mutually exclusive").
			WithSuggestion("Keep either key.path or key.blob")
	case !hasPath && !hasBlob:
		return NewConfigMissingError("key.path").
			WithSuggestion("Provide key.path or key.blob")
	}

	enc, err := parseEncoding("key.type", k.Type)
	if err != nil {
		return err
	}
	if hasBlob {
		if enc != ssl.EncodingPEM {
			return NewConfigValidationError("key.type", k.Type, "in-memory keys are PEM only").
				WithSuggestion("Remove key.type or set it to 'pem'")
		}
		if err := require("key.blob", k.Blob.describe(), ssl.KindKeyBlob); err != nil {
			return err
		}
		if err := k.Blob.validate("key.blob"); err != nil {
			return err
		}
	}
	if k.Password != nil {
		if err := k.Password.validate("key.password"); err != nil {
			return err
		}
	}
	return nil
}

func (c *SSLConfig) validateVersions(require func(string, interface{}, ssl.Kind) error) error {
	minKind, hasMin, err := ParseMinVersion(c.MinVersion)
	if err != nil {
		return NewConfigValidationError("min_version", c.MinVersion, err.Error()).
			WithSuggestion("Use one of: default, tls1, ssl2, ssl3, 1.0, 1.1, 1.2, 1.3")
	}
	maxKind, hasMax, err := ParseMaxVersion(c.MaxVersion)
	if err != nil {
		return NewConfigValidationError("max_version", c.MaxVersion, err.Error()).
			WithSuggestion("Use one of: default, 1.0, 1.1, 1.2, 1.3")
	}

	if hasMin {
		if err := require("min_version", c.MinVersion, minKind); err != nil {
			return err
		}
	}
	if hasMax {
		if err := require("max_version", c.MaxVersion, maxKind); err != nil {
			return err
		}
	}

	if hasMin && hasMax {
		floor := boundVersion(minVersions, c.MinVersion)
		ceiling := boundVersion(maxVersions, c.MaxVersion)
		if ceiling != ssl.VersionDefault && floor > ceiling {
			return NewConfigValidationError("version_range",
				fmt.Sprintf("min_version=%s, max_version=%s", c.MinVersion, c.MaxVersion),
				"min_version cannot be greater than max_version").
				WithSuggestion("Ensure min_version is less than or equal to max_version")
		}
	}
	return nil
}

// Options validates c and converts it into an option list in a fixed order:
// certificate, key, text fields, CA buffer, version floor, version ceiling,
// then toggles.
func (c *SSLConfig) Options(resolver SecretResolver) ([]ssl.Option, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if resolver == nil {
		resolver = NewEnvFileResolver()
	}

	var opts []ssl.Option
	add := func(o ssl.Option, err error) error {
		if err != nil {
			return err
		}
		opts = append(opts, o)
		return nil
	}

	if c.Cert != nil {
		enc, _ := parseEncoding("cert.type", c.Cert.Type)
		if err := add(ssl.NewFile(certKind(enc), c.Cert.Path, securestring.String{})); err != nil {
			return nil, err
		}
	}

	if c.Key != nil {
		o, err := c.keyOption(resolver)
		if err := add(o, err); err != nil {
			return nil, err
		}
	}

	for _, f := range c.texts() {
		if f.value == "" {
			continue
		}
		if err := add(ssl.NewText(f.kind, f.value)); err != nil {
			return nil, err
		}
	}

	if c.CABuffer != nil {
		pem, err := c.CABuffer.Materialise()
		if err != nil {
			return nil, err
		}
		if err := add(ssl.NewText(ssl.KindCABuffer, string(pem))); err != nil {
			return nil, err
		}
	}

	if k, ok, _ := ParseMinVersion(c.MinVersion); ok {
		if err := add(ssl.Marker(k)); err != nil {
			return nil, err
		}
	}
	if k, ok, _ := ParseMaxVersion(c.MaxVersion); ok {
		if err := add(ssl.Marker(k)); err != nil {
			return nil, err
		}
	}

	for _, f := range c.toggles() {
		if f.value == nil {
			continue
		}
		if err := add(ssl.NewToggle(f.kind, *f.value)); err != nil {
			return nil, err
		}
	}

	return opts, nil
}

func (c *SSLConfig) keyOption(resolver SecretResolver) (ssl.Option, error) {
	var password securestring.String
	if c.Key.Password != nil {
		pw, err := resolver.Resolve(*c.Key.Password)
		if err != nil {
			return nil, fmt.Errorf("key.password: %w", err)
		}
		password = pw
	}

	if c.Key.Blob != nil && !c.Key.Blob.IsZero() {
		blob, err := resolver.Resolve(*c.Key.Blob)
		if err != nil {
			return nil, fmt.Errorf("key.blob: %w", err)
		}
		return ssl.NewSecret(ssl.KindKeyBlob, blob, password)
	}

	enc, _ := parseEncoding("key.type", c.Key.Type)
	return ssl.NewFile(keyKind(enc), c.Key.Path, password)
}

// Resolve validates c and folds its options into a configuration record.
func (c *SSLConfig) Resolve(resolver SecretResolver) (ssl.Config, error) {
	opts, err := c.Options(resolver)
	if err != nil {
		return ssl.Config{}, err
	}
	return ssl.Build(opts...), nil
}
