package ssl

import "github.com/polisai/sslopts/pkg/securestring"

// CertFile sets the client certificate file and its encoding.
type CertFile struct {
	path     string
	encoding Encoding
}

// Cert selects a PEM encoded client certificate.
func Cert(path string) CertFile {
	return CertFile{path: path, encoding: EncodingPEM}
}

// DERCert selects a DER encoded client certificate.
func DERCert(path string) CertFile {
	return CertFile{path: path, encoding: EncodingDER}
}

func (o CertFile) Path() string       { return o.path }
func (o CertFile) Encoding() Encoding { return o.encoding }

// Kind implements Option.
func (o CertFile) Kind() Kind {
	if o.encoding == EncodingDER {
		return KindCertDER
	}
	return KindCertPEM
}

func (o CertFile) apply(cfg *Config) {
	cfg.CertFile = o.path
	cfg.CertType = o.encoding
}

// KeyFile sets the private key file matching the client certificate.
type KeyFile struct {
	path     string
	encoding Encoding
	password securestring.String
}

// Key selects a PEM encoded private key file.
func Key(path string) KeyFile {
	return KeyFile{path: path, encoding: EncodingPEM}
}

// KeyWithPassword selects an encrypted PEM private key file. The option
// keeps its own copy of password.
func KeyWithPassword(path string, password securestring.String) KeyFile {
	return KeyFile{path: path, encoding: EncodingPEM, password: password.Clone()}
}

// DERKey selects a DER encoded private key file.
func DERKey(path string) KeyFile {
	return KeyFile{path: path, encoding: EncodingDER}
}

// DERKeyWithPassword selects an encrypted DER private key file. The option
// keeps its own copy of password.
func DERKeyWithPassword(path string, password securestring.String) KeyFile {
	return KeyFile{path: path, encoding: EncodingDER, password: password.Clone()}
}

func (o KeyFile) Path() string                  { return o.path }
func (o KeyFile) Encoding() Encoding            { return o.encoding }
func (o KeyFile) Password() securestring.String { return o.password }

// Kind implements Option.
func (o KeyFile) Kind() Kind {
	if o.encoding == EncodingDER {
		return KindKeyDER
	}
	return KindKeyPEM
}

// apply replaces the password too, so a key without one clears an earlier
// key's password. The record never shares storage with the option.
func (o KeyFile) apply(cfg *Config) {
	cfg.KeyFile = o.path
	cfg.KeyType = o.encoding
	cfg.KeyPassword = o.password.Clone()
}

// PinnedPublicKeyOption pins the server public key.
type PinnedPublicKeyOption struct {
	pins string
}

// PinnedPublicKey accepts either a path to a PEM/DER public key or a
// ";"-separated list of "sha256//<base64>" hashes.
func PinnedPublicKey(pins string) PinnedPublicKeyOption {
	return PinnedPublicKeyOption{pins: pins}
}

func (o PinnedPublicKeyOption) Value() string { return o.pins }

// Kind implements Option.
func (PinnedPublicKeyOption) Kind() Kind { return KindPinnedPublicKey }

func (o PinnedPublicKeyOption) apply(cfg *Config) {
	cfg.PinnedPublicKey = o.pins
}
