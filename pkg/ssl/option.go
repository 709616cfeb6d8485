package ssl

import (
	"crypto/tls"
	"fmt"
)

// Option is a single typed TLS setting. The set of implementations is
// closed: only this package defines options, one type per aspect, and each
// one knows how to write itself into a Config.
type Option interface {
	// Kind reports which aspect the option configures.
	Kind() Kind

	apply(cfg *Config)
}

// Encoding is the on-disk or in-memory format of a certificate or key.
type Encoding uint8

const (
	EncodingPEM Encoding = iota
	EncodingDER
)

// String returns the backend name of the encoding ("PEM" or "DER").
func (e Encoding) String() string {
	switch e {
	case EncodingPEM:
		return "PEM"
	case EncodingDER:
		return "DER"
	default:
		return fmt.Sprintf("encoding(%d)", uint8(e))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (e Encoding) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// ProtocolVersion is a protocol floor or ceiling in crypto/tls wire
// encoding. VersionDefault leaves the choice to the backend.
type ProtocolVersion uint16

const (
	VersionDefault ProtocolVersion = 0
	VersionSSL2    ProtocolVersion = 0x0200
	VersionSSL3    ProtocolVersion = 0x0300
	VersionTLS10   ProtocolVersion = tls.VersionTLS10
	VersionTLS11   ProtocolVersion = tls.VersionTLS11
	VersionTLS12   ProtocolVersion = tls.VersionTLS12
	VersionTLS13   ProtocolVersion = tls.VersionTLS13
)

// String returns a human readable version name.
func (v ProtocolVersion) String() string {
	switch v {
	case VersionDefault:
		return "default"
	case VersionSSL2:
		return "SSLv2"
	case VersionSSL3:
		return "SSLv3"
	case VersionTLS10:
		return "TLSv1.0"
	case VersionTLS11:
		return "TLSv1.1"
	case VersionTLS12:
		return "TLSv1.2"
	case VersionTLS13:
		return "TLSv1.3"
	default:
		return fmt.Sprintf("0x%04x", uint16(v))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (v ProtocolVersion) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}
