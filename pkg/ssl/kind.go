package ssl

import "fmt"

// Kind identifies an option kind. Every Option reports exactly one Kind.
type Kind int

const (
	KindCertPEM Kind = iota + 1
	KindCertDER
	KindKeyPEM
	KindKeyDER
	KindKeyBlob
	KindPinnedPublicKey
	KindALPN
	KindNPN
	KindVerifyHost
	KindVerifyPeer
	KindVerifyStatus
	KindMinTLS1
	KindMinSSL2
	KindMinSSL3
	KindMinTLS10
	KindMinTLS11
	KindMinTLS12
	KindMinTLS13
	KindMaxTLSDefault
	KindMaxTLS10
	KindMaxTLS11
	KindMaxTLS12
	KindMaxTLS13
	KindCAInfo
	KindCAPath
	KindCABuffer
	KindCRLFile
	KindCiphers
	KindTLS13Ciphers
	KindSessionIDCache
	KindFastStart
	KindNoRevoke

	kindSentinel
)

var kindNames = map[Kind]string{
	KindCertPEM:         "cert_pem",
	KindCertDER:         "cert_der",
	KindKeyPEM:          "key_pem",
	KindKeyDER:          "key_der",
	KindKeyBlob:         "key_blob",
	KindPinnedPublicKey: "pinned_public_key",
	KindALPN:            "alpn",
	KindNPN:             "npn",
	KindVerifyHost:      "verify_host",
	KindVerifyPeer:      "verify_peer",
	KindVerifyStatus:    "verify_status",
	KindMinTLS1:         "min_tls1",
	KindMinSSL2:         "min_ssl2",
	KindMinSSL3:         "min_ssl3",
	KindMinTLS10:        "min_tls1_0",
	KindMinTLS11:        "min_tls1_1",
	KindMinTLS12:        "min_tls1_2",
	KindMinTLS13:        "min_tls1_3",
	KindMaxTLSDefault:   "max_tls_default",
	KindMaxTLS10:        "max_tls1_0",
	KindMaxTLS11:        "max_tls1_1",
	KindMaxTLS12:        "max_tls1_2",
	KindMaxTLS13:        "max_tls1_3",
	KindCAInfo:          "ca_info",
	KindCAPath:          "ca_path",
	KindCABuffer:        "ca_buffer",
	KindCRLFile:         "crl_file",
	KindCiphers:         "ciphers",
	KindTLS13Ciphers:    "tls13_ciphers",
	KindSessionIDCache:  "session_id_cache",
	KindFastStart:       "fast_start",
	KindNoRevoke:        "no_revoke",
}

// String returns the snake_case name used in logs and configuration files.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// AllKinds lists every kind known to any build profile, in declaration order.
func AllKinds() []Kind {
	kinds := make([]Kind, 0, int(kindSentinel)-1)
	for k := KindCertPEM; k < kindSentinel; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// ParseKind resolves a name produced by Kind.String.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	return 0, false
}
