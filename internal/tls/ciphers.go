package tls

import (
	"crypto/tls"
	"fmt"
	"strings"
)

// openSSLCipherNames maps the OpenSSL spellings accepted in cipher lists to
// their IANA identifiers.
var openSSLCipherNames = map[string]uint16{
	"ECDHE-ECDSA-AES128-GCM-SHA256": tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
	"ECDHE-RSA-AES128-GCM-SHA256":   tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
	"ECDHE-ECDSA-AES256-GCM-SHA384": tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
	"ECDHE-RSA-AES256-GCM-SHA384":   tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
	"ECDHE-ECDSA-CHACHA20-POLY1305": tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256,
	"ECDHE-RSA-CHACHA20-POLY1305":   tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256,
	"ECDHE-ECDSA-AES128-SHA256":     tls.TLS_ECDHE_ECDSA_WITH_AES_128_CBC_SHA256,
	"ECDHE-RSA-AES128-SHA256":       tls.TLS_ECDHE_RSA_WITH_AES_128_CBC_SHA256,
	"ECDHE-ECDSA-AES128-SHA":        tls.TLS_ECDHE_ECDSA_WITH_AES_128_CBC_SHA,
	"ECDHE-RSA-AES128-SHA":          tls.TLS_ECDHE_RSA_WITH_AES_128_CBC_SHA,
	"ECDHE-ECDSA-AES256-SHA":        tls.TLS_ECDHE_ECDSA_WITH_AES_256_CBC_SHA,
	"ECDHE-RSA-AES256-SHA":          tls.TLS_ECDHE_RSA_WITH_AES_256_CBC_SHA,
	"ECDHE-RSA-DES-CBC3-SHA":        tls.TLS_ECDHE_RSA_WITH_3DES_EDE_CBC_SHA,
	"ECDHE-ECDSA-RC4-SHA":           tls.TLS_ECDHE_ECDSA_WITH_RC4_128_SHA,
	"ECDHE-RSA-RC4-SHA":             tls.TLS_ECDHE_RSA_WITH_RC4_128_SHA,
	"AES128-GCM-SHA256":             tls.TLS_RSA_WITH_AES_128_GCM_SHA256,
	"AES256-GCM-SHA384":             tls.TLS_RSA_WITH_AES_256_GCM_SHA384,
	"AES128-SHA256":                 tls.TLS_RSA_WITH_AES_128_CBC_SHA256,
	"AES128-SHA":                    tls.TLS_RSA_WITH_AES_128_CBC_SHA,
	"AES256-SHA":                    tls.TLS_RSA_WITH_AES_256_CBC_SHA,
	"DES-CBC3-SHA":                  tls.TLS_RSA_WITH_3DES_EDE_CBC_SHA,
	"RC4-SHA":                       tls.TLS_RSA_WITH_RC4_128_SHA,
}

var insecureCiphers = map[uint16]string{
	// RC4 ciphers (broken)
	tls.TLS_RSA_WITH_RC4_128_SHA:         "RC4 is cryptographically broken",
	tls.TLS_ECDHE_RSA_WITH_RC4_128_SHA:   "RC4 is cryptographically broken",
	tls.TLS_ECDHE_ECDSA_WITH_RC4_128_SHA: "RC4 is cryptographically broken",

	// 3DES ciphers (weak)
	tls.TLS_RSA_WITH_3DES_EDE_CBC_SHA:       "3DES is weak and deprecated",
	tls.TLS_ECDHE_RSA_WITH_3DES_EDE_CBC_SHA: "3DES is weak and deprecated",

	// Non-AEAD CBC ciphers (vulnerable to padding oracle attacks)
	tls.TLS_RSA_WITH_AES_128_CBC_SHA:            "CBC mode without AEAD is vulnerable",
	tls.TLS_RSA_WITH_AES_256_CBC_SHA:            "CBC mode without AEAD is vulnerable",
	tls.TLS_RSA_WITH_AES_128_CBC_SHA256:         "CBC mode without AEAD is vulnerable",
	tls.TLS_ECDHE_RSA_WITH_AES_128_CBC_SHA:      "CBC mode without AEAD is vulnerable",
	tls.TLS_ECDHE_RSA_WITH_AES_256_CBC_SHA:      "CBC mode without AEAD is vulnerable",
	tls.TLS_ECDHE_ECDSA_WITH_AES_128_CBC_SHA:    "CBC mode without AEAD is vulnerable",
	tls.TLS_ECDHE_ECDSA_WITH_AES_256_CBC_SHA:    "CBC mode without AEAD is vulnerable",
	tls.TLS_ECDHE_RSA_WITH_AES_128_CBC_SHA256:   "CBC mode without AEAD is vulnerable",
	tls.TLS_ECDHE_ECDSA_WITH_AES_128_CBC_SHA256: "CBC mode without AEAD is vulnerable",
}

func splitCipherList(list string) []string {
	return strings.FieldsFunc(list, func(r rune) bool {
		return r == ':' || r == ',' || r == ' ' || r == ';'
	})
}

// lookupCipher resolves an IANA or OpenSSL cipher name.
func lookupCipher(name string) (*tls.CipherSuite, bool) {
	if id, ok := openSSLCipherNames[strings.ToUpper(name)]; ok {
		name = tls.CipherSuiteName(id)
	}
	for _, suites := range [][]*tls.CipherSuite{tls.CipherSuites(), tls.InsecureCipherSuites()} {
		for _, s := range suites {
			if strings.EqualFold(s.Name, name) {
				return s, true
			}
		}
	}
	return nil, false
}

func isTLS13Only(s *tls.CipherSuite) bool {
	return len(s.SupportedVersions) == 1 && s.SupportedVersions[0] == tls.VersionTLS13
}

// ParseCipherList converts a colon, comma or space separated list of cipher
// names into TLS 1.0-1.2 suite identifiers. TLS 1.3 suites in the list are
// returned separately since crypto/tls does not let them be configured.
func ParseCipherList(list string) (suites []uint16, tls13 []string, err error) {
	var unknown []string
	for _, name := range splitCipherList(list) {
		s, ok := lookupCipher(name)
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		if isTLS13Only(s) {
			tls13 = append(tls13, s.Name)
			continue
		}
		suites = append(suites, s.ID)
	}
	if len(unknown) > 0 {
		return nil, nil, NewCipherUnsupportedError(unknown)
	}
	return suites, tls13, nil
}

// ParseTLS13CipherList checks that every name in list is a TLS 1.3 suite.
func ParseTLS13CipherList(list string) ([]string, error) {
	var names, unknown []string
	for _, name := range splitCipherList(list) {
		s, ok := lookupCipher(name)
		if !ok || !isTLS13Only(s) {
			unknown = append(unknown, name)
			continue
		}
		names = append(names, s.Name)
	}
	if len(unknown) > 0 {
		return nil, NewCipherUnsupportedError(unknown).
			WithSuggestion("TLS 1.3 suites are TLS_AES_128_GCM_SHA256, TLS_AES_256_GCM_SHA384 and TLS_CHACHA20_POLY1305_SHA256")
	}
	return names, nil
}

// ValidateCipherSuiteSecurity checks if cipher suites meet security requirements
func ValidateCipherSuiteSecurity(cipherSuites []uint16) error {
	var insecureFound []string
	for _, cipher := range cipherSuites {
		if reason, isInsecure := insecureCiphers[cipher]; isInsecure {
			insecureFound = append(insecureFound, fmt.Sprintf("%s: %s", tls.CipherSuiteName(cipher), reason))
		}
	}

	if len(insecureFound) > 0 {
		return NewCipherInsecureError(insecureFound)
	}

	return nil
}

// CipherSuiteNames returns the IANA names of suites.
func CipherSuiteNames(suites []uint16) []string {
	names := make([]string, len(suites))
	for i, id := range suites {
		names[i] = tls.CipherSuiteName(id)
	}
	return names
}
