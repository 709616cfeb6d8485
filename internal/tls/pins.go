package tls

import (
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"strings"
)

const pinPrefix = "sha256//"

// pinSet holds SHA-256 digests of DER SubjectPublicKeyInfo structures.
type pinSet [][sha256.Size]byte

// parsePinnedPublicKey accepts either a ';' separated list of sha256//<base64>
// digests or the path of a PEM or DER public key.
func parsePinnedPublicKey(value string) (pinSet, error) {
	if strings.HasPrefix(value, pinPrefix) {
		var pins pinSet
		for _, part := range strings.Split(value, ";") {
			part = strings.TrimSpace(part)
			encoded, ok := strings.CutPrefix(part, pinPrefix)
			if !ok {
				return nil, NewConfigValidationError("pinned_public_key", part, "every pin must start with sha256//")
			}
			raw, err := base64.StdEncoding.DecodeString(encoded)
			if err != nil || len(raw) != sha256.Size {
				return nil, NewConfigValidationError("pinned_public_key", part, "pin is not a base64 encoded SHA-256 digest")
			}
			var digest [sha256.Size]byte
			copy(digest[:], raw)
			pins = append(pins, digest)
		}
		return pins, nil
	}

	data, err := readFile(value, "read")
	if err != nil {
		return nil, err
	}
	der := data
	if block, _ := pem.Decode(data); block != nil {
		if block.Type != "PUBLIC KEY" {
			return nil, NewConfigValidationError("pinned_public_key", value, "PEM block must be a PUBLIC KEY")
		}
		der = block.Bytes
	}
	if _, err := x509.ParsePKIXPublicKey(der); err != nil {
		return nil, NewConfigValidationError("pinned_public_key", value, "file does not hold a public key")
	}
	return pinSet{sha256.Sum256(der)}, nil
}

func (p pinSet) match(cert *x509.Certificate) bool {
	sum := sha256.Sum256(cert.RawSubjectPublicKeyInfo)
	for _, pin := range p {
		if pin == sum {
			return true
		}
	}
	return false
}

// PublicKeyPin returns the sha256// pin of the certificate's public key.
func PublicKeyPin(cert *x509.Certificate) string {
	sum := sha256.Sum256(cert.RawSubjectPublicKeyInfo)
	return pinPrefix + base64.StdEncoding.EncodeToString(sum[:])
}
