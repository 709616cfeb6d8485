package config

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// TrustBundle is an in-memory CA bundle sourced inline or from a file,
// optionally pinned to a SHA-256 checksum.
type TrustBundle struct {
	Name   string `json:"name,omitempty" yaml:"name,omitempty"`
	Path   string `json:"path,omitempty" yaml:"path,omitempty"`
	Inline string `json:"inline,omitempty" yaml:"inline,omitempty"`
	SHA256 string `json:"sha256,omitempty" yaml:"sha256,omitempty"`
}

func (b *TrustBundle) label() string {
	if b.Name != "" {
		return b.Name
	}
	if b.Path != "" {
		return b.Path
	}
	return "inline"
}

func (b *TrustBundle) validate(field string) error {
	hasInline := strings.TrimSpace(b.Inline) != ""
	hasPath := strings.TrimSpace(b.Path) != ""
	switch {
	case hasInline && hasPath:
		return NewConfigValidationError(field, b.label(), "path and inline are mutually exclusive")
	case !hasInline && !hasPath:
		return NewConfigMissingError(field + ".path").
			WithSuggestion("Provide a PEM bundle inline or as a file path")
	}
	return nil
}

// Materialise returns the PEM-encoded contents for the bundle.
func (b *TrustBundle) Materialise() ([]byte, error) {
	var data []byte
	var err error
	switch {
	case strings.TrimSpace(b.Inline) != "":
		data = []byte(b.Inline)
	case strings.TrimSpace(b.Path) != "":
		data, err = os.ReadFile(filepath.Clean(b.Path))
		if err != nil {
			return nil, fmt.Errorf("trust bundle %s: read: %w", b.label(), err)
		}
	default:
		return nil, fmt.Errorf("trust bundle %s: no path or inline data provided", b.label())
	}

	if err := b.verifyChecksum(data); err != nil {
		return nil, err
	}
	if block, _ := pem.Decode(data); block == nil {
		return nil, fmt.Errorf("trust bundle %s: no PEM data found", b.label())
	}
	return data, nil
}

func (b *TrustBundle) verifyChecksum(data []byte) error {
	if b.SHA256 == "" {
		return nil
	}

	expected := strings.TrimSpace(strings.ToLower(b.SHA256))
	expected = strings.TrimPrefix(expected, "sha256:")
	digest := sha256.Sum256(data)
	actual := hex.EncodeToString(digest[:])
	if actual != expected {
		return fmt.Errorf("trust bundle %s: checksum mismatch", b.label())
	}
	return nil
}
