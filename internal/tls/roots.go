package tls

import (
	"crypto/x509"
	"os"
	"path/filepath"

	"github.com/polisai/sslopts/pkg/ssl"
)

func noCertificatesError(field, source string) *TLSError {
	return NewTLSError(ErrorTypeCertificateParsing, "no PEM certificates found").
		WithContext(field, source).
		WithSuggestion("Trust anchors must be PEM encoded CERTIFICATE blocks")
}

// loadRootPool merges the CA file, CA directory and CA buffer of cfg into one
// pool. It returns nil when none is set so crypto/tls falls back to the
// system store.
func loadRootPool(cfg ssl.Config) (*x509.CertPool, []ssl.Kind, error) {
	if cfg.CAInfo == "" && cfg.CAPath == "" && cfg.CABuffer == "" {
		return nil, nil, nil
	}

	pool := x509.NewCertPool()
	var kinds []ssl.Kind

	if cfg.CAInfo != "" {
		data, err := readFile(cfg.CAInfo, "read")
		if err != nil {
			return nil, nil, err
		}
		if !pool.AppendCertsFromPEM(data) {
			return nil, nil, noCertificatesError("ca_info", cfg.CAInfo)
		}
		kinds = append(kinds, ssl.KindCAInfo)
	}

	if cfg.CAPath != "" {
		added, err := appendCADirectory(pool, cfg.CAPath)
		if err != nil {
			return nil, nil, err
		}
		if added == 0 {
			return nil, nil, noCertificatesError("ca_path", cfg.CAPath)
		}
		kinds = append(kinds, ssl.KindCAPath)
	}

	if cfg.CABuffer != "" {
		if !pool.AppendCertsFromPEM([]byte(cfg.CABuffer)) {
			return nil, nil, noCertificatesError("ca_buffer", "inline")
		}
		kinds = append(kinds, ssl.KindCABuffer)
	}

	return pool, kinds, nil
}

// appendCADirectory adds every PEM file directly under dir. Files that hold
// no certificate, such as hashed CRL links, are skipped.
func appendCADirectory(pool *x509.CertPool, dir string) (int, error) {
	entries, err := os.ReadDir(filepath.Clean(dir))
	if err != nil {
		return 0, fileError(dir, "list", err)
	}

	added := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return 0, fileError(path, "read", err)
		}
		if pool.AppendCertsFromPEM(data) {
			added++
		}
	}
	return added, nil
}
