package tls

import (
	"crypto"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/polisai/sslopts/pkg/ssl"
)

var (
	errNoPEMCertificate   = errors.New("no PEM certificate block found")
	errNoPEMKey           = errors.New("no PEM private key block found")
	errKeyPasswordMissing = errors.New("private key is encrypted and no key password is configured")
	errKeyMismatch        = errors.New("private key does not match the certificate public key")
	errUnsupportedKeyType = errors.New("unsupported private key type")
	errEncryptedDERKey    = errors.New("encrypted DER keys are not supported, convert with 'openssl pkey -inform DER -traditional'")
)

func readFile(path, operation string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fileError(path, operation, err)
	}
	return data, nil
}

// parseCertificates decodes the certificate chain in data. PEM input may
// hold several blocks; the first is the leaf.
func parseCertificates(data []byte, enc ssl.Encoding) ([]*x509.Certificate, error) {
	if enc == ssl.EncodingDER {
		cert, err := x509.ParseCertificate(data)
		if err != nil {
			return nil, err
		}
		return []*x509.Certificate{cert}, nil
	}

	var certs []*x509.Certificate
	rest := data
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, err
		}
		certs = append(certs, cert)
	}
	if len(certs) == 0 {
		return nil, errNoPEMCertificate
	}
	return certs, nil
}

// decodePEMKey returns the DER bytes of the first private key block in data,
// decrypting RFC 1423 encrypted blocks with password.
func decodePEMKey(data, password []byte) ([]byte, error) {
	rest := data
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			return nil, errNoPEMKey
		}
		if !strings.HasSuffix(block.Type, "PRIVATE KEY") {
			continue
		}
		if block.Type == "ENCRYPTED PRIVATE KEY" {
			return nil, errors.New("PKCS#8 encrypted keys are not supported, convert with 'openssl pkey -traditional'")
		}
		//nolint:staticcheck // legacy encrypted PEM keys are still issued by OpenSSL tooling
		if !x509.IsEncryptedPEMBlock(block) {
			return block.Bytes, nil
		}
		if len(password) == 0 {
			return nil, errKeyPasswordMissing
		}
		//nolint:staticcheck // see above
		der, err := x509.DecryptPEMBlock(block, password)
		if err != nil {
			return nil, err
		}
		return der, nil
	}
}

func parsePrivateKey(der []byte) (crypto.Signer, error) {
	if key, err := x509.ParsePKCS8PrivateKey(der); err == nil {
		signer, ok := key.(crypto.Signer)
		if !ok {
			return nil, errUnsupportedKeyType
		}
		return signer, nil
	}
	if key, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return key, nil
	}
	key, err := x509.ParseECPrivateKey(der)
	if err != nil {
		return nil, errors.New("private key is not PKCS#8, PKCS#1 or SEC 1 encoded")
	}
	return key, nil
}

func publicKeysMatch(certKey, privateKey crypto.PublicKey) bool {
	pub, ok := certKey.(interface{ Equal(crypto.PublicKey) bool })
	return ok && pub.Equal(privateKey)
}

// keySource describes where the private key of cfg comes from, for logs and
// errors. It never includes key material.
func keySource(cfg ssl.Config) string {
	switch {
	case !cfg.KeyBlob.IsEmpty():
		return "key_blob"
	case cfg.KeyFile != "":
		return cfg.KeyFile
	default:
		return cfg.CertFile
	}
}

// loadClientCertificate builds the client certificate described by cfg. When
// neither a key file nor a key blob is set the key is read from the
// certificate file.
func loadClientCertificate(cfg ssl.Config) (*tls.Certificate, error) {
	certData, err := readFile(cfg.CertFile, "read")
	if err != nil {
		return nil, err
	}
	certs, err := parseCertificates(certData, cfg.CertType)
	if err != nil {
		return nil, NewCertificateLoadError(cfg.CertFile, err)
	}

	source := keySource(cfg)
	password := cfg.KeyPassword.Reveal()

	var keyDER []byte
	switch {
	case !cfg.KeyBlob.IsEmpty():
		keyDER, err = decodePEMKey(cfg.KeyBlob.Reveal(), password)
	case cfg.KeyFile != "":
		var keyData []byte
		keyData, err = readFile(cfg.KeyFile, "read")
		if err != nil {
			return nil, err
		}
		if cfg.KeyType == ssl.EncodingDER {
			keyDER = keyData
			if len(password) > 0 {
				if _, perr := parsePrivateKey(keyData); perr != nil {
					err = errEncryptedDERKey
				}
			}
		} else {
			keyDER, err = decodePEMKey(keyData, password)
		}
	default:
		if cfg.CertType == ssl.EncodingDER {
			return nil, NewConfigMissingError("key_file").
				WithSuggestion("A DER certificate cannot carry its private key")
		}
		keyDER, err = decodePEMKey(certData, password)
	}
	if err != nil {
		return nil, NewKeyLoadError(source, err)
	}

	key, err := parsePrivateKey(keyDER)
	clear(keyDER)
	if err != nil {
		return nil, NewKeyLoadError(source, err)
	}
	if !publicKeysMatch(certs[0].PublicKey, key.Public()) {
		return nil, NewKeyLoadError(source, errKeyMismatch)
	}

	chain := make([][]byte, len(certs))
	for i, cert := range certs {
		chain[i] = cert.Raw
	}
	return &tls.Certificate{
		Certificate: chain,
		PrivateKey:  key,
		Leaf:        certs[0],
	}, nil
}
