package tls

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"os"
	"time"
)

// CertificateRequest describes a certificate to generate.
type CertificateRequest struct {
	CommonName   string
	Organization []string
	DNSNames     []string
	IPAddresses  []net.IP
	NotBefore    time.Time
	ValidFor     time.Duration
	IsCA         bool
	IsClient     bool
	// RSABits selects an RSA key of that size. ECDSA P-256 is used when zero.
	RSABits      int
	SerialNumber *big.Int
	// Parent signs the certificate. It is self-signed when nil.
	Parent *GeneratedCertificate
}

// GeneratedCertificate holds a certificate and its private key.
type GeneratedCertificate struct {
	Certificate *x509.Certificate
	Key         crypto.Signer
}

// GenerateCertificate creates a certificate for development and test trust
// chains.
func GenerateCertificate(req CertificateRequest) (*GeneratedCertificate, error) {
	if req.ValidFor == 0 {
		req.ValidFor = 365 * 24 * time.Hour
	}
	if req.NotBefore.IsZero() {
		req.NotBefore = time.Now().Add(-time.Hour)
	}
	if req.CommonName == "" {
		req.CommonName = "localhost"
	}
	if req.SerialNumber == nil {
		serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 62))
		if err != nil {
			return nil, fmt.Errorf("failed to generate serial number: %w", err)
		}
		req.SerialNumber = serial
	}

	var key crypto.Signer
	var err error
	if req.RSABits > 0 {
		key, err = rsa.GenerateKey(rand.Reader, req.RSABits)
	} else {
		key, err = ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to generate private key: %w", err)
	}

	template := &x509.Certificate{
		SerialNumber: req.SerialNumber,
		Subject: pkix.Name{
			CommonName:   req.CommonName,
			Organization: req.Organization,
		},
		NotBefore:             req.NotBefore,
		NotAfter:              req.NotBefore.Add(req.ValidFor),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		DNSNames:              req.DNSNames,
		IPAddresses:           req.IPAddresses,
	}

	switch {
	case req.IsCA:
		template.IsCA = true
		template.KeyUsage |= x509.KeyUsageCertSign | x509.KeyUsageCRLSign
		template.ExtKeyUsage = nil
	case req.IsClient:
		template.ExtKeyUsage = []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth}
	case len(template.DNSNames) == 0 && len(template.IPAddresses) == 0:
		template.DNSNames = []string{"localhost"}
		template.IPAddresses = []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback}
	}

	parent, parentKey := template, key
	if req.Parent != nil {
		parent, parentKey = req.Parent.Certificate, req.Parent.Key
	}

	der, err := x509.CreateCertificate(rand.Reader, template, parent, key.Public(), parentKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create certificate: %w", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("failed to parse generated certificate: %w", err)
	}
	return &GeneratedCertificate{Certificate: cert, Key: key}, nil
}

// CertPEM returns the PEM encoded certificate.
func (g *GeneratedCertificate) CertPEM() []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: g.Certificate.Raw})
}

// KeyDER returns the PKCS#8 encoded private key.
func (g *GeneratedCertificate) KeyDER() ([]byte, error) {
	return x509.MarshalPKCS8PrivateKey(g.Key)
}

// KeyPEM returns the PEM encoded PKCS#8 private key.
func (g *GeneratedCertificate) KeyPEM() ([]byte, error) {
	der, err := g.KeyDER()
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), nil
}

// EncryptedKeyPEM returns the key as a traditional encrypted PEM block, the
// format OpenSSL writes with 'openssl pkey -aes256 -traditional'.
func (g *GeneratedCertificate) EncryptedKeyPEM(password []byte) ([]byte, error) {
	var blockType string
	var der []byte
	switch key := g.Key.(type) {
	case *rsa.PrivateKey:
		blockType, der = "RSA PRIVATE KEY", x509.MarshalPKCS1PrivateKey(key)
	case *ecdsa.PrivateKey:
		var err error
		if der, err = x509.MarshalECPrivateKey(key); err != nil {
			return nil, err
		}
		blockType = "EC PRIVATE KEY"
	default:
		return nil, fmt.Errorf("unsupported key type %T", g.Key)
	}

	//nolint:staticcheck // traditional encrypted PEM is what the loader accepts
	block, err := x509.EncryptPEMBlock(rand.Reader, blockType, der, password, x509.PEMCipherAES256)
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(block), nil
}

// WriteFiles writes the PEM certificate and key. The key file is only
// readable by its owner.
func (g *GeneratedCertificate) WriteFiles(certFile, keyFile string) error {
	if err := os.WriteFile(certFile, g.CertPEM(), 0o644); err != nil {
		return fmt.Errorf("failed to write certificate file: %w", err)
	}
	keyPEM, err := g.KeyPEM()
	if err != nil {
		return fmt.Errorf("failed to encode private key: %w", err)
	}
	if err := os.WriteFile(keyFile, keyPEM, 0o600); err != nil {
		return fmt.Errorf("failed to write key file: %w", err)
	}
	return nil
}
