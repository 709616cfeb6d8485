package tls

import (
	"context"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ocsp"

	"github.com/polisai/sslopts/pkg/ssl"
)

// clientConfig builds a client for the test server, which answers as
// localhost.
func clientConfig(t *testing.T, cfg ssl.Config, opts ...ClientOption) *tls.Config {
	t.Helper()
	opts = append([]ClientOption{WithServerName("localhost")}, opts...)
	tlsConfig, _, err := BuildClient(context.Background(), cfg, opts...)
	require.NoError(t, err)
	return tlsConfig
}

func TestHandshakeTrust(t *testing.T) {
	pki := newTestPKI(t)
	stranger := newTestPKI(t)

	clientErr, serverErr := handshake(t, clientConfig(t, pki.trusting()), pki.serverConfig(pki.server))
	require.NoError(t, clientErr)
	require.NoError(t, serverErr)

	clientErr, _ = handshake(t, clientConfig(t, pki.trusting()), stranger.serverConfig(stranger.server))
	require.Error(t, clientErr)
	var unknown x509.UnknownAuthorityError
	assert.ErrorAs(t, clientErr, &unknown)
}

func TestHandshakeClientCertificate(t *testing.T) {
	pki := newTestPKI(t)
	serverConfig := pki.serverConfig(pki.server)
	serverConfig.ClientAuth = tls.RequireAndVerifyClientCert
	serverConfig.ClientCAs = x509.NewCertPool()
	serverConfig.ClientCAs.AddCert(pki.ca.Certificate)

	cfg := pki.trusting(ssl.Cert(pki.clientCertFile), ssl.Key(pki.clientKeyFile))
	clientErr, serverErr := handshake(t, clientConfig(t, cfg), serverConfig)
	require.NoError(t, clientErr)
	require.NoError(t, serverErr)

	_, serverErr = handshake(t, clientConfig(t, pki.trusting()), serverConfig)
	assert.Error(t, serverErr)
}

func TestHandshakeHostnameModes(t *testing.T) {
	pki := newTestPKI(t)
	elsewhere, err := GenerateCertificate(CertificateRequest{
		CommonName: "other.example",
		DNSNames:   []string{"other.example"},
		Parent:     pki.ca,
	})
	require.NoError(t, err)
	stranger := newTestPKI(t)

	tests := []struct {
		name       string
		peer, host bool
		server     *tls.Config
		wantErr    bool
	}{
		{name: "full verification rejects wrong host", peer: true, host: true, server: pki.serverConfig(elsewhere), wantErr: true},
		{name: "chain only accepts wrong host", peer: true, host: false, server: pki.serverConfig(elsewhere)},
		{name: "chain only rejects unknown issuer", peer: true, host: false, server: stranger.serverConfig(stranger.server), wantErr: true},
		{name: "hostname only accepts unknown issuer", peer: false, host: true, server: stranger.serverConfig(stranger.server)},
		{name: "hostname only rejects wrong host", peer: false, host: true, server: pki.serverConfig(elsewhere), wantErr: true},
		{name: "no verification", peer: false, host: false, server: stranger.serverConfig(stranger.server)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := pki.trusting(ssl.VerifyPeer(tt.peer), ssl.VerifyHost(tt.host))
			clientErr, _ := handshake(t, clientConfig(t, cfg), tt.server)
			if tt.wantErr {
				assert.Error(t, clientErr)
				return
			}
			assert.NoError(t, clientErr)
		})
	}
}

func TestHandshakePinnedPublicKey(t *testing.T) {
	pki := newTestPKI(t)
	other := newTestPKI(t)
	pin := PublicKeyPin(pki.server.Certificate)

	spki, err := x509.MarshalPKIXPublicKey(pki.server.Key.Public())
	require.NoError(t, err)
	pinFile := pki.write(t, "server.pub", pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: spki}))

	tests := []struct {
		name    string
		pins    string
		wantErr bool
	}{
		{name: "single pin", pins: pin},
		{name: "pin among several", pins: PublicKeyPin(other.server.Certificate) + ";" + pin},
		{name: "public key file", pins: pinFile},
		{name: "no matching pin", pins: PublicKeyPin(other.server.Certificate), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := pki.trusting(ssl.PinnedPublicKey(tt.pins))
			clientErr, _ := handshake(t, clientConfig(t, cfg), pki.serverConfig(pki.server))
			if tt.wantErr {
				require.Error(t, clientErr)
				assert.Equal(t, string(ErrorTypePinMismatch), ErrorType(clientErr))
				return
			}
			assert.NoError(t, clientErr)
		})
	}
}

func TestParsePinnedPublicKeyRejectsMalformedPins(t *testing.T) {
	for _, value := range []string{
		"sha256//not-base64!",
		"sha256//" + "YWJj",
		"sha256//AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA=;md5//abc",
	} {
		_, err := parsePinnedPublicKey(value)
		require.Error(t, err, value)
		assert.True(t, IsConfigurationError(err), value)
	}
}

func TestHandshakeStapledStatus(t *testing.T) {
	pki := newTestPKI(t)

	staple := func(status int) []byte {
		resp, err := ocsp.CreateResponse(pki.ca.Certificate, pki.ca.Certificate, ocsp.Response{
			Status:       status,
			SerialNumber: pki.server.Certificate.SerialNumber,
			ThisUpdate:   time.Now().Add(-time.Hour),
			NextUpdate:   time.Now().Add(time.Hour),
			RevokedAt:    time.Now().Add(-time.Minute),
		}, pki.ca.Key)
		require.NoError(t, err)
		return resp
	}

	tests := []struct {
		name    string
		staple  []byte
		clock   func() time.Time
		errType TLSErrorType
	}{
		{name: "good", staple: staple(ocsp.Good)},
		{name: "missing", errType: ErrorTypeOCSPResponse},
		{name: "revoked", staple: staple(ocsp.Revoked), errType: ErrorTypeCertificateRevoked},
		{name: "unknown", staple: staple(ocsp.Unknown), errType: ErrorTypeOCSPResponse},
		{
			name:    "stale",
			staple:  staple(ocsp.Good),
			clock:   func() time.Time { return time.Now().Add(2 * time.Hour) },
			errType: ErrorTypeOCSPResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serverConfig := pki.serverConfig(pki.server)
			serverConfig.Certificates[0].OCSPStaple = tt.staple

			var opts []ClientOption
			if tt.clock != nil {
				opts = append(opts, WithClock(tt.clock))
			}
			cfg := pki.trusting(ssl.VerifyStatus(true))
			clientErr, _ := handshake(t, clientConfig(t, cfg, opts...), serverConfig)
			if tt.errType != "" {
				require.Error(t, clientErr)
				assert.Equal(t, string(tt.errType), ErrorType(clientErr))
				return
			}
			assert.NoError(t, clientErr)
		})
	}
}

func TestHandshakeRevocationList(t *testing.T) {
	pki := newTestPKI(t)

	writeCRL := func(name string, next time.Time, revoked ...*big.Int) string {
		entries := make([]x509.RevocationListEntry, len(revoked))
		for i, serial := range revoked {
			entries[i] = x509.RevocationListEntry{SerialNumber: serial, RevocationTime: time.Now().Add(-time.Minute)}
		}
		der, err := x509.CreateRevocationList(rand.Reader, &x509.RevocationList{
			Number:                    big.NewInt(1),
			ThisUpdate:                time.Now().Add(-time.Hour),
			NextUpdate:                next,
			RevokedCertificateEntries: entries,
		}, pki.ca.Certificate, pki.ca.Key)
		require.NoError(t, err)
		return pki.write(t, name, pem.EncodeToMemory(&pem.Block{Type: "X509 CRL", Bytes: der}))
	}

	tomorrow := time.Now().Add(24 * time.Hour)
	clean := writeCRL("clean.crl", tomorrow, big.NewInt(7))
	revoked := writeCRL("revoked.crl", tomorrow, pki.server.Certificate.SerialNumber)
	expired := writeCRL("expired.crl", time.Now().Add(-time.Minute))

	tests := []struct {
		name     string
		crl      string
		noRevoke bool
		errType  TLSErrorType
	}{
		{name: "serial not listed", crl: clean},
		{name: "serial revoked", crl: revoked, errType: ErrorTypeCertificateRevoked},
		{name: "list expired", crl: expired, errType: ErrorTypeCertificateValidation},
		{name: "revocation disabled", crl: revoked, noRevoke: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := pki.trusting(ssl.CRLFile(tt.crl))
			cfg.NoRevoke = tt.noRevoke
			clientErr, _ := handshake(t, clientConfig(t, cfg), pki.serverConfig(pki.server))
			if tt.errType != "" {
				require.Error(t, clientErr)
				assert.Equal(t, string(tt.errType), ErrorType(clientErr))
				return
			}
			assert.NoError(t, clientErr)
		})
	}
}

func TestLoadRevocationListRejectsGarbage(t *testing.T) {
	pki := newTestPKI(t)
	_, err := loadRevocationList(pki.write(t, "bad.crl", []byte("garbage")))
	require.Error(t, err)
	assert.Equal(t, string(ErrorTypeCertificateParsing), ErrorType(err))
}
