package tls

import (
	"crypto/tls"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/polisai/sslopts/pkg/ssl"
)

// testPKI is a throwaway CA with one server and one client certificate.
type testPKI struct {
	dir    string
	ca     *GeneratedCertificate
	server *GeneratedCertificate
	client *GeneratedCertificate

	caFile         string
	clientCertFile string
	clientKeyFile  string
}

func newTestPKI(t *testing.T) *testPKI {
	t.Helper()

	ca, err := GenerateCertificate(CertificateRequest{CommonName: "sslopts test CA", IsCA: true})
	require.NoError(t, err)
	server, err := GenerateCertificate(CertificateRequest{CommonName: "localhost", Parent: ca})
	require.NoError(t, err)
	client, err := GenerateCertificate(CertificateRequest{CommonName: "client", IsClient: true, Parent: ca})
	require.NoError(t, err)

	p := &testPKI{dir: t.TempDir(), ca: ca, server: server, client: client}
	p.caFile = p.write(t, "ca.pem", ca.CertPEM())
	p.clientCertFile = filepath.Join(p.dir, "client.pem")
	p.clientKeyFile = filepath.Join(p.dir, "client.key")
	require.NoError(t, client.WriteFiles(p.clientCertFile, p.clientKeyFile))
	return p
}

func (p *testPKI) write(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(p.dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

// serverConfig serves leaf, signed by the test CA.
func (p *testPKI) serverConfig(leaf *GeneratedCertificate) *tls.Config {
	return &tls.Config{
		Certificates: []tls.Certificate{{
			Certificate: [][]byte{leaf.Certificate.Raw},
			PrivateKey:  leaf.Key,
			Leaf:        leaf.Certificate,
		}},
		MinVersion: tls.VersionTLS12,
	}
}

// trusting returns a record that trusts the test CA.
func (p *testPKI) trusting(opts ...ssl.Option) ssl.Config {
	return ssl.Build(append([]ssl.Option{ssl.CAInfo(p.caFile)}, opts...)...)
}

// handshake runs one TLS handshake over loopback TCP and returns the errors
// seen by each side.
func handshake(t *testing.T, clientConfig, serverConfig *tls.Config) (clientErr, serverErr error) {
	t.Helper()

	ln, err := tls.Listen("tcp", "127.0.0.1:0", serverConfig)
	require.NoError(t, err)
	defer ln.Close()

	serverDone := make(chan error, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			serverDone <- err
			return
		}
		defer conn.Close()
		serverDone <- conn.(*tls.Conn).Handshake()
	}()

	conn, err := tls.Dial("tcp", ln.Addr().String(), clientConfig)
	if err == nil {
		conn.Close()
	}
	return err, <-serverDone
}
