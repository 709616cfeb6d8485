package main

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	tlsclient "github.com/polisai/sslopts/internal/tls"
	"github.com/polisai/sslopts/pkg/config"
)

// Files written by certgen, relative to the output directory.
const (
	certgenCA         = "ca.pem"
	certgenServer     = "server.pem"
	certgenServerKey  = "server-key.pem"
	certgenClient     = "client.pem"
	certgenClientKey  = "client-key.pem"
	certgenConfigFile = "ssl.yaml"
)

type certgenOptions struct {
	OutputDir      string
	CommonName     string
	DNSNames       []string
	IPAddresses    []net.IP
	ValidFor       time.Duration
	RSABits        int
	KeyPasswordEnv string
}

func newCertgenCmd() *cobra.Command {
	opts := &certgenOptions{}

	cmd := &cobra.Command{
		Use:   "certgen",
		Short: "Generate a development CA, server and client certificate",
		Long: `Generate a CA, a server certificate and a client certificate signed by it,
plus an ssl.yaml that trusts the CA and presents the client certificate.

When --key-password-env names a set variable the client key is encrypted with
its value and ssl.yaml reads the password from that variable.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := runCertgen(opts); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote certificates and %s to %s\n", certgenConfigFile, opts.OutputDir)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.OutputDir, "out", ".", "Output directory")
	flags.StringVar(&opts.CommonName, "cn", "localhost", "Server certificate common name")
	flags.StringSliceVar(&opts.DNSNames, "dns", []string{"localhost"}, "Server DNS names")
	flags.IPSliceVar(&opts.IPAddresses, "ip", []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback}, "Server IP addresses")
	flags.DurationVar(&opts.ValidFor, "valid-for", 365*24*time.Hour, "Certificate validity")
	flags.IntVar(&opts.RSABits, "rsa-bits", 0, "RSA key size; ECDSA P-256 when zero")
	flags.StringVar(&opts.KeyPasswordEnv, "key-password-env", "", "Environment variable holding the client key password")
	return cmd
}

func runCertgen(opts *certgenOptions) error {
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	dir, err := filepath.Abs(opts.OutputDir)
	if err != nil {
		return fmt.Errorf("failed to resolve output directory: %w", err)
	}
	path := func(name string) string { return filepath.Join(dir, name) }

	ca, err := tlsclient.GenerateCertificate(tlsclient.CertificateRequest{
		CommonName:   "sslopts development CA",
		Organization: []string{"sslopts"},
		ValidFor:     opts.ValidFor,
		IsCA:         true,
		RSABits:      opts.RSABits,
	})
	if err != nil {
		return fmt.Errorf("failed to generate CA: %w", err)
	}
	if err := os.WriteFile(path(certgenCA), ca.CertPEM(), 0o644); err != nil {
		return fmt.Errorf("failed to write CA certificate: %w", err)
	}

	server, err := tlsclient.GenerateCertificate(tlsclient.CertificateRequest{
		CommonName:  opts.CommonName,
		DNSNames:    opts.DNSNames,
		IPAddresses: opts.IPAddresses,
		ValidFor:    opts.ValidFor,
		RSABits:     opts.RSABits,
		Parent:      ca,
	})
	if err != nil {
		return fmt.Errorf("failed to generate server certificate: %w", err)
	}
	if err := server.WriteFiles(path(certgenServer), path(certgenServerKey)); err != nil {
		return err
	}

	client, err := tlsclient.GenerateCertificate(tlsclient.CertificateRequest{
		CommonName: "sslopts client",
		ValidFor:   opts.ValidFor,
		IsClient:   true,
		RSABits:    opts.RSABits,
		Parent:     ca,
	})
	if err != nil {
		return fmt.Errorf("failed to generate client certificate: %w", err)
	}
	if err := client.WriteFiles(path(certgenClient), path(certgenClientKey)); err != nil {
		return err
	}

	declared := config.SSLConfig{
		Cert:   &config.CertSpec{Path: path(certgenClient)},
		Key:    &config.KeySpec{Path: path(certgenClientKey)},
		CAInfo: path(certgenCA),
	}

	if password := os.Getenv(opts.KeyPasswordEnv); opts.KeyPasswordEnv != "" && password != "" {
		encrypted, err := client.EncryptedKeyPEM([]byte(password))
		if err != nil {
			return fmt.Errorf("failed to encrypt client key: %w", err)
		}
		if err := os.WriteFile(path(certgenClientKey), encrypted, 0o600); err != nil {
			return fmt.Errorf("failed to write key file: %w", err)
		}
		declared.Key.Password = &config.SecretRef{Env: opts.KeyPasswordEnv}
	}

	data, err := yaml.Marshal(&declared)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", certgenConfigFile, err)
	}
	if err := os.WriteFile(path(certgenConfigFile), data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", certgenConfigFile, err)
	}
	return nil
}
