package tls

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/ocsp"
)

// Peer check names reported in Report.Checks and metrics.
const (
	CheckChain    = "chain"
	CheckHostname = "hostname"
	CheckPin      = "pin"
	CheckOCSP     = "ocsp"
	CheckCRL      = "crl"
)

// peerVerifier runs the checks crypto/tls does not perform on its own. It is
// installed as tls.Config.VerifyConnection.
type peerVerifier struct {
	roots *x509.CertPool
	// serverName is used when the handshake carried no SNI, as for IP
	// literal targets.
	serverName string

	// verifyChain verifies the chain without a hostname. Set when
	// InsecureSkipVerify had to be used to disable hostname checks.
	verifyChain bool
	// verifyHostname checks the hostname without a chain.
	verifyHostname bool

	pins          pinSet
	requireStaple bool
	crl           *x509.RevocationList

	logger  *TLSLogger
	metrics *TLSMetricsCollector
	now     func() time.Time
}

func (v *peerVerifier) active() bool {
	return v.verifyChain || v.verifyHostname || len(v.pins) > 0 || v.requireStaple || v.crl != nil
}

func (v *peerVerifier) verifyConnection(cs tls.ConnectionState) error {
	ctx := context.Background()
	if len(cs.PeerCertificates) == 0 {
		return NewCertificateValidationError("server presented no certificate", nil)
	}
	leaf := cs.PeerCertificates[0]
	chains := cs.VerifiedChains
	serverName := cs.ServerName
	if serverName == "" {
		serverName = v.serverName
	}

	if v.verifyChain {
		var err error
		chains, err = v.verifyChainWithoutHostname(cs.PeerCertificates)
		if err = v.record(ctx, serverName, leaf, CheckChain, err); err != nil {
			return err
		}
	}

	if v.verifyHostname {
		var err error
		if hostErr := leaf.VerifyHostname(serverName); hostErr != nil {
			err = NewCertificateValidationError("hostname mismatch", hostErr)
		}
		if err = v.record(ctx, serverName, leaf, CheckHostname, err); err != nil {
			return err
		}
	}

	if len(v.pins) > 0 {
		var err error
		if !v.pins.match(leaf) {
			err = NewPinMismatchError(PublicKeyPin(leaf))
		}
		if err = v.record(ctx, serverName, leaf, CheckPin, err); err != nil {
			return err
		}
	}

	issuer := issuerOf(chains, cs.PeerCertificates)

	if v.requireStaple {
		err := v.checkStaple(cs.OCSPResponse, leaf, issuer)
		if err = v.record(ctx, serverName, leaf, CheckOCSP, err); err != nil {
			return err
		}
	}

	if v.crl != nil {
		err := v.checkRevocationList(cs.PeerCertificates, chains)
		if err = v.record(ctx, serverName, leaf, CheckCRL, err); err != nil {
			return err
		}
	}

	return nil
}

func (v *peerVerifier) record(ctx context.Context, serverName string, leaf *x509.Certificate, check string, err error) error {
	v.logger.LogPeerVerification(ctx, serverName, leaf, check, err)
	v.metrics.RecordPeerVerification(ctx, check, err == nil)
	return err
}

func (v *peerVerifier) verifyChainWithoutHostname(certs []*x509.Certificate) ([][]*x509.Certificate, error) {
	opts := x509.VerifyOptions{
		Roots:         v.roots,
		Intermediates: x509.NewCertPool(),
		CurrentTime:   v.now(),
	}
	for _, cert := range certs[1:] {
		opts.Intermediates.AddCert(cert)
	}

	chains, err := certs[0].Verify(opts)
	if err != nil {
		var invalid x509.CertificateInvalidError
		if errors.As(err, &invalid) && invalid.Reason == x509.Expired {
			leaf := certs[0]
			if opts.CurrentTime.Before(leaf.NotBefore) {
				return nil, NewCertificateNotYetValidError(leaf.Subject.String(), leaf.NotBefore.Format(time.RFC3339))
			}
			return nil, NewCertificateExpiredError(leaf.Subject.String(), leaf.NotAfter.Format(time.RFC3339))
		}
		return nil, NewCertificateValidationError("chain verification failed", err)
	}
	return chains, nil
}

// issuerOf returns the issuer of the leaf, preferring a verified chain.
func issuerOf(chains [][]*x509.Certificate, presented []*x509.Certificate) *x509.Certificate {
	if len(chains) > 0 && len(chains[0]) > 1 {
		return chains[0][1]
	}
	if len(presented) > 1 {
		return presented[1]
	}
	return nil
}

func (v *peerVerifier) checkStaple(raw []byte, leaf, issuer *x509.Certificate) error {
	if len(raw) == 0 {
		return NewOCSPError("server did not staple a response", nil)
	}
	resp, err := ocsp.ParseResponseForCert(raw, leaf, issuer)
	if err != nil {
		return NewOCSPError("invalid stapled response", err)
	}

	switch resp.Status {
	case ocsp.Good:
	case ocsp.Revoked:
		return NewCertificateRevokedError(leaf.SerialNumber.String(), CheckOCSP).
			WithContext("revoked_at", resp.RevokedAt.Format(time.RFC3339))
	default:
		return NewOCSPError("responder does not know the certificate", nil)
	}

	if !resp.NextUpdate.IsZero() && v.now().After(resp.NextUpdate) {
		return NewOCSPError("stapled response is stale", nil).
			WithContext("next_update", resp.NextUpdate.Format(time.RFC3339))
	}
	return nil
}

// checkRevocationList rejects the handshake when any presented certificate
// issued by the list's issuer is on the list.
func (v *peerVerifier) checkRevocationList(presented []*x509.Certificate, chains [][]*x509.Certificate) error {
	if issuer := findCertificate(v.crl.RawIssuer, presented, chains); issuer != nil {
		if err := v.crl.CheckSignatureFrom(issuer); err != nil {
			return NewCertificateValidationError("revocation list signature is invalid", err)
		}
	}
	if !v.crl.NextUpdate.IsZero() && v.now().After(v.crl.NextUpdate) {
		return NewCertificateValidationError("revocation list has expired", nil).
			WithContext("next_update", v.crl.NextUpdate.Format(time.RFC3339))
	}

	for _, cert := range presented {
		if !bytes.Equal(cert.RawIssuer, v.crl.RawIssuer) {
			continue
		}
		for _, entry := range v.crl.RevokedCertificateEntries {
			if entry.SerialNumber.Cmp(cert.SerialNumber) == 0 {
				return NewCertificateRevokedError(cert.SerialNumber.String(), CheckCRL).
					WithContext("subject", cert.Subject.String())
			}
		}
	}
	return nil
}

func findCertificate(rawSubject []byte, presented []*x509.Certificate, chains [][]*x509.Certificate) *x509.Certificate {
	for _, cert := range presented {
		if bytes.Equal(cert.RawSubject, rawSubject) {
			return cert
		}
	}
	for _, chain := range chains {
		for _, cert := range chain {
			if bytes.Equal(cert.RawSubject, rawSubject) {
				return cert
			}
		}
	}
	return nil
}

// loadRevocationList reads a PEM or DER encoded CRL.
func loadRevocationList(path string) (*x509.RevocationList, error) {
	data, err := readFile(path, "read")
	if err != nil {
		return nil, err
	}
	der := data
	if block, _ := pem.Decode(data); block != nil {
		der = block.Bytes
	}
	crl, err := x509.ParseRevocationList(der)
	if err != nil {
		return nil, NewTLSErrorWithCause(ErrorTypeCertificateParsing,
			fmt.Sprintf("failed to parse revocation list %s", path), err).
			WithContext("crl_file", path)
	}
	return crl, nil
}
