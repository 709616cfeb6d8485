// Package tls turns a canonical ssl.Config record into a crypto/tls client
// configuration.
//
// BuildClient reads the files the record names, wires trust anchors, pins,
// stapled status and revocation lists into VerifyConnection, and returns a
// Report of every setting crypto/tls cannot express. NewHTTPTransport wraps
// the result in an instrumented HTTP transport, and ExpiryMonitor watches
// the certificates a record references.
package tls
