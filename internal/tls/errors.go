package tls

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strings"
)

// TLSErrorType represents different categories of TLS errors
type TLSErrorType string

const (
	// Configuration errors
	ErrorTypeConfigValidation TLSErrorType = "config_validation"
	ErrorTypeConfigMissing    TLSErrorType = "config_missing"

	// Certificate and key errors
	ErrorTypeCertificateLoad        TLSErrorType = "certificate_load"
	ErrorTypeCertificateParsing     TLSErrorType = "certificate_parsing"
	ErrorTypeCertificateValidation  TLSErrorType = "certificate_validation"
	ErrorTypeCertificateExpired     TLSErrorType = "certificate_expired"
	ErrorTypeCertificateNotYetValid TLSErrorType = "certificate_not_yet_valid"
	ErrorTypeCertificateChain       TLSErrorType = "certificate_chain"
	ErrorTypeCertificateRevoked     TLSErrorType = "certificate_revoked"
	ErrorTypeKeyLoad                TLSErrorType = "key_load"

	// Peer verification errors
	ErrorTypePinMismatch  TLSErrorType = "pin_mismatch"
	ErrorTypeOCSPResponse TLSErrorType = "ocsp_response"

	// File system errors
	ErrorTypeFileNotFound   TLSErrorType = "file_not_found"
	ErrorTypeFilePermission TLSErrorType = "file_permission"
	ErrorTypeFileAccess     TLSErrorType = "file_access"

	// Protocol errors
	ErrorTypeProtocolUnsupported TLSErrorType = "protocol_unsupported"
	ErrorTypeCipherUnsupported   TLSErrorType = "cipher_unsupported"
	ErrorTypeCipherInsecure      TLSErrorType = "cipher_insecure"
)

// TLSError represents a structured TLS error with context
type TLSError struct {
	Type        TLSErrorType
	Message     string
	Cause       error
	Context     map[string]any
	Suggestions []string
}

// Error renders the type, message, sorted context and cause on one line.
func (e *TLSError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] | %s", e.Type, e.Message)

	if len(e.Context) > 0 {
		b.WriteString(" | context: ")
		keys := make([]string, 0, len(e.Context))
		for key := range e.Context {
			keys = append(keys, key)
		}
		slices.Sort(keys)
		for i, key := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%v", key, e.Context[key])
		}
	}

	if e.Cause != nil {
		fmt.Fprintf(&b, " | cause: %v", e.Cause)
	}
	return b.String()
}

// Unwrap returns the underlying error for error unwrapping
func (e *TLSError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *TLSError) WithContext(key string, value any) *TLSError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for resolving the error
func (e *TLSError) WithSuggestion(suggestion string) *TLSError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// GetDetailedMessage returns Error followed by a numbered suggestion list.
func (e *TLSError) GetDetailedMessage() string {
	if len(e.Suggestions) == 0 {
		return e.Error()
	}

	var b strings.Builder
	b.WriteString(e.Error())
	b.WriteString("\n\nSuggestions:")
	for i, suggestion := range e.Suggestions {
		fmt.Fprintf(&b, "\n  %d. %s", i+1, suggestion)
	}
	return b.String()
}

// NewTLSError creates a TLS error of the given type.
func NewTLSError(errorType TLSErrorType, message string) *TLSError {
	return NewTLSErrorWithCause(errorType, message, nil)
}

// NewTLSErrorWithCause creates a TLS error wrapping cause.
func NewTLSErrorWithCause(errorType TLSErrorType, message string, cause error) *TLSError {
	return &TLSError{Type: errorType, Message: message, Cause: cause, Context: map[string]any{}}
}

// Configuration error constructors
func NewConfigValidationError(field string, value any, reason string) *TLSError {
	return NewTLSError(ErrorTypeConfigValidation, fmt.Sprintf("invalid configuration field '%s'", field)).
		WithContext("field", field).
		WithContext("value", value).
		WithContext("reason", reason).
		WithSuggestion(fmt.Sprintf("Check the '%s' option", field))
}

func NewConfigMissingError(field string) *TLSError {
	return NewTLSError(ErrorTypeConfigMissing, fmt.Sprintf("required configuration field '%s' is missing", field)).
		WithContext("field", field).
		WithSuggestion(fmt.Sprintf("Set the '%s' option", field))
}

// Certificate error constructors
func NewCertificateLoadError(certFile string, cause error) *TLSError {
	return NewTLSErrorWithCause(ErrorTypeCertificateLoad, "failed to load client certificate", cause).
		WithContext("cert_file", certFile).
		WithSuggestion("Verify that the certificate file exists and is readable").
		WithSuggestion("Check that the certificate type (PEM or DER) matches the file contents")
}

func NewKeyLoadError(source string, cause error) *TLSError {
	return NewTLSErrorWithCause(ErrorTypeKeyLoad, "failed to load private key", cause).
		WithContext("key_source", source).
		WithSuggestion("Check that the key type (PEM or DER) matches the key contents").
		WithSuggestion("Supply the key password if the key is encrypted").
		WithSuggestion("Ensure the certificate and private key match")
}

func NewCertificateValidationError(reason string, cause error) *TLSError {
	return NewTLSErrorWithCause(ErrorTypeCertificateValidation, fmt.Sprintf("certificate validation failed: %s", reason), cause).
		WithContext("validation_reason", reason).
		WithSuggestion("Verify the certificate chain is complete").
		WithSuggestion("Check that the issuing CA is in the configured trust store")
}

func NewCertificateExpiredError(certFile string, expiredAt string) *TLSError {
	return NewTLSError(ErrorTypeCertificateExpired, "certificate has expired").
		WithContext("cert_file", certFile).
		WithContext("expired_at", expiredAt).
		WithSuggestion("Renew the expired certificate")
}

func NewCertificateNotYetValidError(certFile string, validFrom string) *TLSError {
	return NewTLSError(ErrorTypeCertificateNotYetValid, "certificate is not yet valid").
		WithContext("cert_file", certFile).
		WithContext("valid_from", validFrom).
		WithSuggestion("Check the system clock is correct")
}

func NewCertificateRevokedError(serial string, source string) *TLSError {
	return NewTLSError(ErrorTypeCertificateRevoked, "peer certificate has been revoked").
		WithContext("serial", serial).
		WithContext("source", source)
}

func NewPinMismatchError(fingerprint string) *TLSError {
	return NewTLSError(ErrorTypePinMismatch, "peer public key does not match any pinned key").
		WithContext("fingerprint", fingerprint).
		WithSuggestion("Update the pinned public key list if the server key was rotated")
}

func NewOCSPError(reason string, cause error) *TLSError {
	return NewTLSErrorWithCause(ErrorTypeOCSPResponse, fmt.Sprintf("certificate status check failed: %s", reason), cause).
		WithContext("reason", reason).
		WithSuggestion("Ensure the server staples a fresh OCSP response").
		WithSuggestion("Disable verify_status if the server does not support stapling")
}

// File system error constructors
func NewFileNotFoundError(filePath string) *TLSError {
	return NewTLSError(ErrorTypeFileNotFound, fmt.Sprintf("file not found: %s", filePath)).
		WithContext("file_path", filePath).
		WithSuggestion("Verify the file path is correct")
}

func NewFilePermissionError(filePath string, operation string) *TLSError {
	return NewTLSError(ErrorTypeFilePermission, fmt.Sprintf("permission denied for %s operation on file: %s", operation, filePath)).
		WithContext("file_path", filePath).
		WithContext("operation", operation).
		WithSuggestion("Check file permissions (should be readable by the process)").
		WithSuggestion("For private keys, ensure permissions are restrictive (e.g., 600)")
}

// Protocol error constructors
func NewProtocolUnsupportedError(field string, version string) *TLSError {
	return NewTLSError(ErrorTypeProtocolUnsupported, fmt.Sprintf("protocol version %s is not available", version)).
		WithContext("field", field).
		WithContext("version", version).
		WithSuggestion("Use TLS 1.2 or higher")
}

func NewCipherUnsupportedError(names []string) *TLSError {
	return NewTLSError(ErrorTypeCipherUnsupported, "unknown cipher suites").
		WithContext("ciphers", strings.Join(names, ",")).
		WithSuggestion("Use IANA (TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256) or OpenSSL (ECDHE-RSA-AES128-GCM-SHA256) names")
}

func NewCipherInsecureError(details []string) *TLSError {
	return NewTLSError(ErrorTypeCipherInsecure, "insecure cipher suites detected").
		WithContext("ciphers", strings.Join(details, "; ")).
		WithSuggestion("Use modern cipher suites with forward secrecy (ECDHE)").
		WithSuggestion("Consider using AES-GCM or ChaCha20-Poly1305 for authenticated encryption")
}

// fileError maps an os error on path to the matching structured error.
func fileError(path, operation string, err error) *TLSError {
	var tlsErr *TLSError
	switch {
	case errors.Is(err, fs.ErrNotExist):
		tlsErr = NewFileNotFoundError(path)
	case errors.Is(err, fs.ErrPermission):
		tlsErr = NewFilePermissionError(path, operation)
	default:
		tlsErr = NewTLSError(ErrorTypeFileAccess, fmt.Sprintf("cannot %s file: %s", operation, path)).
			WithContext("file_path", path)
	}
	tlsErr.Cause = err
	return tlsErr
}

var (
	certificateErrorTypes = []TLSErrorType{
		ErrorTypeCertificateLoad, ErrorTypeCertificateValidation, ErrorTypeCertificateParsing,
		ErrorTypeCertificateExpired, ErrorTypeCertificateNotYetValid, ErrorTypeCertificateChain,
		ErrorTypeCertificateRevoked, ErrorTypeKeyLoad,
	}
	configurationErrorTypes = []TLSErrorType{
		ErrorTypeConfigValidation, ErrorTypeConfigMissing, ErrorTypeProtocolUnsupported,
		ErrorTypeCipherUnsupported, ErrorTypeCipherInsecure,
	}
	verificationErrorTypes = []TLSErrorType{
		ErrorTypePinMismatch, ErrorTypeOCSPResponse, ErrorTypeCertificateRevoked,
		ErrorTypeCertificateValidation, ErrorTypeCertificateChain,
	}
	fileSystemErrorTypes = []TLSErrorType{
		ErrorTypeFileAccess, ErrorTypeFileNotFound, ErrorTypeFilePermission,
	}
)

func hasType(err error, types []TLSErrorType) bool {
	var tlsErr *TLSError
	return errors.As(err, &tlsErr) && slices.Contains(types, tlsErr.Type)
}

// IsCertificateError reports whether err concerns loading or trusting a
// certificate or key.
func IsCertificateError(err error) bool { return hasType(err, certificateErrorTypes) }

// IsConfigurationError reports whether err stems from the record itself.
func IsConfigurationError(err error) bool { return hasType(err, configurationErrorTypes) }

// IsVerificationError reports whether err was raised while checking a peer.
func IsVerificationError(err error) bool { return hasType(err, verificationErrorTypes) }

// IsFileSystemError reports whether err stems from reading a file.
func IsFileSystemError(err error) bool { return hasType(err, fileSystemErrorTypes) }

// GetRecoverySuggestions returns the suggestions attached to err.
func GetRecoverySuggestions(err error) []string {
	var tlsErr *TLSError
	if errors.As(err, &tlsErr) {
		return tlsErr.Suggestions
	}
	return []string{"Verify the TLS options are correct"}
}

// ErrorType returns the category of err, or "unknown".
func ErrorType(err error) string {
	var tlsErr *TLSError
	if errors.As(err, &tlsErr) {
		return string(tlsErr.Type)
	}
	return "unknown"
}
