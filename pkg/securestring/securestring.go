// Package securestring carries sensitive payloads such as private key
// passwords and in-memory key material.
//
// A String never renders its content through fmt, encoding/json, YAML or
// log/slog. Raw bytes are available only through Reveal.
package securestring

import (
	"crypto/subtle"
	"fmt"
	"log/slog"
)

// Redacted is what every printable form of a non-empty String renders as.
const Redacted = "[REDACTED]"

// String holds a sensitive value. The zero value is empty and ready to use.
//
// Copying a String shares its backing storage. Use Clone for an independent
// copy, Move to hand ownership to another holder and Wipe to clear the
// content in place.
type String struct {
	b []byte
}

// New returns a String holding a copy of text.
func New(text string) String {
	if text == "" {
		return String{}
	}
	return String{b: []byte(text)}
}

// FromBytes returns a String holding a copy of b. The caller may wipe b
// afterwards.
func FromBytes(b []byte) String {
	if len(b) == 0 {
		return String{}
	}
	return String{b: append([]byte(nil), b...)}
}

// Reveal returns the raw content. The returned slice aliases the String's
// storage and is cleared by Wipe.
func (s String) Reveal() []byte {
	return s.b
}

// RevealString returns the raw content as a Go string.
func (s String) RevealString() string {
	return string(s.b)
}

// Len reports the length of the content in bytes.
func (s String) Len() int {
	return len(s.b)
}

// IsEmpty reports whether the String holds no content.
func (s String) IsEmpty() bool {
	return len(s.b) == 0
}

// IsZero reports whether s is empty. YAML encoders use it for omitempty.
func (s String) IsZero() bool {
	return s.IsEmpty()
}

// Equal compares two Strings in constant time.
func (s String) Equal(other String) bool {
	return subtle.ConstantTimeCompare(s.b, other.b) == 1
}

// Clone returns a String with its own copy of the content. Wiping either
// value leaves the other intact.
func (s String) Clone() String {
	return FromBytes(s.b)
}

// Move returns a String owning the content and leaves s empty.
func (s *String) Move() String {
	moved := String{b: s.b}
	s.b = nil
	return moved
}

// Wipe zeroes the content and empties s.
func (s *String) Wipe() {
	for i := range s.b {
		s.b[i] = 0
	}
	s.b = nil
}

func (s String) redacted() string {
	if s.IsEmpty() {
		return ""
	}
	return Redacted
}

// String implements fmt.Stringer without exposing the content.
func (s String) String() string {
	return s.redacted()
}

// GoString implements fmt.GoStringer so %#v stays redacted.
func (s String) GoString() string {
	return fmt.Sprintf("securestring.String(%q)", s.redacted())
}

// Format keeps every fmt verb, including %x and %q, redacted.
func (s String) Format(f fmt.State, verb rune) {
	if verb == 'v' && f.Flag('#') {
		_, _ = fmt.Fprint(f, s.GoString())
		return
	}
	_, _ = fmt.Fprint(f, s.redacted())
}

// LogValue implements slog.LogValuer.
func (s String) LogValue() slog.Value {
	return slog.StringValue(s.redacted())
}

// MarshalText implements encoding.TextMarshaler.
func (s String) MarshalText() ([]byte, error) {
	return []byte(s.redacted()), nil
}

// MarshalJSON implements json.Marshaler.
func (s String) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", s.redacted())), nil
}

// MarshalYAML implements yaml.Marshaler.
func (s String) MarshalYAML() (interface{}, error) {
	return s.redacted(), nil
}
