package ssl

import (
	"errors"
	"fmt"
	"sort"

	"github.com/polisai/sslopts/pkg/securestring"
)

// The typed constructors are the primary API. The factories below serve
// callers that pick kinds from data, such as configuration files. Each
// option file registers its own kinds, so a kind missing from the build is
// also missing here.

// ErrUnsupportedKind is returned when a kind is not compiled into the build.
var ErrUnsupportedKind = errors.New("option kind not supported by this build")

// ErrKindShape is returned when a factory is asked for a kind that takes a
// different payload.
var ErrKindShape = errors.New("option kind does not take this payload")

type factory struct {
	toggle func(on bool) Option
	text   func(value string) Option
	file   func(path string, password securestring.String) Option
	secret func(blob, password securestring.String) Option
	marker Option
}

var factories = map[Kind]factory{}

func register(k Kind, update func(*factory)) {
	f := factories[k]
	update(&f)
	factories[k] = f
}

func registerToggle(k Kind, fn func(bool) Option) {
	register(k, func(f *factory) { f.toggle = fn })
}

func registerText(k Kind, fn func(string) Option) {
	register(k, func(f *factory) { f.text = fn })
}

func registerFile(k Kind, fn func(string, securestring.String) Option) {
	register(k, func(f *factory) { f.file = fn })
}

func registerSecret(k Kind, fn func(blob, password securestring.String) Option) {
	register(k, func(f *factory) { f.secret = fn })
}

func registerMarker(m Option) {
	register(m.Kind(), func(f *factory) { f.marker = m })
}

func init() {
	registerFile(KindCertPEM, func(p string, _ securestring.String) Option { return Cert(p) })
	registerFile(KindCertDER, func(p string, _ securestring.String) Option { return DERCert(p) })
	registerFile(KindKeyPEM, func(p string, pw securestring.String) Option { return KeyWithPassword(p, pw) })
	registerFile(KindKeyDER, func(p string, pw securestring.String) Option { return DERKeyWithPassword(p, pw) })

	registerText(KindPinnedPublicKey, func(s string) Option { return PinnedPublicKey(s) })
	registerText(KindCAInfo, func(s string) Option { return CAInfo(s) })
	registerText(KindCAPath, func(s string) Option { return CAPath(s) })
	registerText(KindCABuffer, func(s string) Option { return CABuffer(s) })
	registerText(KindCRLFile, func(s string) Option { return CRLFile(s) })
	registerText(KindCiphers, func(s string) Option { return Ciphers(s) })

	registerToggle(KindVerifyHost, func(on bool) Option { return VerifyHost(on) })
	registerToggle(KindVerifyPeer, func(on bool) Option { return VerifyPeer(on) })
	registerToggle(KindVerifyStatus, func(on bool) Option { return VerifyStatus(on) })
	registerToggle(KindSessionIDCache, func(on bool) Option { return SessionIDCache(on) })

	registerMarker(MinTLS1{})
}

func lookup(k Kind) (factory, error) {
	f, ok := factories[k]
	if !ok {
		return factory{}, fmt.Errorf("%s: %w", k, ErrUnsupportedKind)
	}
	return f, nil
}

// Compiled reports whether kind k has an implementation in this build.
func Compiled(k Kind) bool {
	_, ok := factories[k]
	return ok
}

// CompiledKinds returns every kind with an implementation in this build,
// in declaration order.
func CompiledKinds() []Kind {
	kinds := make([]Kind, 0, len(factories))
	for k := range factories {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// NewToggle builds a boolean option of kind k.
func NewToggle(k Kind, on bool) (Option, error) {
	f, err := lookup(k)
	if err != nil {
		return nil, err
	}
	if f.toggle == nil {
		return nil, fmt.Errorf("%s: toggle: %w", k, ErrKindShape)
	}
	return f.toggle(on), nil
}

// NewText builds a string-valued option of kind k.
func NewText(k Kind, value string) (Option, error) {
	f, err := lookup(k)
	if err != nil {
		return nil, err
	}
	if f.text == nil {
		return nil, fmt.Errorf("%s: text: %w", k, ErrKindShape)
	}
	return f.text(value), nil
}

// NewFile builds a certificate or key file option of kind k. Certificate
// kinds ignore password.
func NewFile(k Kind, path string, password securestring.String) (Option, error) {
	f, err := lookup(k)
	if err != nil {
		return nil, err
	}
	if f.file == nil {
		return nil, fmt.Errorf("%s: file: %w", k, ErrKindShape)
	}
	return f.file(path, password), nil
}

// NewSecret builds an in-memory key option of kind k.
func NewSecret(k Kind, blob, password securestring.String) (Option, error) {
	f, err := lookup(k)
	if err != nil {
		return nil, err
	}
	if f.secret == nil {
		return nil, fmt.Errorf("%s: secret: %w", k, ErrKindShape)
	}
	return f.secret(blob, password), nil
}

// Marker returns the payload-free protocol option of kind k.
func Marker(k Kind) (Option, error) {
	f, err := lookup(k)
	if err != nil {
		return nil, err
	}
	if f.marker == nil {
		return nil, fmt.Errorf("%s: marker: %w", k, ErrKindShape)
	}
	return f.marker, nil
}
