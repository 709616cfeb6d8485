//go:build !sslbackend_legacy

package ssl

// TLS13CiphersOption restricts the TLS 1.3 cipher suites.
type TLS13CiphersOption struct{ list string }

// TLS13Ciphers sets a ":" or ","-separated TLS 1.3 suite list.
func TLS13Ciphers(list string) TLS13CiphersOption { return TLS13CiphersOption{list: list} }

func (o TLS13CiphersOption) Value() string { return o.list }
func (TLS13CiphersOption) Kind() Kind      { return KindTLS13Ciphers }
func (o TLS13CiphersOption) apply(c *Config) {
	c.TLS13Ciphers = o.list
}

// FastStartOption controls TLS False Start. Default: disabled.
type FastStartOption struct{ t toggle }

// FastStart enables or disables False Start.
func FastStart(enabled bool) FastStartOption { return FastStartOption{t: setToggle(enabled)} }

func (o FastStartOption) Enabled() bool   { return o.t.value(false) }
func (FastStartOption) Kind() Kind        { return KindFastStart }
func (o FastStartOption) apply(c *Config) { c.FastStart = o.Enabled() }

// NoRevokeOption turns off certificate revocation checks. Default: checks
// stay on.
type NoRevokeOption struct{ t toggle }

// NoRevoke disables (true) or keeps (false) revocation checks.
func NoRevoke(enabled bool) NoRevokeOption { return NoRevokeOption{t: setToggle(enabled)} }

func (o NoRevokeOption) Enabled() bool   { return o.t.value(false) }
func (NoRevokeOption) Kind() Kind        { return KindNoRevoke }
func (o NoRevokeOption) apply(c *Config) { c.NoRevoke = o.Enabled() }

func init() {
	registerText(KindTLS13Ciphers, func(s string) Option { return TLS13Ciphers(s) })
	registerToggle(KindFastStart, func(on bool) Option { return FastStart(on) })
	registerToggle(KindNoRevoke, func(on bool) Option { return NoRevoke(on) })
}
