//go:build !sslbackend_legacy

package ssl

// ALPNOption controls ALPN in the handshake, used to negotiate HTTP/2.
// Default: enabled.
type ALPNOption struct{ t toggle }

// ALPN enables or disables ALPN.
func ALPN(enabled bool) ALPNOption { return ALPNOption{t: setToggle(enabled)} }

func (o ALPNOption) Enabled() bool   { return o.t.value(true) }
func (ALPNOption) Kind() Kind        { return KindALPN }
func (o ALPNOption) apply(c *Config) { c.EnableALPN = o.Enabled() }

func init() {
	registerToggle(KindALPN, func(on bool) Option { return ALPN(on) })
}
