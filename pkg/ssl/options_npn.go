//go:build sslbackend_npn && !sslbackend_legacy

package ssl

// NPNOption controls NPN in the handshake. Only backends between ALPN
// support and NPN removal offer it. Default: enabled.
type NPNOption struct{ t toggle }

// NPN enables or disables NPN.
func NPN(enabled bool) NPNOption { return NPNOption{t: setToggle(enabled)} }

func (o NPNOption) Enabled() bool   { return o.t.value(true) }
func (NPNOption) Kind() Kind        { return KindNPN }
func (o NPNOption) apply(c *Config) { c.EnableNPN = o.Enabled() }

func init() {
	registerToggle(KindNPN, func(on bool) Option { return NPN(on) })
}
