package ssl

// toggle stores an explicitly chosen boolean. The zero value means "not
// chosen", so a zero option value reads as its kind's default.
type toggle struct {
	set bool
	on  bool
}

func setToggle(on bool) toggle { return toggle{set: true, on: on} }

func (t toggle) value(def bool) bool {
	if !t.set {
		return def
	}
	return t.on
}

// VerifyHostOption controls whether the server certificate must match the
// host name being connected to. Default: enabled.
type VerifyHostOption struct{ t toggle }

// VerifyHost enables or disables host name verification.
func VerifyHost(enabled bool) VerifyHostOption { return VerifyHostOption{t: setToggle(enabled)} }

func (o VerifyHostOption) Enabled() bool { return o.t.value(true) }
func (VerifyHostOption) Kind() Kind      { return KindVerifyHost }
func (o VerifyHostOption) apply(c *Config) {
	c.VerifyHost = o.Enabled()
}

// VerifyPeerOption controls whether the peer certificate chain is verified.
// Default: enabled.
type VerifyPeerOption struct{ t toggle }

// VerifyPeer enables or disables peer verification.
func VerifyPeer(enabled bool) VerifyPeerOption { return VerifyPeerOption{t: setToggle(enabled)} }

func (o VerifyPeerOption) Enabled() bool { return o.t.value(true) }
func (VerifyPeerOption) Kind() Kind      { return KindVerifyPeer }
func (o VerifyPeerOption) apply(c *Config) {
	c.VerifyPeer = o.Enabled()
}

// VerifyStatusOption requires a stapled OCSP response from the server.
// Default: disabled.
type VerifyStatusOption struct{ t toggle }

// VerifyStatus enables or disables OCSP stapling checks.
func VerifyStatus(enabled bool) VerifyStatusOption {
	return VerifyStatusOption{t: setToggle(enabled)}
}

func (o VerifyStatusOption) Enabled() bool { return o.t.value(false) }
func (VerifyStatusOption) Kind() Kind      { return KindVerifyStatus }
func (o VerifyStatusOption) apply(c *Config) {
	c.VerifyStatus = o.Enabled()
}

// SessionIDCacheOption controls TLS session resumption. Default: enabled.
type SessionIDCacheOption struct{ t toggle }

// SessionIDCache enables or disables the session cache.
func SessionIDCache(enabled bool) SessionIDCacheOption {
	return SessionIDCacheOption{t: setToggle(enabled)}
}

func (o SessionIDCacheOption) Enabled() bool { return o.t.value(true) }
func (SessionIDCacheOption) Kind() Kind      { return KindSessionIDCache }
func (o SessionIDCacheOption) apply(c *Config) {
	c.SessionIDCache = o.Enabled()
}
