//go:build !sslbackend_legacy

package ssl

// MinTLS10 requires TLS 1.0 or later.
type MinTLS10 struct{}

// MinTLS11 requires TLS 1.1 or later.
type MinTLS11 struct{}

// MinTLS12 requires TLS 1.2 or later.
type MinTLS12 struct{}

// MinTLS13 requires TLS 1.3 or later.
type MinTLS13 struct{}

func (MinTLS10) Kind() Kind { return KindMinTLS10 }
func (MinTLS11) Kind() Kind { return KindMinTLS11 }
func (MinTLS12) Kind() Kind { return KindMinTLS12 }
func (MinTLS13) Kind() Kind { return KindMinTLS13 }

func (MinTLS10) apply(c *Config) { c.MinVersion = VersionTLS10 }
func (MinTLS11) apply(c *Config) { c.MinVersion = VersionTLS11 }
func (MinTLS12) apply(c *Config) { c.MinVersion = VersionTLS12 }
func (MinTLS13) apply(c *Config) { c.MinVersion = VersionTLS13 }

// MaxTLSDefault leaves the ceiling to the backend.
type MaxTLSDefault struct{}

// MaxTLS10 caps the negotiated version at TLS 1.0.
type MaxTLS10 struct{}

// MaxTLS11 caps the negotiated version at TLS 1.1.
type MaxTLS11 struct{}

// MaxTLS12 caps the negotiated version at TLS 1.2.
type MaxTLS12 struct{}

// MaxTLS13 caps the negotiated version at TLS 1.3.
type MaxTLS13 struct{}

func (MaxTLSDefault) Kind() Kind { return KindMaxTLSDefault }
func (MaxTLS10) Kind() Kind      { return KindMaxTLS10 }
func (MaxTLS11) Kind() Kind      { return KindMaxTLS11 }
func (MaxTLS12) Kind() Kind      { return KindMaxTLS12 }
func (MaxTLS13) Kind() Kind      { return KindMaxTLS13 }

func (MaxTLSDefault) apply(c *Config) { c.MaxVersion = VersionDefault }
func (MaxTLS10) apply(c *Config)      { c.MaxVersion = VersionTLS10 }
func (MaxTLS11) apply(c *Config)      { c.MaxVersion = VersionTLS11 }
func (MaxTLS12) apply(c *Config)      { c.MaxVersion = VersionTLS12 }
func (MaxTLS13) apply(c *Config)      { c.MaxVersion = VersionTLS13 }

func init() {
	for _, m := range []Option{
		MinTLS10{}, MinTLS11{}, MinTLS12{}, MinTLS13{},
		MaxTLSDefault{}, MaxTLS10{}, MaxTLS11{}, MaxTLS12{}, MaxTLS13{},
	} {
		registerMarker(m)
	}
}
