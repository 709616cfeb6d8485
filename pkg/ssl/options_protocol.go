package ssl

// Protocol markers carry no payload. Each one assigns a fixed value to
// either Config.MinVersion or Config.MaxVersion and touches nothing else.
// Markers beyond MinTLS1 depend on the build profile.

// MinTLS1 requires any TLS 1.x version.
type MinTLS1 struct{}

func (MinTLS1) Kind() Kind      { return KindMinTLS1 }
func (MinTLS1) apply(c *Config) { c.MinVersion = VersionTLS10 }
