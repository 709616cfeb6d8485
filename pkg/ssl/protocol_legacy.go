//go:build sslbackend_legacy

package ssl

// MinSSL2 requires SSL v2 (but not SSL v3).
type MinSSL2 struct{}

func (MinSSL2) Kind() Kind      { return KindMinSSL2 }
func (MinSSL2) apply(c *Config) { c.MinVersion = VersionSSL2 }

// MinSSL3 requires SSL v3 (but not SSL v2).
type MinSSL3 struct{}

func (MinSSL3) Kind() Kind      { return KindMinSSL3 }
func (MinSSL3) apply(c *Config) { c.MinVersion = VersionSSL3 }

func init() {
	registerMarker(MinSSL2{})
	registerMarker(MinSSL3{})
}
