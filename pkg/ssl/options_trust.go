package ssl

// CAInfoOption points at a CA bundle file.
type CAInfoOption struct{ path string }

// CAInfo sets the CA bundle file used to verify the peer.
func CAInfo(path string) CAInfoOption { return CAInfoOption{path: path} }

func (o CAInfoOption) Path() string    { return o.path }
func (CAInfoOption) Kind() Kind        { return KindCAInfo }
func (o CAInfoOption) apply(c *Config) { c.CAInfo = o.path }

// CAPathOption points at a directory of CA certificates.
type CAPathOption struct{ path string }

// CAPath sets the directory holding CA certificates.
func CAPath(path string) CAPathOption { return CAPathOption{path: path} }

func (o CAPathOption) Path() string    { return o.path }
func (CAPathOption) Kind() Kind        { return KindCAPath }
func (o CAPathOption) apply(c *Config) { c.CAPath = o.path }

// CABufferOption carries PEM encoded CA certificates in memory.
type CABufferOption struct{ pem string }

// CABuffer sets in-memory PEM CA certificates.
func CABuffer(pem string) CABufferOption { return CABufferOption{pem: pem} }

func (o CABufferOption) Value() string   { return o.pem }
func (CABufferOption) Kind() Kind        { return KindCABuffer }
func (o CABufferOption) apply(c *Config) { c.CABuffer = o.pem }

// CRLFileOption points at a certificate revocation list.
type CRLFileOption struct{ path string }

// CRLFile sets the CRL file checked against the peer chain.
func CRLFile(path string) CRLFileOption { return CRLFileOption{path: path} }

func (o CRLFileOption) Path() string    { return o.path }
func (CRLFileOption) Kind() Kind        { return KindCRLFile }
func (o CRLFileOption) apply(c *Config) { c.CRLFile = o.path }

// CiphersOption restricts the TLS 1.2 and older cipher suites.
type CiphersOption struct{ list string }

// Ciphers sets a ":" or ","-separated cipher suite list.
func Ciphers(list string) CiphersOption { return CiphersOption{list: list} }

func (o CiphersOption) Value() string   { return o.list }
func (CiphersOption) Kind() Kind        { return KindCiphers }
func (o CiphersOption) apply(c *Config) { c.Ciphers = o.list }
