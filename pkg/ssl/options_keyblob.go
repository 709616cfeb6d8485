//go:build !sslbackend_legacy && !sslbackend_npn

package ssl

import "github.com/polisai/sslopts/pkg/securestring"

// KeyBlob supplies the private key from memory instead of a file. The blob
// is always PEM.
type KeyBlob struct {
	blob     securestring.String
	password securestring.String
}

// NewKeyBlob uses a copy of blob as the private key.
func NewKeyBlob(blob securestring.String) KeyBlob {
	return KeyBlob{blob: blob.Clone()}
}

// NewKeyBlobWithPassword uses a copy of blob as an encrypted private key.
func NewKeyBlobWithPassword(blob, password securestring.String) KeyBlob {
	return KeyBlob{blob: blob.Clone(), password: password.Clone()}
}

func (o KeyBlob) Blob() securestring.String     { return o.blob }
func (o KeyBlob) Password() securestring.String { return o.password }

// Kind implements Option.
func (KeyBlob) Kind() Kind { return KindKeyBlob }

func (o KeyBlob) apply(c *Config) {
	c.KeyBlob = o.blob.Clone()
	c.KeyType = EncodingPEM
	c.KeyPassword = o.password.Clone()
}

func init() {
	registerSecret(KindKeyBlob, func(blob, password securestring.String) Option {
		return NewKeyBlobWithPassword(blob, password)
	})
}
