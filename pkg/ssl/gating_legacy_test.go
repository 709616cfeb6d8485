//go:build sslbackend_legacy

package ssl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLegacyProfileKinds(t *testing.T) {
	caps := Current()
	assert.Equal(t, ProfileLegacy, caps.Profile)
	assert.True(t, caps.Supports(KindMinSSL2))
	assert.True(t, caps.Supports(KindMinSSL3))
	assert.False(t, caps.Supports(KindMinTLS12))
	assert.False(t, caps.Supports(KindALPN))
	assert.False(t, caps.Supports(KindKeyBlob))
}

func TestLegacyMarkers(t *testing.T) {
	assert.Equal(t, VersionSSL2, Build(MinSSL2{}).MinVersion)
	assert.Equal(t, VersionSSL3, Build(MinSSL2{}, MinSSL3{}).MinVersion)
	assert.Equal(t, VersionTLS10, Build(MinSSL3{}, MinTLS1{}).MinVersion)
}
