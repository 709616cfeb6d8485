package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvFileResolver(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pw")
	require.NoError(t, os.WriteFile(path, []byte("from-file\n"), 0o600))
	t.Setenv("SSLOPTS_TEST_PW", "from-env")

	r := NewEnvFileResolver()

	s, err := r.Resolve(SecretRef{Value: "inline"})
	require.NoError(t, err)
	assert.Equal(t, "inline", s.RevealString())

	s, err = r.Resolve(SecretRef{Env: "SSLOPTS_TEST_PW"})
	require.NoError(t, err)
	assert.Equal(t, "from-env", s.RevealString())

	s, err = r.Resolve(SecretRef{File: path})
	require.NoError(t, err)
	assert.Equal(t, "from-file", s.RevealString())

	s, err = r.Resolve(SecretRef{})
	require.NoError(t, err)
	assert.True(t, s.IsEmpty())

	_, err = r.Resolve(SecretRef{File: filepath.Join(dir, "missing")})
	assert.Error(t, err)
}

func TestSecretRefDescribeRedactsValue(t *testing.T) {
	assert.Equal(t, "value:[REDACTED]", SecretRef{Value: "pw"}.describe())
	assert.Equal(t, "env:X", SecretRef{Env: "X"}.describe())
}
