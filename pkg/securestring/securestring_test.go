package securestring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestNewAndReveal(t *testing.T) {
	s := New("hunter2")
	assert.Equal(t, "hunter2", s.RevealString())
	assert.Equal(t, []byte("hunter2"), s.Reveal())
	assert.Equal(t, 7, s.Len())
	assert.False(t, s.IsEmpty())

	assert.True(t, New("").IsEmpty())
	assert.True(t, String{}.IsEmpty())
}

func TestFromBytesCopies(t *testing.T) {
	raw := []byte("key material")
	s := FromBytes(raw)
	raw[0] = 'X'
	assert.Equal(t, "key material", s.RevealString())
}

func TestPrintableFormsAreRedacted(t *testing.T) {
	s := New("hunter2")

	for _, format := range []string{"%s", "%v", "%+v", "%q", "%x", "%X", "%d"} {
		out := fmt.Sprintf(format, s)
		assert.NotContains(t, out, "hunter2", format)
		assert.NotContains(t, out, "68756e74657232", format)
	}
	assert.Equal(t, `securestring.String("[REDACTED]")`, fmt.Sprintf("%#v", s))

	wrapped := struct{ Password String }{Password: s}
	assert.NotContains(t, fmt.Sprintf("%+v", wrapped), "hunter2")
	assert.NotContains(t, fmt.Sprintf("%#v", wrapped), "hunter2")
}

func TestEmptyRendersEmpty(t *testing.T) {
	assert.Equal(t, "", String{}.String())
	out, err := json.Marshal(String{})
	require.NoError(t, err)
	assert.Equal(t, `""`, string(out))
}

func TestMarshalersAreRedacted(t *testing.T) {
	payload := struct {
		Password String `json:"password" yaml:"password"`
	}{Password: New("hunter2")}

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"password":"[REDACTED]"}`, string(out))

	out, err = yaml.Marshal(payload)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "hunter2")
	assert.Contains(t, string(out), Redacted)
}

func TestLogValueIsRedacted(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	logger.Info("loading key", "password", New("hunter2"))

	assert.NotContains(t, buf.String(), "hunter2")
	assert.Contains(t, buf.String(), Redacted)
}

func TestMoveTransfersOwnership(t *testing.T) {
	src := New("hunter2")
	dst := src.Move()

	assert.True(t, src.IsEmpty())
	assert.Equal(t, "hunter2", dst.RevealString())
}

func TestWipeZeroesStorage(t *testing.T) {
	s := New("hunter2")
	alias := s.Reveal()
	s.Wipe()

	assert.True(t, s.IsEmpty())
	assert.Equal(t, make([]byte, 7), alias)
}

func TestEqual(t *testing.T) {
	assert.True(t, New("a").Equal(New("a")))
	assert.False(t, New("a").Equal(New("b")))
	assert.True(t, String{}.Equal(New("")))
}

func TestCloneIsIndependent(t *testing.T) {
	s := New("pw")
	c := s.Clone()
	s.Wipe()

	assert.True(t, s.IsEmpty())
	assert.Equal(t, "pw", c.RevealString())
	assert.True(t, String{}.Clone().IsEmpty())
}
