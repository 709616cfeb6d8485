package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/polisai/sslopts/pkg/securestring"
)

// SecretRef names where a secret comes from. Exactly one source may be set.
type SecretRef struct {
	Value string `yaml:"value,omitempty" json:"value,omitempty"`
	Env   string `yaml:"env,omitempty" json:"env,omitempty"`
	File  string `yaml:"file,omitempty" json:"file,omitempty"`
}

// ErrSecretNotFound is returned when a referenced secret has no value.
var ErrSecretNotFound = errors.New("secret not found")

// IsZero reports whether no source is set.
func (r SecretRef) IsZero() bool {
	return r.Value == "" && r.Env == "" && r.File == ""
}

func (r SecretRef) sources() int {
	n := 0
	for _, s := range []string{r.Value, r.Env, r.File} {
		if s != "" {
			n++
		}
	}
	return n
}

func (r SecretRef) validate(field string) error {
	if r.sources() > 1 {
		return NewConfigValidationError(field, r.describe(), "only one of value, env or file may be set").
			WithSuggestion("Prefer env or file so the secret is not stored in the configuration")
	}
	return nil
}

func (r SecretRef) describe() string {
	switch {
	case r.Env != "":
		return "env:" + r.Env
	case r.File != "":
		return "file:" + r.File
	case r.Value != "":
		return "value:" + securestring.Redacted
	default:
		return ""
	}
}

// SecretResolver turns a reference into secret bytes.
type SecretResolver interface {
	Resolve(ref SecretRef) (securestring.String, error)
}

// EnvFileResolver resolves inline values, environment variables and files.
// A single trailing newline is stripped from file contents.
type EnvFileResolver struct {
	LookupEnv func(string) (string, bool)
	ReadFile  func(string) ([]byte, error)
}

// NewEnvFileResolver returns a resolver backed by the process environment
// and the local filesystem.
func NewEnvFileResolver() EnvFileResolver {
	return EnvFileResolver{LookupEnv: os.LookupEnv, ReadFile: os.ReadFile}
}

// Resolve implements SecretResolver.
func (r EnvFileResolver) Resolve(ref SecretRef) (securestring.String, error) {
	switch {
	case ref.IsZero():
		return securestring.String{}, nil
	case ref.Value != "":
		return securestring.New(ref.Value), nil
	case ref.Env != "":
		lookup := r.LookupEnv
		if lookup == nil {
			lookup = os.LookupEnv
		}
		v, ok := lookup(ref.Env)
		if !ok {
			return securestring.String{}, fmt.Errorf("env %s: %w", ref.Env, ErrSecretNotFound)
		}
		return securestring.New(v), nil
	default:
		read := r.ReadFile
		if read == nil {
			read = os.ReadFile
		}
		data, err := read(filepath.Clean(ref.File))
		if err != nil {
			return securestring.String{}, fmt.Errorf("secret file %s: %w", ref.File, err)
		}
		s := securestring.FromBytes(bytes.TrimSuffix(bytes.TrimSuffix(data, []byte("\n")), []byte("\r")))
		clear(data)
		return s, nil
	}
}
