package config

import (
	"os"
	"strconv"
)

// Environment variables that override file values.
const (
	EnvCAInfo     = "SSLOPTS_CA_INFO"
	EnvCAPath     = "SSLOPTS_CA_PATH"
	EnvCiphers    = "SSLOPTS_CIPHERS"
	EnvMinVersion = "SSLOPTS_MIN_VERSION"
	EnvMaxVersion = "SSLOPTS_MAX_VERSION"
	EnvVerifyPeer = "SSLOPTS_VERIFY_PEER"
	EnvVerifyHost = "SSLOPTS_VERIFY_HOST"
)

// ApplyEnvOverrides replaces file values with the SSLOPTS_* environment
// variables that are set. Unparseable booleans are ignored.
func ApplyEnvOverrides(cfg *SSLConfig) {
	if val := os.Getenv(EnvCAInfo); val != "" {
		cfg.CAInfo = val
	}
	if val := os.Getenv(EnvCAPath); val != "" {
		cfg.CAPath = val
	}
	if val := os.Getenv(EnvCiphers); val != "" {
		cfg.Ciphers = val
	}
	if val := os.Getenv(EnvMinVersion); val != "" {
		cfg.MinVersion = val
	}
	if val := os.Getenv(EnvMaxVersion); val != "" {
		cfg.MaxVersion = val
	}
	if b, ok := envBool(EnvVerifyPeer); ok {
		cfg.VerifyPeer = &b
	}
	if b, ok := envBool(EnvVerifyHost); ok {
		cfg.VerifyHost = &b
	}
}

func envBool(name string) (bool, bool) {
	val := os.Getenv(name)
	if val == "" {
		return false, false
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, false
	}
	return b, true
}
