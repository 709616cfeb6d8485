package config

import (
	"fmt"
	"strings"

	"github.com/polisai/sslopts/pkg/ssl"
)

// VersionName is a protocol version as written in configuration files.
type VersionName string

const (
	VersionNameDefault VersionName = "default"
	VersionNameTLS1    VersionName = "tls1"
	VersionNameSSL2    VersionName = "ssl2"
	VersionNameSSL3    VersionName = "ssl3"
	VersionName10      VersionName = "1.0"
	VersionName11      VersionName = "1.1"
	VersionName12      VersionName = "1.2"
	VersionName13      VersionName = "1.3"
)

type versionBound struct {
	kind    ssl.Kind
	version ssl.ProtocolVersion
}

var minVersions = map[VersionName]versionBound{
	VersionNameTLS1: {ssl.KindMinTLS1, ssl.VersionTLS10},
	VersionNameSSL2: {ssl.KindMinSSL2, ssl.VersionSSL2},
	VersionNameSSL3: {ssl.KindMinSSL3, ssl.VersionSSL3},
	VersionName10:   {ssl.KindMinTLS10, ssl.VersionTLS10},
	VersionName11:   {ssl.KindMinTLS11, ssl.VersionTLS11},
	VersionName12:   {ssl.KindMinTLS12, ssl.VersionTLS12},
	VersionName13:   {ssl.KindMinTLS13, ssl.VersionTLS13},
}

var maxVersions = map[VersionName]versionBound{
	VersionNameDefault: {ssl.KindMaxTLSDefault, ssl.VersionDefault},
	VersionName10:      {ssl.KindMaxTLS10, ssl.VersionTLS10},
	VersionName11:      {ssl.KindMaxTLS11, ssl.VersionTLS11},
	VersionName12:      {ssl.KindMaxTLS12, ssl.VersionTLS12},
	VersionName13:      {ssl.KindMaxTLS13, ssl.VersionTLS13},
}

func normalizeVersion(name string) VersionName {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.TrimPrefix(n, "tlsv")
	n = strings.TrimPrefix(n, "tls")
	switch n {
	case "1":
		return VersionNameTLS1
	case "sslv2":
		return VersionNameSSL2
	case "sslv3":
		return VersionNameSSL3
	}
	return VersionName(n)
}

// ParseMinVersion resolves a floor name to its option kind. An empty name or
// "default" selects no floor and reports ok=false.
func ParseMinVersion(name string) (kind ssl.Kind, ok bool, err error) {
	n := normalizeVersion(name)
	if n == "" || n == VersionNameDefault {
		return 0, false, nil
	}
	b, found := minVersions[n]
	if !found {
		return 0, false, fmt.Errorf("unsupported minimum version %q", name)
	}
	return b.kind, true, nil
}

// ParseMaxVersion resolves a ceiling name to its option kind. An empty name
// selects no ceiling option and reports ok=false.
func ParseMaxVersion(name string) (kind ssl.Kind, ok bool, err error) {
	n := normalizeVersion(name)
	if n == "" {
		return 0, false, nil
	}
	b, found := maxVersions[n]
	if !found {
		return 0, false, fmt.Errorf("unsupported maximum version %q", name)
	}
	return b.kind, true, nil
}

func boundVersion(table map[VersionName]versionBound, name string) ssl.ProtocolVersion {
	return table[normalizeVersion(name)].version
}
