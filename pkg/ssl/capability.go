package ssl

import (
	"fmt"
	"sync"
)

// BackendVersion identifies an SSL backend release as major<<16 |
// minor<<8 | patch, so versions compare with the usual operators.
type BackendVersion uint32

// Version builds a BackendVersion.
func Version(major, minor, patch uint8) BackendVersion {
	return BackendVersion(uint32(major)<<16 | uint32(minor)<<8 | uint32(patch))
}

func (v BackendVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", uint8(v>>16), uint8(v>>8), uint8(v))
}

// MarshalText implements encoding.TextMarshaler.
func (v BackendVersion) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// Profile names a backend build profile. Exactly one profile is compiled
// into a binary, chosen by build tag:
//
//	(none)              ProfileModern
//	sslbackend_npn      ProfileNPN
//	sslbackend_legacy   ProfileLegacy (wins over sslbackend_npn)
type Profile string

const (
	ProfileModern Profile = "modern"
	ProfileNPN    Profile = "npn"
	ProfileLegacy Profile = "legacy"
)

var profileVersions = map[Profile]BackendVersion{
	ProfileModern: Version(8, 4, 0),
	ProfileNPN:    Version(7, 68, 0),
	ProfileLegacy: Version(7, 19, 0),
}

// Version returns the backend version a profile stands for.
func (p Profile) Version() BackendVersion {
	return profileVersions[p]
}

// versionRange is the half-open interval [since, until). A zero bound is
// open.
type versionRange struct {
	since BackendVersion
	until BackendVersion
}

func (r versionRange) contains(v BackendVersion) bool {
	if r.since != 0 && v < r.since {
		return false
	}
	if r.until != 0 && v >= r.until {
		return false
	}
	return true
}

// gates lists the kinds whose availability depends on the backend version.
// Kinds not listed are available everywhere.
var gates = map[Kind]versionRange{
	KindALPN:           {since: Version(7, 36, 0)},
	KindNPN:            {since: Version(7, 36, 0), until: Version(7, 86, 0)},
	KindMinSSL2:        {until: Version(7, 19, 1)},
	KindMinSSL3:        {until: Version(7, 39, 1)},
	KindMinTLS10:       {since: Version(7, 34, 0)},
	KindMinTLS11:       {since: Version(7, 34, 0)},
	KindMinTLS12:       {since: Version(7, 34, 0)},
	KindMinTLS13:       {since: Version(7, 52, 0)},
	KindMaxTLSDefault:  {since: Version(7, 54, 0)},
	KindMaxTLS10:       {since: Version(7, 54, 0)},
	KindMaxTLS11:       {since: Version(7, 54, 0)},
	KindMaxTLS12:       {since: Version(7, 54, 0)},
	KindMaxTLS13:       {since: Version(7, 54, 0)},
	KindTLS13Ciphers:   {since: Version(7, 61, 0)},
	KindSessionIDCache: {since: Version(7, 16, 0)},
	KindFastStart:      {since: Version(7, 42, 0)},
	KindNoRevoke:       {since: Version(7, 44, 0)},
	KindKeyBlob:        {since: Version(7, 71, 0)},
	KindCABuffer:       {since: Version(7, 11, 0)},
}

// Gated reports whether a kind's availability depends on the backend.
func Gated(k Kind) bool {
	_, ok := gates[k]
	return ok
}

// Capabilities is the set of option kinds legal for one backend version.
// Values are immutable once built.
type Capabilities struct {
	Profile Profile
	Version BackendVersion
	enabled map[Kind]bool
}

// CapabilitiesFor computes the capability table of a backend version. It is
// a pure function; Current applies it to the compiled profile.
func CapabilitiesFor(v BackendVersion) Capabilities {
	enabled := make(map[Kind]bool, len(kindNames))
	for _, k := range AllKinds() {
		r, gated := gates[k]
		enabled[k] = !gated || r.contains(v)
	}
	return Capabilities{Version: v, enabled: enabled}
}

// Supports reports whether kind k is legal.
func (c Capabilities) Supports(k Kind) bool {
	return c.enabled[k]
}

// Kinds returns the supported kinds in declaration order.
func (c Capabilities) Kinds() []Kind {
	return c.filter(true)
}

// Unsupported returns the kinds this backend lacks, in declaration order.
func (c Capabilities) Unsupported() []Kind {
	return c.filter(false)
}

func (c Capabilities) filter(want bool) []Kind {
	var kinds []Kind
	for _, k := range AllKinds() {
		if c.enabled[k] == want {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// Table maps kind names to their availability, for display.
func (c Capabilities) Table() map[string]bool {
	table := make(map[string]bool, len(c.enabled))
	for k, on := range c.enabled {
		table[k.String()] = on
	}
	return table
}

var (
	currentOnce sync.Once
	current     Capabilities
)

// Current returns the capability table of the running build. It is
// computed once per process.
func Current() Capabilities {
	currentOnce.Do(func() {
		current = CapabilitiesFor(buildProfile.Version())
		current.Profile = buildProfile
	})
	return current
}
