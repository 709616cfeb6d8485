//go:build sslbackend_npn && !sslbackend_legacy

package ssl

const buildProfile = ProfileNPN
