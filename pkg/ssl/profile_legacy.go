//go:build sslbackend_legacy

package ssl

const buildProfile = ProfileLegacy
