//go:build !sslbackend_legacy && !sslbackend_npn

package ssl

const buildProfile = ProfileModern
