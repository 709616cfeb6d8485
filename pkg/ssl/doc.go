// Package ssl folds typed TLS option values into one canonical client
// configuration record.
//
// Options are applied in call-site order onto a record that starts from
// documented defaults:
//
//	cfg := ssl.Build(
//		ssl.Cert("client.pem"),
//		ssl.KeyWithPassword("client.key", securestring.New("pw")),
//		ssl.VerifyPeer(false),
//	)
//
// Applying two options of the same kind never fails; the later one wins.
//
// Which option kinds exist depends on the SSL backend profile selected at
// build time (see Profile). Kinds the profile does not support are not
// compiled in, so using one is a build error rather than a runtime error.
// Current reports the capability table of the running build.
package ssl
