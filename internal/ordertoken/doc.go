// Package ordertoken mints and verifies order tokens: signed, expiring
// credentials binding a cart id to a session identifier.
//
// Wire format:
//
//	base64url(json payload) "." hex(hmac_sha256(key, base64url payload))
//
// The MAC covers the encoded payload exactly as transmitted, and is
// checked before any payload field is decoded. The price is not part
// of the payload; callers recompute totals after verification.
//
// Expiry is inclusive: a token is accepted while now <= exp (epoch
// seconds) and rejected once now > exp.
package ordertoken
