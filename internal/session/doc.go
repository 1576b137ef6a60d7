// Package session manages tool-session tokens.
//
// # Overview
//
// A session is issued by the admin plane for one client group, carries an
// optional allowed-tools set, and is presented by callers as a bearer token
// on every RPC. The manager keeps no process-local state: records live in
// the shared store, so any server instance can validate or revoke a token
// issued by another.
//
// # Tokens
//
// Tokens are 32 bytes from crypto/rand, base64url encoded. The store never
// holds the token itself; records are keyed by its SHA-256 digest, so a
// leaked store dump yields no usable credentials. A token is shown once at
// issuance and cannot be recovered afterwards.
//
// # Lifetime
//
// The TTL is an idle timeout: every successful Validate refreshes the
// record's expiry, so an active session stays alive indefinitely while an
// abandoned one lapses on its own. Revoke deletes the record immediately and
// is idempotent.
//
// Validate distinguishes "no such session" (nil, nil) from store failures
// (nil, err) so transport handlers can map them to different responses.
package session
