// Package keystore models the platform secure key storage capability: a
// vault key held under hardware-backed protection in production, released
// only while a fresh user authorization is in effect.
//
// The file-backed implementation here is the stand-in used by the CLI build:
// the vault key is wrapped under a KEK derived from the device credential and
// is unwrapped only after the authorization gate verifies the caller's
// session token.
package keystore

import "context"

// TokenVerifier is satisfied by gate.Gate. The keystore never inspects
// tokens itself.
type TokenVerifier interface {
	Verify(token string) error
}

// KeyStore releases the vault encryption key under a valid authorization.
type KeyStore interface {
	// ReleaseKey returns a copy of the vault key. It fails with
	// common.ErrNotAuthorized when the token does not verify against the
	// current session.
	ReleaseKey(ctx context.Context, token string) ([]byte, error)
}
