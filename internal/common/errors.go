// Package common defines shared constants and sentinel errors used across
// otpkeeper components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Codec errors (bad input, never retried).
	ErrMalformedSecret = errors.New("malformed secret")
	ErrMalformedURI    = errors.New("malformed otpauth uri")

	// Authorization gate outcomes. ErrCancelled and ErrNotAuthorized are
	// expected control flow, not failures; the caller may re-prompt.
	ErrNotAuthorized = errors.New("not authorized")
	ErrCancelled     = errors.New("authentication cancelled")
	ErrLockedOut     = errors.New("too many failed attempts, locked out")

	// Vault errors.
	ErrDecryptionFailed = errors.New("vault decryption failed")
	ErrStorageIO        = errors.New("vault storage i/o failure")
	ErrNotFound         = errors.New("not found")
)
