// Package models defines the account record stored in the vault.
package models

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Algorithm selects the keyed-hash primitive used for code derivation.
type Algorithm string

const (
	AlgorithmSHA1   Algorithm = "SHA1"
	AlgorithmSHA256 Algorithm = "SHA256"
	AlgorithmSHA512 Algorithm = "SHA512"
)

// Type distinguishes time-based from counter-based accounts.
type Type string

const (
	TypeTOTP Type = "totp"
	TypeHOTP Type = "hotp"
)

const (
	// MinSecretLen is the minimum decoded secret length accepted at
	// enrollment. RFC 4226 §4 requires shared secrets of at least 80 bits.
	MinSecretLen = 10

	DefaultDigits = 6
	DefaultPeriod = 30
)

var (
	ErrInvalidDigits    = errors.New("digits must be 6, 7 or 8")
	ErrInvalidPeriod    = errors.New("period must be positive")
	ErrInvalidAlgorithm = errors.New("unknown algorithm")
	ErrInvalidType      = errors.New("unknown account type")
	ErrSecretTooShort   = fmt.Errorf("secret must be at least %d bytes", MinSecretLen)
)

// Account is a single enrolled OTP credential.
//
// Secret holds the raw key bytes decoded from Base32. It is never logged and
// never serialized in plaintext outside the encrypted vault envelope. Period
// is meaningful only for TOTP accounts, Counter only for HOTP accounts.
type Account struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	Issuer    string    `json:"issuer"`
	Secret    []byte    `json:"secret"`
	Algorithm Algorithm `json:"algorithm"`
	Digits    int       `json:"digits"`
	Type      Type      `json:"type"`
	Period    uint      `json:"period,omitempty"`
	Counter   uint64    `json:"counter,omitempty"`
}

// NewID returns a fresh opaque account identifier.
func NewID() string {
	return uuid.NewString()
}

// Validate checks the invariants an account must satisfy before it may enter
// the vault.
func (a *Account) Validate() error {
	if len(a.Secret) < MinSecretLen {
		return ErrSecretTooShort
	}
	if a.Digits < 6 || a.Digits > 8 {
		return ErrInvalidDigits
	}
	switch a.Algorithm {
	case AlgorithmSHA1, AlgorithmSHA256, AlgorithmSHA512:
	default:
		return ErrInvalidAlgorithm
	}
	switch a.Type {
	case TypeTOTP:
		if a.Period == 0 {
			return ErrInvalidPeriod
		}
	case TypeHOTP:
	default:
		return ErrInvalidType
	}
	return nil
}

// Clone returns a deep copy, including a fresh secret slice, so callers can
// wipe their copy without affecting the vault snapshot.
func (a Account) Clone() Account {
	c := a
	c.Secret = make([]byte, len(a.Secret))
	copy(c.Secret, a.Secret)
	return c
}
