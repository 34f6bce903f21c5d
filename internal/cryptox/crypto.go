// Package cryptox holds the cryptographic primitives behind the vault
// envelope and the keystore: argon2id key derivation and versioned
// AES-256-GCM sealing.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"

	"github.com/mkarev/otpkeeper/internal/common"
)

// Sealed blob format (binary):
//
//	[0]     version byte (currently 1)
//	[1..12] 12-byte nonce
//	[13..]  gcm.Seal output (ciphertext + tag)
const sealVersion byte = 1

const (
	gcmNonceSize = 12

	// KeyLen is the AES-256 key length used throughout.
	KeyLen = 32
)

var (
	ErrInvalidKeyLength   = errors.New("cryptox: invalid key length")
	ErrCiphertextTooShort = errors.New("cryptox: ciphertext too short")
	ErrUnsupportedVersion = errors.New("cryptox: unsupported blob version")
	ErrDecryptFailed      = errors.New("cryptox: decrypt failed")
)

// DeriveKey stretches a low-entropy credential into a 32-byte key with
// argon2id. Same parameters for every caller, so a (credential, salt) pair
// always derives the same key.
func DeriveKey(credential, salt []byte) []byte {
	return argon2.IDKey(credential, salt, 1, 64*1024, 4, KeyLen)
}

// MakeVerifier returns a value safe to persist for checking that a derived
// key is correct without storing the key itself.
func MakeVerifier(key []byte) []byte {
	hash := sha256.Sum256(key)
	return hash[:]
}

// Seal encrypts plaintext with AES-256-GCM under key, binding aad as
// additional authenticated data, and frames the result with a version byte
// and the random nonce.
func Seal(plaintext, key, aad []byte) ([]byte, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := common.GenerateRandByteArray(gcmNonceSize)
	sealed := aesgcm.Seal(nil, nonce, plaintext, aad)

	out := make([]byte, 0, 1+gcmNonceSize+len(sealed))
	out = append(out, sealVersion)
	out = append(out, nonce...)
	out = append(out, sealed...)
	return out, nil
}

// Open reverses Seal. Any integrity failure, including a wrong key, tampered
// ciphertext or mismatched aad, yields ErrDecryptFailed without detail, so
// callers cannot distinguish tampering from a bad key.
func Open(blob, key, aad []byte) ([]byte, error) {
	if len(blob) < 1+gcmNonceSize+1 {
		return nil, ErrCiphertextTooShort
	}
	if blob[0] != sealVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, blob[0])
	}

	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := blob[1 : 1+gcmNonceSize]
	sealed := blob[1+gcmNonceSize:]

	plaintext, err := aesgcm.Open(nil, nonce, sealed, aad)
	if err != nil {
		return nil, ErrDecryptFailed
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeyLen {
		return nil, fmt.Errorf("%w: %d, want %d", ErrInvalidKeyLength, len(key), KeyLen)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
