// Package otp implements HOTP (RFC 4226) and TOTP (RFC 6238) code
// derivation.
//
// The functions here are pure: the caller supplies the secret and the moving
// factor (counter or timestamp), and no state or secret material is retained
// between calls. Time handling lives with the caller so the engine stays
// independently testable against the published RFC vectors.
package otp

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/binary"
	"fmt"
	"hash"

	"github.com/mkarev/otpkeeper/internal/models"
)

// DefaultDrift is the accepted clock-drift window, in steps, for TOTP
// validation when the caller does not configure one.
const DefaultDrift = 1

// pow10 holds 10^d for the supported digit counts, indexed by d.
var pow10 = [...]uint32{1, 10, 100, 1000, 10000, 100000, 1000000, 10000000, 100000000}

func hashFactory(alg models.Algorithm) (func() hash.Hash, error) {
	switch alg {
	case models.AlgorithmSHA1:
		return sha1.New, nil
	case models.AlgorithmSHA256:
		return sha256.New, nil
	case models.AlgorithmSHA512:
		return sha512.New, nil
	default:
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidAlgorithm, alg)
	}
}

// HOTP derives an RFC 4226 code from secret and counter.
//
// The 8-byte big-endian counter is HMAC'ed with the secret, dynamic
// truncation selects 4 bytes at the offset given by the low nibble of the
// last hash byte, the top bit is masked, and the value is reduced modulo
// 10^digits and left-padded with zeros.
func HOTP(secret []byte, counter uint64, digits int, alg models.Algorithm) (string, error) {
	if digits < 6 || digits > 8 {
		return "", models.ErrInvalidDigits
	}
	newHash, err := hashFactory(alg)
	if err != nil {
		return "", err
	}

	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], counter)

	mac := hmac.New(newHash, secret)
	mac.Write(msg[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	code := binary.BigEndian.Uint32(sum[offset:offset+4]) & 0x7fffffff

	return fmt.Sprintf("%0*d", digits, code%pow10[digits]), nil
}

// TOTP derives an RFC 6238 code for the given Unix timestamp. The moving
// factor is floor(timestamp / period); derivation then follows HOTP.
func TOTP(secret []byte, timestamp int64, period uint, digits int, alg models.Algorithm) (string, error) {
	if period == 0 {
		return "", models.ErrInvalidPeriod
	}
	return HOTP(secret, uint64(timestamp)/uint64(period), digits, alg)
}

// SecondsRemaining reports how long the code for the given timestamp stays
// current before the next step begins.
func SecondsRemaining(timestamp int64, period uint) uint {
	return period - uint(uint64(timestamp)%uint64(period))
}

// ValidateTOTP reports whether code matches any step within ±drift of the
// step containing timestamp. Comparison is constant-time per candidate. Used
// by import self-test flows; the display path never validates.
func ValidateTOTP(secret []byte, code string, timestamp int64, period uint, digits int, alg models.Algorithm, drift uint64) (bool, error) {
	if period == 0 {
		return false, models.ErrInvalidPeriod
	}
	counter := uint64(timestamp) / uint64(period)

	lo := uint64(0)
	if counter > drift {
		lo = counter - drift
	}
	match := false
	for c := lo; c <= counter+drift; c++ {
		candidate, err := HOTP(secret, c, digits, alg)
		if err != nil {
			return false, err
		}
		if subtle.ConstantTimeCompare([]byte(candidate), []byte(code)) == 1 {
			match = true
		}
	}
	return match, nil
}
