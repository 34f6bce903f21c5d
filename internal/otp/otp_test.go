package otp

import (
	"fmt"
	"testing"
	"time"

	potp "github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarev/otpkeeper/internal/models"
	"github.com/mkarev/otpkeeper/internal/otpauth"
)

// RFC 4226 Appendix D reference secret and codes.
var (
	rfc4226Secret = []byte("12345678901234567890")
	rfc4226Codes  = []string{
		"755224", "287082", "359152", "969429", "338314",
		"254676", "287922", "162583", "399871", "520489",
	}
)

func TestHOTP_RFC4226Vectors(t *testing.T) {
	for counter, want := range rfc4226Codes {
		got, err := HOTP(rfc4226Secret, uint64(counter), 6, models.AlgorithmSHA1)
		require.NoError(t, err)
		assert.Equal(t, want, got, "counter %d", counter)
	}
}

// RFC 6238 Appendix B secrets are the ASCII digits repeated to the hash
// block-appropriate lengths: 20 bytes for SHA1, 32 for SHA256, 64 for SHA512.
var rfc6238Secrets = map[models.Algorithm][]byte{
	models.AlgorithmSHA1:   []byte("12345678901234567890"),
	models.AlgorithmSHA256: []byte("12345678901234567890123456789012"),
	models.AlgorithmSHA512: []byte("1234567890123456789012345678901234567890123456789012345678901234"),
}

func TestTOTP_RFC6238Vectors(t *testing.T) {
	tests := []struct {
		timestamp int64
		codes     map[models.Algorithm]string
	}{
		{59, map[models.Algorithm]string{
			models.AlgorithmSHA1:   "94287082",
			models.AlgorithmSHA256: "46119246",
			models.AlgorithmSHA512: "90693936",
		}},
		{1111111109, map[models.Algorithm]string{
			models.AlgorithmSHA1:   "07081804",
			models.AlgorithmSHA256: "68084774",
			models.AlgorithmSHA512: "25091201",
		}},
		{1111111111, map[models.Algorithm]string{
			models.AlgorithmSHA1:   "14050471",
			models.AlgorithmSHA256: "67062674",
			models.AlgorithmSHA512: "99943326",
		}},
		{1234567890, map[models.Algorithm]string{
			models.AlgorithmSHA1:   "89005924",
			models.AlgorithmSHA256: "91819424",
			models.AlgorithmSHA512: "93441116",
		}},
		{2000000000, map[models.Algorithm]string{
			models.AlgorithmSHA1:   "69279037",
			models.AlgorithmSHA256: "90698825",
			models.AlgorithmSHA512: "38618901",
		}},
		{20000000000, map[models.Algorithm]string{
			models.AlgorithmSHA1:   "65353130",
			models.AlgorithmSHA256: "77737706",
			models.AlgorithmSHA512: "47863826",
		}},
	}

	for _, tt := range tests {
		for alg, want := range tt.codes {
			t.Run(fmt.Sprintf("%s/%d", alg, tt.timestamp), func(t *testing.T) {
				got, err := TOTP(rfc6238Secrets[alg], tt.timestamp, 30, 8, alg)
				require.NoError(t, err)
				assert.Equal(t, want, got)
			})
		}
	}
}

// Cross-check the engine against an independent implementation across digit
// counts, algorithms and counters.
func TestHOTP_CrossCheck(t *testing.T) {
	secretB32 := otpauth.EncodeSecret(rfc4226Secret)

	algs := map[models.Algorithm]potp.Algorithm{
		models.AlgorithmSHA1:   potp.AlgorithmSHA1,
		models.AlgorithmSHA256: potp.AlgorithmSHA256,
		models.AlgorithmSHA512: potp.AlgorithmSHA512,
	}

	for alg, palg := range algs {
		for _, digits := range []int{6, 7, 8} {
			for counter := uint64(0); counter < 20; counter++ {
				want, err := hotp.GenerateCodeCustom(secretB32, counter, hotp.ValidateOpts{
					Digits:    potp.Digits(digits),
					Algorithm: palg,
				})
				require.NoError(t, err)

				got, err := HOTP(rfc4226Secret, counter, digits, alg)
				require.NoError(t, err)
				assert.Equal(t, want, got, "%s digits=%d counter=%d", alg, digits, counter)
			}
		}
	}
}

func TestHOTP_InvalidInputs(t *testing.T) {
	_, err := HOTP(rfc4226Secret, 0, 5, models.AlgorithmSHA1)
	assert.ErrorIs(t, err, models.ErrInvalidDigits)

	_, err = HOTP(rfc4226Secret, 0, 6, "MD5")
	assert.ErrorIs(t, err, models.ErrInvalidAlgorithm)

	_, err = TOTP(rfc4226Secret, 59, 0, 6, models.AlgorithmSHA1)
	assert.ErrorIs(t, err, models.ErrInvalidPeriod)
}

func TestSecondsRemaining(t *testing.T) {
	assert.Equal(t, uint(1), SecondsRemaining(59, 30))
	assert.Equal(t, uint(30), SecondsRemaining(60, 30))
	assert.Equal(t, uint(29), SecondsRemaining(61, 30))
}

func TestValidateTOTP_DriftWindow(t *testing.T) {
	secret := rfc6238Secrets[models.AlgorithmSHA1]
	const ts = int64(1111111111)

	current, err := TOTP(secret, ts, 30, 8, models.AlgorithmSHA1)
	require.NoError(t, err)
	previous, err := TOTP(secret, ts-30, 30, 8, models.AlgorithmSHA1)
	require.NoError(t, err)
	next, err := TOTP(secret, ts+30, 30, 8, models.AlgorithmSHA1)
	require.NoError(t, err)
	farPast, err := TOTP(secret, ts-90, 30, 8, models.AlgorithmSHA1)
	require.NoError(t, err)

	for code, want := range map[string]bool{
		current:    true,
		previous:   true,
		next:       true,
		farPast:    false,
		"00000000": false,
	} {
		ok, err := ValidateTOTP(secret, code, ts, 30, 8, models.AlgorithmSHA1, DefaultDrift)
		require.NoError(t, err)
		assert.Equal(t, want, ok, "code %s", code)
	}
}

func TestValidateTOTP_ZeroTimestampDoesNotUnderflow(t *testing.T) {
	secret := rfc4226Secret
	code, err := TOTP(secret, 0, 30, 6, models.AlgorithmSHA1)
	require.NoError(t, err)

	ok, err := ValidateTOTP(secret, code, 0, 30, 6, models.AlgorithmSHA1, DefaultDrift)
	require.NoError(t, err)
	assert.True(t, ok)
}

// Guard against accidental dependence on real time anywhere in the engine.
func TestTOTP_IndependentOfWallClock(t *testing.T) {
	before, err := TOTP(rfc4226Secret, 59, 30, 6, models.AlgorithmSHA1)
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	after, err := TOTP(rfc4226Secret, 59, 30, 6, models.AlgorithmSHA1)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}
