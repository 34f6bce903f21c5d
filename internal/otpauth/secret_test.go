package otpauth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarev/otpkeeper/internal/common"
)

func TestDecodeSecret(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []byte
		wantErr bool
	}{
		{
			name:  "canonical upper case",
			input: "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ",
			want:  []byte("12345678901234567890"),
		},
		{
			name:  "lower case accepted",
			input: "gezdgnbvgy3tqojqgezdgnbvgy3tqojq",
			want:  []byte("12345678901234567890"),
		},
		{
			name:  "padding tolerated",
			input: "JBSWY3DPEHPK3PXP========",
			want:  []byte{0x48, 0x65, 0x6c, 0x6c, 0x6f, 0x21, 0xde, 0xad, 0xbe, 0xef},
		},
		{
			name:  "inner whitespace tolerated",
			input: "JBSW Y3DP EHPK 3PXP",
			want:  []byte{0x48, 0x65, 0x6c, 0x6c, 0x6f, 0x21, 0xde, 0xad, 0xbe, 0xef},
		},
		{
			name:    "character outside alphabet",
			input:   "JBSWY3DPEHPK3PX1", // '1' is not in the base32 alphabet
			wantErr: true,
		},
		{
			name:    "decoded shorter than 10 bytes",
			input:   "JBSWY3DPEE", // "Hello!" = 6 bytes
			wantErr: true,
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeSecret(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, common.ErrMalformedSecret)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeSecret_RoundTrip(t *testing.T) {
	secret := []byte("12345678901234567890")
	encoded := EncodeSecret(secret)
	assert.Equal(t, "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ", encoded)

	decoded, err := DecodeSecret(encoded)
	require.NoError(t, err)
	assert.Equal(t, secret, decoded)
}
