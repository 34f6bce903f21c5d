// Package otpauth implements the codec layer: Base32 secret material and the
// otpauth:// enrollment URI format understood by authenticator apps and
// provisioning servers.
package otpauth

import (
	"encoding/base32"
	"fmt"
	"strings"

	"github.com/mkarev/otpkeeper/internal/common"
	"github.com/mkarev/otpkeeper/internal/models"
)

// unpadded upper-case Base32 is the canonical on-the-wire form.
var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// DecodeSecret decodes Base32 secret text into raw key bytes.
//
// The decode is case-insensitive and tolerates padding and inner whitespace,
// since QR payloads and manual entry both produce sloppy input. It fails with
// common.ErrMalformedSecret when the text contains characters outside the
// Base32 alphabet or when the decoded secret is shorter than
// models.MinSecretLen bytes.
func DecodeSecret(text string) ([]byte, error) {
	cleaned := strings.ToUpper(strings.ReplaceAll(text, " ", ""))
	cleaned = strings.TrimRight(cleaned, "=")

	secret, err := b32.DecodeString(cleaned)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base32", common.ErrMalformedSecret)
	}
	if len(secret) < models.MinSecretLen {
		return nil, fmt.Errorf("%w: decoded secret is %d bytes, need at least %d",
			common.ErrMalformedSecret, len(secret), models.MinSecretLen)
	}
	return secret, nil
}

// EncodeSecret re-encodes raw key bytes as unpadded upper-case Base32.
func EncodeSecret(secret []byte) string {
	return b32.EncodeToString(secret)
}
