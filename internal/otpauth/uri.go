package otpauth

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/mkarev/otpkeeper/internal/common"
	"github.com/mkarev/otpkeeper/internal/models"
)

// Scheme is the URI scheme shared by all OTP enrollment payloads.
const Scheme = "otpauth"

// ParseURI decodes an otpauth:// enrollment URI into an Account.
//
// Required: the secret parameter. Optional with defaults: algorithm (SHA1),
// digits (6), period (30 s, TOTP) and counter (0, HOTP). Unknown query
// parameters are ignored; unknown algorithm or type values are rejected, not
// silently defaulted. The returned account carries no ID — the enrollment
// layer assigns one when the account enters the vault.
func ParseURI(raw string) (*models.Account, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMalformedURI, err)
	}
	if u.Scheme != Scheme {
		return nil, fmt.Errorf("%w: scheme %q, want %q", common.ErrMalformedURI, u.Scheme, Scheme)
	}

	acc := &models.Account{
		Algorithm: models.AlgorithmSHA1,
		Digits:    models.DefaultDigits,
	}

	switch strings.ToLower(u.Host) {
	case string(models.TypeTOTP):
		acc.Type = models.TypeTOTP
		acc.Period = models.DefaultPeriod
	case string(models.TypeHOTP):
		acc.Type = models.TypeHOTP
	default:
		return nil, fmt.Errorf("%w: unknown type %q", common.ErrMalformedURI, u.Host)
	}

	acc.Issuer, acc.Label = splitLabel(u.Path)

	q := u.Query()

	secret := q.Get("secret")
	if secret == "" {
		return nil, fmt.Errorf("%w: missing secret parameter", common.ErrMalformedURI)
	}
	if acc.Secret, err = DecodeSecret(secret); err != nil {
		return nil, err
	}

	if v := q.Get("issuer"); v != "" {
		acc.Issuer = v
	}

	if v := q.Get("algorithm"); v != "" {
		switch strings.ToUpper(v) {
		case string(models.AlgorithmSHA1):
			acc.Algorithm = models.AlgorithmSHA1
		case string(models.AlgorithmSHA256):
			acc.Algorithm = models.AlgorithmSHA256
		case string(models.AlgorithmSHA512):
			acc.Algorithm = models.AlgorithmSHA512
		default:
			return nil, fmt.Errorf("%w: unknown algorithm %q", common.ErrMalformedURI, v)
		}
	}

	if v := q.Get("digits"); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%w: digits %q is not a number", common.ErrMalformedURI, v)
		}
		acc.Digits = d
	}

	if v := q.Get("period"); v != "" {
		p, err := strconv.ParseUint(v, 10, 32)
		if err != nil || p == 0 {
			return nil, fmt.Errorf("%w: invalid period %q", common.ErrMalformedURI, v)
		}
		acc.Period = uint(p)
	}

	if v := q.Get("counter"); v != "" {
		c, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid counter %q", common.ErrMalformedURI, v)
		}
		acc.Counter = c
	}

	if err := acc.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMalformedURI, err)
	}
	return acc, nil
}

// FormatURI is the inverse of ParseURI. The secret is Base32 re-encoded from
// the stored bytes; all derivation parameters are emitted explicitly so that
// ParseURI(FormatURI(a)) reproduces a field-for-field (the HOTP counter is
// exported as it stands at call time).
func FormatURI(a *models.Account) string {
	label := a.Label
	if a.Issuer != "" {
		label = a.Issuer + ":" + a.Label
	}

	q := url.Values{}
	q.Set("secret", EncodeSecret(a.Secret))
	if a.Issuer != "" {
		q.Set("issuer", a.Issuer)
	}
	q.Set("algorithm", string(a.Algorithm))
	q.Set("digits", strconv.Itoa(a.Digits))
	switch a.Type {
	case models.TypeTOTP:
		q.Set("period", strconv.FormatUint(uint64(a.Period), 10))
	case models.TypeHOTP:
		q.Set("counter", strconv.FormatUint(a.Counter, 10))
	}

	u := url.URL{
		Scheme:   Scheme,
		Host:     string(a.Type),
		Path:     "/" + label,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// splitLabel breaks the URI path into issuer and label. The conventional form
// is "/Issuer:account", with a bare "/account" carrying no issuer.
func splitLabel(path string) (issuer, label string) {
	label = strings.TrimPrefix(path, "/")
	if i := strings.Index(label, ":"); i >= 0 {
		issuer = strings.TrimSpace(label[:i])
		label = strings.TrimSpace(label[i+1:])
	}
	return issuer, label
}
