package cli

import (
	"context"
	"os"
	"strconv"
	"strings"

	"github.com/mkarev/otpkeeper/internal/common"
	"github.com/mkarev/otpkeeper/internal/enroll"
	"github.com/mkarev/otpkeeper/internal/models"
)

// Add enrolls an account from a pasted otpauth:// URI.
func (a *App) Add(ctx context.Context) error {
	if !a.isUnlocked() {
		printlnFn("Unlock first.")
		return common.ErrNotAuthorized
	}

	uri, err := getSimpleText(a.reader, "Enter otpauth:// URI", os.Stdout)
	if err != nil {
		return err
	}

	acc, err := a.enroll.AddFromURI(ctx, uri, a.token)
	if err != nil {
		printlnFn("Error:", err.Error())
		return err
	}

	_ = a.session.Refresh(ctx)
	printlnFn("Added", acc.ID)
	return nil
}

// AddManual enrolls an account from individually entered fields. Empty
// answers keep the defaults (TOTP, 6 digits, SHA-1, 30 second period).
func (a *App) AddManual(ctx context.Context) error {
	if !a.isUnlocked() {
		printlnFn("Unlock first.")
		return common.ErrNotAuthorized
	}

	f, err := a.addManualDetails()
	if err != nil {
		return err
	}

	acc, err := a.enroll.AddManually(ctx, *f, a.token)
	if err != nil {
		printlnFn("Error:", err.Error())
		return err
	}

	_ = a.session.Refresh(ctx)
	printlnFn("Added", acc.ID)
	return nil
}

func (a *App) addManualDetails() (*enroll.Fields, error) {
	label, err := getSimpleText(a.reader, "Enter label (account name)", os.Stdout)
	if err != nil {
		return nil, err
	}

	issuer, err := getSimpleText(a.reader, "Enter issuer (optional)", os.Stdout)
	if err != nil {
		return nil, err
	}

	secret, err := getSimpleText(a.reader, "Enter Base32 secret", os.Stdout)
	if err != nil {
		return nil, err
	}

	typ, err := getSimpleText(a.reader, "Enter type, totp or hotp (default totp)", os.Stdout)
	if err != nil {
		return nil, err
	}

	digits, err := getSimpleText(a.reader, "Enter digits, 6-8 (default 6)", os.Stdout)
	if err != nil {
		return nil, err
	}

	f := &enroll.Fields{
		Label:  label,
		Issuer: issuer,
		Secret: secret,
		Type:   models.Type(strings.ToLower(typ)),
	}

	if digits != "" {
		n, err := strconv.Atoi(digits)
		if err != nil {
			printlnFn("Error: digits must be a number")
			return nil, err
		}
		f.Digits = n
	}

	return f, nil
}
