package cli

import (
	"context"
	"os"

	"github.com/mkarev/otpkeeper/internal/common"
	"github.com/mkarev/otpkeeper/internal/models"
	"github.com/mkarev/otpkeeper/internal/otp"
)

// Verify checks a code the user reads from another device against a TOTP
// account, accepting the configured clock-drift window. Useful as a
// self-test right after enrolling.
func (a *App) Verify(ctx context.Context) error {
	if !a.isUnlocked() {
		printlnFn("Unlock first.")
		return common.ErrNotAuthorized
	}

	id, err := getSimpleText(a.reader, "Enter account id", os.Stdout)
	if err != nil {
		return err
	}

	code, err := getSimpleText(a.reader, "Enter the code to check", os.Stdout)
	if err != nil {
		return err
	}

	handle, err := a.store.Unlock(ctx, a.token)
	if err != nil {
		printlnFn("Error:", err.Error())
		return err
	}

	accounts, err := handle.List(ctx)
	if err != nil {
		printlnFn("Error:", err.Error())
		return err
	}
	defer func() {
		for i := range accounts {
			common.WipeByteArray(accounts[i].Secret)
		}
	}()

	for _, acc := range accounts {
		if acc.ID != id {
			continue
		}
		if acc.Type != models.TypeTOTP {
			printlnFn("Only TOTP accounts can be verified against the clock.")
			return nil
		}
		ok, err := otp.ValidateTOTP(acc.Secret, code, a.clock.Now().Unix(),
			acc.Period, acc.Digits, acc.Algorithm, a.config.TOTPDrift)
		if err != nil {
			printlnFn("Error:", err.Error())
			return err
		}
		if ok {
			printlnFn("Code matches.")
		} else {
			printlnFn("Code does not match.")
		}
		return nil
	}

	printlnFn("Error:", common.ErrNotFound.Error())
	return common.ErrNotFound
}
