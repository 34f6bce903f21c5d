package cli

import (
	"context"
	"fmt"

	"github.com/mkarev/otpkeeper/internal/common"
)

// List prints the enrolled accounts, one per line, without touching any
// secret material beyond reading the snapshot.
func (a *App) List(ctx context.Context) error {
	if !a.isUnlocked() {
		printlnFn("Unlock first.")
		return common.ErrNotAuthorized
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
		printlnFn(fmt.Sprintf("%s  %-5s  %s (%s)", acc.ID, acc.Type, acc.Label, acc.Issuer))
	}
	return nil
}
