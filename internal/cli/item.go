package cli

import (
	"context"
	"os"

	"github.com/mkarev/otpkeeper/internal/common"
)

// Remove deletes an account from the vault.
func (a *App) Remove(ctx context.Context) error {
	if !a.isUnlocked() {
		printlnFn("Unlock first.")
		return common.ErrNotAuthorized
	}

	id, err := getSimpleText(a.reader, "Enter account id to remove", os.Stdout)
	if err != nil {
		return err
	}

	if err := a.enroll.Remove(ctx, id, a.token); err != nil {
		printlnFn("Error:", err.Error())
		return err
	}

	_ = a.session.Refresh(ctx)
	printlnFn("Removed", id)
	return nil
}

// Export prints an account back in otpauth:// form, suitable for re-import
// elsewhere. The URI contains the shared secret; it is shown once and not
// logged.
func (a *App) Export(ctx context.Context) error {
	if !a.isUnlocked() {
		printlnFn("Unlock first.")
		return common.ErrNotAuthorized
	}

	id, err := getSimpleText(a.reader, "Enter account id to export", os.Stdout)
	if err != nil {
		return err
	}

	uri, err := a.enroll.ExportURI(ctx, id, a.token)
	if err != nil {
		printlnFn("Error:", err.Error())
		return err
	}

	printlnFn(uri)
	return nil
}
