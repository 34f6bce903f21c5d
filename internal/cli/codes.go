package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/mkarev/otpkeeper/internal/common"
	"github.com/mkarev/otpkeeper/internal/models"
	"github.com/mkarev/otpkeeper/internal/session"
)

func formatView(v session.CodeView) string {
	name := v.Label
	if v.Issuer != "" {
		name = v.Issuer + ":" + v.Label
	}
	if v.Locked {
		return fmt.Sprintf("%-30s  ------", name)
	}
	if v.Type == models.TypeHOTP {
		code := v.Code
		if code == "" {
			code = "(run 'next')"
		}
		return fmt.Sprintf("%-30s  %s  counter=%d", name, code, v.Counter)
	}
	return fmt.Sprintf("%-30s  %s  %2ds left", name, v.Code, v.SecondsRemaining)
}

// Codes renders the current code for every account once.
func (a *App) Codes(ctx context.Context) error {
	if !a.isUnlocked() {
		printlnFn("Unlock first.")
		return common.ErrNotAuthorized
	}

	if err := a.session.Refresh(ctx); err != nil {
		printlnFn("Error:", err.Error())
		return err
	}

	for _, v := range a.session.Views() {
		printlnFn(formatView(v))
	}
	return nil
}

// Watch re-renders the code list every tick until the user presses Enter.
func (a *App) Watch(ctx context.Context) error {
	if !a.isUnlocked() {
		printlnFn("Unlock first.")
		return common.ErrNotAuthorized
	}

	printlnFn("Press Enter to stop.")

	wctx, cancel := context.WithCancel(ctx)
	go func() {
		defer cancel()
		_, _ = a.reader.ReadString('\n')
	}()

	a.session.Run(wctx, a.config.TickInterval, func(views []session.CodeView) {
		for _, v := range views {
			printlnFn(formatView(v))
		}
	})
	return nil
}

// Next advances the counter of an HOTP account and shows the resulting code.
// The counter is persisted before the code is displayed.
func (a *App) Next(ctx context.Context) error {
	if !a.isUnlocked() {
		printlnFn("Unlock first.")
		return common.ErrNotAuthorized
	}

	id, err := getSimpleText(a.reader, "Enter account id", os.Stdout)
	if err != nil {
		return err
	}

	view, err := a.session.NextHOTP(ctx, id)
	if err != nil {
		printlnFn("Error:", err.Error())
		return err
	}

	printlnFn(formatView(view))
	return nil
}
