package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"

	"github.com/mkarev/otpkeeper/internal/common"
	"github.com/mkarev/otpkeeper/internal/gate"
	"github.com/mkarev/otpkeeper/internal/keystore"
	"github.com/mkarev/otpkeeper/internal/session"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// authenticate is the credential check the gate runs on every unlock
// attempt. It prompts for the device passphrase and verifies it against the
// keystore.
//
// Outcome mapping: a wrong passphrase is a failure (it counts toward the
// lockout threshold), dismissing the prompt with EOF (Ctrl-D) or cancelling
// the context is a cancellation, and everything else surfaces as an error.
func (a *App) authenticate(ctx context.Context) (gate.Outcome, error) {
	cred, err := getPassword("Enter passphrase: ", os.Stdout)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return gate.OutcomeCancelled, nil
		}
		return gate.OutcomeFailure, err
	}
	defer common.WipeByteArray(cred)

	if err := ctx.Err(); err != nil {
		return gate.OutcomeCancelled, nil
	}

	if err := a.keys.Unlock(cred); err != nil {
		if errors.Is(err, keystore.ErrBadCredential) {
			return gate.OutcomeFailure, nil
		}
		return gate.OutcomeFailure, err
	}
	return gate.OutcomeSuccess, nil
}

// initKeystore runs the first-launch provisioning flow: pick a passphrase,
// confirm it, and generate the vault key under it.
func (a *App) initKeystore() error {
	printlnFn("No keystore found, creating one.")

	pw1, err := getPassword("Choose a passphrase: ", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw1)

	pw2, err := getPassword("Repeat the passphrase: ", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw2)

	if !bytes.Equal(pw1, pw2) {
		printlnFn("Passphrases do not match.")
		return keystore.ErrBadCredential
	}

	if err := a.keys.Init(pw1); err != nil {
		printlnFn("Error:", err.Error())
		return err
	}
	printlnFn("Keystore created.")
	return nil
}

// Unlock authenticates the user and opens a code session.
func (a *App) Unlock(ctx context.Context) error {
	if a.isUnlocked() {
		printlnFn("Already unlocked.")
		return nil
	}

	if !a.keys.Initialized() {
		if err := a.initKeystore(); err != nil {
			return err
		}
	}

	token, err := a.gate.RequestUnlock(ctx)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrLockedOut):
			printlnFn("Too many failed attempts, try again later.")
		case errors.Is(err, common.ErrCancelled):
			printlnFn("Cancelled.")
		default:
			printlnFn("Unlock failed:", err.Error())
		}
		return err
	}

	sess, err := session.Start(ctx, a.store, a.gate, a.clock, a.log, token)
	if err != nil {
		printlnFn("Error:", err.Error())
		a.gate.Lock()
		return err
	}

	a.token = token
	a.session = sess
	printlnFn("Unlocked.")
	return nil
}

// Lock ends the session: outstanding tokens stop verifying and the cached
// key material is dropped.
func (a *App) Lock(ctx context.Context) error {
	if a.session != nil {
		a.session.Close()
		a.session = nil
	}
	a.gate.Lock()
	a.keys.Forget()
	a.token = ""
	printlnFn("Locked.")
	return nil
}
