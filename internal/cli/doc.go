// Package cli provides the interactive otpkeeper command-line client.
//
// It wires configuration, the encrypted vault, the authorization gate, and an
// interactive REPL. Typical flow: unlock with the device passphrase, then
// list accounts and read one-time codes.
//
// Key features:
//   - Unlock / Lock (passphrase check with lockout on repeated failures)
//   - Add accounts from otpauth:// URIs or manual entry
//   - List accounts, show current codes, live code view
//   - Advance HOTP counters on demand
//   - Verify codes from another device within the drift window
//   - Remove accounts and export them back to otpauth:// form
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App and runREPL for details.
package cli
