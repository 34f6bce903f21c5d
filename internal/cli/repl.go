package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isUnlocked() bool
	Unlock(ctx context.Context) error
	Lock(ctx context.Context) error
	List(ctx context.Context) error
	Codes(ctx context.Context) error
	Watch(ctx context.Context) error
	Next(ctx context.Context) error
	Verify(ctx context.Context) error
	Add(ctx context.Context) error
	AddManual(ctx context.Context) error
	Remove(ctx context.Context) error
	Export(ctx context.Context) error
}

// runREPL starts a simple read–eval–print loop for the otpkeeper CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Locked:
//	  - help           — show available commands
//	  - unlock         — authenticate and open a session
//	  - exit | quit    — leave the program
//
//	Unlocked:
//	  - help           — show available commands
//	  - list           — list enrolled accounts
//	  - codes          — show current codes once
//	  - watch          — live code view, Enter to stop
//	  - next           — advance an HOTP counter and show the code
//	  - verify         — check a code from another device (TOTP self-test)
//	  - add            — enroll from an otpauth:// URI
//	  - addmanual      — enroll from individual fields
//	  - rm             — remove an account
//	  - export         — print an account as an otpauth:// URI
//	  - lock           — end the session
//	  - exit | quit    — leave the program
//
// Any errors returned by command handlers are ignored here; handlers should
// log their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("otpk %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			if a.isUnlocked() {
				printlnFn("Available commands: (l)ist, codes, watch, next, verify, add, addmanual, rm, export, lock, exit")
			} else {
				printlnFn("Available commands: unlock, exit")
			}

		case "unlock":
			_ = a.Unlock(ctx)

		case "lock":
			_ = a.Lock(ctx)

		case "l", "list":
			_ = a.List(ctx)

		case "codes":
			_ = a.Codes(ctx)

		case "watch":
			_ = a.Watch(ctx)

		case "next":
			_ = a.Next(ctx)

		case "verify":
			_ = a.Verify(ctx)

		case "add":
			_ = a.Add(ctx)

		case "addmanual":
			_ = a.AddManual(ctx)

		case "rm":
			_ = a.Remove(ctx)

		case "export":
			_ = a.Export(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
