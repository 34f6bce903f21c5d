// Package gate implements the session-scoped authorization gate in front of
// the vault. Every vault operation presents a token issued here; no code
// derivation or secret export happens without one.
package gate

import "context"

// Outcome is the result of one authentication attempt.
type Outcome int

const (
	// OutcomeFailure means the capability ran and rejected the user.
	OutcomeFailure Outcome = iota
	// OutcomeSuccess means the user proved presence/knowledge.
	OutcomeSuccess
	// OutcomeCancelled means the user dismissed the prompt. Not a failure:
	// it does not count toward the lockout threshold.
	OutcomeCancelled
)

// Authenticator is the narrow capability interface over the platform
// biometric or device-credential check. The gate treats it as an opaque
// yes/no oracle plus a cancellation signal.
//
// Authenticate may block for an unbounded, user-controlled duration and must
// honor ctx cancellation.
type Authenticator interface {
	Authenticate(ctx context.Context) (Outcome, error)
}

// AuthenticatorFunc adapts a plain function to the Authenticator interface.
type AuthenticatorFunc func(ctx context.Context) (Outcome, error)

func (f AuthenticatorFunc) Authenticate(ctx context.Context) (Outcome, error) {
	return f(ctx)
}
