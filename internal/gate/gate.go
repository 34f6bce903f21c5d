package gate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mkarev/otpkeeper/internal/clockx"
	"github.com/mkarev/otpkeeper/internal/common"
)

// State is the gate's position in its unlock lifecycle.
type State int

const (
	StateLocked State = iota
	StateAuthenticating
	StateUnlocked
)

// Default policy constants. Override per Gate via the Options struct.
const (
	DefaultSessionTimeout = 2 * time.Minute
	DefaultMaxAttempts    = 5
	DefaultCooldown       = 30 * time.Second
)

// Options tunes the gate's session policy. Zero values fall back to the
// package defaults.
type Options struct {
	SessionTimeout time.Duration
	MaxAttempts    int
	Cooldown       time.Duration
	Clock          clockx.Clocker
}

// Gate coordinates authentication attempts and issues short-lived session
// tokens. Tokens are HS256 JWTs signed with a random per-process key and
// carry the current session id; rotating the id (on Lock or on a new unlock)
// invalidates every outstanding token at once.
type Gate struct {
	auth           Authenticator
	sessionTimeout time.Duration
	maxAttempts    int
	cooldown       time.Duration
	clock          clockx.Clocker
	signingKey     []byte

	mu          sync.Mutex
	state       State
	sessionID   string
	expiry      time.Time
	failures    int
	lockedUntil time.Time
}

// New builds a Gate around the given authenticator capability.
func New(auth Authenticator, opts Options) *Gate {
	if opts.SessionTimeout <= 0 {
		opts.SessionTimeout = DefaultSessionTimeout
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.Cooldown <= 0 {
		opts.Cooldown = DefaultCooldown
	}
	if opts.Clock == nil {
		opts.Clock = clockx.New()
	}
	return &Gate{
		auth:           auth,
		sessionTimeout: opts.SessionTimeout,
		maxAttempts:    opts.MaxAttempts,
		cooldown:       opts.Cooldown,
		clock:          opts.Clock,
		signingKey:     common.GenerateRandByteArray(32),
		state:          StateLocked,
	}
}

type sessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// RequestUnlock runs one authentication attempt and, on success, returns a
// token valid until now + SessionTimeout.
//
// Outcomes map to the error taxonomy: user dismissal → common.ErrCancelled
// (the gate returns to Locked), a failed check counts toward the consecutive
// failure threshold, and once MaxAttempts is reached every call returns
// common.ErrLockedOut until the cooldown elapses. A success resets the
// failure count to zero.
func (g *Gate) RequestUnlock(ctx context.Context) (string, error) {
	g.mu.Lock()
	now := g.clock.Now()
	if now.Before(g.lockedUntil) {
		g.mu.Unlock()
		return "", fmt.Errorf("%w: retry after %s", common.ErrLockedOut, g.lockedUntil.Sub(now).Round(time.Second))
	}
	if !g.lockedUntil.IsZero() {
		// Cooldown elapsed: the slate is clean again.
		g.lockedUntil = time.Time{}
		g.failures = 0
	}
	g.state = StateAuthenticating
	g.mu.Unlock()

	// The capability may wait on the user indefinitely; the mutex is not
	// held across the call so Verify and Lock stay responsive.
	outcome, err := g.auth.Authenticate(ctx)

	g.mu.Lock()
	defer g.mu.Unlock()

	if err != nil {
		g.state = StateLocked
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", common.ErrCancelled
		}
		return "", fmt.Errorf("authenticate: %w", err)
	}

	switch outcome {
	case OutcomeCancelled:
		g.state = StateLocked
		return "", common.ErrCancelled

	case OutcomeFailure:
		g.state = StateLocked
		g.failures++
		if g.failures >= g.maxAttempts {
			g.lockedUntil = g.clock.Now().Add(g.cooldown)
			return "", common.ErrLockedOut
		}
		return "", common.ErrNotAuthorized

	case OutcomeSuccess:
		g.failures = 0
		g.state = StateUnlocked
		g.sessionID = uuid.NewString()
		g.expiry = g.clock.Now().Add(g.sessionTimeout)
		return g.issueToken()

	default:
		g.state = StateLocked
		return "", fmt.Errorf("authenticate: unknown outcome %d", outcome)
	}
}

func (g *Gate) issueToken() (string, error) {
	claims := sessionClaims{
		SessionID: g.sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(g.expiry),
			IssuedAt:  jwt.NewNumericDate(g.clock.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(g.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Verify checks that token belongs to the current unlocked session and has
// not expired. Expiry is evaluated against the gate's clock at call time;
// there is no background sweeper.
func (g *Gate) Verify(token string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != StateUnlocked {
		return common.ErrNotAuthorized
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(g.clock.Now),
		jwt.WithExpirationRequired(),
	)

	var claims sessionClaims
	_, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return g.signingKey, nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrNotAuthorized, err)
	}
	if claims.SessionID != g.sessionID {
		return common.ErrNotAuthorized
	}
	if !g.clock.Now().Before(g.expiry) {
		g.state = StateLocked
		return common.ErrNotAuthorized
	}
	return nil
}

// CheckToken is the boolean form of Verify.
func (g *Gate) CheckToken(token string) bool {
	return g.Verify(token) == nil
}

// Lock invalidates the current session immediately. Outstanding tokens stop
// verifying because the session id rotates.
func (g *Gate) Lock() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = StateLocked
	g.sessionID = ""
	g.expiry = time.Time{}
}

// State reports the current lifecycle position.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}
