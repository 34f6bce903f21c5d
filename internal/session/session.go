// Package session drives code display for an unlocked vault. A periodic tick
// recomputes TOTP codes from an already-decrypted snapshot; the tick path
// never performs vault I/O and never triggers an authorization prompt — when
// the gate session has ended it short-circuits to a locked view.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mkarev/otpkeeper/internal/clockx"
	"github.com/mkarev/otpkeeper/internal/common"
	"github.com/mkarev/otpkeeper/internal/logging"
	"github.com/mkarev/otpkeeper/internal/models"
	"github.com/mkarev/otpkeeper/internal/otp"
	"github.com/mkarev/otpkeeper/internal/vault"
)

// TokenChecker is satisfied by gate.Gate.
type TokenChecker interface {
	CheckToken(token string) bool
}

// CodeView is what the presentation layer consumes per account per tick.
type CodeView struct {
	AccountID string
	Label     string
	Issuer    string
	Type      models.Type

	// Code is empty while Locked, and for HOTP accounts until NextHOTP
	// produces one.
	Code   string
	Locked bool

	// SecondsRemaining applies to TOTP views, Counter to HOTP views.
	SecondsRemaining uint
	Counter          uint64
}

// hotpDisplay caches the code shown for a persisted counter value, so a UI
// re-render does not advance the moving factor again.
type hotpDisplay struct {
	counter uint64
	code    string
}

// Session holds the decrypted snapshot for one unlocked gate session.
type Session struct {
	checker TokenChecker
	clock   clockx.Clocker
	log     logging.Logger
	token   string

	mu       sync.Mutex
	handle   *vault.Handle
	accounts []models.Account
	hotp     map[string]hotpDisplay
}

// Start unlocks the store and loads the account snapshot.
func Start(ctx context.Context, store *vault.Store, checker TokenChecker, clock clockx.Clocker, log logging.Logger, token string) (*Session, error) {
	handle, err := store.Unlock(ctx, token)
	if err != nil {
		return nil, err
	}
	s := &Session{
		checker: checker,
		clock:   clock,
		log:     log.With("component", "session"),
		token:   token,
		handle:  handle,
		hotp:    make(map[string]hotpDisplay),
	}
	if err := s.Refresh(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Refresh re-reads the snapshot from the vault. Call after enrollment
// changes; the tick path itself never does this.
func (s *Session) Refresh(ctx context.Context) error {
	accounts, err := s.handle.List(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.wipeLocked()
	s.accounts = accounts
	return nil
}

// Views computes the current per-account display state. Pure in-memory work:
// TOTP codes derive from the snapshot and the clock, HOTP views surface the
// last cached code. If the gate session has ended the snapshot is wiped and
// every view carries Locked=true.
func (s *Session) Views() []CodeView {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.checker.CheckToken(s.token) {
		s.wipeLocked()
	}

	now := s.clock.Now().Unix()
	views := make([]CodeView, 0, len(s.accounts))
	for i := range s.accounts {
		a := &s.accounts[i]
		v := CodeView{
			AccountID: a.ID,
			Label:     a.Label,
			Issuer:    a.Issuer,
			Type:      a.Type,
			Locked:    len(a.Secret) == 0,
		}
		if v.Locked {
			views = append(views, v)
			continue
		}

		switch a.Type {
		case models.TypeTOTP:
			code, err := otp.TOTP(a.Secret, now, a.Period, a.Digits, a.Algorithm)
			if err != nil {
				s.log.Error(context.Background(), "totp derivation failed", "id", a.ID, "error", err)
				continue
			}
			v.Code = code
			v.SecondsRemaining = otp.SecondsRemaining(now, a.Period)

		case models.TypeHOTP:
			v.Counter = a.Counter
			if d, ok := s.hotp[a.ID]; ok {
				v.Code = d.code
				v.Counter = d.counter
			}
		}
		views = append(views, v)
	}
	return views
}

// NextHOTP advances the moving factor for a counter-based account and
// returns the freshly derived code. The new counter is persisted before the
// code is derived, so the code is never observable with a stale counter on
// disk; subsequent Views calls re-surface the cached code without another
// increment.
func (s *Session) NextHOTP(ctx context.Context, id string) (CodeView, error) {
	if !s.checker.CheckToken(s.token) {
		return CodeView{}, common.ErrNotAuthorized
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.find(id)
	if a == nil {
		return CodeView{}, fmt.Errorf("%w: account %s", common.ErrNotFound, id)
	}
	if a.Type != models.TypeHOTP {
		return CodeView{}, fmt.Errorf("account %s is not counter-based", id)
	}

	newCounter, err := s.handle.IncrementCounter(ctx, id)
	if err != nil {
		return CodeView{}, err
	}
	a.Counter = newCounter

	// The code corresponds to the moving factor just consumed.
	code, err := otp.HOTP(a.Secret, newCounter-1, a.Digits, a.Algorithm)
	if err != nil {
		return CodeView{}, err
	}

	s.hotp[id] = hotpDisplay{counter: newCounter - 1, code: code}
	return CodeView{
		AccountID: a.ID,
		Label:     a.Label,
		Issuer:    a.Issuer,
		Type:      models.TypeHOTP,
		Code:      code,
		Counter:   newCounter - 1,
	}, nil
}

// Run drives fn with fresh views on every tick until ctx is cancelled.
// One-second granularity keeps the TOTP countdown accurate.
func (s *Session) Run(ctx context.Context, interval time.Duration, fn func([]CodeView)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	fn(s.Views())
	for {
		select {
		case <-ticker.C:
			fn(s.Views())
		case <-ctx.Done():
			return
		}
	}
}

// Close wipes the snapshot. The session is unusable afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wipeLocked()
	s.accounts = nil
	s.hotp = make(map[string]hotpDisplay)
}

func (s *Session) find(id string) *models.Account {
	for i := range s.accounts {
		if s.accounts[i].ID == id {
			return &s.accounts[i]
		}
	}
	return nil
}

// wipeLocked zeroes every secret in the snapshot. Labels stay so a locked UI
// can still show which accounts exist. Caller holds s.mu.
func (s *Session) wipeLocked() {
	for i := range s.accounts {
		common.WipeByteArray(s.accounts[i].Secret)
		s.accounts[i].Secret = nil
	}
}
