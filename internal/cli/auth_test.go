package cli

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarev/otpkeeper/internal/gate"
	"github.com/mkarev/otpkeeper/internal/keystore"
)

type stubKeys struct {
	initialized bool
	unlockErr   error
	initErr     error

	initCalled   bool
	forgetCalled bool
	lastCred     string
}

func (s *stubKeys) Initialized() bool { return s.initialized }
func (s *stubKeys) Init(cred []byte) error {
	s.initCalled = true
	s.lastCred = string(cred)
	return s.initErr
}
func (s *stubKeys) Unlock(cred []byte) error {
	s.lastCred = string(cred)
	return s.unlockErr
}
func (s *stubKeys) Forget() { s.forgetCalled = true }

func withStubbedIO(t *testing.T, passwords [][]byte, pwErr error) {
	t.Helper()
	origPw := getPassword
	origPrint := printlnFn
	t.Cleanup(func() {
		getPassword = origPw
		printlnFn = origPrint
	})

	i := 0
	getPassword = func(prompt string, w io.Writer) ([]byte, error) {
		if pwErr != nil {
			return nil, pwErr
		}
		require.Less(t, i, len(passwords), "unexpected extra password prompt")
		pw := passwords[i]
		i++
		return append([]byte(nil), pw...), nil
	}
	printlnFn = func(...any) (int, error) { return 0, nil }
}

func TestAuthenticate_OutcomeMapping(t *testing.T) {
	ctx := context.Background()

	t.Run("correct credential", func(t *testing.T) {
		withStubbedIO(t, [][]byte{[]byte("secret")}, nil)
		a := &App{keys: &stubKeys{initialized: true}}

		outcome, err := a.authenticate(ctx)
		require.NoError(t, err)
		assert.Equal(t, gate.OutcomeSuccess, outcome)
	})

	t.Run("wrong credential counts as failure", func(t *testing.T) {
		withStubbedIO(t, [][]byte{[]byte("nope")}, nil)
		a := &App{keys: &stubKeys{initialized: true, unlockErr: keystore.ErrBadCredential}}

		outcome, err := a.authenticate(ctx)
		require.NoError(t, err)
		assert.Equal(t, gate.OutcomeFailure, outcome)
	})

	t.Run("EOF on prompt is a cancellation", func(t *testing.T) {
		withStubbedIO(t, nil, io.EOF)
		a := &App{keys: &stubKeys{initialized: true}}

		outcome, err := a.authenticate(ctx)
		require.NoError(t, err)
		assert.Equal(t, gate.OutcomeCancelled, outcome)
	})

	t.Run("cancelled context is a cancellation", func(t *testing.T) {
		withStubbedIO(t, [][]byte{[]byte("secret")}, nil)
		a := &App{keys: &stubKeys{initialized: true}}

		cctx, cancel := context.WithCancel(ctx)
		cancel()

		outcome, err := a.authenticate(cctx)
		require.NoError(t, err)
		assert.Equal(t, gate.OutcomeCancelled, outcome)
	})

	t.Run("storage error surfaces", func(t *testing.T) {
		boom := errors.New("disk on fire")
		withStubbedIO(t, [][]byte{[]byte("secret")}, nil)
		a := &App{keys: &stubKeys{initialized: true, unlockErr: boom}}

		outcome, err := a.authenticate(ctx)
		require.ErrorIs(t, err, boom)
		assert.Equal(t, gate.OutcomeFailure, outcome)
	})
}

func TestInitKeystore(t *testing.T) {
	t.Run("matching passphrases provision the key", func(t *testing.T) {
		withStubbedIO(t, [][]byte{[]byte("pass"), []byte("pass")}, nil)
		keys := &stubKeys{}
		a := &App{keys: keys}

		require.NoError(t, a.initKeystore())
		assert.True(t, keys.initCalled)
	})

	t.Run("mismatch aborts without touching the keystore", func(t *testing.T) {
		withStubbedIO(t, [][]byte{[]byte("pass"), []byte("typo")}, nil)
		keys := &stubKeys{}
		a := &App{keys: keys}

		err := a.initKeystore()
		require.ErrorIs(t, err, keystore.ErrBadCredential)
		assert.False(t, keys.initCalled)
	})
}
