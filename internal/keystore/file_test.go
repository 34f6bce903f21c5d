package keystore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarev/otpkeeper/internal/common"
)

// allowAll verifies every token; denyAll rejects every token.
type allowAll struct{}

func (allowAll) Verify(string) error { return nil }

type denyAll struct{}

func (denyAll) Verify(string) error { return common.ErrNotAuthorized }

func TestFileKeyStore_InitUnlockRelease(t *testing.T) {
	s := NewFileKeyStore(t.TempDir(), allowAll{})
	require.False(t, s.Initialized())

	require.NoError(t, s.Init([]byte("correct horse")))
	require.True(t, s.Initialized())

	require.NoError(t, s.Unlock([]byte("correct horse")))

	key, err := s.ReleaseKey(context.Background(), "token")
	require.NoError(t, err)
	assert.Len(t, key, 32)

	// Stable across releases within a session.
	again, err := s.ReleaseKey(context.Background(), "token")
	require.NoError(t, err)
	assert.Equal(t, key, again)
}

func TestFileKeyStore_InitRefusesOverwrite(t *testing.T) {
	s := NewFileKeyStore(t.TempDir(), allowAll{})
	require.NoError(t, s.Init([]byte("pw")))
	assert.ErrorIs(t, s.Init([]byte("pw")), ErrAlreadyInitialized)
}

func TestFileKeyStore_WrongCredential(t *testing.T) {
	s := NewFileKeyStore(t.TempDir(), allowAll{})
	require.NoError(t, s.Init([]byte("right")))
	assert.ErrorIs(t, s.Unlock([]byte("wrong")), ErrBadCredential)
}

func TestFileKeyStore_ReleaseRequiresAuthorization(t *testing.T) {
	s := NewFileKeyStore(t.TempDir(), denyAll{})
	require.NoError(t, s.Init([]byte("pw")))
	require.NoError(t, s.Unlock([]byte("pw")))

	_, err := s.ReleaseKey(context.Background(), "token")
	assert.ErrorIs(t, err, common.ErrNotAuthorized)
}

func TestFileKeyStore_ReleaseRequiresUnlock(t *testing.T) {
	s := NewFileKeyStore(t.TempDir(), allowAll{})
	require.NoError(t, s.Init([]byte("pw")))

	// No Unlock this session: the KEK is absent even though the token is fine.
	_, err := s.ReleaseKey(context.Background(), "token")
	assert.ErrorIs(t, err, common.ErrNotAuthorized)
}

func TestFileKeyStore_ForgetDropsSessionKey(t *testing.T) {
	s := NewFileKeyStore(t.TempDir(), allowAll{})
	require.NoError(t, s.Init([]byte("pw")))
	require.NoError(t, s.Unlock([]byte("pw")))
	s.Forget()

	_, err := s.ReleaseKey(context.Background(), "token")
	assert.ErrorIs(t, err, common.ErrNotAuthorized)
}

func TestFileKeyStore_UnlockWithoutInit(t *testing.T) {
	s := NewFileKeyStore(t.TempDir(), allowAll{})
	assert.ErrorIs(t, s.Unlock([]byte("pw")), ErrNotInitialized)
}

func TestFileKeyStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	s := NewFileKeyStore(dir, allowAll{})
	require.NoError(t, os.WriteFile(filepath.Join(dir, keyFileName), []byte("not json"), 0o600))

	assert.ErrorIs(t, s.Unlock([]byte("pw")), common.ErrDecryptionFailed)
}

func TestMemoryKeyStore(t *testing.T) {
	s := NewMemoryKeyStore(allowAll{})
	key, err := s.ReleaseKey(context.Background(), "t")
	require.NoError(t, err)

	// Returned slice is a copy; mutating it must not poison later releases.
	key[0] ^= 0xff
	again, err := s.ReleaseKey(context.Background(), "t")
	require.NoError(t, err)
	assert.NotEqual(t, key[0], again[0])
}
