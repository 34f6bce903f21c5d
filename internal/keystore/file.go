package keystore

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mkarev/otpkeeper/internal/common"
	"github.com/mkarev/otpkeeper/internal/cryptox"
	"github.com/mkarev/otpkeeper/internal/filex"
)

const keyFileName = "keystore.json"

var (
	// ErrNotInitialized means no keystore file exists yet; run Init first.
	ErrNotInitialized = errors.New("keystore: not initialized")
	// ErrAlreadyInitialized guards against clobbering an existing vault key.
	ErrAlreadyInitialized = errors.New("keystore: already initialized")
	// ErrBadCredential means the device credential did not verify.
	ErrBadCredential = errors.New("keystore: invalid credential")
	// ErrKeyNotProvisioned means no credential unlock happened this session.
	ErrKeyNotProvisioned = errors.New("keystore: key not provisioned for this session")
)

// keyFile is the persisted form: the argon2 salt, a verifier for the derived
// KEK, and the vault key sealed under the KEK.
type keyFile struct {
	Salt       []byte `json:"salt"`
	Verifier   []byte `json:"verifier"`
	WrappedKey []byte `json:"wrapped_key"`
}

// FileKeyStore keeps the wrapped vault key on disk and the KEK in memory for
// the duration of the unlocked session only.
type FileKeyStore struct {
	dir  string
	gate TokenVerifier

	mu  sync.Mutex
	kek []byte
}

// NewFileKeyStore builds a FileKeyStore rooted at dir. Nothing is read until
// Unlock or ReleaseKey.
func NewFileKeyStore(dir string, gate TokenVerifier) *FileKeyStore {
	return &FileKeyStore{dir: dir, gate: gate}
}

func (s *FileKeyStore) path() string {
	return filepath.Join(s.dir, keyFileName)
}

// Initialized reports whether a keystore file exists.
func (s *FileKeyStore) Initialized() bool {
	_, err := os.Stat(s.path())
	return err == nil
}

// Init provisions a fresh random vault key wrapped under a KEK derived from
// credential. It refuses to overwrite an existing keystore.
func (s *FileKeyStore) Init(credential []byte) error {
	if s.Initialized() {
		return ErrAlreadyInitialized
	}
	if err := filex.EnsureDir(s.dir); err != nil {
		return fmt.Errorf("%w: %v", common.ErrStorageIO, err)
	}

	salt := common.GenerateRandByteArray(16)
	kek := cryptox.DeriveKey(credential, salt)
	defer common.WipeByteArray(kek)

	vaultKey := common.GenerateRandByteArray(cryptox.KeyLen)
	defer common.WipeByteArray(vaultKey)

	wrapped, err := cryptox.Seal(vaultKey, kek, []byte(keyFileName))
	if err != nil {
		return fmt.Errorf("wrap vault key: %w", err)
	}

	kf := keyFile{Salt: salt, Verifier: cryptox.MakeVerifier(kek), WrappedKey: wrapped}
	data, err := json.Marshal(kf)
	if err != nil {
		return fmt.Errorf("marshal keystore: %w", err)
	}
	if err := filex.WriteFileAtomic(s.path(), data, 0o600); err != nil {
		return fmt.Errorf("%w: %v", common.ErrStorageIO, err)
	}
	return nil
}

// Unlock derives the KEK from credential and caches it for the session when
// the verifier matches. The credential authenticator calls this as its
// success check; ErrBadCredential is a normal "try again" outcome.
func (s *FileKeyStore) Unlock(credential []byte) error {
	kf, err := s.load()
	if err != nil {
		return err
	}

	kek := cryptox.DeriveKey(credential, kf.Salt)
	if subtle.ConstantTimeCompare(cryptox.MakeVerifier(kek), kf.Verifier) == 0 {
		common.WipeByteArray(kek)
		return ErrBadCredential
	}

	s.mu.Lock()
	common.WipeByteArray(s.kek)
	s.kek = kek
	s.mu.Unlock()
	return nil
}

// Forget drops the cached KEK. Paired with gate.Lock when the session ends.
func (s *FileKeyStore) Forget() {
	s.mu.Lock()
	common.WipeByteArray(s.kek)
	s.kek = nil
	s.mu.Unlock()
}

// ReleaseKey unwraps and returns a copy of the vault key. The caller must
// present a token that verifies against the current gate session, and an
// Unlock must have provisioned the KEK within this session.
func (s *FileKeyStore) ReleaseKey(ctx context.Context, token string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.gate.Verify(token); err != nil {
		return nil, err
	}

	s.mu.Lock()
	kek := s.kek
	s.mu.Unlock()
	if kek == nil {
		return nil, fmt.Errorf("%w: %v", common.ErrNotAuthorized, ErrKeyNotProvisioned)
	}

	kf, err := s.load()
	if err != nil {
		return nil, err
	}
	key, err := cryptox.Open(kf.WrappedKey, kek, []byte(keyFileName))
	if err != nil {
		return nil, fmt.Errorf("unwrap vault key: %w", err)
	}
	return key, nil
}

func (s *FileKeyStore) load() (*keyFile, error) {
	data, err := os.ReadFile(s.path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotInitialized
		}
		return nil, fmt.Errorf("%w: %v", common.ErrStorageIO, err)
	}
	var kf keyFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("%w: corrupt keystore file: %v", common.ErrDecryptionFailed, err)
	}
	return &kf, nil
}
