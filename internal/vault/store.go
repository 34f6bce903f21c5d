// Package vault persists the enrolled accounts as a single encrypted,
// integrity-protected envelope on disk.
//
// Every mutation rewrites the whole envelope atomically (write temp, fsync,
// rename), so a crash at any point leaves either the old or the new state on
// disk, never a mixture. All access goes through a Handle obtained from
// Unlock, and every operation re-checks the session token at use time.
package vault

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/mkarev/otpkeeper/internal/common"
	"github.com/mkarev/otpkeeper/internal/cryptox"
	"github.com/mkarev/otpkeeper/internal/filex"
	"github.com/mkarev/otpkeeper/internal/keystore"
	"github.com/mkarev/otpkeeper/internal/logging"
	"github.com/mkarev/otpkeeper/internal/models"
)

const vaultFileName = "vault.bin"

// envelopeAAD binds ciphertexts to their role, so a keystore blob can never
// be fed to the vault and vice versa.
var envelopeAAD = []byte("otpkeeper/vault/v1")

// Store owns the envelope file. Mutations serialize behind the write lock;
// reads share the read lock and observe either the pre- or post-mutation
// snapshot.
type Store struct {
	path string
	keys keystore.KeyStore
	gate keystore.TokenVerifier
	log  logging.Logger

	mu sync.RWMutex
}

// NewStore builds a Store persisting to dir/vault.bin.
func NewStore(dir string, keys keystore.KeyStore, gate keystore.TokenVerifier, log logging.Logger) *Store {
	return &Store{
		path: filepath.Join(dir, vaultFileName),
		keys: keys,
		gate: gate,
		log:  log.With("component", "vault"),
	}
}

// Handle is an authorized view of the store. It carries the session token
// only; the vault key is released from the keystore per operation and
// discarded immediately after.
type Handle struct {
	store *Store
	token string
}

// Unlock authorizes token against the gate, proves the envelope decrypts
// under the released key, and returns a Handle. A missing envelope file is a
// valid empty vault. Tamper or corruption yields common.ErrDecryptionFailed,
// which is unrecoverable for this vault instance: the user must re-enroll.
func (s *Store) Unlock(ctx context.Context, token string) (*Handle, error) {
	if err := s.gate.Verify(token); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts, err := s.read(ctx, token)
	if err != nil {
		return nil, err
	}
	wipeAccounts(accounts)

	s.log.Info(ctx, "vault unlocked", "accounts", len(accounts))
	return &Handle{store: s, token: token}, nil
}

// List returns an ordered snapshot of all accounts. Secrets are included;
// the caller owns the copies and should wipe them after use.
func (h *Handle) List(ctx context.Context) ([]models.Account, error) {
	s := h.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.read(ctx, h.token)
}

// Upsert inserts account or replaces the record with the same ID, keeping
// collection order stable. An existing HOTP counter is never lowered by a
// replace, so a stale import cannot enable code replay.
func (h *Handle) Upsert(ctx context.Context, account models.Account) error {
	if err := account.Validate(); err != nil {
		return err
	}
	// Store an owned copy so the envelope cycle can wipe its plaintext
	// without touching the caller's secret slice.
	account = account.Clone()
	return h.mutate(ctx, func(accounts []models.Account) ([]models.Account, error) {
		for i := range accounts {
			if accounts[i].ID == account.ID {
				if account.Counter < accounts[i].Counter {
					account.Counter = accounts[i].Counter
				}
				accounts[i] = account
				return accounts, nil
			}
		}
		return append(accounts, account), nil
	})
}

// Remove deletes the account with the given id. It fails with
// common.ErrNotFound when no such account exists.
func (h *Handle) Remove(ctx context.Context, id string) error {
	return h.mutate(ctx, func(accounts []models.Account) ([]models.Account, error) {
		for i := range accounts {
			if accounts[i].ID == id {
				return append(accounts[:i], accounts[i+1:]...), nil
			}
		}
		return nil, fmt.Errorf("%w: account %s", common.ErrNotFound, id)
	})
}

// IncrementCounter advances the HOTP moving factor for id and persists the
// new value before returning it. Callers derive the code only after this
// returns, so a crash in between can never lead to counter reuse.
func (h *Handle) IncrementCounter(ctx context.Context, id string) (uint64, error) {
	var newCounter uint64
	err := h.mutate(ctx, func(accounts []models.Account) ([]models.Account, error) {
		for i := range accounts {
			if accounts[i].ID == id {
				if accounts[i].Type != models.TypeHOTP {
					return nil, fmt.Errorf("account %s is not counter-based", id)
				}
				accounts[i].Counter++
				newCounter = accounts[i].Counter
				return accounts, nil
			}
		}
		return nil, fmt.Errorf("%w: account %s", common.ErrNotFound, id)
	})
	if err != nil {
		return 0, err
	}
	return newCounter, nil
}

// mutate runs fn on the decrypted account list and atomically persists the
// result. The write lock is held for the full read-modify-write cycle.
func (h *Handle) mutate(ctx context.Context, fn func([]models.Account) ([]models.Account, error)) error {
	s := h.store
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.read(ctx, h.token)
	if err != nil {
		return err
	}
	defer wipeAccounts(accounts)

	updated, err := fn(accounts)
	if err != nil {
		return err
	}
	defer wipeAccounts(updated)
	return s.write(ctx, h.token, updated)
}

// read decrypts the envelope under the caller's lock. The key is released
// from the keystore for the duration of the call only.
func (s *Store) read(ctx context.Context, token string) ([]models.Account, error) {
	if err := s.gate.Verify(token); err != nil {
		return nil, err
	}

	key, err := s.keys.ReleaseKey(ctx, token)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(key)

	blob, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []models.Account{}, nil
		}
		return nil, fmt.Errorf("%w: %v", common.ErrStorageIO, err)
	}

	plaintext, err := cryptox.Open(blob, key, envelopeAAD)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDecryptionFailed, err)
	}
	defer common.WipeByteArray(plaintext)

	var accounts []models.Account
	if err := json.Unmarshal(plaintext, &accounts); err != nil {
		return nil, fmt.Errorf("%w: bad payload: %v", common.ErrDecryptionFailed, err)
	}
	return accounts, nil
}

// write re-encrypts the full collection and replaces the envelope file. A
// failed write is retried once; if it fails again the previous on-disk state
// is still intact and common.ErrStorageIO is surfaced.
func (s *Store) write(ctx context.Context, token string, accounts []models.Account) error {
	key, err := s.keys.ReleaseKey(ctx, token)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(key)

	plaintext, err := json.Marshal(accounts)
	if err != nil {
		return fmt.Errorf("marshal accounts: %w", err)
	}
	defer common.WipeByteArray(plaintext)

	blob, err := cryptox.Seal(plaintext, key, envelopeAAD)
	if err != nil {
		return err
	}

	backoff := retry.WithMaxRetries(1, retry.NewConstant(50*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := filex.WriteFileAtomic(s.path, blob, 0o600); err != nil {
			s.log.Warn(ctx, "envelope write failed, may retry", "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrStorageIO, err)
	}
	return nil
}

func wipeAccounts(accounts []models.Account) {
	for i := range accounts {
		common.WipeByteArray(accounts[i].Secret)
	}
}
