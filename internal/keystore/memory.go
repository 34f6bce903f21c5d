package keystore

import (
	"context"

	"github.com/mkarev/otpkeeper/internal/common"
	"github.com/mkarev/otpkeeper/internal/cryptox"
)

// MemoryKeyStore serves tests: a fixed in-memory vault key behind the same
// token check as the production store.
type MemoryKeyStore struct {
	gate TokenVerifier
	key  []byte
}

func NewMemoryKeyStore(gate TokenVerifier) *MemoryKeyStore {
	return &MemoryKeyStore{gate: gate, key: common.GenerateRandByteArray(cryptox.KeyLen)}
}

func (s *MemoryKeyStore) ReleaseKey(ctx context.Context, token string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.gate.Verify(token); err != nil {
		return nil, err
	}
	key := make([]byte, len(s.key))
	copy(key, s.key)
	return key, nil
}
