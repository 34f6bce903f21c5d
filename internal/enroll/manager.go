// Package enroll orchestrates account enrollment: it is the only component
// that mutates the vault. Each operation authorizes through the gate-issued
// token, validates input through the codec, and delegates persistence to the
// vault store. Dependency failures propagate unchanged.
package enroll

import (
	"context"
	"fmt"

	"github.com/mkarev/otpkeeper/internal/common"
	"github.com/mkarev/otpkeeper/internal/logging"
	"github.com/mkarev/otpkeeper/internal/models"
	"github.com/mkarev/otpkeeper/internal/otpauth"
	"github.com/mkarev/otpkeeper/internal/vault"
)

// Fields carries user-supplied enrollment input. Zero values mean "use the
// default" on add and "leave unchanged" on update.
type Fields struct {
	Label     string
	Issuer    string
	Secret    string // Base32 text
	Algorithm models.Algorithm
	Digits    int
	Type      models.Type
	Period    uint
	Counter   uint64
}

// Manager wires the codec and the vault store together.
type Manager struct {
	store *vault.Store
	log   logging.Logger
}

func NewManager(store *vault.Store, log logging.Logger) *Manager {
	return &Manager{store: store, log: log.With("component", "enroll")}
}

// AddFromURI enrolls an account from an otpauth:// payload (scanned QR code
// or pasted link). The new account's ID is assigned here.
func (m *Manager) AddFromURI(ctx context.Context, uri, token string) (*models.Account, error) {
	account, err := otpauth.ParseURI(uri)
	if err != nil {
		return nil, err
	}
	account.ID = models.NewID()
	return m.add(ctx, account, token)
}

// AddManually enrolls an account from individually entered fields, applying
// the same defaults as URI parsing: SHA1, 6 digits, 30-second period.
func (m *Manager) AddManually(ctx context.Context, f Fields, token string) (*models.Account, error) {
	secret, err := otpauth.DecodeSecret(f.Secret)
	if err != nil {
		return nil, err
	}

	account := &models.Account{
		ID:        models.NewID(),
		Label:     f.Label,
		Issuer:    f.Issuer,
		Secret:    secret,
		Algorithm: f.Algorithm,
		Digits:    f.Digits,
		Type:      f.Type,
		Period:    f.Period,
		Counter:   f.Counter,
	}
	if account.Algorithm == "" {
		account.Algorithm = models.AlgorithmSHA1
	}
	if account.Digits == 0 {
		account.Digits = models.DefaultDigits
	}
	if account.Type == "" {
		account.Type = models.TypeTOTP
	}
	if account.Type == models.TypeTOTP && account.Period == 0 {
		account.Period = models.DefaultPeriod
	}
	return m.add(ctx, account, token)
}

func (m *Manager) add(ctx context.Context, account *models.Account, token string) (*models.Account, error) {
	if err := account.Validate(); err != nil {
		return nil, err
	}
	handle, err := m.store.Unlock(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := handle.Upsert(ctx, *account); err != nil {
		return nil, err
	}
	m.log.Info(ctx, "account enrolled", "id", account.ID, "issuer", account.Issuer)
	return account, nil
}

// Update changes the mutable fields of an existing account. The secret and
// the counter are not updatable through this path; re-enroll to rotate a
// secret.
func (m *Manager) Update(ctx context.Context, id string, f Fields, token string) error {
	handle, err := m.store.Unlock(ctx, token)
	if err != nil {
		return err
	}

	account, err := m.find(ctx, handle, id)
	if err != nil {
		return err
	}

	if f.Label != "" {
		account.Label = f.Label
	}
	if f.Issuer != "" {
		account.Issuer = f.Issuer
	}
	if f.Algorithm != "" {
		account.Algorithm = f.Algorithm
	}
	if f.Digits != 0 {
		account.Digits = f.Digits
	}
	if f.Period != 0 && account.Type == models.TypeTOTP {
		account.Period = f.Period
	}

	if err := handle.Upsert(ctx, *account); err != nil {
		return err
	}
	m.log.Info(ctx, "account updated", "id", id)
	return nil
}

// Remove deletes an account from the vault.
func (m *Manager) Remove(ctx context.Context, id, token string) error {
	handle, err := m.store.Unlock(ctx, token)
	if err != nil {
		return err
	}
	if err := handle.Remove(ctx, id); err != nil {
		return err
	}
	m.log.Info(ctx, "account removed", "id", id)
	return nil
}

// ExportURI re-serializes an account as an otpauth:// URI for transfer to
// another device. The HOTP counter is exported as it stands.
func (m *Manager) ExportURI(ctx context.Context, id, token string) (string, error) {
	handle, err := m.store.Unlock(ctx, token)
	if err != nil {
		return "", err
	}
	account, err := m.find(ctx, handle, id)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(account.Secret)
	return otpauth.FormatURI(account), nil
}

func (m *Manager) find(ctx context.Context, handle *vault.Handle, id string) (*models.Account, error) {
	accounts, err := handle.List(ctx)
	if err != nil {
		return nil, err
	}
	var found *models.Account
	for i := range accounts {
		if accounts[i].ID == id {
			found = &accounts[i]
		} else {
			common.WipeByteArray(accounts[i].Secret)
		}
	}
	if found == nil {
		return nil, fmt.Errorf("%w: account %s", common.ErrNotFound, id)
	}
	return found, nil
}
