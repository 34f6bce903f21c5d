package cli

import (
	"bufio"
	"context"
	"log/slog"
	"os"

	"github.com/mkarev/otpkeeper/internal/clockx"
	"github.com/mkarev/otpkeeper/internal/config"
	"github.com/mkarev/otpkeeper/internal/enroll"
	"github.com/mkarev/otpkeeper/internal/filex"
	"github.com/mkarev/otpkeeper/internal/gate"
	"github.com/mkarev/otpkeeper/internal/keystore"
	"github.com/mkarev/otpkeeper/internal/logging"
	"github.com/mkarev/otpkeeper/internal/session"
	"github.com/mkarev/otpkeeper/internal/vault"
)

// credentialStore is the slice of the keystore the App drives directly.
// keystore.FileKeyStore satisfies it; tests can provide a stub.
type credentialStore interface {
	Initialized() bool
	Init(credential []byte) error
	Unlock(credential []byte) error
	Forget()
}

// App is the interactive client. All state that outlives a single command
// (the gate session token, the decrypted code session) lives here.
type App struct {
	config *config.Config
	log    logging.Logger
	clock  clockx.Clocker

	gate   *gate.Gate
	keys   credentialStore
	store  *vault.Store
	enroll *enroll.Manager

	session *session.Session
	token   string
	reader  *bufio.Reader
}

// NewApp wires the storage and authorization layers under cfg.DataDir.
func NewApp(cfg *config.Config) (*App, error) {

	log := logging.New(os.Stderr, slog.LevelWarn)

	if err := filex.EnsureDir(cfg.DataDir); err != nil {
		return nil, err
	}

	app := &App{
		config: cfg,
		log:    log,
		clock:  clockx.New(),
		reader: bufio.NewReader(os.Stdin),
	}

	app.gate = gate.New(gate.AuthenticatorFunc(app.authenticate), gate.Options{
		SessionTimeout: cfg.SessionTimeout,
		MaxAttempts:    cfg.MaxAttempts,
		Cooldown:       cfg.LockoutCooldown,
		Clock:          app.clock,
	})

	ks := keystore.NewFileKeyStore(cfg.DataDir, app.gate)
	app.keys = ks
	app.store = vault.NewStore(cfg.DataDir, ks, app.gate, log)
	app.enroll = enroll.NewManager(app.store, log)

	return app, nil
}

func (a *App) isUnlocked() bool {
	return a.token != "" && a.gate.CheckToken(a.token)
}

func (a *App) getStatus() string {
	if a.isUnlocked() {
		return "(unlocked)"
	}
	return "(locked)"
}

// Run starts the REPL and blocks until the user exits.
func (a *App) Run(ctx context.Context) {
	printlnFn("otpkeeper CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.getStatus, scanner)
}
