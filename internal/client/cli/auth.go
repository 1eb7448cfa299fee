package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/dmitrijs2005/reportkeeper/internal/common"
	"github.com/dmitrijs2005/reportkeeper/internal/filex"
	"github.com/dmitrijs2005/reportkeeper/internal/guard"
	"github.com/dmitrijs2005/reportkeeper/internal/identity"
	"github.com/dmitrijs2005/reportkeeper/internal/session"
)

var ErrNoIdentity = errors.New("no identity")

// getPassword and getConfirmation are indirections used to facilitate
// testing.
var (
	getPassword     = GetPassword
	getConfirmation = GetConfirmation
)

// Login asks for the password and unseals the key vault. When there is no
// vault yet the user is offered to create a new identity.
func (a *App) Login(ctx context.Context) error {
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	path := a.config.KeyVaultPath()
	store, err := identity.OpenVault(path, password)
	if errors.Is(err, identity.ErrVaultNotFound) {
		store, err = a.createIdentity(ctx, path, password)
	}
	if err != nil {
		a.log.Warn(ctx, "login failed", "error", err)
		return err
	}

	a.store = store
	a.log.Info(ctx, "identity unlocked")
	return nil
}

func (a *App) createIdentity(ctx context.Context, path string, password []byte) (*identity.Store, error) {
	ok, err := getConfirmation(a.reader, "No identity found. Create a new one?", a.out)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoIdentity
	}
	if _, err := filex.EnsureDir(a.config.DataDir); err != nil {
		return nil, err
	}
	store, err := identity.CreateVault(path, password)
	if err != nil {
		return nil, err
	}
	a.log.Info(ctx, "identity created", "vault", path)
	printlnFn("New identity created.")
	return store, nil
}

// Unlock re-authenticates a locked session.
func (a *App) Unlock(ctx context.Context) error {
	if !a.timer.IsLocked() {
		printlnFn("Session is not locked.")
		return nil
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	kp, err := identity.LoadKeyPair(a.config.KeyVaultPath(), password)
	if err != nil {
		a.log.Warn(ctx, "unlock failed", "error", err)
		printlnFn("Unlock failed:", err)
		return err
	}

	a.store.SetKeyPair(kp)
	a.timer.Unlock()
	printlnFn("Session unlocked.")
	return nil
}

// Lock locks the session on request. It is refused while a resend runs.
func (a *App) Lock(ctx context.Context) error {
	if err := a.timer.Lock(); err != nil {
		if errors.Is(err, session.ErrSendInProgress) {
			printlnFn("A resend is in progress, try again when it finishes.")
		}
		return err
	}
	return nil
}

// Reset deletes the identity from this device after confirmation: the key
// vault, the identity export and its signature. Queued submissions are kept.
// It is refused while a resend runs. The session ends locked.
func (a *App) Reset(ctx context.Context) error {
	if a.busy() {
		printlnFn("A resend is in progress, try again when it finishes.")
		return session.ErrSendInProgress
	}

	ok, err := getConfirmation(a.reader, "Delete the identity from this device? This cannot be undone.", a.out)
	if err != nil {
		return err
	}
	if !ok {
		printlnFn("Reset cancelled.")
		return nil
	}

	// A resend that started while the question was open still wins.
	if err := a.Lock(ctx); err != nil {
		return err
	}
	a.store.Clear()

	exportPath := a.config.ExportPath()
	for _, path := range []string{a.config.KeyVaultPath(), exportPath, guard.SignaturePath(exportPath)} {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			a.log.Error(ctx, "reset: remove failed", "path", path, "error", err)
			printlnFn("Reset incomplete, cannot remove", path+":", err)
			return err
		}
	}

	a.mu.Lock()
	a.desktopTrusted = false
	a.mu.Unlock()

	a.log.Info(ctx, "identity deleted")
	printlnFn("Identity deleted. Restart to create a new one.")
	return nil
}

// onSessionLocked runs on every transition to Locked, automatic or not.
func (a *App) onSessionLocked() {
	a.store.Clear()
	a.setToken("")
	printlnFn(fmt.Sprintf("\nSession locked after %s of inactivity or on request. Type 'unlock' to continue.", a.config.SessionTimeout()))
}

// verifyDesktopKey checks the desktop-linked key file before it is used.
// Tampered is treated as absent.
func (a *App) verifyDesktopKey(ctx context.Context) {
	pub, err := a.store.PublicKey()
	if err != nil {
		a.log.Error(ctx, "desktop key check skipped", "error", err)
		return
	}

	res, err := a.guard.Trust(ctx, a.config.DesktopKeyPath(), pub)
	if err != nil {
		printlnFn("Desktop key could not be read:", err)
		return
	}

	a.mu.Lock()
	a.desktopTrusted = res.Trusted()
	a.mu.Unlock()

	a.log.Info(ctx, "desktop key checked", "result", res.String())
}
