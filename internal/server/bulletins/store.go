// Package bulletins persists uploaded bulletins, either under a local
// directory or in an S3-compatible bucket.
package bulletins

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/reportkeeper/internal/filex"
)

var (
	ErrInvalidName    = errors.New("invalid bulletin name")
	ErrInvalidAccount = errors.New("invalid account")
)

// Store accepts one bulletin for an account and returns the key it was
// stored under.
type Store interface {
	Put(ctx context.Context, account, name string, data []byte) (string, error)
}

// StorageKey builds "accounts/<account>/<yyyy>/<mm>/<dd>/<name>". The name
// must be a plain file name.
func StorageKey(account, name string, now time.Time) (string, error) {
	if account == "" || strings.ContainsAny(account, `/\`) || account == "." || account == ".." {
		return "", ErrInvalidAccount
	}
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return path.Join("accounts", account, fmt.Sprintf("%04d", now.Year()),
		fmt.Sprintf("%02d", int(now.Month())), fmt.Sprintf("%02d", now.Day()), name), nil
}

// DirStore writes bulletins below a root directory.
type DirStore struct {
	root string
	now  func() time.Time
}

func NewDirStore(root string) *DirStore {
	return &DirStore{root: root, now: time.Now}
}

func (s *DirStore) Put(ctx context.Context, account, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key, err := StorageKey(account, name, s.now().UTC())
	if err != nil {
		return "", err
	}

	target := filepath.Join(s.root, filepath.FromSlash(key))
	if _, err := filex.EnsureDir(filepath.Dir(target)); err != nil {
		return "", err
	}
	if err := filex.WriteFileAtomic(target, data, 0o640); err != nil {
		return "", fmt.Errorf("write bulletin: %w", err)
	}
	return key, nil
}
