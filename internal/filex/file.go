// Package filex holds filesystem helpers shared by the identity export,
// the signature guard and the submission outbox.
package filex

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// EnsureDir creates dir (and parents) with owner/group-only permissions
// and returns its absolute path. Relative paths are resolved against the
// working directory.
func EnsureDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("abs %s: %w", dir, err)
	}

	if err := os.MkdirAll(abs, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", abs, err)
	}

	return abs, nil
}

// Exists reports whether path exists. A missing path is (false, nil); any
// other stat failure is returned so callers can tell "absent" from "unreadable".
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// WriteTemp writes data to a new temporary file next to target and syncs it.
// The caller renames it into place or removes it.
func WriteTemp(target string, data []byte, perm os.FileMode) (string, error) {
	dir, base := filepath.Split(target)
	if dir == "" {
		dir = "."
	}

	f, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return "", err
	}
	name := f.Name()

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(name)
		return "", err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(name)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(name)
		return "", err
	}
	if err := os.Chmod(name, perm); err != nil {
		os.Remove(name)
		return "", err
	}
	return name, nil
}

// WriteFileAtomic replaces target with data via a temp file and rename, so
// readers see either the old or the new content.
func WriteFileAtomic(target string, data []byte, perm os.FileMode) error {
	tmp, err := WriteTemp(target, data, perm)
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// ErrNoFreeName is returned by MoveNoClobber when every candidate name is taken.
var ErrNoFreeName = errors.New("no free file name")

const maxNameSuffix = 1000

// MoveNoClobber moves src into dir as name, or as name-1, name-2 and so on
// (the suffix goes before the extension) when that name is taken. An
// existing file is never replaced. It returns the path src ended up at.
func MoveNoClobber(src, dir, name string) (string, error) {
	ext := filepath.Ext(name)
	stem := name[:len(name)-len(ext)]

	for i := 0; i < maxNameSuffix; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s-%d%s", stem, i, ext)
		}
		dst := filepath.Join(dir, candidate)

		err := os.Link(src, dst)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", err
		}
		if err := os.Remove(src); err != nil {
			os.Remove(dst)
			return "", err
		}
		return dst, nil
	}
	return "", fmt.Errorf("%w: %s in %s", ErrNoFreeName, name, dir)
}
