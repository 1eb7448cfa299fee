// Package pending manages packaged submissions that were attempted but not
// acknowledged by the server. A submission lives either in the outbox
// directory or in its failed/ subdirectory, never both; moves between them
// are renames. Counts are read from disk on every call.
package pending

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dmitrijs2005/reportkeeper/internal/common"
	"github.com/dmitrijs2005/reportkeeper/internal/filex"
)

// FailedDirName is the outbox subdirectory for submissions that failed to send.
const FailedDirName = "failed"

// ErrNotPending is returned when a submission is no longer where it was listed.
var ErrNotPending = errors.New("submission is not pending")

// Submission is one packaged submission on disk.
type Submission struct {
	Name   string
	Path   string
	Failed bool
}

// Counts is a snapshot of the outbox.
type Counts struct {
	Pending int
	Failed  int
}

// Total is Pending + Failed.
func (c Counts) Total() int { return c.Pending + c.Failed }

// Queue is the on-disk outbox rooted at dir.
type Queue struct {
	dir string
}

func NewQueue(dir string) *Queue {
	return &Queue{dir: dir}
}

// Dir returns the outbox directory.
func (q *Queue) Dir() string { return q.dir }

// FailedDir returns the failed-submissions directory.
func (q *Queue) FailedDir() string { return filepath.Join(q.dir, FailedDirName) }

// Count returns a fresh snapshot. Missing directories count as empty.
func (q *Queue) Count() (Counts, error) {
	p, err := listPackaged(q.dir)
	if err != nil {
		return Counts{}, err
	}
	f, err := listPackaged(q.FailedDir())
	if err != nil {
		return Counts{}, err
	}
	return Counts{Pending: len(p), Failed: len(f)}, nil
}

// List returns all submissions, normal ones first, each group sorted by name.
func (q *Queue) List() ([]Submission, error) {
	p, err := listPackaged(q.dir)
	if err != nil {
		return nil, err
	}
	f, err := listPackaged(q.FailedDir())
	if err != nil {
		return nil, err
	}

	out := make([]Submission, 0, len(p)+len(f))
	for _, name := range p {
		out = append(out, Submission{Name: name, Path: filepath.Join(q.dir, name)})
	}
	for _, name := range f {
		out = append(out, Submission{Name: name, Path: filepath.Join(q.FailedDir(), name), Failed: true})
	}
	return out, nil
}

// Read returns the submission's bytes.
func (q *Queue) Read(s Submission) ([]byte, error) {
	b, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotPending, s.Name)
		}
		return nil, err
	}
	return b, nil
}

// Acknowledge removes a submission the server accepted.
func (q *Queue) Acknowledge(s Submission) error {
	if err := os.Remove(s.Path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotPending, s.Name)
		}
		return err
	}
	return nil
}

// MarkFailed moves a submission into the failed directory. It returns the
// submission at its new location, which carries a numeric suffix when a
// failed submission of the same name is already there. Already-failed
// submissions are unchanged.
func (q *Queue) MarkFailed(s Submission) (Submission, error) {
	if s.Failed {
		return s, nil
	}
	dir, err := filex.EnsureDir(q.FailedDir())
	if err != nil {
		return s, err
	}
	dst, err := filex.MoveNoClobber(s.Path, dir, s.Name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, fmt.Errorf("%w: %s", ErrNotPending, s.Name)
		}
		return s, err
	}
	return Submission{Name: filepath.Base(dst), Path: dst, Failed: true}, nil
}

// Enqueue stores a packaged submission in the outbox under name. A name
// already used by a pending submission gets a numeric suffix; nothing in
// the outbox is overwritten.
func (q *Queue) Enqueue(name string, data []byte) (Submission, error) {
	if !strings.HasSuffix(name, common.PackagedSubmissionExt) {
		name += common.PackagedSubmissionExt
	}
	dir, err := filex.EnsureDir(q.dir)
	if err != nil {
		return Submission{}, err
	}
	tmp, err := filex.WriteTemp(filepath.Join(dir, name), data, 0o600)
	if err != nil {
		return Submission{}, err
	}
	path, err := filex.MoveNoClobber(tmp, dir, name)
	if err != nil {
		os.Remove(tmp)
		return Submission{}, err
	}
	return Submission{Name: filepath.Base(path), Path: path}, nil
}

func listPackaged(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(e.Name(), common.PackagedSubmissionExt) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
