package pending

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"time"
)

var ErrEmptyPackage = errors.New("package has no entries")

// Entry is one file inside a packaged submission.
type Entry struct {
	Name string
	Data []byte
}

// Pack builds a packaged submission holding entries in the given order.
func Pack(modified time.Time, entries ...Entry) ([]byte, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyPackage
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: e.Name, Method: zip.Deflate, Modified: modified})
		if err != nil {
			return nil, fmt.Errorf("pack %s: %w", e.Name, err)
		}
		if _, err := w.Write(e.Data); err != nil {
			return nil, fmt.Errorf("pack %s: %w", e.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("pack: %w", err)
	}
	return buf.Bytes(), nil
}
