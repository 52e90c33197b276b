package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"
)

// WriteFileAtomic streams r into a temporary file next to destPath and
// renames it into place, so readers never observe a half-written file.
func WriteFileAtomic(afs afero.Fs, destPath string, r io.Reader) (int64, error) {
	dir := filepath.Dir(destPath)
	if err := afs.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create directory: %w", err)
	}

	tmp, err := afero.TempFile(afs, dir, "."+filepath.Base(destPath)+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	written, err := io.Copy(tmp, r)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = afs.Remove(tmpPath)
		return 0, fmt.Errorf("write temp file: %w", err)
	}

	// NOTE: the temp file lives in the destination directory, so the rename
	// never crosses a filesystem boundary.
	if err := afs.Rename(tmpPath, destPath); err != nil {
		_ = afs.Remove(tmpPath)
		return 0, fmt.Errorf("rename temp file: %w", err)
	}

	return written, nil
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
