package storage

import (
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/afero"
)

// matches lowercase letters, digits, dots, underscores and hyphens, must
// start and end with a letter or digit, between 3 and 63 characters long.
var projectNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]{1,61}[a-z0-9]$`)

// LocalFileStorage is a StorageEngine implementation that stores uploaded
// files under dataDir. Each project gets its own subdirectory and files are
// stored flat inside it under their generated names.
type LocalFileStorage struct {
	fs      afero.Fs
	dataDir string
}

// NewLocalFileStorage creates a new LocalFileStorage rooted at dataDir on the
// operating system filesystem.
func NewLocalFileStorage(dataDir string) *LocalFileStorage {
	return NewLocalFileStorageFs(afero.NewOsFs(), dataDir)
}

// NewLocalFileStorageFs creates a LocalFileStorage on top of an arbitrary
// afero filesystem, which lets tests run against afero.NewMemMapFs.
func NewLocalFileStorageFs(fs afero.Fs, dataDir string) *LocalFileStorage {
	return &LocalFileStorage{fs: fs, dataDir: dataDir}
}

// IsValidProject reports whether name can be used as a project directory.
func IsValidProject(name string) bool {
	if !projectNamePattern.MatchString(name) {
		return false
	}
	return !strings.Contains(name, "..")
}

// isPlainSegment reports whether name is a single path element that cannot
// escape its parent directory.
func isPlainSegment(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return false
	}
	return filepath.Base(name) == name
}

// FilePath computes the full filesystem path for name within project.
func FilePath(directory string, project string, name string) (string, error) {
	if !IsValidProject(project) || !isPlainSegment(name) {
		return "", fmt.Errorf("%w: %q/%q", ErrInvalidName, project, name)
	}
	return filepath.Join(directory, project, name), nil
}

// Fs exposes the underlying filesystem.
func (s *LocalFileStorage) Fs() afero.Fs {
	return s.fs
}

func (s *LocalFileStorage) Put(project string, name string, r io.Reader) (string, int64, error) {
	path, err := FilePath(s.dataDir, project, name)
	if err != nil {
		return "", 0, err
	}

	written, err := WriteFileAtomic(s.fs, path, r)
	if err != nil {
		return "", 0, err
	}
	return path, written, nil
}

func (s *LocalFileStorage) Open(project string, name string) (File, error) {
	path, err := FilePath(s.dataDir, project, name)
	if err != nil {
		return nil, err
	}
	return s.fs.Open(path)
}

func (s *LocalFileStorage) Exists(project string, name string) (bool, error) {
	path, err := FilePath(s.dataDir, project, name)
	if err != nil {
		return false, err
	}

	info, err := s.fs.Stat(path)
	if err != nil {
		if isNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// Remove deletes a stored file. Removing a file that does not exist returns
// an error satisfying errors.Is(err, fs.ErrNotExist).
func (s *LocalFileStorage) Remove(project string, name string) error {
	path, err := FilePath(s.dataDir, project, name)
	if err != nil {
		return err
	}

	info, err := s.fs.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %q is a directory", ErrInvalidName, name)
	}
	return s.fs.Remove(path)
}
