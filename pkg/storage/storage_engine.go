package storage

import (
	"errors"
	"io"
	"os"
)

// ErrInvalidName is returned when a project or file name is not a single,
// plain path segment.
var ErrInvalidName = errors.New("invalid project or file name")

// File is an open stored file. It supports seeking so it can be handed
// directly to http.ServeContent.
type File interface {
	io.ReadSeekCloser
	Stat() (os.FileInfo, error)
}

// StorageEngine defines the interface for a storage backend that keeps
// uploaded files organized into project namespaces, addressed by their
// generated file names.
type StorageEngine interface {
	// Put writes the contents of r to <project>/<name>, creating the project
	// directory when needed. It returns the absolute path of the stored file
	// and the number of bytes written.
	Put(project string, name string, r io.Reader) (string, int64, error)

	// Open opens a previously stored file for reading.
	Open(project string, name string) (File, error)

	// Exists reports whether <project>/<name> is present.
	Exists(project string, name string) (bool, error)

	// Remove deletes <project>/<name>.
	Remove(project string, name string) error
}
