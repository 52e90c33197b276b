// Package upload implements the image upload pipeline: an ordered chain of
// batch-level validation checks followed by sequential per-file ingestion
// with rollback of the file that fails to decode.
package upload

import (
	"bytes"
	"io"
	"mime/multipart"
	"slices"
)

// File is one uploaded file as declared by the client.
type File struct {
	// Name is the client-supplied file name; only its extension survives.
	Name string
	// Size is the declared size in bytes.
	Size int64
	// Open returns a fresh reader over the file contents.
	Open func() (io.ReadCloser, error)
}

// NewFile builds a File backed by an in-memory payload.
func NewFile(name string, data []byte) File {
	return File{
		Name: name,
		Size: int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// Entry is the value attached to a form field key: either a single file or
// several files sent under the same key. Only single entries are validated
// and ingested; multi-file entries are skipped.
type Entry struct {
	files []File
}

// SingleEntry wraps one file.
func SingleEntry(f File) Entry {
	return Entry{files: []File{f}}
}

// MultipleEntry wraps several files sent under one key.
func MultipleEntry(files ...File) Entry {
	return Entry{files: slices.Clone(files)}
}

// Single returns the file of a single-file entry.
func (e Entry) Single() (File, bool) {
	if len(e.files) != 1 {
		return File{}, false
	}
	return e.files[0], true
}

// Files returns every file in the entry.
func (e Entry) Files() []File {
	return slices.Clone(e.files)
}

// Field is one form field key and its entry.
type Field struct {
	Key   string
	Entry Entry
}

// Request is the set of file fields of one upload. It is never modified by
// the validation checks or the ingestor.
type Request struct {
	fields []Field
}

// NewRequest builds a request from fields, keeping their order.
func NewRequest(fields ...Field) Request {
	return Request{fields: slices.Clone(fields)}
}

// FromMultipartForm converts a parsed multipart form. Keys are ordered
// lexicographically since the form itself is an unordered map.
func FromMultipartForm(form *multipart.Form) Request {
	if form == nil || len(form.File) == 0 {
		return Request{}
	}

	keys := make([]string, 0, len(form.File))
	for key := range form.File {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	fields := make([]Field, 0, len(keys))
	for _, key := range keys {
		headers := form.File[key]
		files := make([]File, 0, len(headers))
		for _, fh := range headers {
			files = append(files, fromFileHeader(fh))
		}
		fields = append(fields, Field{Key: key, Entry: Entry{files: files}})
	}
	return Request{fields: fields}
}

func fromFileHeader(fh *multipart.FileHeader) File {
	return File{
		Name: fh.Filename,
		Size: fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// Len returns the number of field keys, counting multi-file entries.
func (r Request) Len() int {
	return len(r.fields)
}

// Fields returns the fields in request order.
func (r Request) Fields() []Field {
	return slices.Clone(r.fields)
}

// singles calls fn for every single-file field in order until fn returns
// false.
func (r Request) singles(fn func(key string, f File) bool) {
	for _, field := range r.fields {
		f, ok := field.Entry.Single()
		if !ok {
			continue
		}
		if !fn(field.Key, f) {
			return
		}
	}
}
