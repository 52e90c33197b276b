package upload

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"depot/internal/imageinfo"
	"depot/pkg/storage"

	"github.com/dustin/go-humanize"
)

// StoredFile is a file that was persisted and successfully decoded.
type StoredFile struct {
	Project string
	Key     string
	Name    string
	Path    string
	Size    int64
	Image   imageinfo.Info
}

// AspectRatio returns width divided by height of the stored image.
func (f StoredFile) AspectRatio() float64 {
	return f.Image.AspectRatio()
}

// Prober extracts image metadata from an encoded image.
type Prober func(r io.Reader) (imageinfo.Info, error)

// Ingestor persists validated files into a project namespace and extracts
// their image metadata.
type Ingestor struct {
	engine storage.StorageEngine
	probe  Prober
	now    func() time.Time
}

type IngestorOption func(*Ingestor)

// WithClock overrides the time source used for generated names.
func WithClock(now func() time.Time) IngestorOption {
	return func(in *Ingestor) {
		in.now = now
	}
}

// WithProber overrides the image metadata decoder.
func WithProber(probe Prober) IngestorOption {
	return func(in *Ingestor) {
		in.probe = probe
	}
}

// NewIngestor creates an Ingestor writing through engine.
func NewIngestor(engine storage.StorageEngine, opts ...IngestorOption) *Ingestor {
	in := &Ingestor{
		engine: engine,
		probe:  imageinfo.Probe,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Ingest stores every single-file entry of req, one after another, in
// request order. It returns the files stored so far together with any error.
//
// Ingestion is not transactional across the batch: when a file fails to
// decode it is removed again and the remaining entries are never written,
// but files stored earlier in the same batch stay on disk and are returned
// alongside the *Error.
func (in *Ingestor) Ingest(ctx context.Context, project string, req Request) ([]StoredFile, error) {
	stored := make([]StoredFile, 0, req.Len())
	taken := make(map[string]bool, req.Len())

	for _, field := range req.fields {
		f, ok := field.Entry.Single()
		if !ok {
			slog.Debug("Skipping multi-file field", "project", project, "key", field.Key, "files", len(field.Entry.Files()))
			continue
		}

		if err := ctx.Err(); err != nil {
			return stored, err
		}

		sf, err := in.ingestOne(project, field.Key, f, taken)
		if err != nil {
			return stored, err
		}
		taken[sf.Name] = true
		stored = append(stored, sf)
	}

	return stored, nil
}

// maxNameAttempts bounds the search for a free name in freeName.
const maxNameAttempts = 1000

// freeName generates the name for key at the current instant. While that
// name belongs to an earlier file of the batch or to a stored file, the
// instant moves forward one millisecond. Concurrent requests can still race
// between the check and the write.
func (in *Ingestor) freeName(project string, key string, original string, taken map[string]bool) (string, error) {
	at := in.now()
	for range maxNameAttempts {
		name := GenerateName(key, original, at)
		if !taken[name] {
			exists, err := in.engine.Exists(project, name)
			if err != nil {
				return "", fmt.Errorf("check name %q: %w", name, err)
			}
			if !exists {
				return name, nil
			}
		}
		at = at.Add(time.Millisecond)
	}
	return "", fmt.Errorf("no free name for %q after %d attempts", key, maxNameAttempts)
}

func (in *Ingestor) ingestOne(project string, key string, f File, taken map[string]bool) (StoredFile, error) {
	name, err := in.freeName(project, key, f.Name, taken)
	if err != nil {
		return StoredFile{}, err
	}

	src, err := f.Open()
	if err != nil {
		return StoredFile{}, fmt.Errorf("open upload %q: %w", key, err)
	}
	path, size, err := in.engine.Put(project, name, src)
	_ = src.Close()
	if err != nil {
		return StoredFile{}, fmt.Errorf("persist %q: %w", name, err)
	}

	info, err := in.inspect(project, name)
	if err != nil {
		in.rollback(project, name, err)
		return StoredFile{}, corruptImageError(key)
	}

	slog.Info("Saved file",
		"project", project,
		"name", name,
		"format", info.Format,
		"width", info.Width,
		"height", info.Height,
		"size", humanize.IBytes(uint64(size)),
	)

	return StoredFile{
		Project: project,
		Key:     key,
		Name:    name,
		Path:    path,
		Size:    size,
		Image:   info,
	}, nil
}

// inspect decodes the metadata of the persisted bytes, not of the upload
// stream, so the result describes exactly what is on disk.
func (in *Ingestor) inspect(project string, name string) (imageinfo.Info, error) {
	f, err := in.engine.Open(project, name)
	if err != nil {
		return imageinfo.Info{}, fmt.Errorf("reopen %q: %w", name, err)
	}
	defer f.Close()

	info, err := in.probe(f)
	if err != nil {
		return imageinfo.Info{}, err
	}
	if !info.Valid() {
		return imageinfo.Info{}, fmt.Errorf("%w: %+v", imageinfo.ErrInvalidImage, info)
	}
	return info, nil
}
