// Package server is the HTTP layer of depot: it parses uploads into the
// core's request model and renders results as JSON, plain text or HTML.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"time"

	"depot/internal/catalog"
	"depot/internal/locale"
	"depot/internal/upload"
	"depot/pkg/storage"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Server exposes upload, retrieval, deletion and browsing of project files.
type Server struct {
	cfg         Config
	service     *upload.Service
	catalog     *catalog.Catalog
	ownsCatalog bool
	cors        *corsPolicy
}

// NewServer fills in defaults, opens the catalog and returns a new Server.
func NewServer(ctx context.Context, cfg Config) (*Server, error) {

	if cfg.DataDir == "" && (cfg.Engine == nil || (cfg.Catalog == nil && cfg.CatalogPath == "")) {
		return nil, errors.New("DataDir must not be empty")
	}

	if len(cfg.Projects) == 0 {
		return nil, errors.New("at least one project must be configured")
	}
	for _, p := range cfg.Projects {
		if !storage.IsValidProject(p) {
			return nil, fmt.Errorf("invalid project name %q", p)
		}
	}

	if cfg.Policy.MaxFileSize == 0 && len(cfg.Policy.AllowedExtensions) == 0 {
		cfg.Policy = upload.DefaultPolicy()
	}

	if cfg.MaxRequestSize <= 0 {
		cfg.MaxRequestSize = DefaultMaxRequestSize
	}

	if cfg.Language == language.Und {
		cfg.Language = locale.Default
	}

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	if cfg.DataDir != "" {
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	if cfg.Engine == nil {
		cfg.Engine = storage.NewLocalFileStorage(cfg.DataDir)
	}

	cors, err := newCORSPolicy(cfg.CORSOrigins)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:  cfg,
		cors: cors,
	}

	if cfg.Catalog != nil {
		s.catalog = cfg.Catalog
	} else {
		path := cfg.CatalogPath
		if path == "" {
			path = filepath.Join(cfg.DataDir, "catalog.sqlite")
		}

		c, err := catalog.Open(ctx, path)
		if err != nil {
			return nil, err
		}
		s.catalog = c
		s.ownsCatalog = true
	}

	if cfg.Authenticator == nil {
		slog.Warn("No delete secret configured, deletion is open to everyone")
	}

	ingestor := upload.NewIngestor(cfg.Engine, upload.WithClock(cfg.Now))
	s.service = upload.NewService(cfg.Policy, ingestor)

	return s, nil
}

// Close releases the catalog when the server opened it.
func (s *Server) Close() error {
	if s.ownsCatalog {
		return s.catalog.Close()
	}
	return nil
}

func (s *Server) hasProject(project string) bool {
	return slices.Contains(s.cfg.Projects, project)
}

// printer picks the message language from Accept-Language.
func (s *Server) printer(r *http.Request) *message.Printer {
	return locale.Printer(s.language(r))
}

func (s *Server) language(r *http.Request) language.Tag {
	return locale.Negotiate(r.Header.Get("Accept-Language"), s.cfg.Language)
}

// record adds stored files to the catalog. Failures are logged only; the
// files are already on disk.
func (s *Server) record(ctx context.Context, stored []upload.StoredFile) {
	if len(stored) == 0 {
		return
	}

	now := s.cfg.Now()
	entries := make([]catalog.Entry, 0, len(stored))
	for _, f := range stored {
		entries = append(entries, catalog.Entry{
			Project:   f.Project,
			Name:      f.Name,
			Key:       f.Key,
			Format:    f.Image.Format,
			Width:     f.Image.Width,
			Height:    f.Image.Height,
			Size:      f.Size,
			CreatedAt: now,
		})
	}

	if err := s.catalog.Record(ctx, entries...); err != nil {
		slog.Error("Failed to record files in catalog", "count", len(entries), "error", err)
	}
}
