package server

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"depot/internal/catalog"
	"depot/internal/locale"
	"depot/internal/ui"
	"depot/internal/upload"
	"depot/pkg/storage"

	"github.com/gabriel-vasile/mimetype"
)

// multipartMemory is the part of a multipart body kept in memory; the rest
// spills to temporary files.
const multipartMemory = 32 << 20

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page := ui.IndexPage(s.printer(r), s.language(r), s.cfg.Projects, s.cfg.Policy.AllowedExtensions, s.cfg.Policy.MaxFileSize)
	if err := page.Render(r.Context(), w); err != nil {
		slog.Error("Failed to render index page", "error", err)
	}
}

func (s *Server) handleBrowse(w http.ResponseWriter, r *http.Request, project string) {
	p := s.printer(r)
	if !s.hasProject(project) {
		writeText(w, http.StatusNotFound, p.Sprintf(locale.MsgProjectNotFound))
		return
	}

	entries, err := s.catalog.List(r.Context(), project)
	if err != nil {
		slog.Error("Failed to list catalog", "project", project, "error", err)
		writeText(w, http.StatusInternalServerError, p.Sprintf(locale.MsgInternalError))
		return
	}

	files := make([]ui.File, 0, len(entries))
	for _, e := range entries {
		files = append(files, ui.File{
			Name:      e.Name,
			Format:    e.Format,
			Width:     e.Width,
			Height:    e.Height,
			Size:      e.Size,
			CreatedAt: e.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	if err := ui.ProjectPage(p, s.language(r), project, files).Render(r.Context(), w); err != nil {
		slog.Error("Failed to render project page", "project", project, "error", err)
	}
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request, project string) {
	p := s.printer(r)
	if !s.hasProject(project) {
		writeError(w, http.StatusNotFound, p.Sprintf(locale.MsgProjectNotFound))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxRequestSize)

	var req upload.Request
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, p.Sprintf(locale.MsgRequestTooLarge, tooLarge.Limit/upload.MiB))
			return
		}
		// Anything that is not a readable multipart body carries no files.
		slog.Debug("Upload body is not multipart", "project", project, "error", err)
	} else {
		defer func() {
			if err := r.MultipartForm.RemoveAll(); err != nil {
				slog.Warn("Failed to remove multipart temp files", "error", err)
			}
		}()
		req = upload.FromMultipartForm(r.MultipartForm)
	}

	stored, err := s.service.Upload(r.Context(), project, req)

	// Files persisted before a mid-batch failure stay on disk, so they are
	// catalogued either way.
	s.record(context.WithoutCancel(r.Context()), stored)

	if err != nil {
		var rejection *upload.Error
		if errors.As(err, &rejection) {
			writeError(w, rejection.Status, rejection.Localize(p))
			return
		}
		slog.Error("Upload failed", "project", project, "stored", len(stored), "error", err)
		writeError(w, http.StatusInternalServerError, p.Sprintf(locale.MsgInternalError))
		return
	}

	summary := upload.Assemble(stored)
	writeJSON(w, http.StatusOK, UploadResponse{
		Status:      StatusSuccess,
		Message:     summary.Message(p),
		Files:       summary.Files,
		Filenames:   summary.Names(),
		AspectRatio: summary.AspectRatios(),
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request, project string) {
	p := s.printer(r)
	if !s.hasProject(project) {
		writeError(w, http.StatusNotFound, p.Sprintf(locale.MsgProjectNotFound))
		return
	}

	entries, err := s.catalog.List(r.Context(), project)
	if err != nil {
		slog.Error("Failed to list catalog", "project", project, "error", err)
		writeError(w, http.StatusInternalServerError, p.Sprintf(locale.MsgInternalError))
		return
	}

	writeJSON(w, http.StatusOK, ListResponse{
		Status:  StatusSuccess,
		Project: project,
		Files:   entries,
	})
}

// isMissing reports whether err means there is no such stored file.
func isMissing(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, storage.ErrInvalidName)
}

func (s *Server) handleFileGet(w http.ResponseWriter, r *http.Request, project string, id string) {
	p := s.printer(r)
	if !s.hasProject(project) {
		writeText(w, http.StatusNotFound, p.Sprintf(locale.MsgFileNotFound))
		return
	}

	f, err := s.cfg.Engine.Open(project, id)
	if err != nil {
		if !isMissing(err) {
			slog.Error("Failed to open file", "project", project, "name", id, "error", err)
		}
		writeText(w, http.StatusNotFound, p.Sprintf(locale.MsgFileNotFound))
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		writeText(w, http.StatusNotFound, p.Sprintf(locale.MsgFileNotFound))
		return
	}

	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		slog.Error("Failed to detect content type", "project", project, "name", id, "error", err)
		writeText(w, http.StatusInternalServerError, p.Sprintf(locale.MsgInternalError))
		return
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		slog.Error("Failed to rewind file", "project", project, "name", id, "error", err)
		writeText(w, http.StatusInternalServerError, p.Sprintf(locale.MsgInternalError))
		return
	}

	w.Header().Set("Content-Type", mtype.String())
	s.setImageHeaders(r.Context(), w.Header(), project, id)
	http.ServeContent(w, r, id, info.ModTime(), f)
}

// setImageHeaders describes a catalogued image. Files missing from the
// catalog are served without them.
func (s *Server) setImageHeaders(ctx context.Context, h http.Header, project string, id string) {
	entry, err := s.catalog.Lookup(ctx, project, id)
	if err != nil {
		if !errors.Is(err, catalog.ErrNotFound) {
			slog.Error("Failed to look up catalog entry", "project", project, "name", id, "error", err)
		}
		return
	}

	h.Set(ImageFormatHeader, entry.Format)
	h.Set(ImageWidthHeader, strconv.Itoa(entry.Width))
	h.Set(ImageHeightHeader, strconv.Itoa(entry.Height))
	h.Set(ImageAspectRatioHeader, strconv.FormatFloat(entry.AspectRatio(), 'f', -1, 64))
}

func (s *Server) handleFileDelete(w http.ResponseWriter, r *http.Request, project string, id string) {
	p := s.printer(r)
	if !s.hasProject(project) {
		writeText(w, http.StatusNotFound, p.Sprintf(locale.MsgFileNotFound))
		return
	}

	if err := s.cfg.Engine.Remove(project, id); err != nil {
		if isMissing(err) {
			writeText(w, http.StatusNotFound, p.Sprintf(locale.MsgFileNotFound))
			return
		}
		slog.Error("Failed to delete file", "project", project, "name", id, "error", err)
		writeText(w, http.StatusInternalServerError, p.Sprintf(locale.MsgInternalError))
		return
	}

	if err := s.catalog.Remove(r.Context(), project, id); err != nil {
		slog.Error("Failed to remove file from catalog", "project", project, "name", id, "error", err)
	}

	slog.Info("Deleted file", "project", project, "name", id)
	writeText(w, http.StatusOK, p.Sprintf(locale.MsgFileDeleted))
}
