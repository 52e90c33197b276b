package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"depot/internal/catalog"
	"depot/internal/upload"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Headers describing a served image, taken from the catalog.
const (
	ImageFormatHeader      = "X-Image-Format"
	ImageWidthHeader       = "X-Image-Width"
	ImageHeightHeader      = "X-Image-Height"
	ImageAspectRatioHeader = "X-Image-Aspect-Ratio"
)

// ErrorResponse is the body of every JSON error.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// UploadResponse is the body of a successful upload. Filenames and
// AspectRatio repeat the per-file values as flat lists.
type UploadResponse struct {
	Status      string              `json:"status"`
	Message     string              `json:"message"`
	Files       []upload.FileRecord `json:"files"`
	Filenames   []string            `json:"filenames"`
	AspectRatio []float64           `json:"aspectRatio"`
}

// ListResponse is the body of a project listing.
type ListResponse struct {
	Status  string          `json:"status"`
	Project string          `json:"project"`
	Files   []catalog.Entry `json:"files"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Status: StatusError, Message: message})
}

func writeText(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(message))
}
