package server

import (
	"net/http"
)

// Handler returns the http.Handler serving every depot route.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Pages
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /browse/{project}", func(w http.ResponseWriter, r *http.Request) {
		s.handleBrowse(w, r, r.PathValue("project"))
	})

	// Uploads
	mux.HandleFunc("POST /upload/{project}", func(w http.ResponseWriter, r *http.Request) {
		s.handleUpload(w, r, r.PathValue("project"))
	})

	// Project listing
	mux.HandleFunc("GET /{project}", func(w http.ResponseWriter, r *http.Request) {
		s.handleList(w, r, r.PathValue("project"))
	})

	// File-level operations
	mux.HandleFunc("GET /{project}/{id}", func(w http.ResponseWriter, r *http.Request) {
		s.handleFileGet(w, r, r.PathValue("project"), r.PathValue("id"))
	})
	mux.Handle("DELETE /{project}/{id}", s.RequireSecret(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.handleFileDelete(w, r, r.PathValue("project"), r.PathValue("id"))
	})))

	return LogRequest(Recoverer(s.cors.Handler(SlashFix(mux))))
}
