package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"slices"
	"strings"
	"time"

	"depot/internal/locale"
	"depot/pkg/auth"

	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-ID"

// ResponseWriterWrapper is a wrapper around the default http.ResponseWriter.
// It intercepts the WriteHeader call and saves the response status code.
type ResponseWriterWrapper struct {
	http.ResponseWriter
	WrittenResponseCode int
}

func (w *ResponseWriterWrapper) WriteHeader(statusCode int) {
	if w.WrittenResponseCode == 0 {
		w.WrittenResponseCode = statusCode
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *ResponseWriterWrapper) Write(b []byte) (int, error) {
	if w.WrittenResponseCode == 0 {
		w.WrittenResponseCode = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *ResponseWriterWrapper) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

type LogEntry struct {
	ID         string
	IP         string
	Method     string
	URL        string
	Proto      string
	DurationMS float64
	StatusCode int
}

func (e LogEntry) User() slog.Attr {
	return slog.Group("user", "ip", e.IP)
}

func (e LogEntry) Request() slog.Attr {
	return slog.Group("request",
		"id", e.ID,
		"proto", e.Proto,
		"method", e.Method,
		"url", e.URL,
		"duration_ms", e.DurationMS,
		"status_code", e.StatusCode,
	)
}

// LogRequest logs every request and tags it with a request id, reusing the
// client's X-Request-ID when present.
func LogRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		entry := LogEntry{
			ID:     id,
			IP:     r.RemoteAddr,
			Method: r.Method,
			URL:    r.URL.String(),
			Proto:  r.Proto,
		}

		writer := ResponseWriterWrapper{ResponseWriter: w}

		start := time.Now()
		next.ServeHTTP(&writer, r)
		elapsed := time.Since(start)

		entry.DurationMS = float64(elapsed.Nanoseconds()) / float64(time.Millisecond)
		entry.StatusCode = writer.WrittenResponseCode

		switch {
		case writer.WrittenResponseCode >= 500:
			slog.Error("Request", entry.User(), entry.Request())
		case writer.WrittenResponseCode >= 400:
			slog.Warn("Request", entry.User(), entry.Request())
		default:
			slog.Info("Request", entry.User(), entry.Request())
		}
	})
}

func SlashFix(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for strings.Contains(r.URL.Path, "//") {
			r.URL.Path = strings.ReplaceAll(r.URL.Path, "//", "/")
		}

		if r.URL.Path != "/" && strings.HasSuffix(r.URL.Path, "/") {
			r.URL.Path = strings.TrimSuffix(r.URL.Path, "/")
		}

		next.ServeHTTP(w, r)
	})
}

func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rvr := recover(); rvr != nil {
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}

				slog.Error("Internal Error in HTTP handler", "error", rvr)
				p := locale.Printer(locale.Negotiate(r.Header.Get("Accept-Language"), locale.Default))
				writeError(w, http.StatusInternalServerError, p.Sprintf(locale.MsgInternalError))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// corsPolicy matches request origins against literal origins and
// slash-delimited regular expressions such as /\.example\.com$/.
type corsPolicy struct {
	literals []string
	patterns []*regexp.Regexp
}

func newCORSPolicy(origins []string) (*corsPolicy, error) {
	policy := &corsPolicy{}
	for _, origin := range origins {
		if len(origin) > 2 && strings.HasPrefix(origin, "/") && strings.HasSuffix(origin, "/") {
			re, err := regexp.Compile(origin[1 : len(origin)-1])
			if err != nil {
				return nil, fmt.Errorf("invalid CORS origin pattern %q: %w", origin, err)
			}
			policy.patterns = append(policy.patterns, re)
			continue
		}
		policy.literals = append(policy.literals, strings.TrimSuffix(origin, "/"))
	}
	return policy, nil
}

func (p *corsPolicy) allows(origin string) bool {
	if origin == "" {
		return false
	}
	if slices.Contains(p.literals, "*") || slices.Contains(p.literals, origin) {
		return true
	}
	for _, re := range p.patterns {
		if re.MatchString(origin) {
			return true
		}
	}
	return false
}

// Handler echoes allowed origins and answers preflight requests.
func (p *corsPolicy) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		w.Header().Add("Vary", "Origin")

		if p.allows(origin) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", strings.Join([]string{
				"Authorization", "Content-Type", "Accept-Language", auth.SecretHeader, RequestIDHeader,
			}, ", "))
			h.Set("Access-Control-Expose-Headers", strings.Join([]string{
				RequestIDHeader, ImageFormatHeader, ImageWidthHeader, ImageHeightHeader, ImageAspectRatioHeader,
			}, ", "))
		}

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequireSecret rejects requests the configured AuthEngine does not accept.
// Without an AuthEngine every request passes.
func (s *Server) RequireSecret(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.Authenticator == nil {
			next.ServeHTTP(w, r)
			return
		}

		user, err := s.cfg.Authenticator.AuthenticateRequest(r.Context(), r)
		if err != nil || user == nil {
			writeError(w, http.StatusUnauthorized, s.printer(r).Sprintf(locale.MsgAccessDenied))
			return
		}

		slog.Debug("Authenticated", "user", user.Name, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
