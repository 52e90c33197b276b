// Command depot-upload posts image files to a running depot server.
//
//	depot-upload -server http://localhost:3100 -project skyarhyz a.png b.jpg
//
// Files are sent as the form keys file1, file2, ... in argument order.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"depot/internal/server"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
)

// Uploader posts files to one project of a depot server.
type Uploader struct {
	Client   *http.Client
	BaseURL  string
	Project  string
	Language string
}

// Result pairs a local file with the name the server stored it under. An
// empty StoredName means the server did not store the file.
type Result struct {
	Path       string
	StoredName string
	Size       int64
}

// Report is the outcome of one upload request.
type Report struct {
	Message string
	Results []Result
}

// buildForm writes paths into a multipart body, detecting each part's
// content type.
func buildForm(paths []string) (*bytes.Buffer, string, []int64, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	sizes := make([]int64, 0, len(paths))

	for i, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, "", nil, fmt.Errorf("read %s: %w", path, err)
		}

		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			"file"+strconv.Itoa(i+1), filepath.Base(path)))
		header.Set("Content-Type", mimetype.Detect(data).String())

		part, err := mw.CreatePart(header)
		if err != nil {
			return nil, "", nil, fmt.Errorf("create part for %s: %w", path, err)
		}
		if _, err := part.Write(data); err != nil {
			return nil, "", nil, fmt.Errorf("write part for %s: %w", path, err)
		}
		sizes = append(sizes, int64(len(data)))
	}

	if err := mw.Close(); err != nil {
		return nil, "", nil, err
	}
	return &buf, mw.FormDataContentType(), sizes, nil
}

// Upload sends paths in a single request.
func (u *Uploader) Upload(ctx context.Context, paths []string) (*Report, error) {
	if len(paths) == 0 {
		return nil, errors.New("no files given")
	}

	body, contentType, sizes, err := buildForm(paths)
	if err != nil {
		return nil, err
	}

	endpoint, err := url.JoinPath(u.BaseURL, "upload", u.Project)
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	if u.Language != "" {
		req.Header.Set("Accept-Language", u.Language)
	}

	resp, err := u.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr server.ErrorResponse
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Message != "" {
			return nil, fmt.Errorf("upload rejected (%d): %s", resp.StatusCode, apiErr.Message)
		}
		return nil, fmt.Errorf("upload failed with status %d", resp.StatusCode)
	}

	var ok server.UploadResponse
	if err := json.Unmarshal(raw, &ok); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	// Responses are in sorted key order, so file10 precedes file2.
	byKey := make(map[string]int, len(ok.Files))
	for i, f := range ok.Files {
		byKey[keyOf(f.Name)] = i
	}

	report := &Report{Message: ok.Message, Results: make([]Result, 0, len(paths))}
	for i, path := range paths {
		r := Result{Path: path, Size: sizes[i]}
		if idx, found := byKey["file"+strconv.Itoa(i+1)]; found {
			r.StoredName = ok.Files[idx].Name
		}
		report.Results = append(report.Results, r)
	}
	return report, nil
}

// keyOf returns the form key prefix of a generated name.
func keyOf(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '_' {
			return name[:i]
		}
	}
	return name
}

func Run(ctx context.Context, args []string, stdout io.Writer) error {
	flags := flag.NewFlagSet("depot-upload", flag.ContinueOnError)
	serverURL := flags.String("server", "http://localhost:3100", "depot server base URL")
	project := flags.String("project", "skyarhyz", "target project")
	lang := flags.String("lang", "", "preferred response language (ru, en)")
	timeout := flags.Duration("timeout", time.Minute, "request timeout")

	if err := flags.Parse(args); err != nil {
		return err
	}

	uploader := &Uploader{
		Client:   &http.Client{Timeout: *timeout},
		BaseURL:  *serverURL,
		Project:  *project,
		Language: *lang,
	}

	report, err := uploader.Upload(ctx, flags.Args())
	if err != nil {
		return err
	}

	for _, r := range report.Results {
		if r.StoredName == "" {
			fmt.Fprintf(stdout, "%s\tskipped\n", r.Path)
			continue
		}
		fmt.Fprintf(stdout, "%s\t%s\t%s\n", r.Path, r.StoredName, humanize.IBytes(uint64(r.Size)))
	}
	slog.Info(report.Message)
	return nil
}

func main() {
	handler := log.NewWithOptions(os.Stderr, log.Options{
		Level:           log.InfoLevel,
		TimeFormat:      time.RFC3339,
		ReportTimestamp: true,
		TimeFunction:    log.NowUTC,
	})
	slog.SetDefault(slog.New(handler))

	if err := Run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		slog.Error("Upload failed", "error", err)
		os.Exit(1)
	}
}
