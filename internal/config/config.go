// Package config loads the process configuration from an optional .env file
// and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strings"

	"depot/internal/locale"
	"depot/internal/upload"
	"depot/pkg/storage"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"golang.org/x/text/language"
)

// DefaultCORSOrigins are the origins allowed when DEPOT_CORS_ORIGINS is unset.
// Entries wrapped in slashes are regular expressions.
var DefaultCORSOrigins = []string{
	"https://skyarhyz.ru",
	`/\.skyarhyz\.ru$/`,
	`/\.vercel\.app$/`,
	"https://sky-arkhiz.vercel.app",
}

// reservedProjects collide with fixed routes.
var reservedProjects = []string{"upload", "browse"}

// Environment is the raw environment, decoded by go-env.
type Environment struct {
	Listen            string `env:"DEPOT_LISTEN,default=3100"`
	DataDir           string `env:"DEPOT_DATA_DIR,default=./files"`
	CatalogPath       string `env:"DEPOT_CATALOG"`
	Projects          string `env:"DEPOT_PROJECTS,default=skyarhyz"`
	AllowedExtensions string `env:"DEPOT_ALLOWED_EXTENSIONS"`
	MaxFileSize       int    `env:"DEPOT_MAX_FILE_SIZE,default=10485760"`
	DeleteSecret      string `env:"DEPOT_DELETE_SECRET"`
	CORSOrigins       string `env:"DEPOT_CORS_ORIGINS"`
	LogLevel          string `env:"DEPOT_LOG_LEVEL,default=info"`
	Language          string `env:"DEPOT_LANG,default=ru"`
	S3Endpoint        string `env:"DEPOT_S3_ENDPOINT"`
	S3Bucket          string `env:"DEPOT_S3_BUCKET,default=depot"`
	S3AccessKey       string `env:"DEPOT_S3_ACCESS_KEY"`
	S3SecretKey       string `env:"DEPOT_S3_SECRET_KEY"`
	S3Region          string `env:"DEPOT_S3_REGION"`
	S3UseSSL          bool   `env:"DEPOT_S3_SSL,default=false"`
	Extras            env.EnvSet
}

// Config is the resolved, immutable process configuration.
type Config struct {
	Listen            string
	DataDir           string
	CatalogPath       string
	Projects          []string
	AllowedExtensions []string
	MaxFileSize       int64
	DeleteSecret      string
	CORSOrigins       []string
	LogLevel          string
	Language          language.Tag
	// S3 selects object storage when S3.Endpoint is set.
	S3 storage.S3Config
}

// Load reads envFile (when it exists) into the process environment without
// overriding variables that are already set, then decodes the environment.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	var environment Environment
	extras, err := env.UnmarshalFromEnviron(&environment)
	if err != nil {
		return nil, fmt.Errorf("decode environment: %w", err)
	}
	environment.Extras = extras

	return FromEnvironment(environment)
}

// FromEnvironment resolves defaults and list values of a decoded Environment.
func FromEnvironment(e Environment) (*Config, error) {
	tag, err := locale.Parse(e.Language)
	if err != nil {
		return nil, fmt.Errorf("invalid language %q: %w", e.Language, err)
	}

	cfg := &Config{
		Listen:            e.Listen,
		DataDir:           e.DataDir,
		CatalogPath:       e.CatalogPath,
		Projects:          splitList(e.Projects),
		AllowedExtensions: normalizeExtensions(splitList(e.AllowedExtensions)),
		MaxFileSize:       int64(e.MaxFileSize),
		DeleteSecret:      e.DeleteSecret,
		CORSOrigins:       splitList(e.CORSOrigins),
		LogLevel:          e.LogLevel,
		Language:          tag,
		S3: storage.S3Config{
			Endpoint:  e.S3Endpoint,
			Bucket:    e.S3Bucket,
			AccessKey: e.S3AccessKey,
			SecretKey: e.S3SecretKey,
			Region:    e.S3Region,
			UseSSL:    e.S3UseSSL,
		},
	}

	if len(cfg.AllowedExtensions) == 0 {
		cfg.AllowedExtensions = slices.Clone(upload.DefaultAllowedExtensions)
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = slices.Clone(DefaultCORSOrigins)
	}
	return cfg, nil
}

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("data directory must not be empty")
	}
	if c.MaxFileSize <= 0 {
		return fmt.Errorf("max file size must be positive, got %d", c.MaxFileSize)
	}
	if len(c.Projects) == 0 {
		return errors.New("at least one project must be configured")
	}
	if c.UsesS3() && c.S3.Bucket == "" {
		return errors.New("an S3 bucket is required when an S3 endpoint is set")
	}
	for _, p := range c.Projects {
		if !storage.IsValidProject(p) {
			return fmt.Errorf("invalid project name %q", p)
		}
		if slices.Contains(reservedProjects, p) {
			return fmt.Errorf("project name %q is reserved", p)
		}
	}
	return nil
}

// UsesS3 reports whether files go to object storage instead of DataDir.
func (c *Config) UsesS3() bool {
	return c.S3.Endpoint != ""
}

// Policy returns the upload validation policy.
func (c *Config) Policy() upload.Policy {
	return upload.Policy{
		AllowedExtensions: slices.Clone(c.AllowedExtensions),
		MaxFileSize:       c.MaxFileSize,
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// normalizeExtensions lower-cases extensions and adds the leading dot.
func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out = append(out, ext)
	}
	return out
}
