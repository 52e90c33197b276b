package server

import (
	"time"

	"depot/internal/catalog"
	"depot/internal/upload"
	"depot/pkg/auth"
	"depot/pkg/storage"

	"golang.org/x/text/language"
)

// DefaultMaxRequestSize caps the whole multipart body.
const DefaultMaxRequestSize = 100 * upload.MiB

type Config struct {
	DataDir        string
	CatalogPath    string
	Projects       []string
	Policy         upload.Policy
	MaxRequestSize int64
	Language       language.Tag
	CORSOrigins    []string
	Engine         storage.StorageEngine
	Authenticator  auth.AuthEngine
	Catalog        *catalog.Catalog
	Now            func() time.Time
}

type ConfigOption func(*Config)

func WithDataDir(dataDir string) ConfigOption {
	return func(cfg *Config) {
		cfg.DataDir = dataDir
	}
}

func WithCatalogPath(path string) ConfigOption {
	return func(cfg *Config) {
		cfg.CatalogPath = path
	}
}

func WithProjects(projects ...string) ConfigOption {
	return func(cfg *Config) {
		cfg.Projects = append(cfg.Projects, projects...)
	}
}

func WithPolicy(policy upload.Policy) ConfigOption {
	return func(cfg *Config) {
		cfg.Policy = policy
	}
}

func WithMaxRequestSize(size int64) ConfigOption {
	return func(cfg *Config) {
		cfg.MaxRequestSize = size
	}
}

func WithLanguage(tag language.Tag) ConfigOption {
	return func(cfg *Config) {
		cfg.Language = tag
	}
}

func WithCORSOrigins(origins ...string) ConfigOption {
	return func(cfg *Config) {
		cfg.CORSOrigins = append(cfg.CORSOrigins, origins...)
	}
}

func WithStorageEngine(engine storage.StorageEngine) ConfigOption {
	return func(cfg *Config) {
		cfg.Engine = engine
	}
}

// WithAuthEngine guards deletion. Without one, deletion is open.
func WithAuthEngine(authenticator auth.AuthEngine) ConfigOption {
	return func(cfg *Config) {
		cfg.Authenticator = authenticator
	}
}

// WithCatalog uses an already opened catalog. The server does not close it.
func WithCatalog(c *catalog.Catalog) ConfigOption {
	return func(cfg *Config) {
		cfg.Catalog = c
	}
}

func WithClock(now func() time.Time) ConfigOption {
	return func(cfg *Config) {
		cfg.Now = now
	}
}

func NewConfig(opts ...ConfigOption) Config {
	cfg := Config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
