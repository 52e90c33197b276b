package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"depot/internal/config"
	"depot/internal/server"
	"depot/pkg/auth"
	"depot/pkg/storage"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout = 10 * time.Second
	storageTimeout  = 30 * time.Second
)

func Run(ctx context.Context) error {

	envFile := flag.String("env-file", ".env", "optional .env file read before the environment")
	listen := flag.String("listen", "", "HTTP listen port (overrides DEPOT_LISTEN)")
	dataDir := flag.String("data-dir", "", "directory to store project files (overrides DEPOT_DATA_DIR)")

	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		return err
	}
	if *listen != "" {
		cfg.Listen = *listen
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}

	handler := log.NewWithOptions(os.Stdout, log.Options{
		Level:           level,
		TimeFormat:      time.RFC3339,
		ReportTimestamp: true,
		TimeFunction:    log.NowUTC,
		ReportCaller:    true,
	})

	slog.SetDefault(slog.New(handler))

	// Ensure data directory is absolute for easier debugging.
	absDataDir, err := filepath.Abs(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to resolve data directory: %w", err)
	}

	var engine storage.StorageEngine = storage.NewLocalFileStorage(absDataDir)
	if cfg.UsesS3() {
		s3cfg := cfg.S3
		s3cfg.Timeout = storageTimeout
		s3, err := storage.NewS3Storage(ctx, s3cfg)
		if err != nil {
			return err
		}
		slog.Info("Storing files in S3", "endpoint", s3cfg.Endpoint, "bucket", s3cfg.Bucket)
		engine = s3
	}

	opts := []server.ConfigOption{
		server.WithDataDir(absDataDir),
		server.WithCatalogPath(cfg.CatalogPath),
		server.WithProjects(cfg.Projects...),
		server.WithPolicy(cfg.Policy()),
		server.WithLanguage(cfg.Language),
		server.WithCORSOrigins(cfg.CORSOrigins...),
		server.WithStorageEngine(engine),
	}
	if cfg.DeleteSecret != "" {
		opts = append(opts, server.WithAuthEngine(auth.NewSecretAuthEngine(cfg.DeleteSecret)))
	}

	srv, err := server.NewServer(ctx, server.NewConfig(opts...))
	if err != nil {
		return fmt.Errorf("failed to create depot server: %w", err)
	}

	defer srv.Close()

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Listen),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 20 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	eg.Go(func() error {
		slog.Info("Starting Depot HTTP server",
			"port", cfg.Listen,
			"data_dir", absDataDir,
			"projects", cfg.Projects,
			"max_file_size", humanize.IBytes(uint64(cfg.MaxFileSize)),
		)
		err := httpServer.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	slog.Info("Depot Started")
	return eg.Wait()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := Run(ctx); err != nil {
		slog.Error("Depot exited with error", "error", err)
		os.Exit(1)
	}
}
