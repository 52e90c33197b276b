// Package catalog keeps a SQLite index of stored files so projects can be
// listed without walking the storage directory.
package catalog

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

var (
	//go:embed migrations
	migrationsFS embed.FS

	// ErrNotFound is returned when a file is not in the catalog.
	ErrNotFound = errors.New("file not found in catalog")
)

// Entry is one catalogued file.
type Entry struct {
	Project   string    `json:"project"`
	Name      string    `json:"name"`
	Key       string    `json:"key"`
	Format    string    `json:"format"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}

// AspectRatio returns width divided by height.
func (e Entry) AspectRatio() float64 {
	if e.Height == 0 {
		return 0
	}
	return float64(e.Width) / float64(e.Height)
}

// Catalog is a SQLite-backed file index.
type Catalog struct {
	db *sql.DB
}

// initSchema applies all SQL files in the embedded migrations in
// lexicographical order.
func initSchema(ctx context.Context, db *sql.DB) error {
	return fs.WalkDir(migrationsFS, "migrations", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		content, readError := migrationsFS.ReadFile(path)
		if readError != nil {
			return fmt.Errorf("error reading SQL file: %w", readError)
		}

		slog.Debug("Running migration", "path", path)
		_, execError := db.ExecContext(ctx, string(content))
		return execError
	})
}

// Open opens (creating if needed) the catalog database at path.
func Open(ctx context.Context, path string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	// A single connection serializes writers and keeps in-memory databases
	// consistent across queries.
	db.SetMaxOpenConns(1)

	if err := initSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Catalog{db: db}, nil
}

// Close closes the underlying database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// withTransaction runs a function within a database transaction.
func withTransaction(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return fmt.Errorf("error executing transaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}

	return nil
}

// Record inserts or replaces entries in one transaction.
func (c *Catalog) Record(ctx context.Context, entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}

	return withTransaction(ctx, c.db, func(tx *sql.Tx) error {
		for _, e := range entries {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO files(project, name, field_key, format, width, height, size, created_at)
				 VALUES(?, ?, ?, ?, ?, ?, ?, ?)
				 ON CONFLICT(project, name) DO UPDATE SET
				 	field_key=excluded.field_key,
				 	format=excluded.format,
				 	width=excluded.width,
				 	height=excluded.height,
				 	size=excluded.size,
				 	created_at=excluded.created_at`,
				e.Project, e.Name, e.Key, e.Format, e.Width, e.Height, e.Size, e.CreatedAt.UTC(),
			)
			if err != nil {
				return fmt.Errorf("record %s/%s: %w", e.Project, e.Name, err)
			}
		}
		return nil
	})
}

// Remove deletes an entry. Removing an unknown entry is not an error.
func (c *Catalog) Remove(ctx context.Context, project string, name string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM files WHERE project = ? AND name = ?`, project, name)
	return err
}

// Lookup returns a single entry.
func (c *Catalog) Lookup(ctx context.Context, project string, name string) (Entry, error) {
	e := Entry{Project: project, Name: name}
	err := c.db.QueryRowContext(ctx,
		`SELECT field_key, format, width, height, size, created_at FROM files WHERE project = ? AND name = ?`,
		project, name,
	).Scan(&e.Key, &e.Format, &e.Width, &e.Height, &e.Size, &e.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, err
	}
	return e, nil
}

// List returns all entries of a project, newest first.
func (c *Catalog) List(ctx context.Context, project string) ([]Entry, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT name, field_key, format, width, height, size, created_at
		 FROM files WHERE project = ?
		 ORDER BY created_at DESC, name DESC`,
		project,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		e := Entry{Project: project}
		if err := rows.Scan(&e.Name, &e.Key, &e.Format, &e.Width, &e.Height, &e.Size, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
