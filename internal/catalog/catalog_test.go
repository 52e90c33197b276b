package catalog_test

import (
	"path/filepath"
	"testing"
	"time"

	"depot/internal/catalog"

	"github.com/stretchr/testify/require"
)

func openCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()

	c, err := catalog.Open(t.Context(), filepath.Join(t.TempDir(), "catalog.sqlite"))
	require.NoError(t, err, "Open error")
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestRecordLookupRemove(t *testing.T) {
	t.Parallel()

	c := openCatalog(t)
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	entry := catalog.Entry{
		Project:   "skyarhyz",
		Name:      "avatar_20240102030405000.png",
		Key:       "avatar",
		Format:    "png",
		Width:     64,
		Height:    32,
		Size:      2048,
		CreatedAt: created,
	}
	require.NoError(t, c.Record(t.Context(), entry), "Record error")

	got, err := c.Lookup(t.Context(), entry.Project, entry.Name)
	require.NoError(t, err, "Lookup error")
	require.Equal(t, entry.Format, got.Format)
	require.Equal(t, entry.Width, got.Width)
	require.Equal(t, entry.Height, got.Height)
	require.Equal(t, entry.Size, got.Size)
	require.True(t, created.Equal(got.CreatedAt), "created_at round trip")
	require.InDelta(t, 2.0, got.AspectRatio(), 1e-9)

	require.NoError(t, c.Remove(t.Context(), entry.Project, entry.Name), "Remove error")

	_, err = c.Lookup(t.Context(), entry.Project, entry.Name)
	require.ErrorIs(t, err, catalog.ErrNotFound)

	require.NoError(t, c.Remove(t.Context(), entry.Project, entry.Name), "removing twice is not an error")
}

func TestListIsScopedAndNewestFirst(t *testing.T) {
	t.Parallel()

	c := openCatalog(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, c.Record(t.Context(),
		catalog.Entry{Project: "alpha", Name: "old.png", Format: "png", Width: 1, Height: 1, CreatedAt: base},
		catalog.Entry{Project: "alpha", Name: "new.png", Format: "png", Width: 1, Height: 1, CreatedAt: base.Add(time.Hour)},
		catalog.Entry{Project: "beta", Name: "other.png", Format: "png", Width: 1, Height: 1, CreatedAt: base},
	))

	entries, err := c.List(t.Context(), "alpha")
	require.NoError(t, err, "List error")
	require.Len(t, entries, 2, "only alpha entries")
	require.Equal(t, "new.png", entries[0].Name)
	require.Equal(t, "old.png", entries[1].Name)

	entries, err = c.List(t.Context(), "gamma")
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestRecordReplacesExistingEntry(t *testing.T) {
	t.Parallel()

	c := openCatalog(t)
	now := time.Now().UTC()

	require.NoError(t, c.Record(t.Context(), catalog.Entry{Project: "alpha", Name: "a.png", Format: "png", Width: 1, Height: 1, CreatedAt: now}))
	require.NoError(t, c.Record(t.Context(), catalog.Entry{Project: "alpha", Name: "a.png", Format: "png", Width: 5, Height: 1, CreatedAt: now}))

	entries, err := c.List(t.Context(), "alpha")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, 5, entries[0].Width)
}

func TestReopenKeepsEntries(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "catalog.sqlite")

	c, err := catalog.Open(t.Context(), path)
	require.NoError(t, err)
	require.NoError(t, c.Record(t.Context(), catalog.Entry{Project: "alpha", Name: "a.png", Format: "png", Width: 1, Height: 1, CreatedAt: time.Now()}))
	require.NoError(t, c.Close())

	c, err = catalog.Open(t.Context(), path)
	require.NoError(t, err, "migrations must be re-runnable")
	defer c.Close()

	entries, err := c.List(t.Context(), "alpha")
	require.NoError(t, err)
	require.Len(t, entries, 1)
}
