package ui_test

import (
	"bytes"
	"testing"

	"depot/internal/locale"
	"depot/internal/ui"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestIndexPageRendersUploadForms(t *testing.T) {
	t.Parallel()

	p := locale.Printer(language.English)
	var buf bytes.Buffer
	err := ui.IndexPage(p, language.English, []string{"skyarhyz", "gallery"}, []string{".png", ".jpg"}, 10<<20).Render(t.Context(), &buf)
	require.NoError(t, err)

	out := buf.String()
	require.Contains(t, out, `<html lang="en">`)
	require.Contains(t, out, `action="/upload/skyarhyz"`)
	require.Contains(t, out, `action="/upload/gallery"`)
	require.Contains(t, out, `name="file1"`)
	require.Contains(t, out, `accept=".png,.jpg"`)
	require.Contains(t, out, "Maximum file size: 10 MiB")
}

func TestIndexPageRussian(t *testing.T) {
	t.Parallel()

	p := locale.Printer(language.Russian)
	var buf bytes.Buffer
	require.NoError(t, ui.IndexPage(p, language.Russian, []string{"skyarhyz"}, []string{".png"}, 1024).Render(t.Context(), &buf))
	require.Contains(t, buf.String(), "Проекты")
	require.Contains(t, buf.String(), `<html lang="ru">`)
}

func TestProjectPageEscapesAndLinks(t *testing.T) {
	t.Parallel()

	p := locale.Printer(language.English)
	files := []ui.File{{Name: "file1_20240501120000000.png", Format: "png", Width: 4, Height: 2, Size: 2048, CreatedAt: "2024-05-01T12:00:00Z"}}

	var buf bytes.Buffer
	require.NoError(t, ui.ProjectPage(p, language.English, "skyarhyz", files).Render(t.Context(), &buf))

	out := buf.String()
	require.Contains(t, out, `href="/skyarhyz/file1_20240501120000000.png"`)
	require.Contains(t, out, "4×2")
	require.Contains(t, out, "2.0 KiB")
}

func TestProjectPageEmpty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, ui.ProjectPage(locale.Printer(language.English), language.English, "<x>", nil).Render(t.Context(), &buf))
	require.Contains(t, buf.String(), "No files yet")
	require.Contains(t, buf.String(), "&lt;x&gt;")
	require.NotContains(t, buf.String(), "<x>")
}
