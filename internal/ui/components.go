package ui

import (
	"context"
	"html"
	"io"
	"net/url"
	"strconv"
	"strings"

	"depot/internal/locale"

	"github.com/a-h/templ"
	"github.com/dustin/go-humanize"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// UploadSlots is the number of file inputs on each upload form.
const UploadSlots = 3

// File is a stored file shown in the project browser.
type File struct {
	Name      string
	Format    string
	Width     int
	Height    int
	Size      int64
	CreatedAt string
}

// writeAll writes each part in order, stopping at the first error.
func writeAll(w io.Writer, parts ...string) error {
	for _, part := range parts {
		if _, err := io.WriteString(w, part); err != nil {
			return err
		}
	}
	return nil
}

// Layout renders a full HTML page with a title and body component.
func Layout(tag language.Tag, title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		base, _ := tag.Base()
		err := writeAll(w,
			`<!DOCTYPE html><html lang="`, html.EscapeString(base.String()), `">`,
			`<head><meta charset="utf-8">`,
			`<meta name="viewport" content="width=device-width, initial-scale=1">`,
			`<title>`, html.EscapeString(title), `</title>`,
			`<link rel="stylesheet" href="https://unpkg.com/@picocss/pico@2/css/pico.min.css">`,
			`</head><body><main class="container">`,
		)
		if err != nil {
			return err
		}

		if err := body.Render(ctx, w); err != nil {
			return err
		}

		return writeAll(w, `</main></body></html>`)
	})
}

// IndexPage lists the projects, each with an upload form.
func IndexPage(p *message.Printer, tag language.Tag, projects []string, extensions []string, maxFileSize int64) templ.Component {
	title := p.Sprintf(locale.MsgProjects)
	accept := strings.Join(extensions, ",")

	return Layout(tag, "Depot - "+title, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		err := writeAll(w,
			`<header><h1>`, html.EscapeString(title), `</h1>`,
			`<p>`, html.EscapeString(p.Sprintf(locale.MsgAllowedTypes, strings.Join(extensions, ", "))), `<br>`,
			html.EscapeString(p.Sprintf(locale.MsgSizeLimit, humanize.IBytes(uint64(maxFileSize)))), `</p></header>`,
		)
		if err != nil {
			return err
		}

		for _, project := range projects {
			escaped := html.EscapeString(project)
			path := url.PathEscape(project)
			err := writeAll(w,
				`<article><header><h2>`, escaped, `</h2>`,
				`<a href="/browse/`, path, `">`, html.EscapeString(p.Sprintf(locale.MsgBrowse)), `</a></header>`,
				`<form method="post" action="/upload/`, path, `" enctype="multipart/form-data">`,
			)
			if err != nil {
				return err
			}

			for i := 1; i <= UploadSlots; i++ {
				err := writeAll(w,
					`<input type="file" name="file`, strconv.Itoa(i), `" accept="`, html.EscapeString(accept), `">`,
				)
				if err != nil {
					return err
				}
			}

			err = writeAll(w,
				`<button type="submit">`, html.EscapeString(p.Sprintf(locale.MsgUpload)), `</button>`,
				`</form></article>`,
			)
			if err != nil {
				return err
			}
		}
		return nil
	}))
}

// ProjectPage renders the stored files of one project, newest first.
func ProjectPage(p *message.Printer, tag language.Tag, project string, files []File) templ.Component {
	return Layout(tag, "Depot - "+project, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		escaped := html.EscapeString(project)
		err := writeAll(w,
			`<nav><ul><li><a href="/">`, html.EscapeString(p.Sprintf(locale.MsgProjects)), `</a></li>`,
			`<li><strong>`, escaped, `</strong></li></ul></nav>`,
		)
		if err != nil {
			return err
		}

		if len(files) == 0 {
			return writeAll(w, `<p>`, html.EscapeString(p.Sprintf(locale.MsgNoStoredFiles)), `</p>`)
		}

		err = writeAll(w, `<table><thead><tr><th>Name</th><th>Format</th><th>Dimensions</th><th>Size</th><th>Created</th></tr></thead><tbody>`)
		if err != nil {
			return err
		}

		for _, f := range files {
			href := "/" + url.PathEscape(project) + "/" + url.PathEscape(f.Name)
			err := writeAll(w,
				`<tr><td><a href="`, html.EscapeString(href), `">`, html.EscapeString(f.Name), `</a></td>`,
				`<td>`, html.EscapeString(f.Format), `</td>`,
				`<td>`, strconv.Itoa(f.Width), `×`, strconv.Itoa(f.Height), `</td>`,
				`<td>`, humanize.IBytes(uint64(f.Size)), `</td>`,
				`<td>`, html.EscapeString(f.CreatedAt), `</td></tr>`,
			)
			if err != nil {
				return err
			}
		}

		return writeAll(w, `</tbody></table>`)
	}))
}
