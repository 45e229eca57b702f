// Package views holds the embedded HTML templates of the site. Every page
// is parsed together with layout.html and rendered through its "layout"
// template.
package views

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"
)

//go:embed *.html
var files embed.FS

// Page is the data every page template receives.
type Page struct {
	Title       string
	Description string
	Site        string
	Path        string
	OGImage     string
	User        string
	Content     any
}

// pages maps a page name to its template files, parsed after layout.html.
var pages = map[string][]string{
	"home":       {"home.html", "entries.html"},
	"blog":       {"blog.html", "entries.html"},
	"post":       {"post.html"},
	"tag":        {"tag.html", "entries.html"},
	"contact":    {"contact.html"},
	"thanks":     {"thanks.html"},
	"page-views": {"pageviews.html"},
	"login":      {"login.html"},
}

var funcs = template.FuncMap{
	"date": func(t time.Time) string {
		return t.Format("January 2, 2006")
	},
	"isodate": func(t time.Time) string {
		return t.Format(time.RFC3339)
	},
	"join": strings.Join,
	// trusted is only used for markdown rendered from the content directory.
	"trusted": func(s string) template.HTML {
		return template.HTML(s) //nolint:gosec
	},
	"add": func(a, b int) int { return a + b },
	"sub": func(a, b int) int { return a - b },
}

// Templates holds one parsed template set per page.
type Templates map[string]*template.Template

// Load parses every page.
func Load() (Templates, error) {
	t := make(Templates, len(pages))
	for name, parts := range pages {
		tpl, err := template.New(name).Funcs(funcs).ParseFS(files, append([]string{"layout.html"}, parts...)...)
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		t[name] = tpl
	}
	return t, nil
}

// MustLoad is Load for program start-up.
func MustLoad() Templates {
	t, err := Load()
	if err != nil {
		panic(err)
	}
	return t
}

// Render executes the named page into w.
func (t Templates) Render(w io.Writer, name string, p Page) error {
	tpl, ok := t[name]
	if !ok {
		return fmt.Errorf("unknown template %q", name)
	}
	return tpl.ExecuteTemplate(w, "layout", p)
}
