// Package view renders typed view models with html/template. Each page
// template is parsed on top of its own copy of the base layout and partials.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"
)

//go:embed templates
var templateFS embed.FS

//go:embed assets/site.js
var SiteJS []byte

var pageFiles = map[string]string{
	PageList:       "templates/list.html",
	PageArticle:    "templates/article.html",
	PageStatic:     "templates/static.html",
	PageStandalone: "templates/standalone.html",
	PageError:      "templates/error.html",
}

var funcs = template.FuncMap{
	"active": func(current, href string) bool {
		if href == "/" {
			return current == "/"
		}
		return current == href || strings.HasPrefix(current, strings.TrimSuffix(href, "/")+"/")
	},
	"year": currentYear,
}

func currentYear() int { return time.Now().Year() }

type Renderer struct {
	pages map[string]*template.Template
}

// New parses the base layout and partials first, then every page template
// on top of its own clone of them.
func New() (*Renderer, error) {
	partials, err := fs.Glob(templateFS, "templates/partials/*.html")
	if err != nil {
		return nil, err
	}
	base, err := template.New("base.html").Funcs(funcs).ParseFS(templateFS, append([]string{"templates/base.html"}, partials...)...)
	if err != nil {
		return nil, fmt.Errorf("parse base layout and partials: %w", err)
	}

	r := &Renderer{pages: make(map[string]*template.Template, len(pageFiles))}
	for name, file := range pageFiles {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone base for %s: %w", name, err)
		}
		if _, err := clone.ParseFS(templateFS, file); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path.Base(file), err)
		}
		r.pages[name] = clone
	}
	return r, nil
}

// Render executes page with doc into a buffer first, so w only ever sees a
// complete document.
func (r *Renderer) Render(w io.Writer, page string, doc *Document) error {
	t, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("view: unknown page %q", page)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "page", doc); err != nil {
		return fmt.Errorf("render %s: %w", page, err)
	}
	_, err := buf.WriteTo(w)
	return err
}
