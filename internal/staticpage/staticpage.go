// Package staticpage finds embedded and standalone static pages. A candidate
// only counts as existing when its body is not the SPA shell document that
// misconfigured hosts serve for every unknown path.
package staticpage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/expvn/explog/internal/config"
	"github.com/expvn/explog/internal/model"
)

var ErrNotFound = errors.New("staticpage: not found")

// Source reads files relative to the site root.
type Source interface {
	Content(ctx context.Context, name string) ([]byte, error)
}

type candidate struct {
	file string
	mode string
}

var embeddedCandidates = []candidate{
	{file: "index.html", mode: model.EmbedInject},
	{file: "view.html", mode: model.EmbedIframe},
	{file: "page.txt", mode: model.EmbedText},
}

type Prober struct {
	src   Source
	shell config.Shell
	log   zerolog.Logger
}

func NewProber(src Source, shell config.Shell, log zerolog.Logger) *Prober {
	if shell.RootID == "" {
		shell.RootID = "app"
	}
	if shell.Script == "" {
		shell.Script = "app.js"
	}
	return &Prober{
		src:   src,
		shell: shell,
		log:   log.With().Str("component", "staticpage").Logger(),
	}
}

// EmbeddedDir is the store directory of the embedded page name.
func EmbeddedDir(name string) string {
	return "content/pages/Embedded/" + name
}

// StandaloneDir is the store directory of the standalone page name.
func StandaloneDir(name string) string {
	return "content/pages/Standalone/" + name
}

// Embedded tries the embedded candidates of name in order and returns the
// first that passes the probe, with its page.json sidecar applied.
func (p *Prober) Embedded(ctx context.Context, name string) (*model.StaticPage, error) {
	dir := EmbeddedDir(name)
	for _, c := range embeddedCandidates {
		body, ok := p.probe(ctx, dir+"/"+c.file)
		if !ok {
			continue
		}
		page := &model.StaticPage{
			Name: name,
			Kind: model.StaticEmbedded,
			File: dir + "/" + c.file,
			Body: body,
			Mode: c.mode,
		}
		p.applyMeta(ctx, dir, page)
		return page, nil
	}
	return nil, ErrNotFound
}

// Legacy serves /page/{name}: only the embedded index.html, always injected.
func (p *Prober) Legacy(ctx context.Context, name string) (*model.StaticPage, error) {
	file := EmbeddedDir(name) + "/index.html"
	body, ok := p.probe(ctx, file)
	if !ok {
		return nil, ErrNotFound
	}
	return &model.StaticPage{
		Name: name,
		Kind: model.StaticEmbedded,
		File: file,
		Body: body,
		Mode: model.EmbedInject,
	}, nil
}

// Standalone probes the standalone index.html of name.
func (p *Prober) Standalone(ctx context.Context, name string) (*model.StaticPage, error) {
	file := StandaloneDir(name) + "/index.html"
	body, ok := p.probe(ctx, file)
	if !ok {
		return nil, ErrNotFound
	}
	return &model.StaticPage{
		Name: name,
		Kind: model.StaticStandalone,
		File: file,
		Body: body,
		Mode: model.EmbedIframe,
	}, nil
}

func (p *Prober) probe(ctx context.Context, file string) (string, bool) {
	body, err := p.src.Content(ctx, file)
	if err != nil {
		return "", false
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return "", false
	}
	if p.IsShell(body) {
		p.log.Debug().Str("file", file).Msg("candidate is the app shell, ignoring")
		return "", false
	}
	return string(body), true
}

// IsShell reports whether body is the SPA shell document: it carries the root
// element id or references the app script.
func (p *Prober) IsShell(body []byte) bool {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return false
	}
	if doc.Find(`[id="` + p.shell.RootID + `"]`).Length() > 0 {
		return true
	}
	shell := false
	doc.Find("script[src]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src, _ := s.Attr("src")
		if strings.Contains(src, p.shell.Script) {
			shell = true
			return false
		}
		return true
	})
	return shell
}

func (p *Prober) applyMeta(ctx context.Context, dir string, page *model.StaticPage) {
	raw, err := p.src.Content(ctx, dir+"/page.json")
	if err != nil {
		return
	}
	var meta model.StaticPageMeta
	if err := json.Unmarshal(raw, &meta); err != nil {
		p.log.Warn().Err(err).Str("page", page.Name).Msg("ignoring malformed page.json")
		return
	}
	page.Meta = meta
	switch mode := strings.ToLower(strings.TrimSpace(meta.Embed)); mode {
	case model.EmbedInject, model.EmbedIframe, model.EmbedText:
		page.Mode = mode
	}
}
