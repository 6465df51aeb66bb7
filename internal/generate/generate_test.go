package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expvn/explog/internal/model"
)

func writeFile(t *testing.T, root, rel, body string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
}

func readJSON(t *testing.T, file string, v any) {
	t.Helper()
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, v))
}

type site struct {
	root, content, static, out string
}

func newSite(t *testing.T) site {
	t.Helper()
	root := t.TempDir()
	return site{
		root:    root,
		content: filepath.Join(root, "content"),
		static:  filepath.Join(root, "static"),
		out:     filepath.Join(root, "public"),
	}
}

func (s site) generator(perPage int, src model.SiteSource) *Generator {
	return New(Options{
		ContentDir:   s.content,
		StaticDir:    s.static,
		OutputDir:    s.out,
		PostsPerPage: perPage,
		SiteTitle:    "Exp Log",
		BaseURL:      "https://blog.example.com",
		Source:       src,
		Now:          func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) },
	}, zerolog.Nop())
}

func TestRunWritesDataFiles(t *testing.T) {
	t.Parallel()
	s := newSite(t)
	writeFile(t, s.content, "posts/first/index.md", `---
title: First
date: 2024-01-02
category: Game
tags: [go, Web]
image: images/cover.png
---
# Heading

Some *body* text with a [link](https://example.com).
`)
	writeFile(t, s.content, "posts/second/index.md", `---
id: fixed-id
title: Second
date: 2024-03-04T10:00:00Z
category: game
tags: go
summary: Given summary
---
Body.
`)
	writeFile(t, s.content, "posts/third/index.md", `---
title: Third
---
No date.
`)
	writeFile(t, s.content, "posts/third/attachments/pic.JPG", "x")
	writeFile(t, s.content, "posts/untitled/index.md", "---\nauthor: me\n---\nbody\n")
	writeFile(t, s.content, "pages/Embedded/about/index.html", "<h1>About</h1>")
	writeFile(t, s.static, "assets/banner/one.png", "png")
	writeFile(t, s.static, "assets/style.css", "body{}")

	res, err := s.generator(2, model.SiteSource{}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, res.Posts)
	assert.Equal(t, 2, res.Pages)
	assert.Equal(t, 1, res.Categories)
	assert.Equal(t, 2, res.Tags)
	assert.Equal(t, 1, res.Skipped)

	cfg := filepath.Join(s.out, "config")

	var index []model.PostSummary
	readJSON(t, filepath.Join(cfg, "posts-index.json"), &index)
	require.Len(t, index, 3)
	assert.Equal(t, []string{"second", "first", "third"}, []string{index[0].Slug, index[1].Slug, index[2].Slug})

	var page1 model.Page
	readJSON(t, filepath.Join(cfg, "posts", "page-1.json"), &page1)
	assert.Equal(t, 2, page1.TotalPages)
	assert.Equal(t, 3, page1.TotalPosts)
	require.Len(t, page1.Posts, 2)

	second, first := page1.Posts[0], page1.Posts[1]
	assert.Equal(t, "fixed-id", second.ID)
	assert.Equal(t, "Given summary", second.Summary)
	assert.Equal(t, []string{"go"}, second.Tags)
	assert.Equal(t, "2024-03-04T10:00:00Z", second.DateRaw)
	assert.Equal(t, "4 Mar 2024", second.Date)

	assert.NotEmpty(t, first.ID)
	assert.Equal(t, "Anonymous", first.Author)
	assert.Equal(t, "2 Jan 2024", first.Date)
	assert.Equal(t, "Some body text with a link.", first.Summary)
	assert.Equal(t, "/content/posts/first/images/cover.png", first.Image)
	assert.Equal(t, "posts/first/index.md", first.Path)

	var page2 model.Page
	readJSON(t, filepath.Join(cfg, "posts", "page-2.json"), &page2)
	require.Len(t, page2.Posts, 1)
	third := page2.Posts[0]
	assert.Equal(t, "Unknown", third.Date)
	assert.Empty(t, third.DateRaw)
	assert.Equal(t, model.Uncategorized, third.Category)
	assert.Equal(t, "/content/posts/third/attachments/pic.JPG", third.Image)
	assert.NotNil(t, third.Tags)

	var cats []model.Term
	readJSON(t, filepath.Join(cfg, "categories.json"), &cats)
	assert.Equal(t, []model.Term{{Name: "Game", Slug: "game", Count: 2}}, cats)

	var tags []model.Term
	readJSON(t, filepath.Join(cfg, "tags.json"), &tags)
	assert.Equal(t, []model.Term{{Name: "go", Slug: "go", Count: 2}, {Name: "Web", Slug: "web", Count: 1}}, tags)

	var bundle model.CategoryBundle
	readJSON(t, filepath.Join(cfg, "categories", "game.json"), &bundle)
	assert.Equal(t, 2, bundle.TotalPosts)
	assert.NoFileExists(t, filepath.Join(cfg, "categories", "uncategorized.json"))

	var menu []model.MenuItem
	readJSON(t, filepath.Join(cfg, "menu.json"), &menu)
	assert.Equal(t, []model.MenuItem{{Title: "GAME", Path: "/category/Game"}}, menu)

	var pagination model.Pagination
	readJSON(t, filepath.Join(cfg, "pagination.json"), &pagination)
	assert.Equal(t, model.Pagination{TotalPosts: 3, TotalPages: 2, PostsPerPage: 2}, pagination)

	var hero model.HeroConfig
	readJSON(t, filepath.Join(cfg, "hero.json"), &hero)
	assert.True(t, hero.IsEnabled())
	assert.Equal(t, "Welcome to Exp Log", hero.Title)
	assert.Equal(t, []model.Slide{{Image: "/assets/banner/one.png", Link: "/"}}, hero.Slides)

	var home model.HomeConfig
	readJSON(t, filepath.Join(cfg, "home.json"), &home)
	assert.Equal(t, model.HomeConfig{Categories: []string{}}, home)

	var siteCfg model.SiteConfig
	readJSON(t, filepath.Join(cfg, "site.json"), &siteCfg)
	assert.Equal(t, "Exp Log", siteCfg.SiteName)
	assert.Equal(t, "https://blog.example.com", siteCfg.SiteURL)
	assert.Equal(t, 2, siteCfg.PostsPerPage)
	assert.Equal(t, "© 2024 Exp Log", siteCfg.Footer.Copyright)

	assert.FileExists(t, filepath.Join(s.out, "content", "posts", "first", "index.md"))
	assert.FileExists(t, filepath.Join(s.out, "content", "pages", "Embedded", "about", "index.html"))
	assert.FileExists(t, filepath.Join(s.out, "assets", "style.css"))
}

func TestRunKeepsConfiguredSources(t *testing.T) {
	t.Parallel()
	s := newSite(t)
	writeFile(t, s.content, "posts/a/index.md", "---\ntitle: A\ncategory: Life\n---\nbody\n")
	writeFile(t, s.static, "assets/banner/one.png", "png")

	src := model.SiteSource{
		Site: model.SiteConfig{SiteTitle: "Configured", Logo: "/logo.svg"},
		Hero: &model.HeroConfig{Enabled: model.BoolPtr(false), Images: []string{"/a.png"}},
		Home: &model.HomeConfig{Categories: []string{"Life"}, Limit: 4},
		Menu: []model.MenuItem{{Title: "About", Path: "/about"}},
	}
	_, err := s.generator(10, src).Run(context.Background())
	require.NoError(t, err)

	cfg := filepath.Join(s.out, "config")
	var hero model.HeroConfig
	readJSON(t, filepath.Join(cfg, "hero.json"), &hero)
	assert.False(t, hero.IsEnabled())
	assert.Equal(t, []string{"/a.png"}, hero.Images)
	assert.Empty(t, hero.Slides)

	var home model.HomeConfig
	readJSON(t, filepath.Join(cfg, "home.json"), &home)
	assert.Equal(t, model.HomeConfig{Categories: []string{"Life"}, Limit: 4}, home)

	var menu []model.MenuItem
	readJSON(t, filepath.Join(cfg, "menu.json"), &menu)
	assert.Equal(t, src.Menu, menu)

	var siteCfg model.SiteConfig
	readJSON(t, filepath.Join(cfg, "site.json"), &siteCfg)
	assert.Equal(t, "Configured", siteCfg.SiteTitle)
	assert.Equal(t, "/logo.svg", siteCfg.Favicon)
}

func TestRunRemovesStaleFiles(t *testing.T) {
	t.Parallel()
	s := newSite(t)
	writeFile(t, s.out, "config/posts/page-9.json", "{}")
	writeFile(t, s.out, "config/categories/old.json", "{}")

	res, err := s.generator(5, model.SiteSource{}).Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Posts)
	assert.Zero(t, res.Pages)
	assert.NoFileExists(t, filepath.Join(s.out, "config", "posts", "page-9.json"))
	assert.NoFileExists(t, filepath.Join(s.out, "config", "categories", "old.json"))

	data, err := os.ReadFile(filepath.Join(s.out, "config", "posts-index.json"))
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(string(data)))
}

func TestRunRejectsUnsafeOutput(t *testing.T) {
	t.Parallel()
	g := New(Options{OutputDir: "."}, zerolog.Nop())
	_, err := g.Run(context.Background())
	assert.Error(t, err)
}

func TestTermSpellingFollowsFileOrder(t *testing.T) {
	t.Parallel()
	s := newSite(t)
	writeFile(t, s.content, "posts/a-old/index.md", "---\ntitle: Old\ndate: 2020-01-01\ncategory: Life Notes\ntags: [Go]\n---\n")
	writeFile(t, s.content, "posts/b-new/index.md", "---\ntitle: New\ndate: 2024-01-01\ncategory: life notes\ntags: [go]\n---\n")

	_, err := s.generator(5, model.SiteSource{}).Run(context.Background())
	require.NoError(t, err)

	cfg := filepath.Join(s.out, "config")
	var index []model.PostSummary
	readJSON(t, filepath.Join(cfg, "posts-index.json"), &index)
	require.Len(t, index, 2)
	assert.Equal(t, "b-new", index[0].Slug)

	var cats []model.Term
	readJSON(t, filepath.Join(cfg, "categories.json"), &cats)
	assert.Equal(t, []model.Term{{Name: "Life Notes", Slug: "life-notes", Count: 2}}, cats)

	var tags []model.Term
	readJSON(t, filepath.Join(cfg, "tags.json"), &tags)
	assert.Equal(t, []model.Term{{Name: "Go", Slug: "go", Count: 2}}, tags)

	var menu []model.MenuItem
	readJSON(t, filepath.Join(cfg, "menu.json"), &menu)
	assert.Equal(t, []model.MenuItem{{Title: "LIFE NOTES", Path: "/category/Life%20Notes"}}, menu)
}

type failingCloser struct {
	bytes.Buffer
	closed bool
}

func (f *failingCloser) Close() error {
	f.closed = true
	return errors.New("disk full")
}

func TestCopyReportsCloseError(t *testing.T) {
	t.Parallel()

	out := &failingCloser{}
	err := copyAndClose(out, strings.NewReader("body"))
	assert.EqualError(t, err, "disk full")
	assert.True(t, out.closed)
	assert.Equal(t, "body", out.String())
}

func TestDuplicateSlugsAreSkipped(t *testing.T) {
	t.Parallel()
	s := newSite(t)
	writeFile(t, s.content, "posts/a/index.md", "---\ntitle: One\n---\n")
	writeFile(t, s.content, "posts/a/other.md", "---\ntitle: Two\n---\n")

	posts, skipped, err := s.generator(5, model.SiteSource{}).collectPosts(context.Background())
	require.NoError(t, err)
	assert.Len(t, posts, 1)
	assert.Equal(t, 1, skipped)
}

func TestPostSlug(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"posts/hello/index.md":      "hello",
		"posts/2024/trip/index.md":  "2024-trip",
		"posts/loose-note.md":       "loose-note",
		"posts/deep/a/b/c/index.md": "deep-a-b-c",
	}
	for in, want := range tests {
		assert.Equal(t, want, postSlug(in), in)
	}
}

func TestParseDate(t *testing.T) {
	t.Parallel()
	for _, in := range []string{"2024-05-01", "2024-05-01T08:00:00Z", "2024-05-01 08:00", "2024-05-01T08:00:00+07:00"} {
		_, ok := parseDate(in)
		assert.True(t, ok, in)
	}
	_, ok := parseDate("May 1st")
	assert.False(t, ok)
}

func TestSummarize(t *testing.T) {
	t.Parallel()
	g := New(Options{}, zerolog.Nop())

	body := "## Title\n\n![alt](a.png)\n\n```go\ncode()\n```\n\nPlain <b>bold</b> [text](https://x.y) here.\n"
	assert.Equal(t, "Plain bold text here.", g.summarize([]byte(body)))

	long := strings.Repeat("word ", 60)
	got := g.summarize([]byte(long))
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, 153, len([]rune(got)))
}

func TestTagsAcceptScalarOrList(t *testing.T) {
	t.Parallel()
	s := newSite(t)
	writeFile(t, s.content, "posts/a/index.md", "---\ntitle: A\ntags: \"go, web , \"\n---\n")
	writeFile(t, s.content, "posts/b/index.md", "---\ntitle: B\ntags:\n  - one\n  - \" two \"\n---\n")

	posts, _, err := s.generator(5, model.SiteSource{}).collectPosts(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 2)
	bySlug := map[string][]string{}
	for _, p := range posts {
		bySlug[p.Slug] = p.Tags
	}
	assert.Equal(t, []string{"go", "web"}, bySlug["a"])
	assert.Equal(t, []string{"one", "two"}, bySlug["b"])
}
