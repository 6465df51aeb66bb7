package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expvn/explog/internal/config"
	"github.com/expvn/explog/internal/generate"
	"github.com/expvn/explog/internal/hero"
	"github.com/expvn/explog/internal/model"
	"github.com/expvn/explog/internal/store"
)

var fixture = map[string]string{
	"content/posts/alpha/index.md": "---\ntitle: Alpha\ndate: 2024-05-03\ncategory: Game\ntags: [go]\n---\n" +
		"Alpha body.\n\n![photo](photo.png)\n\n```go\nfmt.Println(\"hi\")\n```\n",
	"content/posts/beta/index.md":  "---\ntitle: Beta\ndate: 2024-05-02\ncategory: GAME\ntags: [Go, web]\n---\nBeta body.\n",
	"content/posts/gamma/index.md": "---\ntitle: Gamma\ndate: 2024-05-01\ncategory: Life\n---\nGamma body.\n",
	"content/posts/delta/index.md": "---\ntitle: Delta\n---\nDelta body.\n",

	"content/pages/Embedded/about/index.html": "<h2>About us</h2><script>alert(1)</script>",
	"content/pages/Embedded/about/page.json":  `{"title": "About", "description": "Who we are"}`,
	"content/pages/Embedded/notes/page.txt":   "<b>raw</b>",
	"content/pages/Embedded/game/view.html":   "<canvas></canvas>",
	"content/pages/Embedded/game/page.json":   `{"height": "600px"}`,
	"content/pages/Embedded/shell/index.html": `<html><body><div id="app"></div><script src="/app.js"></script></body></html>`,
	"content/pages/Standalone/demo/index.html": "<p>demo</p>",

	"static/assets/banner/a.png": "a",
	"static/assets/banner/b.png": "b",
}

func newApp(t *testing.T, opts ...Option) (*App, string) {
	t.Helper()
	root := t.TempDir()
	for rel, body := range fixture {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
	out := filepath.Join(root, "public")
	_, err := generate.New(generate.Options{
		ContentDir:   filepath.Join(root, "content"),
		StaticDir:    filepath.Join(root, "static"),
		OutputDir:    out,
		PostsPerPage: 2,
		SiteTitle:    "Exp Log",
		BaseURL:      "https://blog.example.com",
	}, zerolog.Nop()).Run(context.Background())
	require.NoError(t, err)

	cfg := config.Defaults()
	cfg.SiteTitle = "Exp Log"
	if len(opts) == 0 {
		opts = []Option{WithSlider(hero.NewSlider(nil, time.Hour))}
	}
	a, err := New(cfg, store.NewDir(out), zerolog.Nop(), opts...)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a, out
}

func get(t *testing.T, a *App, target string, cookies ...*http.Cookie) (*httptest.ResponseRecorder, *goquery.Document) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	a.ServeHTTP(rec, req)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rec.Body.String()))
	require.NoError(t, err)
	return rec, doc
}

func cardHrefs(doc *goquery.Document) []string {
	var hrefs []string
	doc.Find("#blog-grid a.post-card").Each(func(_ int, s *goquery.Selection) {
		hrefs = append(hrefs, s.AttrOr("href", ""))
	})
	return hrefs
}

func TestHome(t *testing.T) {
	t.Parallel()
	a, _ := newApp(t)

	for _, target := range []string{"/", "/index.html"} {
		rec, doc := get(t, a, target)
		require.Equal(t, http.StatusOK, rec.Code, target)
		assert.Equal(t, "News", doc.Find(".section-header h2").Text())
		assert.Equal(t, []string{"/posts/alpha", "/posts/beta"}, cardHrefs(doc))
		assert.Equal(t, 2, doc.Find("[data-hero] .hero-slide").Length())
		assert.Equal(t, 1, doc.Find(".pagination").Length())
		assert.Equal(t, "GAME", doc.Find(".nav-link").First().Text())
	}
}

func TestHomeRemembersPage(t *testing.T) {
	t.Parallel()
	a, _ := newApp(t)

	rec, doc := get(t, a, "/?page=2")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"/posts/gamma", "/posts/delta"}, cardHrefs(doc))

	var remembered *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == HomePageCookie {
			remembered = c
		}
	}
	require.NotNil(t, remembered)
	assert.Equal(t, "2", remembered.Value)

	_, doc = get(t, a, "/", remembered)
	assert.Equal(t, []string{"/posts/gamma", "/posts/delta"}, cardHrefs(doc))

	_, doc = get(t, a, "/", &http.Cookie{Name: HomePageCookie, Value: "40"})
	assert.Equal(t, []string{"/posts/alpha", "/posts/beta"}, cardHrefs(doc))

	rec, _ = get(t, a, "/?page=40")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCategoryMatchesAnyCase(t *testing.T) {
	t.Parallel()
	a, _ := newApp(t)

	for _, target := range []string{"/category/Game", "/category/game", "/category/GAME"} {
		rec, doc := get(t, a, target)
		require.Equal(t, http.StatusOK, rec.Code, target)
		assert.Equal(t, []string{"/posts/alpha", "/posts/beta"}, cardHrefs(doc), target)
		assert.Zero(t, doc.Find("[data-hero]").Length())
	}
	_, doc := get(t, a, "/category/game")
	assert.Equal(t, "Game Posts", doc.Find(".section-header h2").Text())

	rec, _ := get(t, a, "/category/Uncategorized")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec, _ = get(t, a, "/category/Nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTag(t *testing.T) {
	t.Parallel()
	a, _ := newApp(t)

	rec, doc := get(t, a, "/tag/GO")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"/posts/alpha", "/posts/beta"}, cardHrefs(doc))
	assert.Equal(t, "#GO", doc.Find(".section-header h2").Text())

	rec, doc = get(t, a, "/tag/unused")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "No posts found.", doc.Find(".no-posts").Text())
}

func TestPost(t *testing.T) {
	t.Parallel()
	a, _ := newApp(t)

	rec, doc := get(t, a, "/posts/alpha")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Alpha", doc.Find(".article-title").Text())
	assert.Equal(t, "/content/posts/alpha/images/photo.png", doc.Find("#markdown-content img").AttrOr("src", ""))
	assert.Equal(t, 1, doc.Find("#markdown-content .code-wrapper .btn-copy").Length())
	assert.Equal(t, "Alpha | Exp Log", doc.Find("title").Text())

	rec, doc = get(t, a, "/posts/beta")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/posts/alpha", doc.Find(".nav-btn.prev").AttrOr("href", ""))
	assert.Equal(t, "/posts/gamma", doc.Find(".nav-btn.next").AttrOr("href", ""))
	assert.Equal(t, "/posts/alpha", doc.Find(".related-posts a.post-card").AttrOr("href", ""))

	_, doc = get(t, a, "/posts/delta")
	assert.Equal(t, 0, doc.Find("a.article-category").Length())
	assert.Equal(t, model.Uncategorized, doc.Find(".article-category").Text())
}

func TestPostErrors(t *testing.T) {
	t.Parallel()
	a, out := newApp(t)

	rec, doc := get(t, a, "/posts")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing post", doc.Find(".error-page h1").Text())

	rec, doc = get(t, a, "/posts/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "noindex", doc.Find("meta[name=robots]").AttrOr("content", ""))

	shell := "<!DOCTYPE html><html><body>shell</body></html>"
	require.NoError(t, os.WriteFile(filepath.Join(out, "content", "posts", "gamma", "index.md"), []byte(shell), 0o644))
	rec, doc = get(t, a, "/posts/gamma")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, doc.Find(".content-error").Text(), "HTML page")
	assert.Equal(t, "Gamma", doc.Find(".article-title").Text())

	require.NoError(t, os.Remove(filepath.Join(out, "content", "posts", "delta", "index.md")))
	rec, doc = get(t, a, "/posts/delta")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, doc.Find(".content-error").Text())
}

func TestStaticPages(t *testing.T) {
	t.Parallel()
	a, _ := newApp(t)

	rec, doc := get(t, a, "/about")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "About us", doc.Find(".static-body h2").Text())
	assert.Zero(t, doc.Find(".static-body script").Length())
	assert.Equal(t, "About | Exp Log", doc.Find("title").Text())

	rec, doc = get(t, a, "/page/about")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "About us", doc.Find(".static-body h2").Text())

	_, doc = get(t, a, "/notes")
	assert.Equal(t, "<b>raw</b>", doc.Find("pre.static-text").Text())

	_, doc = get(t, a, "/game")
	frame := doc.Find("iframe.static-frame")
	assert.Equal(t, "/content/pages/Embedded/game/view.html", frame.AttrOr("src", ""))
	assert.Contains(t, frame.AttrOr("style", ""), "600px")

	rec, doc = get(t, a, "/pages/demo")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/content/pages/Standalone/demo/index.html", doc.Find("iframe.standalone-frame").AttrOr("src", ""))

	for _, target := range []string{"/shell", "/nothing", "/pages/nothing", "/page/nothing", "/a/b/c"} {
		rec, _ := get(t, a, target)
		assert.Equal(t, http.StatusNotFound, rec.Code, target)
	}
}

type countingTicker struct{ c chan time.Time }

func (t countingTicker) Chan() <-chan time.Time { return t.c }
func (countingTicker) Stop()                    {}

func TestHomeKeepsHeroTimer(t *testing.T) {
	t.Parallel()
	var mu sync.Mutex
	armed := 0
	slider := hero.NewSlider(nil, time.Hour, hero.WithTicker(func(time.Duration) hero.Ticker {
		mu.Lock()
		defer mu.Unlock()
		armed++
		return countingTicker{c: make(chan time.Time)}
	}))
	a, _ := newApp(t, WithSlider(slider))

	for i := 0; i < 3; i++ {
		rec, _ := get(t, a, "/")
		require.Equal(t, http.StatusOK, rec.Code)
	}
	assert.True(t, slider.Running())
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, armed)
}

func TestStaticPageFallbacks(t *testing.T) {
	t.Parallel()
	a, out := newApp(t)

	rec, doc := get(t, a, "/about/team")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "About us", doc.Find(".static-body h2").Text())

	p := filepath.Join(out, "content", "pages", "Embedded", "pages", "index.html")
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte("<h2>All pages</h2>"), 0o644))

	rec, doc = get(t, a, "/pages/nothing")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "All pages", doc.Find(".static-body h2").Text())

	rec, doc = get(t, a, "/pages/demo")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, doc.Find("iframe.standalone-frame").Length())
}

func TestResetPicksUpRebuild(t *testing.T) {
	t.Parallel()
	a, out := newApp(t)

	_, doc := get(t, a, "/")
	require.Equal(t, "Exp Log", doc.Find("title").Text())

	site := `{"siteTitle": "Renamed"}`
	require.NoError(t, os.WriteFile(filepath.Join(out, "config", "site.json"), []byte(site), 0o644))
	_, doc = get(t, a, "/")
	assert.Equal(t, "Exp Log", doc.Find("title").Text())

	a.Reset()
	_, doc = get(t, a, "/")
	assert.Equal(t, "Renamed", doc.Find("title").Text())
}

func TestFilterHome(t *testing.T) {
	t.Parallel()
	posts := []model.PostFull{
		{Slug: "a", Category: "Game"},
		{Slug: "b", Category: "life"},
		{Slug: "c", Category: "game"},
		{Slug: "d", Category: "Work"},
	}
	slugs := func(ps []model.PostFull) []string {
		var out []string
		for _, p := range ps {
			out = append(out, p.Slug)
		}
		return out
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, slugs(filterHome(posts, model.HomeConfig{})))
	assert.Equal(t, []string{"a", "b", "c"}, slugs(filterHome(posts, model.HomeConfig{Categories: []string{"GAME", "Life"}})))
	assert.Equal(t, []string{"a", "c"}, slugs(filterHome(posts, model.HomeConfig{Categories: []string{"game"}, Limit: 5})))
	assert.Equal(t, []string{"a"}, slugs(filterHome(posts, model.HomeConfig{Limit: 1})))
}

func TestNormalizeMenu(t *testing.T) {
	t.Parallel()
	got := normalizeMenu([]model.MenuItem{
		{Title: "A", Path: "category/Game"},
		{Title: "B", Path: "/about"},
		{Title: "C", Path: "#/tag/go"},
		{Title: "D", Path: "https://github.com/x"},
		{Title: "E", Path: ""},
	})
	want := []string{"/category/Game", "/about", "/tag/go", "https://github.com/x", "/"}
	for i, item := range got {
		assert.Equal(t, want[i], item.Path)
	}
}
