// Package app is the top-level controller. It owns the application state
// (page cache, renderers, hero slider) and turns one request path into one
// complete rendered page.
package app

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/expvn/explog/internal/cache"
	"github.com/expvn/explog/internal/config"
	"github.com/expvn/explog/internal/hero"
	"github.com/expvn/explog/internal/markdown"
	"github.com/expvn/explog/internal/model"
	"github.com/expvn/explog/internal/route"
	"github.com/expvn/explog/internal/seo"
	"github.com/expvn/explog/internal/staticpage"
	"github.com/expvn/explog/internal/store"
	"github.com/expvn/explog/internal/view"
)

// HomePageCookie remembers the last home page a client viewed.
const HomePageCookie = "explog_home_page"

type App struct {
	cfg    config.Config
	cache  *cache.Cache
	md     *markdown.Renderer
	pages  *staticpage.Prober
	slider *hero.Slider
	views  *view.Renderer
	log    zerolog.Logger
}

type Option func(*App)

// WithSlider replaces the hero slider, for tests.
func WithSlider(s *hero.Slider) Option {
	return func(a *App) { a.slider = s }
}

func New(cfg config.Config, fetcher store.Fetcher, log zerolog.Logger, opts ...Option) (*App, error) {
	views, err := view.New()
	if err != nil {
		return nil, err
	}
	c := cache.New(fetcher, log)
	a := &App{
		cfg:    cfg,
		cache:  c,
		md:     markdown.New(markdown.Options{LegacyDomains: cfg.LegacyDomains, Logger: log}),
		pages:  staticpage.NewProber(c, cfg.Shell, log),
		slider: hero.NewSlider(nil, cfg.HeroInterval),
		views:  views,
		log:    log.With().Str("component", "app").Logger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Reset drops everything cached, after the data files were rebuilt.
func (a *App) Reset() {
	a.cache.Reset()
}

// Close stops the hero timer.
func (a *App) Close() {
	a.slider.Pause()
}

// response is one resolved request, ready to render.
type response struct {
	status int
	page   string
	doc    *view.Document
	cookie *http.Cookie
}

func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	res := a.resolve(ctx, r)
	if err := ctx.Err(); err != nil {
		// The client left while we were fetching.
		a.log.Debug().Err(err).Str("path", r.URL.Path).Msg("request abandoned")
		return
	}

	var buf bytes.Buffer
	if err := a.views.Render(&buf, res.page, res.doc); err != nil {
		a.log.Error().Err(err).Str("path", r.URL.Path).Str("page", res.page).Msg("render failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if res.cookie != nil {
		http.SetCookie(w, res.cookie)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(res.status)
	_, _ = buf.WriteTo(w)
}

func (a *App) resolve(ctx context.Context, r *http.Request) response {
	site, menu := a.chrome(ctx)
	rt, err := route.Parse(r.URL.EscapedPath(), r.URL.Query())
	if err != nil {
		if errors.Is(err, route.ErrMissingSlug) {
			return a.failure(site, menu, r.URL.Path, http.StatusBadRequest, "Missing post", "A post address needs a slug, like /posts/my-post.")
		}
		return a.failure(site, menu, r.URL.Path, http.StatusBadRequest, "Bad request", err.Error())
	}

	a.log.Debug().Str("path", r.URL.Path).Stringer("route", rt.Kind).Str("name", rt.Name).Msg("route")

	req := request{ctx: ctx, r: r, site: site, menu: menu, route: rt}
	switch rt.Kind {
	case route.Home:
		return a.home(req)
	case route.Category:
		return a.category(req)
	case route.Tag:
		return a.tag(req)
	case route.Post:
		return a.post(req)
	case route.LegacyPage:
		return a.static(req, a.pages.Legacy)
	case route.EmbeddedPage:
		return a.static(req, a.pages.Embedded)
	case route.StandalonePage:
		return a.standalone(req)
	default:
		return a.notFound(req)
	}
}

// request carries what every route handler needs.
type request struct {
	ctx   context.Context
	r     *http.Request
	site  model.SiteConfig
	menu  []model.MenuItem
	route route.Route
}

func (req request) path() string { return req.r.URL.Path }

func (req request) document(meta seo.Meta, status int) *view.Document {
	return &view.Document{Site: req.site, Menu: req.menu, Meta: meta, Path: req.path(), Status: status}
}

// chrome loads the site config and menu shown around every page. Missing
// data degrades to the configured title and no menu.
func (a *App) chrome(ctx context.Context) (model.SiteConfig, []model.MenuItem) {
	site, err := a.cache.Site(ctx)
	if err != nil {
		site = model.SiteConfig{SiteTitle: a.cfg.SiteTitle, SiteURL: a.cfg.BaseURL}
	}
	if site.SiteTitle == "" {
		site.SiteTitle = a.cfg.SiteTitle
	}
	menu, err := a.cache.Menu(ctx)
	if err != nil {
		return site, nil
	}
	return site, normalizeMenu(menu)
}

// normalizeMenu makes site-relative menu paths absolute.
func normalizeMenu(menu []model.MenuItem) []model.MenuItem {
	out := make([]model.MenuItem, 0, len(menu))
	for _, item := range menu {
		p := strings.TrimSpace(item.Path)
		switch {
		case p == "":
			p = "/"
		case strings.HasPrefix(p, "/"), strings.Contains(p, "://"), strings.HasPrefix(p, "mailto:"):
		default:
			p = "/" + strings.TrimPrefix(p, "#/")
		}
		out = append(out, model.MenuItem{Title: item.Title, Path: p})
	}
	return out
}

func (a *App) notFound(req request) response {
	return a.failure(req.site, req.menu, req.path(), http.StatusNotFound, "Not found", "There is nothing at this address.")
}

func (a *App) failure(site model.SiteConfig, menu []model.MenuItem, path string, status int, title, message string) response {
	return response{
		status: status,
		page:   view.PageError,
		doc: &view.Document{
			Site:   site,
			Menu:   menu,
			Meta:   seo.ForError(site, title, path),
			Path:   path,
			Status: status,
			Error:  &view.ErrorView{Title: title, Message: message, Path: path},
		},
	}
}

func (a *App) heroInterval() time.Duration {
	if a.cfg.HeroInterval > 0 {
		return a.cfg.HeroInterval
	}
	return hero.DefaultInterval
}

func (a *App) postsPerPage(ctx context.Context, site model.SiteConfig) int {
	if p, err := a.cache.Pagination(ctx); err == nil && p.PostsPerPage > 0 {
		return p.PostsPerPage
	}
	if site.PostsPerPage > 0 {
		return site.PostsPerPage
	}
	if a.cfg.PostsPerPage > 0 {
		return a.cfg.PostsPerPage
	}
	return 20
}
