// Package cache is the lazy, session-long cache over the generated data files.
// Pages and category bundles are fetched on first use and kept until Reset.
// There is no eviction: the whole corpus of a blog fits in memory, but a very
// large corpus grows the cache without bound.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/expvn/explog/internal/model"
	"github.com/expvn/explog/internal/store"
)

// ErrNotFound is returned for every failed lookup, whether the resource is
// missing or the fetch failed.
var ErrNotFound = errors.New("cache: not found")

const sharedFetchTimeout = 30 * time.Second

const (
	sitePath       = "config/site.json"
	heroPath       = "config/hero.json"
	homePath       = "config/home.json"
	menuPath       = "config/menu.json"
	paginationPath = "config/pagination.json"
	indexPath      = "config/posts-index.json"
	categoriesPath = "config/categories.json"
	tagsPath       = "config/tags.json"
)

func pagePath(n int) string {
	return "config/posts/page-" + strconv.Itoa(n) + ".json"
}

func categoryPath(slug string) string {
	return "config/categories/" + slug + ".json"
}

// Cache memoises decoded data files. It is safe for concurrent use; concurrent
// requests for the same key share one fetch.
type Cache struct {
	fetcher store.Fetcher
	log     zerolog.Logger
	group   singleflight.Group

	mu         sync.RWMutex
	pages      map[int]*model.Page
	categories map[string]*model.CategoryBundle
	docs       map[string]any
}

func New(fetcher store.Fetcher, log zerolog.Logger) *Cache {
	c := &Cache{
		fetcher: fetcher,
		log:     log.With().Str("component", "cache").Logger(),
	}
	c.Reset()
	return c
}

// Reset drops everything cached, e.g. after the site was rebuilt.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages = map[int]*model.Page{}
	c.categories = map[string]*model.CategoryBundle{}
	c.docs = map[string]any{}
}

// LoadPage returns page n (1-based), fetching it at most once.
func (c *Cache) LoadPage(ctx context.Context, n int) (*model.Page, error) {
	if n < 1 {
		return nil, ErrNotFound
	}
	c.mu.RLock()
	page, ok := c.pages[n]
	c.mu.RUnlock()
	if ok {
		return page, nil
	}

	name := pagePath(n)
	v, err, _ := c.group.Do(name, func() (any, error) {
		c.mu.RLock()
		cached, ok := c.pages[n]
		c.mu.RUnlock()
		if ok {
			return cached, nil
		}
		var p model.Page
		if err := c.sharedFetch(ctx, name, &p); err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.pages[n] = &p
		c.mu.Unlock()
		return &p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.Page), nil
}

// LoadCategory returns the bundle stored under slug, fetching it at most once.
func (c *Cache) LoadCategory(ctx context.Context, slug string) (*model.CategoryBundle, error) {
	if slug == "" {
		return nil, ErrNotFound
	}
	c.mu.RLock()
	bundle, ok := c.categories[slug]
	c.mu.RUnlock()
	if ok {
		return bundle, nil
	}

	name := categoryPath(slug)
	v, err, _ := c.group.Do(name, func() (any, error) {
		c.mu.RLock()
		cached, ok := c.categories[slug]
		c.mu.RUnlock()
		if ok {
			return cached, nil
		}
		var b model.CategoryBundle
		if err := c.sharedFetch(ctx, name, &b); err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.categories[slug] = &b
		c.mu.Unlock()
		return &b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.CategoryBundle), nil
}

// FindPostBySlug looks through cached pages first. On a miss it uses the
// posts index to work out which page holds slug and fetches only that page.
// The returned position is the post's index in the full newest-first order.
func (c *Cache) FindPostBySlug(ctx context.Context, slug string) (*model.PostFull, int, error) {
	if slug == "" {
		return nil, -1, ErrNotFound
	}
	if post, pos, ok := c.findCached(slug); ok {
		return post, pos, nil
	}

	index, err := c.Index(ctx)
	if err != nil {
		return nil, -1, err
	}
	pos := -1
	for i, entry := range index {
		if entry.Slug == slug {
			pos = i
			break
		}
	}
	if pos < 0 {
		return nil, -1, ErrNotFound
	}
	pagination, err := c.Pagination(ctx)
	if err != nil {
		return nil, -1, err
	}
	page, err := c.LoadPage(ctx, pagination.PageFor(pos))
	if err != nil {
		return nil, -1, err
	}
	for i := range page.Posts {
		if page.Posts[i].Slug == slug {
			post := page.Posts[i]
			return &post, pos, nil
		}
	}
	return nil, -1, ErrNotFound
}

func (c *Cache) findCached(slug string) (*model.PostFull, int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for n, page := range c.pages {
		for i := range page.Posts {
			if page.Posts[i].Slug == slug {
				post := page.Posts[i]
				return &post, (n-1)*page.PostsPerPage + i, true
			}
		}
	}
	return nil, -1, false
}

// CachedPosts returns the posts of every page fetched so far, in page order.
// It never fetches.
func (c *Cache) CachedPosts() []model.PostFull {
	c.mu.RLock()
	defer c.mu.RUnlock()
	numbers := make([]int, 0, len(c.pages))
	for n := range c.pages {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	var posts []model.PostFull
	for _, n := range numbers {
		posts = append(posts, c.pages[n].Posts...)
	}
	return posts
}

// AllPosts loads every page and returns the concatenated post sequence.
func (c *Cache) AllPosts(ctx context.Context) ([]model.PostFull, error) {
	pagination, err := c.Pagination(ctx)
	if err != nil {
		return nil, err
	}
	posts := make([]model.PostFull, 0, pagination.TotalPosts)
	for n := 1; n <= pagination.TotalPages; n++ {
		page, err := c.LoadPage(ctx, n)
		if err != nil {
			return nil, err
		}
		posts = append(posts, page.Posts...)
	}
	return posts, nil
}

// Content fetches a markdown body or static page file. Bodies are not memoised.
func (c *Cache) Content(ctx context.Context, name string) ([]byte, error) {
	data, err := c.fetcher.Fetch(ctx, name)
	if err != nil {
		return nil, c.notFound(name, err)
	}
	return data, nil
}

func (c *Cache) Site(ctx context.Context) (model.SiteConfig, error) {
	return loadDoc[model.SiteConfig](ctx, c, sitePath)
}

func (c *Cache) Hero(ctx context.Context) (model.HeroConfig, error) {
	return loadDoc[model.HeroConfig](ctx, c, heroPath)
}

func (c *Cache) Home(ctx context.Context) (model.HomeConfig, error) {
	return loadDoc[model.HomeConfig](ctx, c, homePath)
}

func (c *Cache) Menu(ctx context.Context) ([]model.MenuItem, error) {
	return loadDoc[[]model.MenuItem](ctx, c, menuPath)
}

func (c *Cache) Pagination(ctx context.Context) (model.Pagination, error) {
	return loadDoc[model.Pagination](ctx, c, paginationPath)
}

// Index returns the full posts index, newest first.
func (c *Cache) Index(ctx context.Context) ([]model.PostSummary, error) {
	return loadDoc[[]model.PostSummary](ctx, c, indexPath)
}

func (c *Cache) Categories(ctx context.Context) ([]model.Term, error) {
	return loadDoc[[]model.Term](ctx, c, categoriesPath)
}

func (c *Cache) Tags(ctx context.Context) ([]model.Term, error) {
	return loadDoc[[]model.Term](ctx, c, tagsPath)
}

func loadDoc[T any](ctx context.Context, c *Cache, name string) (T, error) {
	var zero T
	c.mu.RLock()
	v, ok := c.docs[name]
	c.mu.RUnlock()
	if ok {
		return v.(T), nil
	}
	got, err, _ := c.group.Do(name, func() (any, error) {
		c.mu.RLock()
		cached, ok := c.docs[name]
		c.mu.RUnlock()
		if ok {
			return cached, nil
		}
		var doc T
		if err := c.sharedFetch(ctx, name, &doc); err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.docs[name] = doc
		c.mu.Unlock()
		return doc, nil
	})
	if err != nil {
		return zero, err
	}
	return got.(T), nil
}

// sharedFetch runs a fetch on behalf of every caller waiting on the same key,
// so it must outlive the caller that started it.
func (c *Cache) sharedFetch(ctx context.Context, name string, dst any) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedFetchTimeout)
	defer cancel()
	return c.fetchJSON(ctx, name, dst)
}

func (c *Cache) fetchJSON(ctx context.Context, name string, dst any) error {
	data, err := c.fetcher.Fetch(ctx, name)
	if err != nil {
		return c.notFound(name, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return c.notFound(name, fmt.Errorf("decode %s: %w", name, err))
	}
	return nil
}

// notFound collapses any failure into ErrNotFound, logging what was not a
// plain miss.
func (c *Cache) notFound(name string, err error) error {
	if !errors.Is(err, store.ErrNotFound) {
		c.log.Warn().Err(err).Str("name", name).Msg("fetch failed")
	}
	return fmt.Errorf("%s: %w", name, ErrNotFound)
}
