// Package generate is the offline build step. It scans the markdown posts,
// writes every JSON data file the server reads under <output>/config and
// mirrors the content and static directories into the output directory.
package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/sync/errgroup"

	"github.com/expvn/explog/internal/model"
)

type Options struct {
	ContentDir   string
	StaticDir    string
	OutputDir    string
	PostsPerPage int
	SiteTitle    string
	BaseURL      string
	Source       model.SiteSource
	// Now defaults to time.Now.
	Now func() time.Time
}

// Result counts what a build produced.
type Result struct {
	Posts      int
	Pages      int
	Categories int
	Tags       int
	Skipped    int
	Copied     int
}

type Generator struct {
	opts Options
	log  zerolog.Logger
	md   goldmark.Markdown
}

func New(opts Options, log zerolog.Logger) *Generator {
	if opts.PostsPerPage <= 0 {
		opts.PostsPerPage = 20
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Generator{
		opts: opts,
		log:  log.With().Str("component", "generate").Logger(),
		md:   goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// Run cleans the output directory and rebuilds it.
func (g *Generator) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	out := g.opts.OutputDir
	if out == "" || filepath.Clean(out) == "." || filepath.Clean(out) == "/" {
		return Result{}, fmt.Errorf("refusing to clean output directory %q", out)
	}

	g.log.Info().Str("output", out).Msg("cleaning output directory")
	if err := os.RemoveAll(out); err != nil {
		return Result{}, fmt.Errorf("remove output directory %s: %w", out, err)
	}
	if err := os.MkdirAll(out, os.ModePerm); err != nil {
		return Result{}, fmt.Errorf("create output directory %s: %w", out, err)
	}

	var (
		res           Result
		posts         []model.PostFull
		staticCopied  int
		contentCopied int
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		n, err := g.mirrorDir(egCtx, g.opts.StaticDir, out)
		if err != nil {
			return fmt.Errorf("copy static assets: %w", err)
		}
		staticCopied = n
		return nil
	})
	eg.Go(func() error {
		n, err := g.mirrorDir(egCtx, g.opts.ContentDir, filepath.Join(out, "content"))
		if err != nil {
			return fmt.Errorf("copy content: %w", err)
		}
		contentCopied = n
		return nil
	})
	eg.Go(func() error {
		var err error
		posts, res.Skipped, err = g.collectPosts(egCtx)
		if err != nil {
			return fmt.Errorf("collect posts: %w", err)
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		return Result{}, err
	}
	res.Copied = staticCopied + contentCopied

	if err := g.writeData(posts, &res); err != nil {
		return Result{}, err
	}

	g.log.Info().
		Int("posts", res.Posts).
		Int("pages", res.Pages).
		Int("categories", res.Categories).
		Int("tags", res.Tags).
		Int("skipped", res.Skipped).
		Int("files_copied", res.Copied).
		Dur("took", time.Since(start)).
		Msg("build complete")
	return res, nil
}

func (g *Generator) writeData(posts []model.PostFull, res *Result) error {
	if posts == nil {
		posts = []model.PostFull{}
	}
	perPage := g.opts.PostsPerPage
	// Grouping runs in walk order so the first spelling found names the term.
	categories, tags := taxonomy(posts)
	sortPosts(posts)
	site := g.siteConfig()

	totalPages := (len(posts) + perPage - 1) / perPage
	index := make([]model.PostSummary, 0, len(posts))
	for _, p := range posts {
		index = append(index, p.Summarize())
	}

	files := map[string]any{
		"site.json":        site,
		"hero.json":        g.heroConfig(site.SiteTitle),
		"home.json":        g.homeConfig(),
		"menu.json":        g.menu(categories),
		"categories.json":  categories,
		"tags.json":        tags,
		"posts-index.json": index,
		"pagination.json": model.Pagination{
			TotalPosts:   len(posts),
			TotalPages:   totalPages,
			PostsPerPage: perPage,
		},
	}
	for n := 1; n <= totalPages; n++ {
		lo := (n - 1) * perPage
		hi := min(lo+perPage, len(posts))
		files["posts/page-"+strconv.Itoa(n)+".json"] = model.Page{
			Page:         n,
			TotalPages:   totalPages,
			TotalPosts:   len(posts),
			PostsPerPage: perPage,
			Posts:        posts[lo:hi],
		}
	}
	for _, c := range categories {
		bundle := model.CategoryBundle{Category: c.Name, Slug: c.Slug, Posts: []model.PostFull{}}
		for _, p := range posts {
			if p.InCategory(c.Name) {
				bundle.Posts = append(bundle.Posts, p)
			}
		}
		bundle.TotalPosts = len(bundle.Posts)
		files["categories/"+c.Slug+".json"] = bundle
	}

	dir := filepath.Join(g.opts.OutputDir, "config")
	for name, v := range files {
		if err := writeJSON(filepath.Join(dir, filepath.FromSlash(name)), v); err != nil {
			return err
		}
		g.log.Debug().Str("file", "config/"+name).Msg("generated")
	}

	res.Posts = len(posts)
	res.Pages = totalPages
	res.Categories = len(categories)
	res.Tags = len(tags)
	return nil
}

func writeJSON(file string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", file, err)
	}
	if err := os.MkdirAll(filepath.Dir(file), os.ModePerm); err != nil {
		return fmt.Errorf("create directory for %s: %w", file, err)
	}
	if err := os.WriteFile(file, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", file, err)
	}
	return nil
}
