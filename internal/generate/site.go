package generate

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/expvn/explog/internal/model"
)

const defaultLogo = "/assets/logo.png"

func (g *Generator) siteConfig() model.SiteConfig {
	site := g.opts.Source.Site
	if site.SiteTitle == "" {
		site.SiteTitle = g.opts.SiteTitle
	}
	if site.SiteName == "" {
		site.SiteName = site.SiteTitle
	}
	if site.SiteURL == "" {
		site.SiteURL = g.opts.BaseURL
	}
	if site.Logo == "" {
		site.Logo = defaultLogo
	}
	if site.Favicon == "" {
		site.Favicon = site.Logo
	}
	if site.Language == "" {
		site.Language = "en"
	}
	if site.Author == "" {
		site.Author = "Anonymous"
	}
	site.PostsPerPage = g.opts.PostsPerPage
	if site.Footer.Copyright == "" {
		site.Footer.Copyright = "© " + g.opts.Now().Format("2006") + " " + site.SiteTitle
	}
	return site
}

// heroConfig fills the configured hero with defaults. When no slides are
// configured in any of the accepted shapes, every image in
// static/assets/banner becomes a slide linking home.
func (g *Generator) heroConfig(siteTitle string) model.HeroConfig {
	var hero model.HeroConfig
	if g.opts.Source.Hero != nil {
		hero = *g.opts.Source.Hero
	}
	if hero.Enabled == nil {
		hero.Enabled = model.BoolPtr(true)
	}
	if hero.Title == "" {
		hero.Title = "Welcome to " + siteTitle
	}
	if hero.Category == "" {
		hero.Category = "Featured"
	}
	if hero.Author == "" {
		hero.Author = "Anonymous"
	}
	if hero.Date == "" {
		hero.Date = g.opts.Now().Format(displayDate)
	}
	if len(hero.NormalizedSlides()) == 0 {
		hero.Slides = g.bannerSlides()
	}
	return hero
}

func (g *Generator) bannerSlides() []model.Slide {
	dir := filepath.Join(g.opts.StaticDir, "assets", "banner")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return []model.Slide{}
	}
	slides := []model.Slide{}
	for _, e := range entries {
		if !e.IsDir() && imageFile.MatchString(e.Name()) {
			slides = append(slides, model.Slide{Image: "/assets/banner/" + e.Name(), Link: "/"})
		}
	}
	return slides
}

func (g *Generator) homeConfig() model.HomeConfig {
	if g.opts.Source.Home == nil {
		return model.HomeConfig{Categories: []string{}}
	}
	home := *g.opts.Source.Home
	if home.Categories == nil {
		home.Categories = []string{}
	}
	return home
}

// menu keeps the configured menu, or lists every category.
func (g *Generator) menu(categories []model.Term) []model.MenuItem {
	if len(g.opts.Source.Menu) > 0 {
		return g.opts.Source.Menu
	}
	upper := cases.Upper(language.Und)
	items := make([]model.MenuItem, 0, len(categories))
	for _, c := range categories {
		items = append(items, model.MenuItem{Title: upper.String(c.Name), Path: "/category/" + url.PathEscape(c.Name)})
	}
	return items
}

// group counts names case-insensitively, in first-seen order. The first
// spelling of a name is the one shown.
type group struct {
	order []string
	names map[string]string
	count map[string]int
}

func newGroup() *group {
	return &group{names: map[string]string{}, count: map[string]int{}}
}

func (gr *group) add(name string) {
	key := strings.ToLower(name)
	if _, ok := gr.names[key]; !ok {
		gr.names[key] = name
		gr.order = append(gr.order, key)
	}
	gr.count[key]++
}

func (gr *group) terms(slug func(string) string) []model.Term {
	terms := make([]model.Term, 0, len(gr.order))
	for _, key := range gr.order {
		name := gr.names[key]
		terms = append(terms, model.Term{Name: name, Slug: slug(name), Count: gr.count[key]})
	}
	return terms
}

// taxonomy groups the posts into categories (sentinel excluded) and tags.
func taxonomy(posts []model.PostFull) (categories, tags []model.Term) {
	cats, tagGroup := newGroup(), newGroup()
	for _, p := range posts {
		if !model.IsUncategorized(p.Category) {
			cats.add(p.Category)
		}
		seen := map[string]bool{}
		for _, t := range p.Tags {
			if key := strings.ToLower(t); !seen[key] {
				seen[key] = true
				tagGroup.add(t)
			}
		}
	}
	return cats.terms(model.CategorySlug), tagGroup.terms(model.TagSlug)
}
