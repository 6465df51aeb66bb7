package view

import (
	"html/template"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/expvn/explog/internal/model"
	"github.com/expvn/explog/internal/seo"
)

const (
	// PlaceholderImage stands in for posts without an image. An article whose
	// image is the placeholder shows no hero image.
	PlaceholderImage = "/assets/hero.png"
	summaryFallback  = "Click to read!"
	relatedLimit     = 3
)

// Template names.
const (
	PageList       = "list"
	PageArticle    = "article"
	PageStatic     = "static"
	PageStandalone = "standalone"
	PageError      = "error"
)

// Document is everything one rendered page needs. Exactly one of the view
// fields is set, matching the template it is rendered with.
type Document struct {
	Site   model.SiteConfig
	Menu   []model.MenuItem
	Meta   seo.Meta
	Path   string
	Status int

	List    *ListView
	Article *ArticleView
	// Static serves both the static and standalone templates.
	Static *StaticView
	Error  *ErrorView
}

// Link is a titled href.
type Link struct {
	Title string
	Href  string
}

type Card struct {
	Title    string
	Href     string
	Image    string
	Category string
	Date     string
	Summary  string
}

type HeroView struct {
	Slides     []model.Slide
	Active     int
	IntervalMS int64
}

// Slider reports whether there is more than one slide to rotate through.
func (h *HeroView) Slider() bool { return h != nil && len(h.Slides) > 1 }

// ListView is the home, category and tag listing.
type ListView struct {
	Heading string
	Hero    *HeroView
	Cards   []Card
	Pager   *Pager
}

type ArticleView struct {
	Post         model.PostFull
	CategoryHref string
	Tags         []Link
	Image        string
	Body         template.HTML
	// Problem replaces Body when the content could not be shown.
	Problem string
	Newer   *Link
	Older   *Link
	Related []Card
}

type StaticView struct {
	Name       string
	Title      string
	Mode       string
	Body       template.HTML
	Text       string
	FrameSrc   string
	Height     string
	Width      string
	Background string
	FullWidth  bool
}

type ErrorView struct {
	Title   string
	Message string
	Path    string
}

// PostHref is the route of the post with slug.
func PostHref(slug string) string {
	return "/posts/" + url.PathEscape(slug)
}

func CategoryHref(name string) string {
	return "/category/" + url.PathEscape(name)
}

func TagHref(name string) string {
	return "/tag/" + url.PathEscape(name)
}

// PageHref returns base with the page query set, or base itself for page 1.
func PageHref(base string, page int) string {
	if page <= 1 {
		return base
	}
	return base + "?page=" + strconv.Itoa(page)
}

func CardFor(p model.PostFull) Card {
	summary := strings.TrimSpace(p.Summary)
	if summary == "" {
		summary = summaryFallback
	}
	return Card{
		Title:    p.Title,
		Href:     PostHref(p.Slug),
		Image:    cardImage(p.Image),
		Category: p.Category,
		Date:     p.Date,
		Summary:  summary,
	}
}

func Cards(posts []model.PostFull) []Card {
	cards := make([]Card, 0, len(posts))
	for _, p := range posts {
		cards = append(cards, CardFor(p))
	}
	return cards
}

func cardImage(img string) string {
	if strings.TrimSpace(img) == "" {
		return PlaceholderImage
	}
	return img
}

// ArticleImage is the image shown above an article, "" for none.
func ArticleImage(img string) string {
	img = strings.TrimSpace(img)
	if img == "" || strings.TrimPrefix(img, "/") == strings.TrimPrefix(PlaceholderImage, "/") {
		return ""
	}
	return img
}

func TagLinks(tags []string) []Link {
	links := make([]Link, 0, len(tags))
	for _, t := range tags {
		links = append(links, Link{Title: t, Href: TagHref(t)})
	}
	return links
}

// Neighbours returns the newer and older posts around position pos of the
// newest-first index.
func Neighbours(index []model.PostSummary, pos int) (newer, older *Link) {
	if pos > 0 && pos-1 < len(index) {
		p := index[pos-1]
		newer = &Link{Title: p.Title, Href: PostHref(p.Slug)}
	}
	if pos >= 0 && pos+1 < len(index) {
		p := index[pos+1]
		older = &Link{Title: p.Title, Href: PostHref(p.Slug)}
	}
	return newer, older
}

// Related picks up to three posts of the same category as post, excluding
// post itself, in the order given.
func Related(post model.PostFull, candidates []model.PostFull) []Card {
	var cards []Card
	for _, c := range candidates {
		if len(cards) == relatedLimit {
			break
		}
		if c.Slug == post.Slug || !c.InCategory(post.Category) {
			continue
		}
		cards = append(cards, CardFor(c))
	}
	return cards
}

// Headings of the listing pages.
const HomeHeading = "News"

func CategoryHeading(name string) string {
	return cases.Title(language.Und, cases.NoLower).String(name) + " Posts"
}

func TagHeading(name string) string {
	return "#" + name
}
