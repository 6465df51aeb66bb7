package model

import (
	"regexp"
	"strings"
)

// Uncategorized is the category assigned to posts without one. It never
// appears in the category menu or on category listing pages.
const Uncategorized = "Uncategorized"

// PostSummary is one entry of the lightweight posts index, newest first.
type PostSummary struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Slug     string `json:"slug"`
	Date     string `json:"date"`
	Category string `json:"category"`
	Image    string `json:"image"`
}

// PostFull carries everything a page file stores about a post. The markdown
// body is fetched separately from Path.
type PostFull struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Slug     string   `json:"slug"`
	Summary  string   `json:"summary"`
	Image    string   `json:"image"`
	Author   string   `json:"author"`
	Date     string   `json:"date"`
	DateRaw  string   `json:"dateRaw,omitempty"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
	Path     string   `json:"path"`
}

// Summarize returns the index entry for the post.
func (p PostFull) Summarize() PostSummary {
	return PostSummary{
		ID:       p.ID,
		Title:    p.Title,
		Slug:     p.Slug,
		Date:     p.Date,
		Category: p.Category,
		Image:    p.Image,
	}
}

// HasTag reports whether the post carries tag, ignoring case.
func (p PostFull) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// InCategory reports whether the post belongs to category, ignoring case.
func (p PostFull) InCategory(category string) bool {
	return strings.EqualFold(p.Category, category)
}

// Page is one pagination unit of the post sequence (config/posts/page-N.json).
type Page struct {
	Page         int        `json:"page"`
	TotalPages   int        `json:"totalPages"`
	TotalPosts   int        `json:"totalPosts"`
	PostsPerPage int        `json:"postsPerPage"`
	Posts        []PostFull `json:"posts"`
}

// CategoryBundle holds every post of one category (config/categories/{slug}.json).
type CategoryBundle struct {
	Category   string     `json:"category"`
	Slug       string     `json:"slug"`
	TotalPosts int        `json:"totalPosts"`
	Posts      []PostFull `json:"posts"`
}

// Pagination mirrors config/pagination.json.
type Pagination struct {
	TotalPosts   int `json:"totalPosts"`
	TotalPages   int `json:"totalPages"`
	PostsPerPage int `json:"postsPerPage"`
}

// PageFor returns the 1-based page that holds the post at index position pos.
func (p Pagination) PageFor(pos int) int {
	if p.PostsPerPage <= 0 || pos < 0 {
		return 1
	}
	return pos/p.PostsPerPage + 1
}

// Term is a category or tag entry of config/categories.json and config/tags.json.
type Term struct {
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Count int    `json:"count"`
}

// MenuItem is one entry of config/menu.json.
type MenuItem struct {
	Title string `json:"title" yaml:"title"`
	Path  string `json:"path" yaml:"path"`
}

// HomeConfig mirrors config/home.json. An empty Categories list means no filter.
type HomeConfig struct {
	Categories []string `json:"categories" yaml:"categories"`
	Limit      int      `json:"limit" yaml:"limit"`
}

// Footer is the footer block of the site config.
type Footer struct {
	Copyright string `json:"copyright" yaml:"copyright"`
	ShowLogo  bool   `json:"showLogo" yaml:"showLogo"`
}

// Social lists optional social profile links.
type Social struct {
	Github   string `json:"github" yaml:"github"`
	Twitter  string `json:"twitter" yaml:"twitter"`
	Facebook string `json:"facebook" yaml:"facebook"`
}

// SiteConfig mirrors config/site.json.
type SiteConfig struct {
	SiteTitle    string `json:"siteTitle" yaml:"siteTitle"`
	SiteName     string `json:"siteName" yaml:"siteName"`
	SiteURL      string `json:"siteUrl" yaml:"siteUrl"`
	Logo         string `json:"logo" yaml:"logo"`
	Favicon      string `json:"favicon" yaml:"favicon"`
	Description  string `json:"description" yaml:"description"`
	Keywords     string `json:"keywords" yaml:"keywords"`
	Author       string `json:"author" yaml:"author"`
	Language     string `json:"language" yaml:"language"`
	PostsPerPage int    `json:"postsPerPage" yaml:"postsPerPage"`
	Footer       Footer `json:"footer" yaml:"footer"`
	Social       Social `json:"social" yaml:"social"`
}

// SiteSource is the editable input of the build step: the site, hero, home and
// menu sections of config.yaml.
type SiteSource struct {
	Site SiteConfig  `yaml:"site"`
	Hero *HeroConfig `yaml:"hero"`
	Home *HomeConfig `yaml:"home"`
	Menu []MenuItem  `yaml:"menu"`
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// CategorySlug lower-cases name and replaces whitespace runs with "-".
func CategorySlug(name string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}

// TagSlug lower-cases a tag name.
func TagSlug(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// IsUncategorized reports whether category is the sentinel (or empty).
func IsUncategorized(category string) bool {
	category = strings.TrimSpace(category)
	return category == "" || strings.EqualFold(category, Uncategorized)
}
