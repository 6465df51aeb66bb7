// Package seo builds the per-route document metadata: title, description,
// canonical link, Open Graph and Twitter cards, and JSON-LD.
package seo

import (
	"html/template"
	"strings"

	"github.com/expvn/explog/internal/model"
)

type OpenGraph struct {
	Title       string
	Description string
	Image       string
	Type        string
	URL         string
	SiteName    string
}

type Twitter struct {
	Card  string
	Site  string
	Image string
}

type Meta struct {
	Title       string
	Description string
	Keywords    string
	Author      string
	Canonical   string
	Robots      string
	OG          OpenGraph
	Twitter     Twitter
	JSONLD      []template.JS
}

func siteName(site model.SiteConfig) string {
	if site.SiteTitle != "" {
		return site.SiteTitle
	}
	return site.SiteName
}

// Absolute resolves p against the site URL. Remote URLs and a missing site
// URL leave p as is.
func Absolute(siteURL, p string) string {
	if p == "" || strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") || siteURL == "" {
		return p
	}
	return strings.TrimSuffix(siteURL, "/") + "/" + strings.TrimPrefix(p, "/")
}

func base(site model.SiteConfig, title, description, path, image, ogType string) Meta {
	name := siteName(site)
	full := name
	if title != "" && title != name {
		full = title + " | " + name
	}
	if description == "" {
		description = site.Description
	}
	if image == "" {
		image = site.Logo
	}
	canonical := Absolute(site.SiteURL, path)
	image = Absolute(site.SiteURL, image)

	card := "summary"
	if image != "" {
		card = "summary_large_image"
	}
	handle := site.Social.Twitter
	if i := strings.LastIndex(handle, "/"); i >= 0 {
		handle = "@" + strings.TrimPrefix(handle[i+1:], "@")
	}
	return Meta{
		Title:       full,
		Description: description,
		Keywords:    site.Keywords,
		Author:      site.Author,
		Canonical:   canonical,
		OG: OpenGraph{
			Title:       full,
			Description: description,
			Image:       image,
			Type:        ogType,
			URL:         canonical,
			SiteName:    name,
		},
		Twitter: Twitter{Card: card, Site: handle, Image: image},
	}
}

// ForHome describes the home listing.
func ForHome(site model.SiteConfig, path string) Meta {
	m := base(site, "", "", path, "", "website")
	m.JSONLD = []template.JS{
		template.JS(JSON(WebSite(siteName(site), site.SiteURL, ""))),
		template.JS(JSON(Organization(siteName(site), site.SiteURL, Absolute(site.SiteURL, site.Logo)))),
	}
	return m
}

// ForListing describes a category or tag listing.
func ForListing(site model.SiteConfig, heading, path string) Meta {
	m := base(site, heading, "", path, "", "website")
	m.JSONLD = []template.JS{template.JS(JSON(BreadcrumbList([]BreadcrumbItem{
		{Name: siteName(site), Item: Absolute(site.SiteURL, "/")},
		{Name: heading, Item: m.Canonical},
	})))}
	return m
}

// ForPost describes an article.
func ForPost(site model.SiteConfig, post model.PostFull, path string) Meta {
	m := base(site, post.Title, post.Summary, path, post.Image, "article")
	if post.Author != "" {
		m.Author = post.Author
	}
	if len(post.Tags) > 0 {
		m.Keywords = strings.Join(post.Tags, ", ")
	}
	m.JSONLD = []template.JS{template.JS(JSON(Article(post.Title, m.Canonical, m.OG.Image, post.Author, post.DateRaw)))}
	return m
}

// ForStatic describes an embedded or standalone page.
func ForStatic(site model.SiteConfig, title, description, path string) Meta {
	return base(site, title, description, path, "", "website")
}

// ForError describes a failure page, which is never indexed.
func ForError(site model.SiteConfig, title, path string) Meta {
	m := base(site, title, "", path, "", "website")
	m.Robots = "noindex"
	return m
}
