package app

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/expvn/explog/internal/markdown"
	"github.com/expvn/explog/internal/model"
	"github.com/expvn/explog/internal/seo"
	"github.com/expvn/explog/internal/staticpage"
	"github.com/expvn/explog/internal/view"
)

const (
	homeCookieMaxAge = 30 * 24 * 60 * 60

	malformedMessage = "The server returned an HTML page where this post's markdown was expected. " +
		"The host is probably answering unknown paths with the site shell; check its fallback rules."
)

func homeHref(page int) string {
	return "/?page=" + strconv.Itoa(page)
}

// home lists one page of the post sequence under the hero. Without ?page the
// page number remembered in the client's cookie is used.
func (a *App) home(req request) response {
	ctx := req.ctx
	pagination, err := a.cache.Pagination(ctx)
	if err != nil {
		a.log.Warn().Err(err).Msg("no pagination data, home shows no posts")
	}

	n, explicit := req.route.Page, req.route.Page > 0
	if !explicit {
		n = cookiePage(req.r)
	}
	if n > pagination.TotalPages {
		if explicit && pagination.TotalPages > 0 {
			return a.notFound(req)
		}
		n = 1
	}

	var posts []model.PostFull
	if pagination.TotalPages > 0 {
		page, err := a.cache.LoadPage(ctx, n)
		if err != nil {
			return a.notFound(req)
		}
		posts = page.Posts
	}
	if home, err := a.cache.Home(ctx); err == nil {
		posts = filterHome(posts, home)
	}

	list := &view.ListView{
		Heading: view.HomeHeading,
		Hero:    a.heroView(req),
		Cards:   view.Cards(posts),
		Pager:   view.NewPager(n, pagination.TotalPages, homeHref),
	}
	doc := req.document(seo.ForHome(req.site, "/"), http.StatusOK)
	doc.List = list

	res := response{status: http.StatusOK, page: view.PageList, doc: doc}
	if explicit {
		res.cookie = &http.Cookie{
			Name:     HomePageCookie,
			Value:    strconv.Itoa(n),
			Path:     "/",
			MaxAge:   homeCookieMaxAge,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		}
	}
	return res
}

func cookiePage(r *http.Request) int {
	c, err := r.Cookie(HomePageCookie)
	if err != nil {
		return 1
	}
	n, err := strconv.Atoi(c.Value)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// filterHome keeps the posts of the configured home categories, then applies
// the limit. Zero values mean no filter and no limit.
func filterHome(posts []model.PostFull, home model.HomeConfig) []model.PostFull {
	if len(home.Categories) > 0 {
		kept := make([]model.PostFull, 0, len(posts))
		for _, p := range posts {
			if slices.ContainsFunc(home.Categories, p.InCategory) {
				kept = append(kept, p)
			}
		}
		posts = kept
	}
	if home.Limit > 0 && len(posts) > home.Limit {
		posts = posts[:home.Limit]
	}
	return posts
}

// heroView keeps the slider running on the configured slides and reports the slide
// active right now. It returns nil when the hero is off or has no slides.
func (a *App) heroView(req request) *view.HeroView {
	cfg, err := a.cache.Hero(req.ctx)
	if err != nil || !cfg.IsEnabled() {
		a.slider.Pause()
		return nil
	}
	slides := cfg.NormalizedSlides()
	if len(slides) == 0 {
		a.slider.Pause()
		return nil
	}
	if !slices.Equal(a.slider.Slides(), slides) {
		a.slider.Reset(slides)
	}
	a.slider.Resume()
	return &view.HeroView{
		Slides:     slides,
		Active:     a.slider.Current(),
		IntervalMS: a.heroInterval().Milliseconds(),
	}
}

func (a *App) category(req request) response {
	bundle, err := a.cache.LoadCategory(req.ctx, req.route.Slug)
	if err != nil {
		return a.notFound(req)
	}

	perPage := a.postsPerPage(req.ctx, req.site)
	total := (len(bundle.Posts) + perPage - 1) / perPage
	n := max(req.route.Page, 1)
	if total > 0 && n > total {
		return a.notFound(req)
	}
	lo := min((n-1)*perPage, len(bundle.Posts))
	hi := min(lo+perPage, len(bundle.Posts))

	base := view.CategoryHref(req.route.Name)
	heading := view.CategoryHeading(req.route.Name)
	doc := req.document(seo.ForListing(req.site, heading, base), http.StatusOK)
	doc.List = &view.ListView{
		Heading: heading,
		Cards:   view.Cards(bundle.Posts[lo:hi]),
		Pager: view.NewPager(n, total, func(p int) string {
			return view.PageHref(base, p)
		}),
	}
	return response{status: http.StatusOK, page: view.PageList, doc: doc}
}

// tag needs every page, since tags have no bundle of their own.
func (a *App) tag(req request) response {
	all, err := a.cache.AllPosts(req.ctx)
	if err != nil {
		return a.notFound(req)
	}
	var posts []model.PostFull
	for _, p := range all {
		if p.HasTag(req.route.Name) {
			posts = append(posts, p)
		}
	}

	heading := view.TagHeading(req.route.Name)
	doc := req.document(seo.ForListing(req.site, heading, view.TagHref(req.route.Name)), http.StatusOK)
	doc.List = &view.ListView{Heading: heading, Cards: view.Cards(posts)}
	return response{status: http.StatusOK, page: view.PageList, doc: doc}
}

// post renders an article. The body is rendered before related posts are
// picked, and those come only from pages already cached.
func (a *App) post(req request) response {
	ctx := req.ctx
	post, pos, err := a.cache.FindPostBySlug(ctx, req.route.Name)
	if err != nil {
		return a.notFound(req)
	}

	article := &view.ArticleView{
		Post:         *post,
		CategoryHref: view.CategoryHref(post.Category),
		Tags:         view.TagLinks(post.Tags),
		Image:        view.ArticleImage(post.Image),
	}
	if model.IsUncategorized(post.Category) {
		article.CategoryHref = ""
	}

	status := http.StatusOK
	src, err := a.cache.Content(ctx, "content/"+strings.TrimPrefix(post.Path, "/"))
	switch {
	case err != nil:
		status = http.StatusNotFound
		article.Problem = "The content of this post could not be found."
	default:
		body, err := a.md.Render(src, markdown.BaseDir(post.Path))
		if errors.Is(err, markdown.ErrMalformedContent) {
			a.log.Warn().Str("slug", post.Slug).Str("path", post.Path).Msg("html document served as markdown")
			status = http.StatusBadGateway
			article.Problem = malformedMessage
		} else {
			article.Body = body
		}
	}

	if index, err := a.cache.Index(ctx); err == nil {
		article.Newer, article.Older = view.Neighbours(index, pos)
	}
	article.Related = view.Related(*post, a.cache.CachedPosts())

	doc := req.document(seo.ForPost(req.site, *post, view.PostHref(post.Slug)), status)
	doc.Article = article
	return response{status: status, page: view.PageArticle, doc: doc}
}

type pageLoader func(ctx context.Context, name string) (*model.StaticPage, error)

// static renders an embedded page in the article region.
func (a *App) static(req request, load pageLoader) response {
	page, err := load(req.ctx, req.route.Name)
	if err != nil {
		if !errors.Is(err, staticpage.ErrNotFound) {
			a.log.Warn().Err(err).Str("name", req.route.Name).Msg("static page failed")
		}
		return a.notFound(req)
	}

	sv := &view.StaticView{
		Name:       page.Name,
		Title:      staticTitle(page),
		Mode:       page.Mode,
		Height:     page.Meta.Height,
		Width:      page.Meta.Width,
		Background: page.Meta.Background,
		FullWidth:  page.Meta.FullWidth,
	}
	switch page.Mode {
	case model.EmbedIframe:
		sv.FrameSrc = "/" + page.File
	case model.EmbedText:
		sv.Text = page.Body
	default:
		sv.Mode = model.EmbedInject
		sv.Body = a.md.Sanitize(page.Body)
	}

	doc := req.document(seo.ForStatic(req.site, sv.Title, page.Meta.Description, req.path()), http.StatusOK)
	doc.Static = sv
	return response{status: http.StatusOK, page: view.PageStatic, doc: doc}
}

// standalone renders a full-screen frame around the page. When there is no
// such page the first path segment is tried as an embedded page.
func (a *App) standalone(req request) response {
	page, err := a.pages.Standalone(req.ctx, req.route.Name)
	if err != nil {
		if req.route.Fallback == "" {
			return a.notFound(req)
		}
		req.route.Name = req.route.Fallback
		return a.static(req, a.pages.Embedded)
	}
	sv := &view.StaticView{
		Name:     page.Name,
		Title:    staticTitle(page),
		Mode:     model.EmbedIframe,
		FrameSrc: "/" + page.File,
	}
	doc := req.document(seo.ForStatic(req.site, sv.Title, page.Meta.Description, req.path()), http.StatusOK)
	doc.Static = sv
	return response{status: http.StatusOK, page: view.PageStandalone, doc: doc}
}

func staticTitle(page *model.StaticPage) string {
	if t := strings.TrimSpace(page.Meta.Title); t != "" {
		return t
	}
	return page.Name
}
