// Package route interprets request paths. Parse is pure: it never fetches.
// Whether a static page candidate really exists is decided by the caller.
package route

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/expvn/explog/internal/model"
)

// ErrMissingSlug is returned for /posts without a slug. It is reported as is
// rather than rendered as a missing post.
var ErrMissingSlug = errors.New("route: post slug missing")

type Kind int

const (
	NotFound Kind = iota
	Home
	Category
	Tag
	LegacyPage
	Post
	StandalonePage
	EmbeddedPage
)

var kindNames = map[Kind]string{
	NotFound:       "not-found",
	Home:           "home",
	Category:       "category",
	Tag:            "tag",
	LegacyPage:     "legacy-page",
	Post:           "post",
	StandalonePage: "standalone-page",
	EmbeddedPage:   "embedded-page",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Route is the result of interpreting one path.
type Route struct {
	Kind Kind
	// Name is the decoded category, tag or page name, or the post slug.
	Name string
	// Slug is the lookup key for categories and tags.
	Slug string
	// Page is the requested page number, 0 when the request did not name one.
	Page int
	// Fallback is the embedded page to try when a standalone page is missing.
	Fallback string
}

// Parse maps an escaped URL path and its query to a route. The first
// matching rule wins; anything unmatched is an embedded page candidate or
// NotFound.
func Parse(escapedPath string, query url.Values) (Route, error) {
	segs, ok := segments(escapedPath)
	if !ok {
		return Route{Kind: NotFound}, nil
	}
	page := pageParam(query)

	if len(segs) == 0 || (len(segs) == 1 && segs[0] == "index.html") {
		return Route{Kind: Home, Page: page}, nil
	}

	second := ""
	if len(segs) > 1 {
		second = segs[1]
	}

	switch segs[0] {
	case "category":
		if !validName(second) || model.IsUncategorized(second) {
			return Route{Kind: NotFound}, nil
		}
		return Route{Kind: Category, Name: second, Slug: model.CategorySlug(second), Page: page}, nil
	case "tag":
		if !validName(second) {
			return Route{Kind: NotFound}, nil
		}
		return Route{Kind: Tag, Name: second, Slug: model.TagSlug(second)}, nil
	case "page":
		if !validName(second) {
			return Route{Kind: NotFound}, nil
		}
		return Route{Kind: LegacyPage, Name: second}, nil
	case "posts":
		if second == "" {
			return Route{}, ErrMissingSlug
		}
		if !validName(second) {
			return Route{Kind: NotFound}, nil
		}
		return Route{Kind: Post, Name: second}, nil
	case "pages":
		if second != "" {
			if !validName(second) {
				return Route{Kind: NotFound}, nil
			}
			return Route{Kind: StandalonePage, Name: second, Fallback: segs[0]}, nil
		}
	}

	// The whole first segment names the page; deeper segments are ignored.
	if validName(segs[0]) {
		return Route{Kind: EmbeddedPage, Name: segs[0]}, nil
	}
	return Route{Kind: NotFound}, nil
}

// segments splits the escaped path into decoded, non-empty segments.
func segments(escapedPath string) ([]string, bool) {
	var out []string
	for _, raw := range strings.Split(escapedPath, "/") {
		if raw == "" {
			continue
		}
		s, err := url.PathUnescape(raw)
		if err != nil {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

func validName(name string) bool {
	name = strings.TrimSpace(name)
	return name != "" && !strings.Contains(name, "..") && !strings.ContainsAny(name, `/\`)
}

func pageParam(query url.Values) int {
	if query == nil {
		return 0
	}
	n, err := strconv.Atoi(query.Get("page"))
	if err != nil || n < 1 {
		return 0
	}
	return n
}
