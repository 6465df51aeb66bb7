package route

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path  string
		query string
		want  Route
	}{
		{path: "/", want: Route{Kind: Home}},
		{path: "", want: Route{Kind: Home}},
		{path: "/index.html", want: Route{Kind: Home}},
		{path: "/", query: "page=3", want: Route{Kind: Home, Page: 3}},
		{path: "/", query: "page=-1", want: Route{Kind: Home}},
		{path: "/", query: "page=abc", want: Route{Kind: Home}},
		{path: "/category/Game", want: Route{Kind: Category, Name: "Game", Slug: "game"}},
		{path: "/category/GAME/", query: "page=2", want: Route{Kind: Category, Name: "GAME", Slug: "game", Page: 2}},
		{path: "/category/Board%20Games", want: Route{Kind: Category, Name: "Board Games", Slug: "board-games"}},
		{path: "/category/Uncategorized", want: Route{Kind: NotFound}},
		{path: "/category", want: Route{Kind: NotFound}},
		{path: "/tag/Go", want: Route{Kind: Tag, Name: "Go", Slug: "go"}},
		{path: "/tag/c%2B%2B", want: Route{Kind: Tag, Name: "c++", Slug: "c++"}},
		{path: "/page/about", want: Route{Kind: LegacyPage, Name: "about"}},
		{path: "/posts/hello-world", want: Route{Kind: Post, Name: "hello-world"}},
		{path: "//posts//hello-world/", want: Route{Kind: Post, Name: "hello-world"}},
		{path: "/pages/game", want: Route{Kind: StandalonePage, Name: "game", Fallback: "pages"}},
		{path: "/pages", want: Route{Kind: EmbeddedPage, Name: "pages"}},
		{path: "/about", want: Route{Kind: EmbeddedPage, Name: "about"}},
		{path: "/about/team", want: Route{Kind: EmbeddedPage, Name: "about"}},
		{path: "/about/team/x", want: Route{Kind: EmbeddedPage, Name: "about"}},
		{path: "/../x", want: Route{Kind: NotFound}},
		{path: "/tag/..", want: Route{Kind: NotFound}},
		{path: "/pages/a%2Fb", want: Route{Kind: NotFound}},
		{path: "/bad%zz", want: Route{Kind: NotFound}},
	}
	for _, tt := range tests {
		t.Run(tt.path+"?"+tt.query, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			require.NoError(t, err)
			got, err := Parse(tt.path, q)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseMissingSlug(t *testing.T) {
	t.Parallel()

	for _, p := range []string{"/posts", "/posts/"} {
		_, err := Parse(p, nil)
		assert.ErrorIs(t, err, ErrMissingSlug, p)
	}
}

func TestCategoryMatchesAnyCase(t *testing.T) {
	t.Parallel()

	a, err := Parse("/category/Game", nil)
	require.NoError(t, err)
	b, err := Parse("/category/game", nil)
	require.NoError(t, err)
	assert.Equal(t, a.Slug, b.Slug)
}

func TestKindString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "home", Home.String())
	assert.Equal(t, "standalone-page", StandalonePage.String())
	assert.Equal(t, "kind(42)", Kind(42).String())
}
