package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizedSlides(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		hero *HeroConfig
		want []Slide
	}{
		{
			name: "explicit slides keep their links",
			hero: &HeroConfig{Slides: []Slide{{Image: "a.png", Link: "/posts/a"}, {Image: "b.png"}}},
			want: []Slide{{Image: "a.png", Link: "/posts/a"}, {Image: "b.png", Link: "#"}},
		},
		{
			name: "bare image list uses the shared link",
			hero: &HeroConfig{Images: []string{"a.png", "b.png"}, Link: "/about"},
			want: []Slide{{Image: "a.png", Link: "/about"}, {Image: "b.png", Link: "/about"}},
		},
		{
			name: "single image",
			hero: &HeroConfig{Image: "hero.png"},
			want: []Slide{{Image: "hero.png", Link: "#"}},
		},
		{
			name: "slides win over images",
			hero: &HeroConfig{Slides: []Slide{{Image: "s.png", Link: "/"}}, Images: []string{"i.png"}, Image: "x.png"},
			want: []Slide{{Image: "s.png", Link: "/"}},
		},
		{
			name: "nothing configured",
			hero: &HeroConfig{},
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.hero.NormalizedSlides())
		})
	}
}

func TestHeroEnabledDefaultsToTrue(t *testing.T) {
	t.Parallel()

	assert.True(t, (&HeroConfig{}).IsEnabled())
	assert.False(t, (&HeroConfig{Enabled: BoolPtr(false)}).IsEnabled())
	var nilHero *HeroConfig
	assert.False(t, nilHero.IsEnabled())
}

func TestCategorySlug(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "game", CategorySlug("Game"))
	assert.Equal(t, "web-dev-notes", CategorySlug("Web  Dev\tNotes"))
	assert.Equal(t, "go", TagSlug(" Go "))
}

func TestPaginationPageFor(t *testing.T) {
	t.Parallel()

	p := Pagination{TotalPosts: 45, TotalPages: 3, PostsPerPage: 20}
	assert.Equal(t, 1, p.PageFor(0))
	assert.Equal(t, 1, p.PageFor(19))
	assert.Equal(t, 2, p.PageFor(20))
	assert.Equal(t, 3, p.PageFor(44))
}

func TestPostMatching(t *testing.T) {
	t.Parallel()

	p := PostFull{Category: "game", Tags: []string{"Go", "web"}}
	assert.True(t, p.InCategory("GAME"))
	assert.True(t, p.HasTag("go"))
	assert.False(t, p.HasTag("rust"))
	assert.True(t, IsUncategorized(""))
	assert.True(t, IsUncategorized("uncategorized"))
	assert.False(t, IsUncategorized("Game"))
}
