package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSiteSource(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
siteTitle: ignored here
site:
  siteTitle: Exp Log
  author: Ann
  footer:
    copyright: "© Ann"
hero:
  enabled: false
  images: [a.png, b.png]
home:
  categories: [Game]
  limit: 6
menu:
  - title: About
    path: /static/about
`), 0o644))

	src, err := loadSiteSource(file)
	require.NoError(t, err)
	assert.Equal(t, "Exp Log", src.Site.SiteTitle)
	assert.Equal(t, "Ann", src.Site.Author)
	assert.Equal(t, "© Ann", src.Site.Footer.Copyright)
	require.NotNil(t, src.Hero)
	require.NotNil(t, src.Hero.Enabled)
	assert.False(t, *src.Hero.Enabled)
	assert.Equal(t, []string{"a.png", "b.png"}, src.Hero.Images)
	require.NotNil(t, src.Home)
	assert.Equal(t, []string{"Game"}, src.Home.Categories)
	assert.Equal(t, 6, src.Home.Limit)
	require.Len(t, src.Menu, 1)
	assert.Equal(t, "/static/about", src.Menu[0].Path)
}

func TestLoadSiteSourceWithoutFile(t *testing.T) {
	src, err := loadSiteSource("")
	require.NoError(t, err)
	assert.Nil(t, src.Hero)
	assert.Nil(t, src.Menu)

	_, err = loadSiteSource(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
