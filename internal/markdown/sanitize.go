package markdown

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

var youTubeEmbedSrc = regexp.MustCompile(`^https://www\.youtube(?:-nocookie)?\.com/embed/[A-Za-z0-9_-]{11}(?:\?[^"]*)?$`)

// newPolicy is the UGC policy widened for what the renderer emits: code
// wrappers with copy buttons, video blocks and YouTube embeds.
func newPolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").Globally()
	policy.AllowDataAttributes()
	policy.AllowDataURIImages()
	policy.AllowElements("figure", "figcaption")
	policy.AllowAttrs("loading").OnElements("img", "iframe")
	policy.AllowAttrs("type").OnElements("button", "source")
	policy.AllowAttrs("src").OnElements("video", "source")
	policy.AllowAttrs("controls", "preload", "playsinline", "muted", "loop", "poster").OnElements("video")
	policy.AllowAttrs("src").Matching(youTubeEmbedSrc).OnElements("iframe")
	policy.AllowAttrs("title", "allow", "allowfullscreen", "frameborder", "referrerpolicy").OnElements("iframe")
	policy.AllowAttrs("target").Matching(regexp.MustCompile(`^_blank$`)).OnElements("a")
	policy.AddTargetBlankToFullyQualifiedLinks(true)
	policy.RequireNoFollowOnLinks(true)
	return policy
}
