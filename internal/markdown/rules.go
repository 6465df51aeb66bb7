package markdown

import (
	"net/url"
	"path"
	"regexp"
	"strings"
)

var (
	youTubeRe = regexp.MustCompile(`(?:youtube(?:-nocookie)?\.com/(?:watch\?(?:[^#]*&)?v=|embed/|shorts/|live/|v/)|youtu\.be/)([A-Za-z0-9_-]{11})`)

	videoExts = map[string]bool{
		".mp4":  true,
		".webm": true,
		".ogg":  true,
		".ogv":  true,
		".mov":  true,
		".m4v":  true,
	}

	legacyPageExts = map[string]bool{
		".html": true,
		".htm":  true,
		".php":  true,
		".md":   true,
	}
)

type linkKind int

const (
	linkPlain linkKind = iota
	linkYouTube
	linkVideo
)

type linkTarget struct {
	kind     linkKind
	href     string
	videoID  string
	external bool
}

// BaseDir is the directory a post's relative references resolve against:
// "posts/my-post/index.md" becomes "/content/posts/my-post".
func BaseDir(postPath string) string {
	postPath = strings.Trim(strings.ReplaceAll(postPath, "\\", "/"), "/")
	dir := path.Dir(postPath)
	if dir == "." || dir == "" {
		return "/content"
	}
	return "/content/" + dir
}

// YouTubeID extracts the 11 character video id from a watch, share, shorts or
// embed link. It returns "" for anything else.
func YouTubeID(href string) string {
	m := youTubeRe.FindStringSubmatch(href)
	if m == nil {
		return ""
	}
	return m[1]
}

func isRemote(ref string) bool {
	lower := strings.ToLower(ref)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "//")
}

func hasScheme(ref string) bool {
	i := strings.IndexByte(ref, ':')
	if i <= 0 {
		return false
	}
	for _, r := range ref[:i] {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '+' || r == '-' || r == '.') {
			return false
		}
	}
	return true
}

func isVideoFile(ref string) bool {
	p := ref
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	return videoExts[strings.ToLower(path.Ext(p))]
}

// resolveImage applies the image rule: remote and data references pass
// through, everything else lives under baseDir (bare file names under its
// images/ folder). The flag reports a video container extension.
func resolveImage(baseDir, src string) (string, bool) {
	src = strings.TrimSpace(src)
	if src == "" || isRemote(src) || strings.HasPrefix(strings.ToLower(src), "data:") {
		return src, false
	}
	if !strings.Contains(src, "/") {
		src = "images/" + src
	}
	resolved := path.Join(baseDir, strings.TrimPrefix(src, "/"))
	return resolved, isVideoFile(resolved)
}

// resolveRelative joins a relative link onto baseDir, keeping its query and
// fragment.
func resolveRelative(baseDir, href string) string {
	p, suffix := href, ""
	if i := strings.IndexAny(href, "?#"); i >= 0 {
		p, suffix = href[:i], href[i:]
	}
	if p == "" {
		return href
	}
	joined := path.Join(baseDir, p)
	if strings.HasSuffix(p, "/") && !strings.HasSuffix(joined, "/") {
		joined += "/"
	}
	return joined + suffix
}

// rewriteLegacy maps a link on one of the site's former domains to the local
// post route named by the link's last path segment.
func rewriteLegacy(href string, domains []string) (string, bool) {
	if len(domains) == 0 || !isRemote(href) {
		return "", false
	}
	u, err := url.Parse(href)
	if err != nil || u.Host == "" {
		return "", false
	}
	host := normalizeHost(u.Hostname())
	matched := false
	for _, d := range domains {
		if normalizeHost(d) == host {
			matched = true
			break
		}
	}
	if !matched {
		return "", false
	}

	var segs []string
	for _, s := range strings.Split(u.Path, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	if len(segs) == 0 {
		return "/", true
	}
	last := segs[len(segs)-1]
	if ext := strings.ToLower(path.Ext(last)); legacyPageExts[ext] {
		last = strings.TrimSuffix(last, path.Ext(last))
	}
	if last == "index" && len(segs) > 1 {
		last = segs[len(segs)-2]
	}
	local := "/posts/" + last
	if u.Fragment != "" {
		local += "#" + u.Fragment
	}
	return local, true
}

func normalizeHost(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	if strings.Contains(h, "://") {
		if u, err := url.Parse(h); err == nil {
			h = u.Hostname()
		}
	}
	h = strings.TrimSuffix(h, "/")
	return strings.TrimPrefix(h, "www.")
}

// classifyLink applies the link rule.
func classifyLink(baseDir, href string, legacyDomains []string) linkTarget {
	href = strings.TrimSpace(href)
	if href == "" {
		return linkTarget{kind: linkPlain, href: href}
	}
	if local, ok := rewriteLegacy(href, legacyDomains); ok {
		return linkTarget{kind: linkPlain, href: local}
	}
	if id := YouTubeID(href); id != "" && isRemote(href) {
		return linkTarget{kind: linkYouTube, href: href, videoID: id}
	}
	relative := !isRemote(href) && !hasScheme(href) && !strings.HasPrefix(href, "/") && !strings.HasPrefix(href, "#")
	if isVideoFile(href) {
		if relative {
			href = resolveRelative(baseDir, href)
		}
		return linkTarget{kind: linkVideo, href: href}
	}
	if isRemote(href) {
		return linkTarget{kind: linkPlain, href: href, external: true}
	}
	if relative {
		return linkTarget{kind: linkPlain, href: resolveRelative(baseDir, href)}
	}
	return linkTarget{kind: linkPlain, href: href}
}
