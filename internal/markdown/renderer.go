// Package markdown turns post bodies into sanitised HTML. Images, links and
// code blocks go through site-specific rules: relative references resolve
// against the post's directory, YouTube and video links become players, and
// code is highlighted with a copy button.
package markdown

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

type Options struct {
	// LegacyDomains are hosts the blog used to live on. Links to them are
	// rewritten to local post routes.
	LegacyDomains []string
	Logger        zerolog.Logger
}

// Renderer is safe for concurrent use.
type Renderer struct {
	legacy    []string
	policy    *bluemonday.Policy
	highlight func(code, lang string) (string, error)
	log       zerolog.Logger
}

func New(opts Options) *Renderer {
	return &Renderer{
		legacy:    opts.LegacyDomains,
		policy:    newPolicy(),
		highlight: Highlight,
		log:       opts.Logger.With().Str("component", "markdown").Logger(),
	}
}

// Render converts a markdown body to HTML. baseDir is where the post's
// relative references live, see BaseDir. A body that is really an HTML
// document yields ErrMalformedContent; any other failure degrades to the
// escaped source.
func (r *Renderer) Render(src []byte, baseDir string) (template.HTML, error) {
	text := string(src)
	if IsHTMLDocument(text) {
		return "", ErrMalformedContent
	}
	body := StripFrontmatter(text)

	out, err := r.convert([]byte(body), baseDir)
	if err != nil {
		r.log.Warn().Err(err).Str("base_dir", baseDir).Msg("render failed, showing plain text")
		return template.HTML(`<pre class="render-fallback">` + html.EscapeString(body) + `</pre>`), nil
	}
	return template.HTML(r.policy.Sanitize(out)), nil
}

// Sanitize runs arbitrary HTML through the renderer's policy.
func (r *Renderer) Sanitize(raw string) template.HTML {
	return template.HTML(r.policy.Sanitize(raw))
}

func (r *Renderer) convert(src []byte, baseDir string) (out string, err error) {
	defer func() {
		if p := recover(); p != nil {
			out, err = "", fmt.Errorf("markdown panic: %v", p)
		}
	}()

	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			gmhtml.WithUnsafe(),
			renderer.WithNodeRenderers(
				util.Prioritized(&nodeRenderer{
					baseDir:   strings.TrimSuffix(baseDir, "/"),
					legacy:    r.legacy,
					highlight: r.highlight,
					log:       r.log,
				}, 100),
			),
		),
	)
	var buf bytes.Buffer
	if err := md.Convert(src, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

type nodeRenderer struct {
	baseDir   string
	legacy    []string
	highlight func(code, lang string) (string, error)
	log       zerolog.Logger
}

func (r *nodeRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindImage, r.renderImage)
	reg.Register(ast.KindLink, r.renderLink)
	reg.Register(ast.KindAutoLink, r.renderAutoLink)
	reg.Register(ast.KindFencedCodeBlock, r.renderFencedCode)
	reg.Register(ast.KindCodeBlock, r.renderCodeBlock)
}

func (r *nodeRenderer) renderImage(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.Image)
	src, video := resolveImage(r.baseDir, string(n.Destination))
	if video {
		_, _ = w.WriteString(videoBlock(src))
		return ast.WalkSkipChildren, nil
	}
	fmt.Fprintf(w, `<img src="%s" alt="%s"`, html.EscapeString(src), html.EscapeString(plainText(n, source)))
	if len(n.Title) > 0 {
		fmt.Fprintf(w, ` title="%s"`, html.EscapeString(string(n.Title)))
	}
	_, _ = w.WriteString(` class="img-fluid" loading="lazy">`)
	return ast.WalkSkipChildren, nil
}

func (r *nodeRenderer) renderLink(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*ast.Link)
	target := classifyLink(r.baseDir, string(n.Destination), r.legacy)
	switch target.kind {
	case linkYouTube:
		if entering {
			_, _ = w.WriteString(youTubeBlock(target.videoID))
		}
		return ast.WalkSkipChildren, nil
	case linkVideo:
		if entering {
			_, _ = w.WriteString(videoBlock(target.href))
		}
		return ast.WalkSkipChildren, nil
	}

	if !entering {
		_, _ = w.WriteString("</a>")
		return ast.WalkContinue, nil
	}
	fmt.Fprintf(w, `<a href="%s"`, html.EscapeString(target.href))
	if len(n.Title) > 0 {
		fmt.Fprintf(w, ` title="%s"`, html.EscapeString(string(n.Title)))
	}
	if target.external {
		_, _ = w.WriteString(` target="_blank" rel="noopener noreferrer"`)
	}
	_ = w.WriteByte('>')
	return ast.WalkContinue, nil
}

func (r *nodeRenderer) renderAutoLink(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.AutoLink)
	label := html.EscapeString(string(n.Label(source)))
	if n.AutoLinkType == ast.AutoLinkEmail {
		fmt.Fprintf(w, `<a href="mailto:%s">%s</a>`, html.EscapeString(string(n.URL(source))), label)
		return ast.WalkContinue, nil
	}

	target := classifyLink(r.baseDir, string(n.URL(source)), r.legacy)
	switch target.kind {
	case linkYouTube:
		_, _ = w.WriteString(youTubeBlock(target.videoID))
	case linkVideo:
		_, _ = w.WriteString(videoBlock(target.href))
	default:
		fmt.Fprintf(w, `<a href="%s"`, html.EscapeString(target.href))
		if target.external {
			_, _ = w.WriteString(` target="_blank" rel="noopener noreferrer"`)
		}
		fmt.Fprintf(w, ">%s</a>", label)
	}
	return ast.WalkContinue, nil
}

func (r *nodeRenderer) renderFencedCode(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.FencedCodeBlock)
	r.writeCode(w, codeText(n, source), string(n.Language(source)))
	return ast.WalkSkipChildren, nil
}

func (r *nodeRenderer) renderCodeBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	r.writeCode(w, codeText(node, source), "")
	return ast.WalkSkipChildren, nil
}

func (r *nodeRenderer) writeCode(w util.BufWriter, code, lang string) {
	body, err := r.highlight(code, lang)
	if err != nil {
		r.log.Debug().Err(err).Str("lang", lang).Msg("highlight failed, escaping")
		body = html.EscapeString(code)
	}
	class := "hljs"
	if lang != "" {
		class += " language-" + lang
	}
	fmt.Fprintf(w,
		`<div class="code-wrapper"><button class="btn-copy" type="button" data-clipboard-text="%s">Copy</button><pre><code class="%s">%s</code></pre></div>`+"\n",
		html.EscapeString(code), html.EscapeString(class), body)
}

func youTubeBlock(id string) string {
	return `<div class="video-wrapper youtube"><iframe src="https://www.youtube.com/embed/` + id +
		`" title="YouTube video" frameborder="0" allow="accelerometer; autoplay; clipboard-write; encrypted-media; gyroscope; picture-in-picture" allowfullscreen loading="lazy"></iframe></div>`
}

func videoBlock(src string) string {
	return `<div class="video-wrapper"><video controls preload="metadata" playsinline src="` + html.EscapeString(src) + `"></video></div>`
}

func codeText(n ast.Node, source []byte) string {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(source))
	}
	return b.String()
}

func plainText(n ast.Node, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(source))
		case *ast.String:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}
