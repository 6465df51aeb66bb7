package generate

import (
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

const summaryLength = 150

// summarize derives a card summary from the markdown body: the plain text
// without headings, code, images or raw HTML, cut at 150 characters.
func (g *Generator) summarize(body []byte) string {
	doc := g.md.Parser().Parse(text.NewReader(body))

	var b strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if n.Type() == ast.TypeBlock {
				b.WriteByte(' ')
			}
			return ast.WalkContinue, nil
		}
		switch t := n.(type) {
		case *ast.Heading, *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock, *ast.RawHTML, *ast.Image:
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			b.Write(t.Segment.Value(body))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})

	plain := []rune(strings.Join(strings.Fields(b.String()), " "))
	if len(plain) > summaryLength {
		return string(plain[:summaryLength]) + "..."
	}
	return string(plain)
}
