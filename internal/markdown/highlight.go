package markdown

import (
	"bytes"
	"fmt"
	"html"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

var codeFormatter = chromahtml.New(
	chromahtml.WithClasses(true),
	chromahtml.PreventSurroundingPre(true),
)

// Highlight returns class-annotated HTML for code. A known lang picks the
// lexer; otherwise the lexer is guessed from the code. Code nothing recognises
// comes back escaped.
func Highlight(code, lang string) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = "", fmt.Errorf("highlight %q: %v", lang, r)
		}
	}()

	var lexer chroma.Lexer
	if lang != "" {
		lexer = lexers.Get(lang)
	}
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		return html.EscapeString(code), nil
	}
	iterator, err := chroma.Coalesce(lexer).Tokenise(nil, code)
	if err != nil {
		return "", fmt.Errorf("tokenise %q: %w", lang, err)
	}
	var buf bytes.Buffer
	if err := codeFormatter.Format(&buf, styles.Fallback, iterator); err != nil {
		return "", fmt.Errorf("format %q: %w", lang, err)
	}
	return buf.String(), nil
}
