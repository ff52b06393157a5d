package extract

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// markdownExtractor strips markup by walking the goldmark AST and keeping
// only text segments, one line per block.
type markdownExtractor struct{}

func (markdownExtractor) Extract(raw []byte) (string, error) {
	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(raw))

	var b strings.Builder
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if _, isBlock := n.(*ast.Paragraph); isBlock {
				b.WriteByte('\n')
			}
			if _, isHeading := n.(*ast.Heading); isHeading {
				b.WriteByte('\n')
			}
			return ast.WalkContinue, nil
		}
		if t, ok := n.(*ast.Text); ok {
			b.Write(t.Segment.Value(raw))
			b.WriteByte(' ')
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}
