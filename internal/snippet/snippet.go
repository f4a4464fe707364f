// Package snippet extracts fenced code blocks from captured markdown.
//
// Inspection tools frequently wrap generated source text in markdown
// fences. The snapshot store keeps the capture byte-exact; this package
// gives downstream templating a structured view of the fences without
// touching the stored artifact.
package snippet

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Snippet is one fenced code block, in document order.
type Snippet struct {
	Index    int    `json:"index"`
	Language string `json:"language,omitempty"` // fence info string, e.g. "tsx"
	Code     string `json:"code"`
}

// Extract parses source as markdown and returns its fenced code blocks.
// Fence bodies are returned byte-exact. A document without fences
// yields an empty slice, not an error.
func Extract(source []byte) ([]Snippet, error) {
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(source))

	var snippets []Snippet
	err := ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		fc, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}

		var buf bytes.Buffer
		lines := fc.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(seg.Value(source))
		}

		snippets = append(snippets, Snippet{
			Index:    len(snippets),
			Language: string(fc.Language(source)),
			Code:     buf.String(),
		})
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}

	return snippets, nil
}
