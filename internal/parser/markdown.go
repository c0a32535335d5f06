package parser

import (
	"bytes"
	"io"
	"strings"

	"github.com/dgallion1/chunkgrid/internal/rowset"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files using goldmark. Headings become
// heading rows; every other top-level block becomes one or more paragraph
// rows.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*rowset.RowSet, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	set := &rowset.RowSet{
		Title: strings.TrimSuffix(strings.TrimSuffix(filename, ".md"), ".markdown"),
	}

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			set.Heading(node.Level, string(node.Text(src)), lineOf(n, src))
		default:
			if t := extractText(n, src); t != "" {
				addText(set, t, lineOf(n, src))
			}
		}
	}

	return set, nil
}

// lineOf returns the 1-based source line where a block starts, or 0.
func lineOf(n ast.Node, src []byte) int {
	lines := n.Lines()
	if lines == nil || lines.Len() == 0 {
		return 0
	}
	return bytes.Count(src[:lines.At(0).Start], []byte("\n")) + 1
}

// extractText gets the text content of a goldmark AST node. Blocks that
// carry source lines return them verbatim so markdown rows keep their inline
// markup; container blocks join their children line by line.
func extractText(n ast.Node, src []byte) string {
	if t, ok := n.(*ast.Text); ok {
		return strings.TrimSpace(string(t.Value(src)))
	}
	if n.Type() == ast.TypeBlock && n.Lines().Len() > 0 {
		var buf bytes.Buffer
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
		return strings.TrimSpace(buf.String())
	}
	var parts []string
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t := extractText(c, src); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n")
}
