package parser

import (
	"strings"
	"testing"

	"github.com/dgallion1/chunkgrid/internal/rowset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdownParser_HeadingRows(t *testing.T) {
	input := `# Title

Intro text.

## Section A

Section A content.

### Subsection A1

Subsection A1 content.
`
	p := &MarkdownParser{}
	set, err := p.Parse(strings.NewReader(input), "doc.md")
	require.NoError(t, err)
	assert.Equal(t, "doc", set.Title)

	want := []struct {
		kind  rowset.Kind
		level int
		text  string
		line  int
	}{
		{rowset.KindHeading, 1, "Title", 1},
		{rowset.KindParagraph, 0, "Intro text.", 3},
		{rowset.KindHeading, 2, "Section A", 5},
		{rowset.KindParagraph, 0, "Section A content.", 7},
		{rowset.KindHeading, 3, "Subsection A1", 9},
		{rowset.KindParagraph, 0, "Subsection A1 content.", 11},
	}
	require.Len(t, set.Rows, len(want))
	for i, w := range want {
		row := set.Rows[i]
		assert.Equal(t, w.kind, row.Kind, "row[%d]", i)
		assert.Equal(t, w.level, row.Level, "row[%d]", i)
		assert.Equal(t, w.text, row.Text, "row[%d]", i)
		assert.Equal(t, w.line, row.Page, "row[%d] line", i)
	}
}

func TestMarkdownParser_InlineMarkupKept(t *testing.T) {
	p := &MarkdownParser{}
	set, err := p.Parse(strings.NewReader("Some **bold** text."), "inline.md")
	require.NoError(t, err)
	require.Len(t, set.Rows, 1)
	assert.Equal(t, "Some **bold** text.", set.Rows[0].Text)
}

func TestMarkdownParser_CodeBlock(t *testing.T) {
	input := "## Endpoints\n\n```\nGET /api/users\nPOST /api/users\n```\n\nMore text after code.\n"

	p := &MarkdownParser{}
	set, err := p.Parse(strings.NewReader(input), "api.md")
	require.NoError(t, err)
	require.Len(t, set.Rows, 3)
	assert.Contains(t, set.Rows[1].Text, "GET /api/users")
	assert.Equal(t, "More text after code.", set.Rows[2].Text)
}

func TestMarkdownParser_ListItems(t *testing.T) {
	p := &MarkdownParser{}
	set, err := p.Parse(strings.NewReader("- alpha\n- beta\n"), "list.md")
	require.NoError(t, err)
	require.Len(t, set.Rows, 1)
	assert.Equal(t, "alpha\nbeta", set.Rows[0].Text)
}

func TestMarkdownParser_EmptyInput(t *testing.T) {
	p := &MarkdownParser{}
	set, err := p.Parse(strings.NewReader(""), "empty.md")
	require.NoError(t, err)
	assert.Empty(t, set.Rows)
}

func TestMarkdownParser_TitleStripping(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"readme.md", "readme"},
		{"notes.markdown", "notes"},
		{"plain.md", "plain"},
	}
	p := &MarkdownParser{}
	for _, tt := range tests {
		set, err := p.Parse(strings.NewReader("text"), tt.filename)
		require.NoError(t, err, tt.filename)
		assert.Equal(t, tt.want, set.Title, tt.filename)
	}
}
