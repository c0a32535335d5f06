package parser

import (
	"strings"
	"testing"

	"github.com/dgallion1/chunkgrid/internal/rowset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTMLParser_Rows(t *testing.T) {
	input := `<html><head><title>Guide</title><style>p{}</style></head>
<body>
<nav><p>skip me</p></nav>
<h2>Install</h2>
<p>Run the <b>installer</b>.</p>
<ul><li>one</li><li>two</li></ul>
</body></html>`

	p := &HTMLParser{}
	set, err := p.Parse(strings.NewReader(input), "guide.html")
	require.NoError(t, err)
	assert.Equal(t, "Guide", set.Title)

	want := []string{"Install", "Run the installer.", "one", "two"}
	require.Len(t, set.Rows, len(want))
	for i, w := range want {
		assert.Equal(t, w, set.Rows[i].Text, "row[%d]", i)
	}
	assert.Equal(t, rowset.KindHeading, set.Rows[0].Kind)
	assert.Equal(t, 2, set.Rows[0].Level)
}

func TestHTMLParser_TitleFromFilename(t *testing.T) {
	p := &HTMLParser{}
	set, err := p.Parse(strings.NewReader("<p>x</p>"), "page.htm")
	require.NoError(t, err)
	assert.Equal(t, "page", set.Title)
}

func TestCSVParser_Records(t *testing.T) {
	input := "name,qty\nbolt,4\nnut,10,extra\n"
	p := &CSVParser{}
	set, err := p.Parse(strings.NewReader(input), "parts.csv")
	require.NoError(t, err)
	assert.Equal(t, "parts", set.Title)
	require.Len(t, set.Rows, 2)

	first := set.Rows[0]
	assert.Equal(t, rowset.KindRecord, first.Kind)
	assert.Equal(t, 2, first.Page)
	assert.Equal(t, "name: bolt, qty: 4", first.Text)
	require.Len(t, first.Cells, 2)
	assert.Equal(t, rowset.Cell{Header: "qty", Value: "4"}, first.Cells[1])

	second := set.Rows[1]
	assert.Equal(t, "name: nut, qty: 10, extra", second.Text)
	assert.Equal(t, 1, second.Index)
	assert.Equal(t, 3, second.Page)
}

func TestCSVParser_Empty(t *testing.T) {
	p := &CSVParser{}
	set, err := p.Parse(strings.NewReader(""), "none.csv")
	require.NoError(t, err)
	assert.Empty(t, set.Rows)
}

func TestForFile(t *testing.T) {
	for _, name := range []string{"a.txt", "b.MD", "c.markdown", "d.csv", "e.html", "f.pdf", "g.docx"} {
		_, err := ForFile(name)
		assert.NoError(t, err, name)
		assert.True(t, IsSupportedExtension(name), name)
	}
	_, err := ForFile("x.exe")
	assert.Error(t, err)
}
