package rowtemplate

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/dgallion1/chunkgrid/internal/chunkmodel"
	"github.com/dgallion1/chunkgrid/internal/rowset"
	"github.com/yuin/goldmark"
)

// Format selects how row text becomes markup.
type Format string

const (
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
)

// Config controls row markup and height estimation.
type Config struct {
	Format       Format
	LineHeight   int // Pixels per text line.
	WordsPerLine int // Words that fit on one line.
	Padding      int // Vertical padding per row in pixels.
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Format:       FormatHTML,
		LineHeight:   20,
		WordsPerLine: 12,
		Padding:      8,
	}
}

const rowTemplates = `
{{define "heading"}}<div class="row row-heading level-{{.Level}}" data-row="{{.Index}}">{{.Body}}</div>{{end}}
{{define "paragraph"}}<div class="row" data-row="{{.Index}}">{{.Body}}</div>{{end}}
{{define "record"}}<div class="row row-record" data-row="{{.Index}}">{{range .Cells}}<span class="cell" title="{{.Header}}">{{.Value}}</span>{{end}}</div>{{end}}
`

// Provider renders rows with html/template and reports their heights. Row
// heights are estimated from word counts unless explicitly overridden.
type Provider struct {
	cfg       Config
	tmpl      *template.Template
	md        goldmark.Markdown
	overrides map[int]int
}

// New parses the row templates.
func New(cfg Config) (*Provider, error) {
	d := DefaultConfig()
	if cfg.Format == "" {
		cfg.Format = d.Format
	}
	if cfg.Format != FormatHTML && cfg.Format != FormatMarkdown {
		return nil, fmt.Errorf("unsupported row format %q", cfg.Format)
	}
	if cfg.LineHeight <= 0 {
		cfg.LineHeight = d.LineHeight
	}
	if cfg.WordsPerLine <= 0 {
		cfg.WordsPerLine = d.WordsPerLine
	}
	if cfg.Padding < 0 {
		cfg.Padding = d.Padding
	}

	tmpl, err := template.New("rows").Parse(rowTemplates)
	if err != nil {
		return nil, fmt.Errorf("parse row templates: %w", err)
	}
	return &Provider{
		cfg:       cfg,
		tmpl:      tmpl,
		md:        goldmark.New(),
		overrides: make(map[int]int),
	}, nil
}

type rowData struct {
	rowset.Row
	Body template.HTML
}

// Template renders one row.
func (p *Provider) Template(row rowset.Row) (chunkmodel.Template, error) {
	name := string(row.Kind)
	if p.tmpl.Lookup(name) == nil {
		name = string(rowset.KindParagraph)
	}

	data := rowData{Row: row}
	if row.Kind != rowset.KindRecord {
		body, err := p.body(row)
		if err != nil {
			return chunkmodel.Template{}, fmt.Errorf("row %d body: %w", row.Index, err)
		}
		data.Body = body
	}

	var buf bytes.Buffer
	if err := p.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return chunkmodel.Template{}, fmt.Errorf("execute %s template: %w", name, err)
	}
	return chunkmodel.Template{Name: name, Markup: buf.String()}, nil
}

func (p *Provider) body(row rowset.Row) (template.HTML, error) {
	if p.cfg.Format != FormatMarkdown {
		return template.HTML(template.HTMLEscapeString(row.Text)), nil
	}
	var buf bytes.Buffer
	// goldmark drops raw HTML unless WithUnsafe is set, so its output is
	// safe to embed.
	if err := p.md.Convert([]byte(row.Text), &buf); err != nil {
		return "", err
	}
	return template.HTML(bytes.TrimSpace(buf.Bytes())), nil
}

// Height sums the heights of rows[min..max].
func (p *Provider) Height(rows []rowset.Row, min, max int) int {
	h := 0
	for i := min; i <= max && i < len(rows); i++ {
		h += p.RowHeight(rows[i])
	}
	return h
}

// RowHeight returns the override for the row if one is set, otherwise the
// estimate.
func (p *Provider) RowHeight(row rowset.Row) int {
	if h, ok := p.overrides[row.Index]; ok {
		return h
	}
	return p.estimate(row)
}

func (p *Provider) estimate(row rowset.Row) int {
	lines := 0
	switch row.Kind {
	case rowset.KindRecord:
		lines = EstimateLines(recordText(row), p.cfg.WordsPerLine)
	case rowset.KindHeading:
		// Heading type is set larger, roughly one and a half lines per line.
		lines = (EstimateLines(row.Text, p.cfg.WordsPerLine)*3 + 1) / 2
	default:
		lines = EstimateLines(row.Text, p.cfg.WordsPerLine)
	}
	return lines*p.cfg.LineHeight + p.cfg.Padding
}

func recordText(row rowset.Row) string {
	var buf bytes.Buffer
	for _, c := range row.Cells {
		buf.WriteString(c.Value)
		buf.WriteByte(' ')
	}
	return buf.String()
}

// SetHeight pins a row's height, as measured by the host after layout.
func (p *Provider) SetHeight(index, px int) {
	p.overrides[index] = px
}

// ClearHeight drops a pinned height so the estimate applies again.
func (p *Provider) ClearHeight(index int) {
	delete(p.overrides, index)
}
