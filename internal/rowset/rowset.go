package rowset

// Kind says how a row's text should be presented.
type Kind string

const (
	KindHeading   Kind = "heading"
	KindParagraph Kind = "paragraph"
	KindRecord    Kind = "record"
)

// RowSet is a parsed document flattened into grid rows.
type RowSet struct {
	Title string // Document title (from metadata or filename)
	Rows  []Row
}

// Row is one grid row.
type Row struct {
	Index int    // Position in the row set
	Kind  Kind   // Presentation kind
	Level int    // Heading level, 1-6 (0 for non-headings)
	Text  string // Text content
	Page  int    // Source page/line (0 if N/A)
	Cells []Cell // Named values for records
}

// Cell is one header/value pair of a record row.
type Cell struct {
	Header string
	Value  string
}

// Add appends a row, assigning its index.
func (s *RowSet) Add(r Row) {
	r.Index = len(s.Rows)
	s.Rows = append(s.Rows, r)
}

// Heading appends a heading row.
func (s *RowSet) Heading(level int, text string, page int) {
	s.Add(Row{Kind: KindHeading, Level: level, Text: text, Page: page})
}

// Paragraph appends a paragraph row.
func (s *RowSet) Paragraph(text string, page int) {
	s.Add(Row{Kind: KindParagraph, Text: text, Page: page})
}
