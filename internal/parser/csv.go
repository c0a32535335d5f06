package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/chunkgrid/internal/rowset"
)

// CSVParser handles CSV files. The first record is the header; every other
// record becomes a record row whose Page is its 1-based line.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*rowset.RowSet, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	set := &rowset.RowSet{
		Title: strings.TrimSuffix(filename, ".csv"),
	}
	if len(records) == 0 {
		return set, nil
	}

	headers := records[0]
	for i, record := range records[1:] {
		row := rowset.Row{Kind: rowset.KindRecord, Page: i + 2}
		var text strings.Builder
		for j, cell := range record {
			header := ""
			if j < len(headers) {
				header = headers[j]
			}
			row.Cells = append(row.Cells, rowset.Cell{Header: header, Value: cell})
			if j > 0 {
				text.WriteString(", ")
			}
			if header != "" {
				text.WriteString(header + ": ")
			}
			text.WriteString(cell)
		}
		row.Text = text.String()
		set.Add(row)
	}

	return set, nil
}
