package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/chunkgrid/internal/rowset"
)

// TextParser handles plain text files. Each paragraph becomes a row whose
// Page is the paragraph's first line number.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*rowset.RowSet, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	set := &rowset.RowSet{
		Title: strings.TrimSuffix(filename, ".txt"),
	}

	var current strings.Builder
	line, start := 0, 0
	flush := func() {
		if current.Len() > 0 {
			addText(set, current.String(), start)
			current.Reset()
		}
	}

	for scanner.Scan() {
		line++
		text := scanner.Text()
		if strings.TrimSpace(text) == "" {
			flush()
			continue
		}
		if current.Len() == 0 {
			start = line
		} else {
			current.WriteString("\n")
		}
		current.WriteString(text)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()

	return set, nil
}
