package rowtemplate

import "strings"

// EstimateLines gives a rough wrapped line count for text at wordsPerLine.
// Exact text measurement is left to the host; this only has to be close
// enough that placeholder chunks do not jump when they materialize.
func EstimateLines(text string, wordsPerLine int) int {
	words := len(strings.Fields(text))
	if words == 0 {
		return 1
	}
	if wordsPerLine <= 0 {
		wordsPerLine = 1
	}
	return (words + wordsPerLine - 1) / wordsPerLine
}
