package extractor

import (
	"strings"

	"github.com/trezcool/gremuiv/core/journal"
)

// segment is one journal block on a sheet: its header row and the data
// row range [first, last] below it.
type segment struct {
	header int
	first  int
	last   int
}

// findJournals returns the row index of every journal header on the
// sheet, top to bottom. A row qualifies when any of its cells contains a
// name-column anchor keyword.
func findJournals(rows [][]string) []int {
	var headers []int
	for i, row := range rows {
		if isJournalHeader(row) {
			headers = append(headers, i)
		}
	}
	return headers
}

func isJournalHeader(row []string) bool {
	for _, cell := range row {
		lower := strings.ToLower(cell)
		for _, kw := range journal.JournalHeaderKeywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}
	return false
}

// journalSegments partitions the sheet into journal blocks: each data
// region runs from the row after its header to the row before the next
// header, or to the last row for the final block.
func journalSegments(rows [][]string) []segment {
	headers := findJournals(rows)
	segments := make([]segment, 0, len(headers))
	for i, h := range headers {
		last := len(rows) - 1
		if i+1 < len(headers) {
			last = headers[i+1] - 1
		}
		if h+1 > last {
			continue
		}
		segments = append(segments, segment{header: h, first: h + 1, last: last})
	}
	return segments
}

// cellAt reads a cell from the ragged grid GetRows returns; out-of-range
// coordinates read as empty.
func cellAt(rows [][]string, r, c int) string {
	if r < 0 || r >= len(rows) {
		return ""
	}
	row := rows[r]
	if c < 0 || c >= len(row) {
		return ""
	}
	return row[c]
}
