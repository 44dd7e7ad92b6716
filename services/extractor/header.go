package extractor

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/trezcool/gremuiv/core/journal"
)

// dateColumn maps a sheet column to the calendar date its header resolves to.
type dateColumn struct {
	col  int
	date time.Time
}

// layout is a located journal: the student-name column plus every column
// that resolved to a date, in column order.
type layout struct {
	studentCol int
	dates      []dateColumn
}

// monthCtx is the month/year a header column inherits from the month band.
type monthCtx struct {
	month time.Month
	year  int
}

// monthRowOffsets are tried above the header in this order before falling
// back to a wider window; the template usually keeps the month band five
// rows up.
var monthRowOffsets = []int{5, 4, 3, 2, 1}

const monthSearchWindow = 15

// locateColumns finds the student column and the date columns for the
// journal anchored at headerRow. ok is false when either is missing, in
// which case the segment is unparsable and must be skipped.
func (ex *Extractor) locateColumns(rows [][]string, headerRow int) (layout, bool) {
	if headerRow < 0 || headerRow >= len(rows) {
		return layout{}, false
	}
	header := rows[headerRow]

	studentCol, ok := findStudentColumn(header)
	if !ok {
		return layout{}, false
	}

	months := ex.resolveMonths(rows, headerRow)

	var dates []dateColumn
	for c := studentCol + 1; c < len(header); c++ {
		cell := strings.TrimSpace(header[c])
		if cell == "" {
			continue
		}
		if day, ok := parseDay(cell); ok {
			ctx, ok := months[c]
			if !ok {
				// a bare day number with no month context is untrustworthy
				continue
			}
			d, ok := makeDate(ctx.year, ctx.month, day)
			if !ok {
				continue
			}
			dates = append(dates, dateColumn{col: c, date: d})
			continue
		}
		if d, ok := parseDate(cell); ok {
			dates = append(dates, dateColumn{col: c, date: d})
		}
	}
	if len(dates) == 0 {
		return layout{}, false
	}
	return layout{studentCol: studentCol, dates: dates}, true
}

func findStudentColumn(header []string) (int, bool) {
	for c, cell := range header {
		lower := strings.ToLower(cell)
		for _, kw := range journal.StudentColumnKeywords {
			if strings.Contains(lower, kw) {
				return c, true
			}
		}
	}
	// fallback: the first column carrying any real text
	for c, cell := range header {
		if utf8.RuneCountInString(strings.TrimSpace(cell)) > 2 {
			return c, true
		}
	}
	return 0, false
}

// resolveMonths builds the per-column month/year map from the month band
// above the header. The band row is picked by trying the fixed offsets
// first, then the first labelled row within the wider window. A month
// label applies to its own column and propagates forward across merged
// gaps until the next label; it never applies backward.
func (ex *Extractor) resolveMonths(rows [][]string, headerRow int) map[int]monthCtx {
	r, ok := ex.findMonthRow(rows, headerRow)
	if !ok {
		return nil
	}

	// propagate across the full header width; the band row itself may be
	// shorter when its trailing cells are merged away
	width := len(rows[r])
	if w := len(rows[headerRow]); w > width {
		width = w
	}

	defaultYear := ex.now().Year()
	months := make(map[int]monthCtx)
	var cur *monthCtx
	for c := 0; c < width; c++ {
		cell := cellAt(rows, r, c)
		if m, ok := journal.LookupMonth(cell); ok {
			year := defaultYear
			if y, found := findYear(cell); found {
				year = y
			}
			cur = &monthCtx{month: m, year: year}
		}
		if cur != nil {
			months[c] = *cur
		}
	}
	return months
}

func (ex *Extractor) findMonthRow(rows [][]string, headerRow int) (int, bool) {
	tried := make(map[int]bool)
	for _, off := range monthRowOffsets {
		r := headerRow - off
		if r < 0 {
			continue
		}
		tried[r] = true
		if rowHasMonth(rows[r]) {
			return r, true
		}
	}
	for off := 1; off <= monthSearchWindow; off++ {
		r := headerRow - off
		if r < 0 {
			break
		}
		if tried[r] {
			continue
		}
		if rowHasMonth(rows[r]) {
			return r, true
		}
	}
	return 0, false
}

func rowHasMonth(row []string) bool {
	for _, cell := range row {
		if _, ok := journal.LookupMonth(cell); ok {
			return true
		}
	}
	return false
}

// parseDay accepts a header cell holding a bare day number, 1 to 31.
// Raw numeric cells may carry a float rendering of the integer.
func parseDay(s string) (int, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	day := int(f)
	if float64(day) != f || day < 1 || day > 31 {
		return 0, false
	}
	return day, true
}

// makeDate builds the date and rejects impossible combinations such as
// April 31, which time.Date would silently normalize.
func makeDate(year int, month time.Month, day int) (time.Time, bool) {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if d.Year() != year || d.Month() != month || d.Day() != day {
		return time.Time{}, false
	}
	if !plausibleYear(d.Year()) {
		return time.Time{}, false
	}
	return d, true
}
