package extractor

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

var (
	isoDatePrefixRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
	yearRe          = regexp.MustCompile(`20\d{2}`)
)

// textual forms seen in the wild; day-first variants come first.
var dateLayouts = []string{
	"02.01.2006",
	"2006-01-02",
	"02/01/2006",
	"2006/01/02",
	"02.01.06",
	"02/01/06",
}

// parseDate recovers a calendar date from a raw cell value: a spreadsheet
// serial number, an ISO date(-time), or a common textual form. Dates with
// an implausible year are rejected: the template's epoch garbage (serial
// numbers resolving to 1900) must not leak through.
func parseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}

	// raw numeric cells carry spreadsheet serial dates
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		t, err := excelize.ExcelDateToTime(f, false)
		if err != nil || !plausibleYear(t.Year()) {
			return time.Time{}, false
		}
		return dateOnly(t), true
	}

	if m := isoDatePrefixRe.FindString(s); m != "" {
		t, err := time.Parse("2006-01-02", m)
		if err != nil || !plausibleYear(t.Year()) {
			return time.Time{}, false
		}
		return t, true
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil && plausibleYear(t.Year()) {
			return dateOnly(t), true
		}
	}
	return time.Time{}, false
}

// looksLikeDate reports whether a raw cell value is a date rather than a
// grade: either a date-typed (serial) cell or an ISO date that leaked into
// a grade column as text.
func looksLikeDate(s string) bool {
	if isoDatePrefixRe.MatchString(s) {
		return true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if t, err := excelize.ExcelDateToTime(f, false); err == nil && plausibleYear(t.Year()) {
			return true
		}
	}
	return false
}

// findYear extracts an explicit 4-digit year from text, if any.
func findYear(text string) (int, bool) {
	m := yearRe.FindString(text)
	if m == "" {
		return 0, false
	}
	y, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return y, true
}

func plausibleYear(y int) bool { return y >= 2000 && y <= 2100 }

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
