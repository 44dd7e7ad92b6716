// Package extractor recovers structured attendance/grade facts from the
// loosely structured journal workbooks produced by the institution's
// spreadsheet template: a header row anchored by "ФИО", a month/day header
// band above it, optionally several journals stacked on one sheet, and an
// optional lesson-topics table.
//
// The engine is deliberately forgiving: a malformed cell is discarded, a
// malformed row is skipped, a sheet with no recognizable journal yields
// nothing. Only a workbook that cannot be opened at all is reported as an
// error, and even that is structured so callers can move on to other files.
package extractor

import (
	"strings"
	"time"
)

// Config carries the layout knobs and is data, not behavior; see
// core.ParserConfig for where the values come from.
type Config struct {
	// Sheet range markers: subject sheets start at the first sheet whose
	// name begins with StartSheetPrefix (or after SkipSheets when the
	// prefix is empty or absent) and end before the first sheet matching
	// StopSheetPrefix or StopSheetName.
	SkipSheets       int
	StartSheetPrefix string
	StopSheetPrefix  string
	StopSheetName    string

	// GroupPrefixes are stripped from file names when deriving group names.
	GroupPrefixes []string

	// TopicRowDenylist drops topic rows containing any of these literal
	// cell values. Empty by default; a workaround knob for one known
	// template artifact, not a general rule.
	TopicRowDenylist []string
}

type Extractor struct {
	cfg Config
	now func() time.Time // injected for tests; month resolution defaults to the current year
}

func New(cfg Config) *Extractor {
	return &Extractor{cfg: cfg, now: time.Now}
}

// GroupFromFileName derives the cohort identifier from a workbook file
// name by stripping the configured prefixes and the spreadsheet suffixes.
func GroupFromFileName(name string, prefixes []string) string {
	for _, suffix := range []string{".xlsx", ".xlsm", ".xslm", ".xls"} {
		if strings.HasSuffix(strings.ToLower(name), suffix) {
			name = name[:len(name)-len(suffix)]
			break
		}
	}
	for _, prefix := range prefixes {
		name = strings.ReplaceAll(name, prefix, "")
	}
	return strings.TrimSpace(name)
}
