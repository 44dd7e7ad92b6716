package extractor

import (
	"math"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/gremuiv/core/journal"
)

// FileError is a structured workbook-level failure: the file that could
// not be processed and the cause. The scheduler skips the file and moves
// on to the rest of the batch.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return "extract " + e.Path + ": " + e.Err.Error()
}

func (e *FileError) Unwrap() error { return e.Err }

// ExtractFile opens the workbook at path and extracts every journal and
// topics table inside the subject sheet range. The only error it returns
// is a *FileError for an unreadable or corrupt file; everything below the
// workbook level degrades to an empty result instead.
func (ex *Extractor) ExtractFile(path string) (journal.FileResult, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return journal.FileResult{}, &FileError{Path: path, Err: errors.Wrap(err, "opening workbook")}
	}
	defer f.Close()

	name := filepath.Base(path)
	res := ex.ExtractWorkbook(f, name)
	return res, nil
}

// ExtractWorkbook walks the subject sheets of an open workbook and
// aggregates facts, topics and per-subject statistics. fileName is used
// for the group derivation and carried on the result.
func (ex *Extractor) ExtractWorkbook(f *excelize.File, fileName string) journal.FileResult {
	res := journal.FileResult{
		File:  fileName,
		Group: GroupFromFileName(fileName, ex.cfg.GroupPrefixes),
	}

	seen := make(map[string]struct{})
	for _, sheet := range ex.subjectSheets(f.GetSheetList()) {
		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			// a single unreadable sheet must not sink the workbook
			continue
		}

		subject := strings.TrimSpace(sheet)
		var sheetFacts []journal.FactRecord
		for _, seg := range journalSegments(rows) {
			lay, ok := ex.locateColumns(rows, seg.header)
			if !ok {
				continue
			}
			sheetFacts = append(sheetFacts, extractSegment(rows, seg, lay, res.Group, subject, seen)...)
		}
		res.Facts = append(res.Facts, sheetFacts...)
		res.Topics = append(res.Topics, ex.findTopics(rows, res.Group, subject)...)

		if len(sheetFacts) > 0 {
			res.Stats = append(res.Stats, subjectStats(subject, sheetFacts))
		}
	}
	return res
}

// subjectSheets selects the contiguous run of subject sheets: starting at
// the first sheet matching StartSheetPrefix (or after the configured skip
// count when no sheet matches) and stopping before the first sheet
// matching StopSheetPrefix or named StopSheetName exactly.
func (ex *Extractor) subjectSheets(sheets []string) []string {
	start := ex.cfg.SkipSheets
	if start > len(sheets) {
		start = len(sheets)
	}
	if p := ex.cfg.StartSheetPrefix; p != "" {
		for i, s := range sheets {
			if strings.HasPrefix(s, p) {
				start = i
				break
			}
		}
	}

	end := len(sheets)
	for i := start; i < len(sheets); i++ {
		if ex.cfg.StopSheetPrefix != "" && strings.HasPrefix(sheets[i], ex.cfg.StopSheetPrefix) {
			end = i
			break
		}
		if ex.cfg.StopSheetName != "" && sheets[i] == ex.cfg.StopSheetName {
			end = i
			break
		}
	}
	return sheets[start:end]
}

// subjectStats summarizes one subject's facts: unique class dates, the
// grade/absence split, and the attendance percentage.
func subjectStats(subject string, facts []journal.FactRecord) journal.SubjectStats {
	stats := journal.SubjectStats{Subject: subject}
	dates := make(map[string]struct{})
	for _, f := range facts {
		dates[f.Date.Format("2006-01-02")] = struct{}{}
		stats.Total++
		if f.IsAbsence() {
			stats.Absences++
		} else {
			stats.Grades++
		}
	}
	stats.TotalClasses = len(dates)
	if stats.Total > 0 {
		stats.AttendancePercent = math.Round(float64(stats.Grades)/float64(stats.Total)*1000) / 10
	}
	return stats
}
