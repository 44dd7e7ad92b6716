package extractor

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/trezcool/gremuiv/core"
	"github.com/trezcool/gremuiv/core/journal"
)

// extractSegment walks one journal's data rows and emits a fact per
// resolved date column with an interpretable cell. seen enforces the
// run-wide uniqueness key: the first record for a key wins, later
// duplicates (repeated cells, overlapping blocks) are dropped.
func extractSegment(rows [][]string, seg segment, lay layout, group, subject string, seen map[string]struct{}) []journal.FactRecord {
	var facts []journal.FactRecord
	for r := seg.first; r <= seg.last; r++ {
		name := cellAt(rows, r, lay.studentCol)
		if strings.TrimSpace(name) == "" {
			continue
		}
		if !isStudentName(name) {
			continue
		}
		fio := journal.CanonicalFIO(core.CollapseSpaces(name))
		if utf8.RuneCountInString(fio) < 3 {
			continue
		}
		for _, dc := range lay.dates {
			raw := cellAt(rows, r, dc.col)
			if strings.TrimSpace(raw) == "" {
				continue
			}
			value, ok := NormalizeCell(raw)
			if !ok {
				continue
			}
			rec := journal.FactRecord{
				Group:      group,
				Subject:    subject,
				StudentFIO: fio,
				Date:       dc.date,
				Value:      value,
			}
			key := rec.Key()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			facts = append(facts, rec)
		}
	}
	return facts
}

// isStudentName rejects structural noise: header labels that slipped into
// the name column, too-short fragments, and rows holding only numbering
// or punctuation.
func isStudentName(text string) bool {
	s := strings.TrimSpace(text)
	if utf8.RuneCountInString(s) < 3 {
		return false
	}
	if journal.IsHeaderText(s) {
		return false
	}
	hasLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			hasLetter = true
			break
		}
	}
	return hasLetter
}
