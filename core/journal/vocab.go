package journal

import (
	"strings"
	"time"
)

// The Cyrillic vocabulary used by the extraction engine. These tables are
// configuration data, not behavior: the source institution's template is the
// only layout family they target, and extending them is a data change.

// AbsenceMarkers are the cell spellings recorded for a missed class.
// Matching is exact and case-insensitive.
var AbsenceMarkers = map[string]struct{}{
	"н":      {},
	"нб":     {},
	"н/б":    {},
	"пропуск": {},
	"н/я":    {},
	"неявка": {},
}

// StudentColumnKeywords mark the header cell of the student name column.
var StudentColumnKeywords = []string{"фио", "студент", "фамилия", "имя", "ученик", "учащийся"}

// HeaderKeywords identify rows that are structural noise rather than
// student data. Matching is case-insensitive substring.
var HeaderKeywords = []string{
	"месяц/число",
	"фио обучающихся",
	"фио",
	"кол-во часов",
	"количество часов",
	"часы",
	"студент",
	"обучающийся",
	"фамилия",
	"имя",
	"отчество",
	"дата",
	"оценка",
	"пропуск",
}

// JournalHeaderKeywords anchor a journal header row on a sheet.
var JournalHeaderKeywords = []string{"фио", "студент"}

// Topics-table header fragments.
var (
	TopicHoursKeywords = []string{"кол-во часов", "часов"}
	TopicNameKeywords  = []string{"наименование", "занятия"}
	TopicDateKeyword   = "дата проведения"
)

// monthName pairs a spelling with its month; full names first so that
// lookups prefer them over the abbreviated forms they contain.
type monthName struct {
	Name  string
	Month time.Month
}

// MonthNames resolve Cyrillic month labels, full and abbreviated.
var MonthNames = []monthName{
	{"январь", time.January},
	{"февраль", time.February},
	{"март", time.March},
	{"апрель", time.April},
	{"май", time.May},
	{"июнь", time.June},
	{"июль", time.July},
	{"август", time.August},
	{"сентябрь", time.September},
	{"октябрь", time.October},
	{"ноябрь", time.November},
	{"декабрь", time.December},
	{"января", time.January},
	{"февраля", time.February},
	{"марта", time.March},
	{"апреля", time.April},
	{"мая", time.May},
	{"июня", time.June},
	{"июля", time.July},
	{"августа", time.August},
	{"сентября", time.September},
	{"октября", time.October},
	{"ноября", time.November},
	{"декабря", time.December},
	{"янв", time.January},
	{"фев", time.February},
	{"мар", time.March},
	{"апр", time.April},
	{"июн", time.June},
	{"июл", time.July},
	{"авг", time.August},
	{"сен", time.September},
	{"окт", time.October},
	{"ноя", time.November},
	{"дек", time.December},
}

// LookupMonth finds the first month label contained in text (lowercased).
func LookupMonth(text string) (time.Month, bool) {
	for _, m := range MonthNames {
		if containsFold(text, m.Name) {
			return m.Month, true
		}
	}
	return 0, false
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), sub)
}

// IsAbsenceMarker reports whether value is exactly one of the absence
// spellings (case-insensitive) or the literal "*".
func IsAbsenceMarker(value string) bool {
	if value == "*" {
		return true
	}
	_, ok := AbsenceMarkers[strings.ToLower(value)]
	return ok
}

// IsHeaderText reports whether text matches the reserved header keyword set.
func IsHeaderText(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, kw := range HeaderKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
