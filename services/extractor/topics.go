package extractor

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/trezcool/gremuiv/core/journal"
)

// defaultTopicHours is used when the hours cell is blank or unparsable.
const defaultTopicHours = 2

// topicLayout is the located lesson-topics table header.
type topicLayout struct {
	header   int
	nameCol  int
	hoursCol int
	dateCol  int // -1 when the table has no proved-date column
}

// findTopics locates and parses the lesson-topics table, a second table
// of a different shape that may appear anywhere on the sheet. Returns nil
// when no qualifying header exists; that is not an error.
func (ex *Extractor) findTopics(rows [][]string, group, subject string) []journal.TopicRecord {
	lay, ok := locateTopicTable(rows)
	if !ok {
		return nil
	}

	var topics []journal.TopicRecord
	for r := lay.header + 1; r < len(rows); r++ {
		name := strings.TrimSpace(cellAt(rows, r, lay.nameCol))
		if name == "" || utf8.RuneCountInString(name) < 3 || isTopicHeaderFragment(name) {
			continue
		}
		if ex.topicRowDenied(rows[r]) {
			continue
		}

		hours := defaultTopicHours
		if h, err := strconv.Atoi(strings.TrimSpace(cellAt(rows, r, lay.hoursCol))); err == nil && h > 0 {
			hours = h
		}

		rec := journal.TopicRecord{Group: group, Subject: subject, Name: name, Hours: hours}
		if lay.dateCol >= 0 {
			if d, ok := parseDate(cellAt(rows, r, lay.dateCol)); ok {
				rec.Date = &d
			}
		}
		topics = append(topics, rec)
	}
	return topics
}

// locateTopicTable finds the first row carrying both an hours-like and a
// topic-name-like header fragment and resolves its column indices.
func locateTopicTable(rows [][]string) (topicLayout, bool) {
	for r, row := range rows {
		nameCol, hoursCol, dateCol := -1, -1, -1
		for c, cell := range row {
			lower := strings.ToLower(cell)
			if hoursCol == -1 && containsAny(lower, journal.TopicHoursKeywords) {
				hoursCol = c
			}
			if nameCol == -1 && containsAny(lower, journal.TopicNameKeywords) {
				nameCol = c
			}
			if dateCol == -1 && strings.Contains(lower, journal.TopicDateKeyword) {
				dateCol = c
			}
		}
		if nameCol >= 0 && hoursCol >= 0 {
			return topicLayout{header: r, nameCol: nameCol, hoursCol: hoursCol, dateCol: dateCol}, true
		}
	}
	return topicLayout{}, false
}

func isTopicHeaderFragment(text string) bool {
	lower := strings.ToLower(text)
	return containsAny(lower, journal.TopicHoursKeywords) ||
		containsAny(lower, journal.TopicNameKeywords) ||
		strings.Contains(lower, journal.TopicDateKeyword)
}

func (ex *Extractor) topicRowDenied(row []string) bool {
	if len(ex.cfg.TopicRowDenylist) == 0 {
		return false
	}
	for _, cell := range row {
		trimmed := strings.TrimSpace(cell)
		for _, deny := range ex.cfg.TopicRowDenylist {
			if trimmed == deny {
				return true
			}
		}
	}
	return false
}

func containsAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
