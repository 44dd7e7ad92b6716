package extractor

import (
	"reflect"
	"testing"
	"time"

	"github.com/trezcool/gremuiv/core/journal"
)

func Test_extractSegment(t *testing.T) {
	rows := [][]string{
		{"№", "ФИО обучающихся", "4", "6"},
		{"", "Ельченинов Владислав Антонович", "5", "н"},
		{"", "фио", "5", "5"}, // header noise leaked into the data region
		{"", "12", "4", "4"},  // row numbering, not a name
		{"", "Петров  Пётр", "", "3/5"},
		{"", "Ельченинов В.А.", "2", "4"}, // same student again; duplicate keys lose
	}
	seg := segment{header: 0, first: 1, last: 5}
	lay := layout{studentCol: 1, dates: []dateColumn{
		{col: 2, date: date(2023, time.September, 4)},
		{col: 3, date: date(2023, time.September, 6)},
	}}

	seen := make(map[string]struct{})
	got := extractSegment(rows, seg, lay, "32", "Химия", seen)

	want := []journal.FactRecord{
		{Group: "32", Subject: "Химия", StudentFIO: "Ельченинов В.А.", Date: date(2023, time.September, 4), Value: "5"},
		{Group: "32", Subject: "Химия", StudentFIO: "Ельченинов В.А.", Date: date(2023, time.September, 6), Value: journal.AbsenceValue},
		{Group: "32", Subject: "Химия", StudentFIO: "Петров П.", Date: date(2023, time.September, 6), Value: "3/5"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("extractSegment() = %+v, want %+v", got, want)
	}
}

func Test_extractSegment_firstSeenWinsAcrossSegments(t *testing.T) {
	rows := [][]string{
		{"", "ФИО", "4"},
		{"", "Иванов Иван", "5"},
		{"", "ФИО", "4"},
		{"", "Иванов И.", "2"},
	}
	lay := layout{studentCol: 1, dates: []dateColumn{{col: 2, date: date(2023, time.September, 4)}}}

	seen := make(map[string]struct{})
	first := extractSegment(rows, segment{header: 0, first: 1, last: 1}, lay, "32", "Химия", seen)
	second := extractSegment(rows, segment{header: 2, first: 3, last: 3}, lay, "32", "Химия", seen)

	if len(first) != 1 || first[0].Value != "5" {
		t.Fatalf("first segment = %+v, want one fact with value 5", first)
	}
	if len(second) != 0 {
		t.Errorf("second segment = %+v, want duplicate key dropped", second)
	}
}

func Test_isStudentName(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"Иванов Иван Иванович", true},
		{"Иванов И.И.", true},
		{"фио", false},
		{"ФИО обучающихся", false},
		{"Кол-во часов", false},
		{"ив", false},
		{"12.", false},
		{"№ 4", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := isStudentName(tt.text); got != tt.want {
				t.Errorf("isStudentName(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}
