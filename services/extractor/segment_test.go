package extractor

import (
	"reflect"
	"testing"
)

func gridWithHeaders(size int, headerRows ...int) [][]string {
	rows := make([][]string, size)
	for i := range rows {
		rows[i] = []string{"", ""}
	}
	for _, h := range headerRows {
		rows[h] = []string{"№", "ФИО обучающихся"}
	}
	return rows
}

func Test_journalSegments(t *testing.T) {
	tests := []struct {
		name string
		rows [][]string
		want []segment
	}{
		{
			name: "empty sheet",
			rows: gridWithHeaders(20),
			want: []segment{},
		},
		{
			name: "single journal",
			rows: gridWithHeaders(20, 4),
			want: []segment{{header: 4, first: 5, last: 19}},
		},
		{
			name: "stacked journals",
			rows: gridWithHeaders(80, 10, 65),
			want: []segment{
				{header: 10, first: 11, last: 64},
				{header: 65, first: 66, last: 79},
			},
		},
		{
			name: "header on last row has no data region",
			rows: gridWithHeaders(10, 9),
			want: []segment{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := journalSegments(tt.rows); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("journalSegments() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func Test_findJournals_keywordAnchors(t *testing.T) {
	rows := [][]string{
		{"Журнал успеваемости"},
		{"", "Студент", "1", "2"},
		{"", "Иванов Иван"},
		{"", "фио", "1", "2"},
	}
	want := []int{1, 3}
	if got := findJournals(rows); !reflect.DeepEqual(got, want) {
		t.Errorf("findJournals() = %v, want %v", got, want)
	}
}
