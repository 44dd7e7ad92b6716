package extractor

import (
	"reflect"
	"testing"
	"time"
)

func testExtractor(now time.Time) *Extractor {
	ex := New(Config{})
	ex.now = func() time.Time { return now }
	return ex
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func Test_locateColumns(t *testing.T) {
	ex := testExtractor(date(2023, time.September, 1))

	rows := [][]string{
		{"Журнал успеваемости"},
		{"", "", "Сентябрь", "", "Апрель 2024"},
		{},
		{},
		{},
		{},
		{"№", "ФИО обучающихся", "4", "6", "11", "31", "14.09.2023"},
	}

	lay, ok := ex.locateColumns(rows, 6)
	if !ok {
		t.Fatal("locateColumns() ok = false, want true")
	}
	if lay.studentCol != 1 {
		t.Errorf("studentCol = %d, want 1", lay.studentCol)
	}
	want := []dateColumn{
		{col: 2, date: date(2023, time.September, 4)},
		{col: 3, date: date(2023, time.September, 6)},
		{col: 4, date: date(2024, time.April, 11)},
		// col 5 is April 31st, an impossible date
		{col: 6, date: date(2023, time.September, 14)},
	}
	if !reflect.DeepEqual(lay.dates, want) {
		t.Errorf("dates = %+v, want %+v", lay.dates, want)
	}
}

func Test_locateColumns_noMonthContext(t *testing.T) {
	ex := testExtractor(date(2023, time.September, 1))

	// bare day numbers with no month band anywhere above must be dropped
	rows := [][]string{
		{"№", "ФИО", "4", "6", "11"},
		{"", "Иванов Иван Иванович", "5", "н", "4"},
	}
	if _, ok := ex.locateColumns(rows, 0); ok {
		t.Error("locateColumns() ok = true, want false when no month is resolvable")
	}
}

func Test_locateColumns_monthRowFallbackWindow(t *testing.T) {
	ex := testExtractor(date(2023, time.October, 1))

	// the month band sits 9 rows up, outside the fixed offsets
	rows := make([][]string, 10)
	for i := range rows {
		rows[i] = []string{""}
	}
	rows[0] = []string{"", "", "Октябрь 2023"}
	rows[9] = []string{"№", "ФИО", "2", "9"}

	lay, ok := ex.locateColumns(rows, 9)
	if !ok {
		t.Fatal("locateColumns() ok = false, want true")
	}
	want := []dateColumn{
		{col: 2, date: date(2023, time.October, 2)},
		{col: 3, date: date(2023, time.October, 9)},
	}
	if !reflect.DeepEqual(lay.dates, want) {
		t.Errorf("dates = %+v, want %+v", lay.dates, want)
	}
}

func Test_findStudentColumn(t *testing.T) {
	tests := []struct {
		name   string
		header []string
		want   int
		found  bool
	}{
		{name: "fio keyword", header: []string{"№", "ФИО обучающихся", "1"}, want: 1, found: true},
		{name: "student keyword", header: []string{"Студент", "1", "2"}, want: 0, found: true},
		{name: "fallback to first text", header: []string{"", "Личный состав", "1"}, want: 1, found: true},
		{name: "nothing usable", header: []string{"", "№", "1"}, found: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := findStudentColumn(tt.header)
			if found != tt.found {
				t.Fatalf("findStudentColumn() found = %v, want %v", found, tt.found)
			}
			if found && got != tt.want {
				t.Errorf("findStudentColumn() = %d, want %d", got, tt.want)
			}
		})
	}
}
