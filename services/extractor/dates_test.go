package extractor

import (
	"testing"
	"time"
)

func Test_parseDate(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want time.Time
		ok   bool
	}{
		{name: "empty", raw: ""},
		{name: "serial date", raw: "45183", want: date(2023, time.September, 14), ok: true},
		{name: "serial with fraction", raw: "45183.5", want: date(2023, time.September, 14), ok: true},
		{name: "epoch serial rejected", raw: "4", ok: false},
		{name: "iso", raw: "2023-09-14", want: date(2023, time.September, 14), ok: true},
		{name: "iso with time", raw: "2023-09-14 08:30:00", want: date(2023, time.September, 14), ok: true},
		{name: "dotted", raw: "14.09.2023", want: date(2023, time.September, 14), ok: true},
		{name: "dotted short year", raw: "14.09.23", want: date(2023, time.September, 14), ok: true},
		{name: "slashed", raw: "14/09/2023", want: date(2023, time.September, 14), ok: true},
		{name: "pre-2000 rejected", raw: "1999-12-31", ok: false},
		{name: "not a date", raw: "Иванов", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseDate(tt.raw)
			if ok != tt.ok {
				t.Fatalf("parseDate(%q) ok = %v, want %v", tt.raw, ok, tt.ok)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("parseDate(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func Test_findYear(t *testing.T) {
	if y, ok := findYear("Сентябрь 2023 г."); !ok || y != 2023 {
		t.Errorf("findYear() = %d, %v; want 2023, true", y, ok)
	}
	if _, ok := findYear("Сентябрь"); ok {
		t.Error("findYear() ok = true, want false without an explicit year")
	}
}
