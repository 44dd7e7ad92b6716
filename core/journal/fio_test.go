package journal

import "testing"

func TestCanonicalFIO(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Ельченинов Владислав Антонович", "Ельченинов В.А."},
		{"Петров Пётр", "Петров П."},
		{"Иванов", "Иванов"},
		{"Сидоров С.С.", "Сидоров С.С."},
		{"Сидоров С.", "Сидоров С."},
		{"  Ельченинов   Владислав   Антонович  ", "Ельченинов В.А."},
		{"иванов иван иванович", "иванов И.И."},
		{"иванов И.И.", "иванов И.И."},
		{"Ёлкина анна борисовна", "Ёлкина А.Б."},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := CanonicalFIO(tt.in); got != tt.want {
				t.Errorf("CanonicalFIO(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCanonicalFIO_idempotent(t *testing.T) {
	inputs := []string{
		"Ельченинов Владислав Антонович",
		"Петров Пётр",
		"Иванов",
		"Сидоров С.С.",
		"иванов иван иванович",
		"де Голль Шарль",
		"O'Neil Shaquille Rashaun",
		"фио",
		"12",
		"",
	}
	for _, in := range inputs {
		once := CanonicalFIO(in)
		twice := CanonicalFIO(once)
		if once != twice {
			t.Errorf("CanonicalFIO is not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}
