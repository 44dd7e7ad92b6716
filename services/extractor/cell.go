package extractor

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/trezcool/gremuiv/core/journal"
)

type cellKind int

const (
	cellNone cellKind = iota // claimed but not a fact; discard
	cellGrade
	cellAbsence
	cellToken
)

type classified struct {
	kind  cellKind
	value string
}

// classifier inspects a trimmed cell value; the first one in the chain to
// claim it decides its fate. Chain order is load-bearing: fractions must
// be tried before the absence vocabulary so that "н/5" yields a grade
// rather than an absence.
type classifier struct {
	name string
	fn   func(s string) (classified, bool)
}

var cellClassifiers = []classifier{
	{"blank-or-zero", classifyBlankOrZero},
	{"stray-date", classifyStrayDate},
	{"fraction", classifyFraction},
	{"absence", classifyAbsence},
	{"numeric", classifyNumeric},
	{"digit-run", classifyDigitRun},
	{"short-token", classifyShortToken},
}

// NormalizeCell turns one raw cell value into a typed fact value.
// ok is false when the cell carries no interpretable fact.
func NormalizeCell(raw string) (value string, ok bool) {
	s := strings.TrimSpace(raw)
	for _, c := range cellClassifiers {
		if res, claimed := c.fn(s); claimed {
			return res.value, res.kind != cellNone
		}
	}
	return "", false
}

func classifyBlankOrZero(s string) (classified, bool) {
	// zero is not a grade in this domain
	if s == "" || s == "0" || s == "0.0" {
		return classified{kind: cellNone}, true
	}
	return classified{}, false
}

func classifyStrayDate(s string) (classified, bool) {
	if looksLikeDate(s) {
		return classified{kind: cellNone}, true
	}
	return classified{}, false
}

func classifyFraction(s string) (classified, bool) {
	if !strings.Contains(s, "/") {
		return classified{}, false
	}
	parts := strings.SplitN(s, "/", 2)
	left := strings.TrimSpace(parts[0])
	right := strings.TrimSpace(parts[1])

	switch strings.ToLower(right) {
	case "б", "н", "нб", "н/б":
		return classified{kind: cellAbsence, value: journal.AbsenceValue}, true
	}

	lInt, lOK := parseMark(left)
	rInt, rOK := parseMark(right)
	switch {
	case lOK && rOK:
		// joint grade, kept verbatim
		return classified{kind: cellGrade, value: left + "/" + right}, true
	case rOK && isShortAlpha(left):
		return classified{kind: cellGrade, value: strconv.Itoa(rInt)}, true
	case lOK:
		return classified{kind: cellGrade, value: strconv.Itoa(lInt)}, true
	}
	return classified{}, false
}

func classifyAbsence(s string) (classified, bool) {
	if journal.IsAbsenceMarker(s) {
		return classified{kind: cellAbsence, value: journal.AbsenceValue}, true
	}
	return classified{}, false
}

func classifyNumeric(s string) (classified, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return classified{}, false
	}
	n := int(f)
	if float64(n) != f {
		return classified{}, false
	}
	if n == 0 {
		return classified{kind: cellNone}, true
	}
	if (n >= 1 && n <= 5) || (n > 0 && n <= 100) {
		return classified{kind: cellGrade, value: strconv.Itoa(n)}, true
	}
	return classified{}, false
}

var digitRunRe = regexp.MustCompile(`\d+`)

func classifyDigitRun(s string) (classified, bool) {
	run := digitRunRe.FindString(s)
	if run == "" {
		return classified{}, false
	}
	n, err := strconv.Atoi(run)
	if err != nil {
		return classified{}, false
	}
	if n >= 1 && n <= 100 {
		return classified{kind: cellGrade, value: strconv.Itoa(n)}, true
	}
	return classified{}, false
}

func classifyShortToken(s string) (classified, bool) {
	if utf8.RuneCountInString(s) <= 2 {
		return classified{kind: cellToken, value: s}, true
	}
	return classified{}, false
}

// parseMark parses a single 5-scale mark.
func parseMark(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 5 {
		return 0, false
	}
	return n, true
}

func isShortAlpha(s string) bool {
	if s == "" || utf8.RuneCountInString(s) > 2 {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
