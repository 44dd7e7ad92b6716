package journal

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/pmezard/go-difflib/difflib"
)

var (
	// "Фамилия И." / "Фамилия И.О." with a capitalized Cyrillic surname.
	canonicalFIORe = regexp.MustCompile(`^[А-ЯЁ][а-яё]+\s+[А-ЯЁ]\.\s*[А-ЯЁ]?\.?$`)

	// An initials block regardless of alphabet or surname casing,
	// e.g. "И.О.", "И.", "I.I.". Recognizing these keeps the
	// canonicalizer idempotent on its own output.
	initialsRe = regexp.MustCompile(`^[^\s.]\.(?:[^\s.]\.)?$`)
)

// CanonicalFIO maps an arbitrary full-name spelling to the stable
// "Фамилия И.О." identity form:
//
//	"Ельченинов Владислав Антонович" -> "Ельченинов В.А."
//	"Петров Пётр"                    -> "Петров П."
//	"Сидоров С.С."                   -> "Сидоров С.С." (unchanged)
//
// The function is idempotent: applying it to its own output is a no-op.
func CanonicalFIO(fio string) string {
	fio = strings.Join(strings.Fields(fio), " ")
	if fio == "" {
		return fio
	}

	if canonicalFIORe.MatchString(fio) {
		return fio
	}

	parts := strings.Split(fio, " ")
	surname := parts[0]
	if len(parts) == 1 {
		return surname
	}

	// already initialed, just a non-standard surname spelling
	if initialsRe.MatchString(parts[1]) {
		return surname + " " + parts[1]
	}

	first := firstUpper(parts[1])
	if len(parts) >= 3 {
		if second := firstUpper(parts[2]); second != "" {
			return surname + " " + first + "." + second + "."
		}
	}
	return surname + " " + first + "."
}

// fioSimilarity is the character-level resemblance of two canonical
// names, in [0, 1]. It absorbs one-letter typos in a registrant's
// name without matching a different surname.
func fioSimilarity(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	return difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, "")).QuickRatio()
}

func firstUpper(s string) string {
	for _, r := range s {
		return string(unicode.ToUpper(r))
	}
	return ""
}
