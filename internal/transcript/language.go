package transcript

import (
	"strings"

	"golang.org/x/text/language"
)

// BaseLanguage returns the ISO 639 base of a language code ("en-US" -> "en").
// Codes that do not parse are lowercased and cut at the first separator.
func BaseLanguage(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	if tag, err := language.Parse(code); err == nil {
		base, _ := tag.Base()
		return base.String()
	}
	code = strings.ToLower(code)
	if i := strings.IndexAny(code, "-_"); i > 0 {
		return code[:i]
	}
	return code
}

// SameLanguage reports whether two codes share a base language.
func SameLanguage(a, b string) bool {
	base := BaseLanguage(a)
	return base != "" && base == BaseLanguage(b)
}
