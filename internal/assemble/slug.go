package assemble

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldMarks decomposes input and strips combining marks, so accented letters
// reduce to their base form before slugging ("café" -> "cafe").
var foldMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify converts a title or file name into a URL-safe path segment:
// diacritics stripped, lowercased, everything outside [a-z0-9] collapsed to
// single hyphens. Returns "" when nothing sluggable remains; callers fall
// back to another source.
func Slugify(s string) string {
	folded, _, err := transform.String(foldMarks, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	b.Grow(len(folded))
	pendingHyphen := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		default:
			pendingHyphen = true
		}
	}
	return b.String()
}

// titleCase title-cases each word (portable alternative to strings.Title).
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

// TitleFromName derives a display title from a file name: separators become
// spaces, words get title-cased ("getting-started" -> "Getting Started").
func TitleFromName(name string) string {
	cleaned := strings.NewReplacer("-", " ", "_", " ").Replace(name)
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	if cleaned == "" {
		return name
	}
	return titleCase(cleaned)
}
