package textutil

import (
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var separatorReplacer = strings.NewReplacer("_", " ", "-", " ")

// FileStem returns the base name of path up to its first dot, so
// "Kick.v2.wav" yields "Kick". Names starting with a dot keep that dot.
func FileStem(path string) string {
	base := filepath.Base(path)
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	if idx := strings.Index(base[1:], "."); idx >= 0 {
		return base[:idx+1]
	}
	return base
}

// TitleCase replaces underscores and hyphens with spaces and title-cases
// every word. A word is a run of cased letters, so anything else starts a
// new one: "don't" becomes "Don'T" and "808kick" becomes "808Kick", the
// same titles existing manifests were sorted by.
func TitleCase(value string) string {
	value = separatorReplacer.Replace(value)
	titler := cases.Title(language.Und)
	var b strings.Builder
	b.Grow(len(value))
	start := -1
	for i, r := range value {
		if isCased(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			b.WriteString(titler.String(value[start:i]))
			start = -1
		}
		b.WriteRune(r)
	}
	if start >= 0 {
		b.WriteString(titler.String(value[start:]))
	}
	return b.String()
}

func isCased(r rune) bool {
	return unicode.IsUpper(r) || unicode.IsLower(r) || unicode.IsTitle(r)
}

// Slug lowercases title and replaces spaces with hyphens. Path separators
// also become hyphens so a slug is always a single path segment.
func Slug(title string) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	slug = strings.NewReplacer(" ", "-", "/", "-", "\\", "-").Replace(slug)
	return slug
}
