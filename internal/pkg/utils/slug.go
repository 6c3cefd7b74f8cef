package utils

import (
	"regexp"
	"strings"
)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify normalizes a category/tag label into its canonical slug form,
// e.g. "Graphics & Design" -> "graphics-design".
func Slugify(value string) string {
	slug := strings.ToLower(strings.TrimSpace(value))
	slug = nonSlugChars.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// SlugifyAll maps Slugify over a list, dropping entries that normalize to empty.
func SlugifyAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s := Slugify(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}
