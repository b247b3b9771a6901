package catalog

import (
	"regexp"
	"strings"
)

var slugSeparatorRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lower-cases name, collapses every run of characters outside
// [a-z0-9] into a single hyphen and trims leading/trailing hyphens.
func Slugify(name string) string {
	slug := slugSeparatorRe.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}

// ResolveSlug keeps an explicit slug (normalized) and falls back to the name.
func ResolveSlug(explicit, name string) string {
	if s := Slugify(explicit); s != "" {
		return s
	}
	return Slugify(name)
}
