// Package slugs derives stable, URL-safe keys from user-facing titles.
package slugs

import (
	"strings"
	"unicode"

	goslug "github.com/gosimple/slug"
)

// Fallback is used when a title has no sluggable characters at all.
const Fallback = "filter"

// Make converts a saved-filter title to its lookup key.
func Make(title string) string {
	if s := goslug.Make(strings.TrimSpace(title)); s != "" {
		return s
	}
	if s := simpleSlug(title); s != "" {
		return s
	}
	return Fallback
}

// simpleSlug keeps letters and digits and collapses everything else to single dashes.
func simpleSlug(text string) string {
	var result strings.Builder
	prevDash := false

	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			result.WriteRune(r)
			prevDash = false
		case !prevDash && result.Len() > 0:
			result.WriteRune('-')
			prevDash = true
		}
	}

	return strings.TrimSuffix(result.String(), "-")
}
