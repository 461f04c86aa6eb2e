package recipe

import (
	"regexp"
	"strings"
)

var (
	slugDisallowed = regexp.MustCompile(`[^a-z0-9 -]`)
	slugSpaceRuns  = regexp.MustCompile(`\s+`)
	slugHyphenRuns = regexp.MustCompile(`-+`)
)

// Slugify derives the URL identifier for a recipe title: lowercase, strip
// everything outside [a-z0-9 -], collapse whitespace runs to a single hyphen,
// collapse hyphen runs. Leading and trailing hyphens are kept: a title whose
// first or last character is stripped yields a slug like "-a-b-".
func Slugify(title string) string {
	s := strings.ToLower(title)
	s = slugDisallowed.ReplaceAllString(s, "")
	s = slugSpaceRuns.ReplaceAllString(s, "-")
	return slugHyphenRuns.ReplaceAllString(s, "-")
}

// SplitIngredients splits the comma-separated ingredients form field.
// Entries are kept verbatim, surrounding whitespace included, and order is
// preserved for display.
func SplitIngredients(s string) []string {
	return strings.Split(s, ",")
}
