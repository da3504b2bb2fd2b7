package catalog

import (
	"regexp"
	"strings"
)

// TitleMatcher decides whether two event titles refer to the same show.
// The import layer injects its own predicate; DefaultTitlesMatch is used
// when none is provided.
type TitleMatcher func(a, b string) bool

var (
	bracketedSegment = regexp.MustCompile(`\s*[\[(][^\])]*[\])]`)
	trailingVenue    = regexp.MustCompile(`\s+(at|@)\s+.+$`)
	leadingArticle   = regexp.MustCompile(`^(the|a|an)\s+`)
)

// coreTitle extracts the comparable core of an event title: case folded,
// bracketed tour/venue suffixes removed, a trailing "at <venue>" clause
// removed, leading articles stripped.
func coreTitle(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = bracketedSegment.ReplaceAllString(s, "")
	s = trailingVenue.ReplaceAllString(s, "")
	// Separator-delimited suffixes like " - sold out" or " | 18+"
	for _, sep := range []string{" - ", " | ", " – " /* en dash */} {
		if idx := strings.Index(s, sep); idx > 0 {
			s = s[:idx]
		}
	}
	s = leadingArticle.ReplaceAllString(s, "")
	s = strings.Trim(s, " .,!:")
	return whitespaceRun.ReplaceAllString(s, " ")
}

// DefaultTitlesMatch compares the core of two titles case-insensitively.
func DefaultTitlesMatch(a, b string) bool {
	ca, cb := coreTitle(a), coreTitle(b)
	if ca == "" || cb == "" {
		return false
	}
	return ca == cb
}
