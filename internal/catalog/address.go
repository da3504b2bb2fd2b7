package catalog

import (
	"regexp"
	"strings"
)

// addressSubstitution is one entry of the ordered abbreviation table.
type addressSubstitution struct {
	pattern     *regexp.Regexp
	replacement string
}

// Ordered table of street-suffix substitutions. Longer words first so that
// e.g. "parkway" is not partially rewritten by a shorter rule.
var addressSubstitutions = []addressSubstitution{
	{regexp.MustCompile(`\bapartment\b`), "apt"},
	{regexp.MustCompile(`\bboulevard\b`), "blvd"},
	{regexp.MustCompile(`\bparkway\b`), "pkwy"},
	{regexp.MustCompile(`\bhighway\b`), "hwy"},
	{regexp.MustCompile(`\bstreet\b`), "st"},
	{regexp.MustCompile(`\bavenue\b`), "ave"},
	{regexp.MustCompile(`\bcircle\b`), "cir"},
	{regexp.MustCompile(`\bsuite\b`), "ste"},
	{regexp.MustCompile(`\bdrive\b`), "dr"},
	{regexp.MustCompile(`\bplace\b`), "pl"},
	{regexp.MustCompile(`\bcourt\b`), "ct"},
	{regexp.MustCompile(`\broad\b`), "rd"},
	{regexp.MustCompile(`\blane\b`), "ln"},
}

var (
	addressPunctuation = strings.NewReplacer(".", "", ",", "", "#", "")
	whitespaceRun      = regexp.MustCompile(`\s+`)
)

// NormalizeAddress canonicalizes a street address string for equality
// comparison. The result is never used for display.
func NormalizeAddress(address string) string {
	s := strings.ToLower(strings.TrimSpace(address))
	for _, sub := range addressSubstitutions {
		s = sub.pattern.ReplaceAllString(s, sub.replacement)
	}
	s = addressPunctuation.Replace(s)
	s = whitespaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
