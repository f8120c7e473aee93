package textutil

import (
	"regexp"
	"strconv"
	"strings"
)

// \s does not cover U+00A0, which the upstream markup uses liberally through &nbsp;
var whitespaceRegex = regexp.MustCompile(`[\s\p{Zs}]+`)
var digitRunRegex = regexp.MustCompile(`\d+`)
var partySeparatorRegex = regexp.MustCompile(`(?i)[\s\p{Zs}]*\bvs\b\.?[\s\p{Zs}]*`)

// CollapseWhitespace replaces every whitespace run with a single space and trims the ends.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(s, " "))
}

// NormalizeParties rewrites a "<petitioner> Vs <respondent>" cell so that the separator is
// always " vs " (any casing, optional trailing period) and whitespace runs are single spaces.
// Casing of the names themselves is preserved.
//
//	"A   Vs.   B" -> "A vs B"
func NormalizeParties(s string) string {
	s = partySeparatorRegex.ReplaceAllString(s, " vs ")
	return CollapseWhitespace(s)
}

// SplitParties splits a normalized parties string into petitioner and respondent, if there is
// no separator the whole string is the petitioner.
func SplitParties(parties string) (petitioner, respondent string) {
	before, after, found := strings.Cut(parties, " vs ")
	if !found {
		return strings.TrimSpace(parties), ""
	}
	return strings.TrimSpace(before), strings.TrimSpace(after)
}

// FirstNumber returns the first run of digits in s as an integer, 0 if there is none or it
// doesn't fit in an int.
func FirstNumber(s string) int {
	match := digitRunRegex.FindString(s)
	if match == "" {
		return 0
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return 0
	}
	return n
}

// NormalizeName lowercases and strips all whitespace so that labels can be compared loosely.
func NormalizeName(name string) string {
	name = strings.ToLower(name)
	return whitespaceRegex.ReplaceAllString(name, "")
}

// MatchName returns true if the normalized name contains any of the matchers, matchers are
// expected to already be normalized.
func MatchName(name string, matchers []string) bool {
	name = NormalizeName(name)
	for _, m := range matchers {
		if strings.Contains(name, m) {
			return true
		}
	}
	return false
}
