package ecourts

import (
	"strings"

	"ecourts-casestatus/lib/textutil"

	"github.com/antzucaro/matchr"
)

// names below this similarity are not considered a match.
const minOptionSimilarity = 0.85

// MatchOption finds the option a user meant by either its code or (approximately) its name,
// ex. "1" or "maharastra" both resolve to Maharashtra.
func MatchOption(options []Option, query string) (Option, bool) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Option{}, false
	}

	for _, opt := range options {
		if opt.Value == query || opt.RawValue == query {
			return opt, true
		}
	}

	normalizedQuery := textutil.NormalizeName(query)
	for _, opt := range options {
		if textutil.NormalizeName(opt.Text) == normalizedQuery {
			return opt, true
		}
	}

	var best Option
	var bestSimilarity float64
	for _, opt := range options {
		similarity := matchr.JaroWinkler(normalizedQuery, textutil.NormalizeName(opt.Text), false)
		if similarity > bestSimilarity {
			bestSimilarity = similarity
			best = opt
		}
	}
	if bestSimilarity < minOptionSimilarity {
		return Option{}, false
	}
	return best, true
}

// OptionLabel returns the text of the option with the given code, or the code itself when
// it is not one of the options.
func OptionLabel(options []Option, code string) string {
	for _, opt := range options {
		if opt.Value == code {
			return opt.Text
		}
	}
	return code
}
