package core

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// DefaultSquadMatchThreshold is the minimum similarity for a suggestion.
const DefaultSquadMatchThreshold = 0.6

// FindSimilarSquad returns the existing squad name closest to input when its
// similarity reaches threshold. Names equal to input (ignoring case and
// surrounding space) are never suggested, and inputs shorter than two
// characters never match.
func FindSimilarSquad(input string, existing []string, threshold float64) (string, bool) {
	needle := normalizeSquad(input)
	if utf8.RuneCountInString(needle) < 2 {
		return "", false
	}

	best, bestScore := "", 0.0
	seen := make(map[string]bool, len(existing))
	for _, name := range existing {
		if seen[name] {
			continue
		}
		seen[name] = true

		candidate := normalizeSquad(name)
		if candidate == "" || candidate == needle {
			continue
		}
		score := SquadSimilarity(needle, candidate)
		if score >= threshold && score > bestScore {
			best, bestScore = name, score
		}
	}
	return best, best != ""
}

// SquadSimilarity scores two squad names in [0, 1]. Equal names score 1,
// containment scores 0.8, anything else scores by edit distance relative to
// the longer name.
func SquadSimilarity(a, b string) float64 {
	a, b = normalizeSquad(a), normalizeSquad(b)
	switch {
	case a == b:
		return 1
	case a == "" || b == "":
		return 0
	case strings.Contains(a, b) || strings.Contains(b, a):
		return 0.8
	}

	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

func normalizeSquad(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
