package rank

import (
	"sort"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/openshelf/bookdiscovery/internal/search/query"
	"github.com/openshelf/bookdiscovery/internal/search/types"
)

const (
	// fuzzyThreshold is the normalized edit distance (0 = perfect match,
	// 1 = no match) beyond which a candidate gets no fuzzy credit.
	fuzzyThreshold = 0.4

	relevanceWeight = 0.6
	fuzzyWeight     = 0.4

	// MaxRanked bounds the re-ranked list handed to the presentation
	// layer.
	MaxRanked = 15
)

// distance returns the normalized Levenshtein distance between two
// strings after query normalization.
func distance(a, b string) float64 {
	a = query.Normalize(a)
	b = query.Normalize(b)
	if a == "" || b == "" {
		return 1
	}
	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}
	return float64(levenshtein.ComputeDistance(a, b)) / float64(longest)
}

// FuzzyScore computes the 0-100 approximate-match score of a candidate
// against the query, taking the better of the title and author fields.
// Candidates beyond the match threshold score zero.
func FuzzyScore(c types.LinkCandidate, q string) float64 {
	best := distance(c.Title, q)
	if d := distance(c.Author, q); d < best {
		best = d
	}
	if best > fuzzyThreshold {
		return 0
	}
	return (1 - best) * 100
}

// Rerank applies the fuzzy pass over a merged candidate list: blends the
// fuzzy score with the per-candidate relevance score, stable-sorts
// descending by the blend, and truncates. Ties keep original insertion
// order. Empty input passes through untouched.
func Rerank(candidates []types.LinkCandidate, q string) []types.LinkCandidate {
	if len(candidates) == 0 {
		return candidates
	}

	ranked := make([]types.LinkCandidate, len(candidates))
	copy(ranked, candidates)

	for i := range ranked {
		ranked[i].FuzzyScore = FuzzyScore(ranked[i], q)
		ranked[i].CombinedScore = ranked[i].RelevanceScore*relevanceWeight + ranked[i].FuzzyScore*fuzzyWeight
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].CombinedScore > ranked[j].CombinedScore
	})

	if len(ranked) > MaxRanked {
		ranked = ranked[:MaxRanked]
	}
	return ranked
}
