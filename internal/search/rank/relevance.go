// Package rank scores and orders link candidates: a cheap token-overlap
// relevance score applied per candidate as adapters return, and an
// approximate string-match pass applied once over the merged list.
package rank

import (
	"strings"

	"github.com/openshelf/bookdiscovery/internal/search/query"
)

// Relevance returns a title/query overlap score in [0,100].
// Exact normalized match scores 100, substring containment 80, otherwise
// the fraction of query words present in the title scaled to 60.
func Relevance(title, q string) float64 {
	normalizedTitle := query.Normalize(title)
	normalizedQuery := query.Normalize(q)

	if normalizedQuery == "" || normalizedTitle == "" {
		return 0
	}
	if normalizedTitle == normalizedQuery {
		return 100
	}
	if strings.Contains(normalizedTitle, normalizedQuery) {
		return 80
	}

	titleWords := make(map[string]struct{})
	for _, w := range strings.Fields(normalizedTitle) {
		titleWords[w] = struct{}{}
	}

	queryWords := strings.Fields(normalizedQuery)
	matches := 0
	for _, w := range queryWords {
		if _, ok := titleWords[w]; ok {
			matches++
		}
	}

	return float64(matches) / float64(len(queryWords)) * 60
}
