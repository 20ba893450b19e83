// Package query turns one raw book query into an ordered set of
// normalized search strings. The ordering matters: source adapters try
// variations front to back and stop once they have enough candidates, so
// higher-fidelity forms sort before broad fallbacks.
package query

import (
	"regexp"
	"strings"
)

// FastPathLimit is how many variations the non-exhaustive path keeps.
const FastPathLimit = 3

var (
	punctRe      = regexp.MustCompile(`[:\-()\[\]]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "of": {}, "a": {}, "an": {}, "in": {},
	"on": {}, "at": {}, "to": {}, "for": {}, "with": {}, "by": {},
}

// Normalize lowercases a query, replaces subtitle punctuation with
// spaces, and collapses whitespace.
func Normalize(q string) string {
	q = strings.ToLower(strings.TrimSpace(q))
	q = punctRe.ReplaceAllString(q, " ")
	q = whitespaceRe.ReplaceAllString(q, " ")
	return strings.TrimSpace(q)
}

// StripStopwords removes common English stopwords from a normalized
// query.
func StripStopwords(q string) string {
	words := strings.Fields(q)
	kept := words[:0]
	for _, w := range words {
		if _, ok := stopwords[w]; !ok {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

func isPlaceholderAuthor(author string) bool {
	a := strings.ToLower(strings.TrimSpace(author))
	return a == "" || a == "unknown" || a == "unknown author"
}

// Variations generates the ordered variation set for a query. An
// optional author hint adds author-augmented forms. When exhaustive is
// false only the first few variations are returned to bound latency on
// the fast path.
func Variations(original, author string, exhaustive bool) []string {
	trimmed := strings.TrimSpace(original)
	normalized := Normalize(trimmed)

	variations := []string{
		trimmed,    // exact as typed
		normalized, // normalized
		StripStopwords(normalized),
	}

	// Split on common subtitle separators. The raw query keeps the
	// separator characters; Normalize already stripped ":" so split the
	// original form.
	lowered := strings.ToLower(trimmed)
	if idx := strings.Index(lowered, ":"); idx >= 0 {
		variations = append(variations, Normalize(lowered[:idx]))
	} else if idx := strings.Index(lowered, " - "); idx >= 0 {
		variations = append(variations, Normalize(lowered[:idx]))
	}

	// "Title, Author" pattern: exactly one comma.
	if parts := strings.Split(lowered, ","); len(parts) == 2 {
		title := Normalize(parts[0])
		auth := Normalize(parts[1])
		variations = append(variations, title)
		if auth != "" {
			variations = append(variations, title+" "+auth)
		}
	}

	// Direct-download backends rank PDF-tagged queries higher, so the
	// biased forms go ahead of the author-augmented broad ones.
	if normalized != "" {
		variations = append(variations, normalized+" pdf", normalized+".pdf")
	}

	if normalized != "" && !isPlaceholderAuthor(author) {
		clean := author
		if idx := strings.Index(clean, ","); idx >= 0 {
			clean = clean[:idx]
		}
		clean = Normalize(clean)
		if clean != "" {
			variations = append(variations,
				normalized+" "+clean,
				normalized+" "+clean+" pdf",
			)
		}
	}

	out := dedup(variations)
	if !exhaustive && len(out) > FastPathLimit {
		out = out[:FastPathLimit]
	}
	return out
}

// dedup removes exact duplicates and empty strings, preserving
// first-seen order.
func dedup(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
