package types

// SearchRequest carries one adapter invocation: the raw query plus the
// ordered variation list derived from it. Adapters iterate Variations in
// order and may stop early once enough candidates accumulated.
type SearchRequest struct {
	Query      string   `json:"query"`
	Variations []string `json:"variations"`

	// MaxCandidates overrides the source's early-exit threshold when
	// positive.
	MaxCandidates int `json:"max_candidates,omitempty"`
}
