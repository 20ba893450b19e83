package types

// SourceID identifies a search backend
type SourceID string

const (
	SourceOpenLibrary     SourceID = "openlibrary"
	SourceInternetArchive SourceID = "internetarchive"
	SourceGutenberg       SourceID = "gutenberg"
)

// DisplayName returns the human-readable source name
func (s SourceID) DisplayName() string {
	switch s {
	case SourceOpenLibrary:
		return "Open Library"
	case SourceInternetArchive:
		return "Internet Archive"
	case SourceGutenberg:
		return "Project Gutenberg"
	default:
		return string(s)
	}
}

// LinkType classifies what clicking a candidate link gets you
type LinkType string

const (
	LinkDirectPDF  LinkType = "Direct PDF Download"
	LinkDirectEPUB LinkType = "Direct EPUB Download"
	LinkReadOnline LinkType = "Read Online"
)

// LinkCandidate represents one discovered download-or-read link.
// URL is the dedup key: the final rendered set never contains two
// candidates with the same URL.
type LinkCandidate struct {
	Title  string   `json:"title"`
	URL    string   `json:"url"`
	Source SourceID `json:"source"`
	Size   string   `json:"size"` // human string, or "Online" / "Unknown"
	Type   LinkType `json:"type"`
	Author string   `json:"author,omitempty"`

	RelevanceScore float64 `json:"relevance_score"`       // 0-100 token overlap
	FuzzyScore     float64 `json:"fuzzy_score,omitempty"` // 0-100 approximate match
	CombinedScore  float64 `json:"combined_score"`
}

// DedupByURL merges candidate lists keeping the first occurrence of each
// URL. Input order determines which metadata wins for a duplicated URL.
func DedupByURL(lists ...[]LinkCandidate) []LinkCandidate {
	seen := make(map[string]struct{})
	var merged []LinkCandidate
	for _, list := range lists {
		for _, c := range list {
			if _, ok := seen[c.URL]; ok {
				continue
			}
			seen[c.URL] = struct{}{}
			merged = append(merged, c)
		}
	}
	return merged
}
