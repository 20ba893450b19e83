package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/openshelf/bookdiscovery/internal/metrics"
	"github.com/openshelf/bookdiscovery/internal/pkg/logger"
	"github.com/openshelf/bookdiscovery/internal/search/rank"
	"github.com/openshelf/bookdiscovery/internal/search/types"
)

// openLibraryTarget is the default early-exit threshold: once this many
// usable candidates accumulated, remaining variations are skipped.
const openLibraryTarget = 3

// OpenLibrarySource implements the Open Library search API. Besides
// link discovery it hosts the metadata lookup that produces the
// session's BookInfo.
type OpenLibrarySource struct {
	*BaseSource
}

// NewOpenLibrarySource creates a new Open Library source
func NewOpenLibrarySource(config *types.SourceConfig, log *logger.Logger) (Source, error) {
	return &OpenLibrarySource{BaseSource: NewBaseSource(config, log)}, nil
}

// olResponse represents an Open Library search response
type olResponse struct {
	Docs []olDoc `json:"docs"`
}

type olDoc struct {
	Title            string   `json:"title"`
	AuthorName       []string `json:"author_name"`
	FirstPublishYear int      `json:"first_publish_year"`
	Subject          []string `json:"subject"`
	Language         []string `json:"language"`
	Publisher        []string `json:"publisher"`
	CoverID          int64    `json:"cover_i"`
	HasFulltext      bool     `json:"has_fulltext"`
	IA               []string `json:"ia"`
	Key              string   `json:"key"`
}

func (s *OpenLibrarySource) searchURL(variant string, limit int) string {
	params := url.Values{}
	params.Set("title", variant)
	params.Set("limit", strconv.Itoa(limit))
	return fmt.Sprintf("%s/search.json?%s", s.Config().APIHost, params.Encode())
}

// Search tries each variation in order, keeping documents that carry
// full text or an archive identifier, until enough candidates
// accumulated.
func (s *OpenLibrarySource) Search(ctx context.Context, req *types.SearchRequest) ([]types.LinkCandidate, error) {
	target := req.MaxCandidates
	if target <= 0 {
		target = s.Config().MaxCandidates
	}
	if target <= 0 {
		target = openLibraryTarget
	}

	var links []types.LinkCandidate
	for _, variant := range req.Variations {
		if len(links) >= target {
			break
		}

		resp, err := s.GetJSON(ctx, s.searchURL(variant, 5))
		if err != nil {
			s.logVariationSkip(variant, err)
			continue
		}

		var olResp olResponse
		err = json.NewDecoder(resp.Body).Decode(&olResp)
		resp.Body.Close()
		if err != nil {
			s.logVariationSkip(variant, fmt.Errorf("decode response: %w", err))
			continue
		}

		for _, doc := range olResp.Docs {
			if !doc.HasFulltext && len(doc.IA) == 0 {
				continue
			}

			title := doc.Title
			if title == "" {
				title = "Unknown Title"
			}
			author := types.UnknownValue
			if len(doc.AuthorName) > 0 {
				author = strings.Join(doc.AuthorName, ", ")
			}

			links = append(links, types.LinkCandidate{
				Title:          title + " - Open Library",
				URL:            s.Config().APIHost + doc.Key,
				Source:         types.SourceOpenLibrary,
				Size:           "Online",
				Type:           types.LinkReadOnline,
				Author:         author,
				RelevanceScore: rank.Relevance(title, req.Query),
			})
		}
	}

	metrics.CandidatesTotal.WithLabelValues(string(s.ID())).Add(float64(len(links)))
	return links, nil
}

// FetchBookInfo resolves the metadata card for a query: the first
// variation to return a document wins. A failed or empty lookup falls
// back to the default card with IsDefaultInfo set.
func (s *OpenLibrarySource) FetchBookInfo(ctx context.Context, query string, variations []string) (types.BookInfo, error) {
	for _, variant := range variations {
		resp, err := s.GetJSON(ctx, s.searchURL(variant, 1))
		if err != nil {
			s.logVariationSkip(variant, err)
			continue
		}

		var olResp olResponse
		err = json.NewDecoder(resp.Body).Decode(&olResp)
		resp.Body.Close()
		if err != nil {
			s.logVariationSkip(variant, fmt.Errorf("decode response: %w", err))
			continue
		}

		if len(olResp.Docs) > 0 {
			return bookInfoFromDoc(olResp.Docs[0], query), nil
		}
	}

	s.Logger().Info("no metadata match, using default book info",
		zap.String("query", query))
	return types.DefaultBookInfo(query), nil
}

func bookInfoFromDoc(doc olDoc, query string) types.BookInfo {
	info := types.BookInfo{
		Title:          doc.Title,
		Author:         types.UnknownAuthor,
		FirstPublished: types.UnknownValue,
		Subjects:       types.NotSpecifiedText,
		Language:       types.LanguageDisplay(doc.Language),
		AllLanguages:   doc.Language,
		Publisher:      types.UnknownValue,
		CoverID:        doc.CoverID,
	}

	if info.Title == "" {
		info.Title = query
	}
	if len(doc.AuthorName) > 0 {
		info.Author = strings.Join(doc.AuthorName, ", ")
	}
	if doc.FirstPublishYear != 0 {
		info.FirstPublished = strconv.Itoa(doc.FirstPublishYear)
	}
	if len(doc.Subject) > 0 {
		subjects := doc.Subject
		if len(subjects) > 5 {
			subjects = subjects[:5]
		}
		info.Subjects = strings.Join(subjects, ", ")
	}
	if publisher := cleanPublishers(doc.Publisher); publisher != "" {
		info.Publisher = publisher
	}

	return info
}

// cleanPublishers keeps up to two real publisher names, dropping
// placeholder values the catalog sometimes carries.
func cleanPublishers(publishers []string) string {
	if len(publishers) > 2 {
		publishers = publishers[:2]
	}
	var kept []string
	for _, p := range publishers {
		lower := strings.ToLower(strings.TrimSpace(p))
		if lower == "" || lower == "specified" || lower == "not specified" {
			continue
		}
		kept = append(kept, p)
	}
	return strings.Join(kept, ", ")
}
