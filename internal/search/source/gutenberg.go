package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/openshelf/bookdiscovery/internal/metrics"
	"github.com/openshelf/bookdiscovery/internal/pkg/logger"
	"github.com/openshelf/bookdiscovery/internal/search/rank"
	"github.com/openshelf/bookdiscovery/internal/search/types"
)

const (
	gutenbergTarget       = 5
	gutenbergBooksPerPage = 5
)

// MIME keys of the Gutendex formats map.
const (
	mimePDF  = "application/pdf"
	mimeEPUB = "application/epub+zip"
	mimeHTML = "text/html"
)

// GutenbergSource implements the Gutendex catalog API, emitting direct
// download links keyed by format.
type GutenbergSource struct {
	*BaseSource
}

// NewGutenbergSource creates a new Project Gutenberg source
func NewGutenbergSource(config *types.SourceConfig, log *logger.Logger) (Source, error) {
	return &GutenbergSource{BaseSource: NewBaseSource(config, log)}, nil
}

// gutendexResponse represents a Gutendex search response
type gutendexResponse struct {
	Results []struct {
		Title   string `json:"title"`
		Authors []struct {
			Name string `json:"name"`
		} `json:"authors"`
		Formats map[string]string `json:"formats"`
	} `json:"results"`
}

// Search tries each variation in order, emitting up to three candidates
// per catalog hit (PDF, EPUB, HTML), until enough accumulated.
func (s *GutenbergSource) Search(ctx context.Context, req *types.SearchRequest) ([]types.LinkCandidate, error) {
	target := req.MaxCandidates
	if target <= 0 {
		target = s.Config().MaxCandidates
	}
	if target <= 0 {
		target = gutenbergTarget
	}

	var links []types.LinkCandidate
	for _, variant := range req.Variations {
		if len(links) >= target {
			break
		}

		params := url.Values{}
		params.Set("search", variant)
		resp, err := s.GetJSON(ctx, fmt.Sprintf("%s/books/?%s", s.Config().APIHost, params.Encode()))
		if err != nil {
			s.logVariationSkip(variant, err)
			continue
		}

		var gutResp gutendexResponse
		err = json.NewDecoder(resp.Body).Decode(&gutResp)
		resp.Body.Close()
		if err != nil {
			s.logVariationSkip(variant, fmt.Errorf("decode response: %w", err))
			continue
		}

		books := gutResp.Results
		if len(books) > gutenbergBooksPerPage {
			books = books[:gutenbergBooksPerPage]
		}

		for _, book := range books {
			title := book.Title
			if title == "" {
				title = "Unknown Title"
			}
			var names []string
			for _, a := range book.Authors {
				names = append(names, a.Name)
			}
			author := strings.Join(names, ", ")
			if author == "" {
				author = types.UnknownValue
			}

			relevance := rank.Relevance(title, req.Query)
			emit := func(suffix, formatURL string, linkType types.LinkType, size string) {
				links = append(links, types.LinkCandidate{
					Title:          title + " - " + suffix,
					URL:            formatURL,
					Source:         types.SourceGutenberg,
					Size:           size,
					Type:           linkType,
					Author:         author,
					RelevanceScore: relevance,
				})
			}

			if u := book.Formats[mimePDF]; u != "" {
				emit("PDF", u, types.LinkDirectPDF, types.UnknownValue)
			}
			if u := book.Formats[mimeEPUB]; u != "" {
				emit("EPUB", u, types.LinkDirectEPUB, types.UnknownValue)
			}
			if u := book.Formats[mimeHTML]; u != "" {
				emit("Read Online", u, types.LinkReadOnline, "Online")
			}
		}
	}

	metrics.CandidatesTotal.WithLabelValues(string(s.ID())).Add(float64(len(links)))
	return links, nil
}
