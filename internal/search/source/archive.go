package source

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/openshelf/bookdiscovery/internal/metrics"
	"github.com/openshelf/bookdiscovery/internal/pkg/logger"
	"github.com/openshelf/bookdiscovery/internal/search/rank"
	"github.com/openshelf/bookdiscovery/internal/search/types"
)

const (
	// archiveVariationLimit bounds how many variations the two-stage
	// lookup tries; each one costs a search round-trip plus one metadata
	// round-trip per hit.
	archiveVariationLimit = 3

	archiveTarget = 8
	archiveRows   = 8
)

// ArchiveSource implements full-text PDF discovery against the Internet
// Archive: an advanced search restricted to texts, then a per-item file
// listing to enumerate actual PDF files.
type ArchiveSource struct {
	*BaseSource
}

// NewArchiveSource creates a new Internet Archive source
func NewArchiveSource(config *types.SourceConfig, log *logger.Logger) (Source, error) {
	return &ArchiveSource{BaseSource: NewBaseSource(config, log)}, nil
}

// isPDFBiased reports whether a variation carries a filetype hint.
func isPDFBiased(variant string) bool {
	return strings.HasSuffix(variant, " pdf") || strings.HasSuffix(variant, ".pdf")
}

// titleClause strips the filetype hint so the title match stays clean;
// the hint becomes a format restriction instead.
func titleClause(variant string) string {
	v := strings.TrimSuffix(variant, " pdf")
	v = strings.TrimSuffix(v, ".pdf")
	return strings.TrimSpace(v)
}

func (s *ArchiveSource) searchURL(variant string) string {
	q := fmt.Sprintf("title:(%s) AND mediatype:texts", titleClause(variant))
	if isPDFBiased(variant) {
		q += " AND format:pdf"
	}

	params := url.Values{}
	params.Set("q", q)
	params.Set("fl[]", "identifier,title,creator")
	params.Set("rows", fmt.Sprintf("%d", archiveRows))
	params.Set("output", "json")
	return fmt.Sprintf("%s/advancedsearch.php?%s", s.Config().APIHost, params.Encode())
}

// Search runs the two-stage lookup over a short prefix of the variation
// list. Failures at any stage degrade to fewer candidates.
func (s *ArchiveSource) Search(ctx context.Context, req *types.SearchRequest) ([]types.LinkCandidate, error) {
	target := req.MaxCandidates
	if target <= 0 {
		target = s.Config().MaxCandidates
	}
	if target <= 0 {
		target = archiveTarget
	}

	variations := req.Variations
	if len(variations) > archiveVariationLimit {
		variations = variations[:archiveVariationLimit]
	}

	var links []types.LinkCandidate
	for _, variant := range variations {
		if len(links) >= target {
			break
		}

		resp, err := s.GetJSON(ctx, s.searchURL(variant))
		if err != nil {
			s.logVariationSkip(variant, err)
			continue
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			s.logVariationSkip(variant, fmt.Errorf("read response: %w", err))
			continue
		}

		for _, doc := range gjson.GetBytes(body, "response.docs").Array() {
			itemID := doc.Get("identifier").String()
			if itemID == "" {
				continue
			}
			title := doc.Get("title").String()
			if title == "" {
				title = "Unknown Title"
			}
			// creator arrives as a string or a list depending on the item
			var author string
			if creator := doc.Get("creator"); creator.IsArray() {
				var names []string
				for _, c := range creator.Array() {
					names = append(names, c.String())
				}
				author = strings.Join(names, ", ")
			} else {
				author = creator.String()
			}
			if author == "" {
				author = types.UnknownValue
			}

			relevance := rank.Relevance(title, req.Query)

			for _, pdf := range s.pdfFiles(ctx, itemID) {
				links = append(links, types.LinkCandidate{
					Title:          fmt.Sprintf("%s - %s", title, pdf.name),
					URL:            pdf.url,
					Source:         types.SourceInternetArchive,
					Size:           pdf.size,
					Type:           types.LinkDirectPDF,
					Author:         author,
					RelevanceScore: relevance,
				})
			}

			// The detail page streams the book even when no direct PDF
			// exists.
			links = append(links, types.LinkCandidate{
				Title:          title + " - Online Reader",
				URL:            fmt.Sprintf("%s/details/%s", s.Config().APIHost, itemID),
				Source:         types.SourceInternetArchive,
				Size:           "Online",
				Type:           types.LinkReadOnline,
				Author:         author,
				RelevanceScore: relevance,
			})
		}
	}

	metrics.CandidatesTotal.WithLabelValues(string(s.ID())).Add(float64(len(links)))
	return links, nil
}

type pdfFile struct {
	name string
	url  string
	size string
}

// pdfFiles enumerates the PDF files of one archive item. A failed
// lookup yields an empty list; the caller still emits the online-reader
// candidate for the item.
func (s *ArchiveSource) pdfFiles(ctx context.Context, itemID string) []pdfFile {
	resp, err := s.GetJSON(ctx, fmt.Sprintf("%s/metadata/%s", s.Config().APIHost, itemID))
	if err != nil {
		s.logVariationSkip(itemID, err)
		return nil
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		s.logVariationSkip(itemID, fmt.Errorf("read metadata: %w", err))
		return nil
	}

	var files []pdfFile
	for _, f := range gjson.GetBytes(body, "files").Array() {
		if !strings.EqualFold(f.Get("format").String(), "pdf") {
			continue
		}
		name := f.Get("name").String()
		if name == "" {
			name = "document.pdf"
		}
		files = append(files, pdfFile{
			name: name,
			url:  fmt.Sprintf("%s/download/%s/%s", s.Config().APIHost, itemID, name),
			// size is a string on some items and a number on others
			size: FormatFileSize(f.Get("size").Int()),
		})
	}
	return files
}
