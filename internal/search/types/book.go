package types

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	UnknownAuthor    = "Unknown Author"
	UnknownValue     = "Unknown"
	NotSpecifiedText = "Not specified"
)

// BookInfo holds the metadata card for one search. It is produced once
// per session by the metadata lookup and immutable afterwards.
type BookInfo struct {
	Title          string   `json:"title"`
	Author         string   `json:"author"`          // comma-joined
	FirstPublished string   `json:"first_published"` // year or "Unknown"
	Subjects       string   `json:"subjects"`        // up to 5, comma-joined
	Language       string   `json:"language"`        // up to 3 shown plus overflow count
	AllLanguages   []string `json:"all_languages,omitempty"`
	Publisher      string   `json:"publisher"` // up to 2, placeholders filtered
	CoverID        int64    `json:"cover_id,omitempty"`

	// IsDefaultInfo marks a BookInfo synthesized from the raw query
	// because no catalog entry matched.
	IsDefaultInfo bool `json:"is_default_info,omitempty"`
}

// DefaultBookInfo returns the placeholder card used when the metadata
// lookup finds no real match.
func DefaultBookInfo(query string) BookInfo {
	return BookInfo{
		Title:          query,
		Author:         UnknownAuthor,
		FirstPublished: UnknownValue,
		Subjects:       NotSpecifiedText,
		Language:       NotSpecifiedText,
		Publisher:      UnknownValue,
		IsDefaultInfo:  true,
	}
}

// HasKnownAuthor reports whether Author carries a real value usable for
// the author-fallback search.
func (b BookInfo) HasKnownAuthor() bool {
	a := strings.ToLower(strings.TrimSpace(b.Author))
	return a != "" && a != "unknown" && a != strings.ToLower(UnknownAuthor)
}

// CoverURL returns the medium-size cover image URL, or "" when the
// lookup produced no cover identifier.
func (b BookInfo) CoverURL() string {
	if b.CoverID == 0 {
		return ""
	}
	return fmt.Sprintf("https://covers.openlibrary.org/b/id/%d-M.jpg", b.CoverID)
}

// PurchaseLink points at a storefront search for the book, offered when
// no free copy was found.
type PurchaseLink struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// PurchaseLinks builds storefront search links from the book's title and
// author.
func (b BookInfo) PurchaseLinks() []PurchaseLink {
	full := url.QueryEscape(strings.TrimSpace(b.Title + " " + b.Author))
	title := url.QueryEscape(b.Title)
	return []PurchaseLink{
		{Name: "Google Books", URL: "https://books.google.com/books?q=" + full},
		{Name: "Amazon", URL: "https://www.amazon.com/s?k=" + full},
		{Name: "Flipkart", URL: "https://www.flipkart.com/search?q=" + full + "+book"},
		{Name: "Book Depository", URL: "https://www.bookdepository.com/search?searchTerm=" + title},
	}
}

// LanguageDisplay renders an ordered language list as "a, b, c +N more".
func LanguageDisplay(langs []string) string {
	if len(langs) == 0 {
		return NotSpecifiedText
	}
	shown := langs
	if len(shown) > 3 {
		shown = shown[:3]
	}
	out := strings.Join(shown, ", ")
	if extra := len(langs) - len(shown); extra > 0 {
		out = fmt.Sprintf("%s +%d more", out, extra)
	}
	return out
}
