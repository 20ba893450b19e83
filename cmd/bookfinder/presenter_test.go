package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openshelf/bookdiscovery/internal/search/engine"
	"github.com/openshelf/bookdiscovery/internal/search/types"
)

func TestPresenterRendersBookCard(t *testing.T) {
	var out, errOut bytes.Buffer
	p := newConsolePresenter(&out, &errOut)

	p.OnBookInfoReady(types.BookInfo{
		Title:          "Dune",
		Author:         "Frank Herbert",
		FirstPublished: "1965",
		Language:       "eng",
		Publisher:      "Chilton Books",
		Subjects:       "Science fiction",
		CoverID:        153541,
	})

	got := out.String()
	assert.Contains(t, got, "Dune")
	assert.Contains(t, got, "Frank Herbert")
	assert.Contains(t, got, "1965")
	assert.Contains(t, got, "Science fiction")
	assert.Contains(t, got, "https://covers.openlibrary.org/b/id/153541-M.jpg")
}

func TestPresenterLabelsBatches(t *testing.T) {
	var out, errOut bytes.Buffer
	p := newConsolePresenter(&out, &errOut)

	links := []types.LinkCandidate{{
		Title:  "Dune",
		URL:    "https://archive.org/details/dune",
		Source: types.SourceInternetArchive,
		Size:   "Online",
		Type:   types.LinkReadOnline,
	}}

	p.OnLinksReady(types.BookInfo{}, links)
	p.OnLinksReady(types.BookInfo{}, links)

	got := out.String()
	assert.Contains(t, got, "Quick results (1):")
	assert.Contains(t, got, "All results (1):")
	assert.Contains(t, got, "Internet Archive | Read Online | Online")
}

func TestPresenterNoResults(t *testing.T) {
	var out, errOut bytes.Buffer
	p := newConsolePresenter(&out, &errOut)

	info := types.DefaultBookInfo("no such book")
	p.OnNoResults(engine.NoResultsEvent{
		Query:         "no such book",
		Info:          info,
		BookFound:     false,
		Message:       "Nothing found.",
		PurchaseLinks: info.PurchaseLinks(),
	})

	got := out.String()
	assert.Contains(t, got, "Nothing found.")
	assert.Contains(t, got, "no such book")
	assert.Contains(t, got, "Google Books")
	assert.Contains(t, got, "Amazon")
}

func TestPresenterStatusGoesToStderr(t *testing.T) {
	var out, errOut bytes.Buffer
	p := newConsolePresenter(&out, &errOut)

	p.OnStatus(engine.PhaseSearching, "Scanning libraries...")

	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "Scanning libraries...")
}
