package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/openshelf/bookdiscovery/internal/pkg/errors"
	"github.com/openshelf/bookdiscovery/internal/search/source"
	"github.com/openshelf/bookdiscovery/internal/search/types"
)

// fakeSource is a scriptable Source. Either links/err or the search
// override drives the response; hook fires on every call.
type fakeSource struct {
	id    types.SourceID
	links []types.LinkCandidate
	err   error

	search func(req *types.SearchRequest) ([]types.LinkCandidate, error)
	hook   func()

	mu    sync.Mutex
	calls int
}

func (f *fakeSource) Search(_ context.Context, req *types.SearchRequest) ([]types.LinkCandidate, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.hook != nil {
		f.hook()
	}
	if f.search != nil {
		return f.search(req)
	}
	return f.links, f.err
}

func (f *fakeSource) ID() types.SourceID { return f.id }
func (f *fakeSource) Name() string       { return string(f.id) }
func (f *fakeSource) Validate() error    { return nil }

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeMetadata struct {
	info types.BookInfo
	err  error
	hook func()
}

func (f *fakeMetadata) FetchBookInfo(_ context.Context, query string, _ []string) (types.BookInfo, error) {
	if f.hook != nil {
		f.hook()
	}
	if f.err != nil {
		return types.DefaultBookInfo(query), f.err
	}
	return f.info, nil
}

type fakeTracker struct {
	mu      sync.Mutex
	queries []string
}

func (f *fakeTracker) TrackFailedSearch(_ context.Context, query string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
}

// recordingPresenter captures every emission for assertion.
type recordingPresenter struct {
	mu          sync.Mutex
	infos       []types.BookInfo
	linkBatches [][]types.LinkCandidate
	noResults   []NoResultsEvent
	statuses    []string
}

func (p *recordingPresenter) OnBookInfoReady(info types.BookInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.infos = append(p.infos, info)
}

func (p *recordingPresenter) OnLinksReady(_ types.BookInfo, links []types.LinkCandidate) {
	p.mu.Lock()
	defer p.mu.Unlock()
	batch := make([]types.LinkCandidate, len(links))
	copy(batch, links)
	p.linkBatches = append(p.linkBatches, batch)
}

func (p *recordingPresenter) OnNoResults(ev NoResultsEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.noResults = append(p.noResults, ev)
}

func (p *recordingPresenter) OnStatus(_ Phase, msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.statuses = append(p.statuses, msg)
}

func (p *recordingPresenter) urls(batch int) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var urls []string
	for _, l := range p.linkBatches[batch] {
		urls = append(urls, l.URL)
	}
	return urls
}

func link(title, url string, src types.SourceID) types.LinkCandidate {
	return types.LinkCandidate{
		Title:  title,
		URL:    url,
		Source: src,
		Size:   "Online",
		Type:   types.LinkReadOnline,
	}
}

// quietConfig disables the status rotators so emissions stay
// deterministic.
func quietConfig() *Config {
	cfg := DefaultConfig()
	cfg.StatusInterval = 0
	cfg.BackgroundStatusInterval = 0
	return cfg
}

func knownBook() types.BookInfo {
	return types.BookInfo{
		Title:          "Dune",
		Author:         "Frank Herbert",
		FirstPublished: "1965",
		Language:       "eng",
	}
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{name: "empty", query: ""},
		{name: "spaces", query: "   "},
		{name: "tabs and newlines", query: "\t\n"},
	}

	eng := New(quietConfig(), &fakeMetadata{info: knownBook()}, &fakeSource{id: types.SourceOpenLibrary}, nil, nil)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &recordingPresenter{}
			err := eng.Search(context.Background(), tt.query, p)
			require.Error(t, err)
			assert.True(t, apperrors.Is(err, apperrors.ErrInvalidQuery))
			assert.Empty(t, p.infos)
			assert.Empty(t, p.linkBatches)
		})
	}
}

func TestSearchMetadataFailureIsFatal(t *testing.T) {
	meta := &fakeMetadata{err: assert.AnError}
	fast := &fakeSource{id: types.SourceOpenLibrary, links: []types.LinkCandidate{
		link("Dune", "https://openlibrary.org/works/OL1", types.SourceOpenLibrary),
	}}

	eng := New(quietConfig(), meta, fast, nil, nil)
	p := &recordingPresenter{}

	err := eng.Search(context.Background(), "dune", p)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrFatalSearch))
	assert.Empty(t, p.infos, "no metadata card on fatal failure")
	assert.Empty(t, p.linkBatches)
	assert.Zero(t, fast.callCount(), "sources must not run after a fatal metadata failure")
}

func TestSearchStagedEmission(t *testing.T) {
	fast := &fakeSource{id: types.SourceOpenLibrary, links: []types.LinkCandidate{
		link("Dune", "https://openlibrary.org/works/OL1", types.SourceOpenLibrary),
		link("Dune Messiah", "https://openlibrary.org/works/OL2", types.SourceOpenLibrary),
	}}
	archive := &fakeSource{id: types.SourceInternetArchive, links: []types.LinkCandidate{
		link("Dune", "https://archive.org/details/dune", types.SourceInternetArchive),
		// Same URL as a fast hit; dedup must keep the first one.
		link("Dune (dup)", "https://openlibrary.org/works/OL1", types.SourceInternetArchive),
	}}
	gutenberg := &fakeSource{id: types.SourceGutenberg, links: []types.LinkCandidate{
		link("Dune", "https://gutendex.com/books/1", types.SourceGutenberg),
	}}

	eng := New(quietConfig(), &fakeMetadata{info: knownBook()}, fast, sources{archive, gutenberg}.asSources(), nil)
	p := &recordingPresenter{}

	err := eng.Search(context.Background(), "dune", p)
	require.NoError(t, err)

	require.Len(t, p.infos, 1)
	assert.Equal(t, "Frank Herbert", p.infos[0].Author)

	require.Len(t, p.linkBatches, 2, "one fast batch, one final batch")
	assert.Equal(t, []string{
		"https://openlibrary.org/works/OL1",
		"https://openlibrary.org/works/OL2",
	}, p.urls(0))

	final := p.linkBatches[1]
	assert.Len(t, final, 4, "duplicate URL collapsed")
	seen := map[string]types.LinkCandidate{}
	for _, l := range final {
		seen[l.URL] = l
	}
	assert.Equal(t, "Dune", final[0].Title, "exact title matches rank first")
	assert.NotZero(t, final[0].CombinedScore)
	assert.Equal(t, types.SourceOpenLibrary, seen["https://openlibrary.org/works/OL1"].Source, "first occurrence wins the dedup")
	assert.Contains(t, seen, "https://archive.org/details/dune")
	assert.Contains(t, seen, "https://gutendex.com/books/1")

	assert.Empty(t, p.noResults)
}

func TestSearchZeroFastHitsShortCircuits(t *testing.T) {
	fast := &fakeSource{id: types.SourceOpenLibrary}
	archive := &fakeSource{id: types.SourceInternetArchive, links: []types.LinkCandidate{
		link("whatever", "https://archive.org/details/x", types.SourceInternetArchive),
	}}
	tracker := &fakeTracker{}

	info := types.DefaultBookInfo("zzzz no such book")
	eng := New(quietConfig(), &fakeMetadata{info: info}, fast, sources{archive}.asSources(), nil)
	eng.SetFailureTracker(tracker)
	p := &recordingPresenter{}

	err := eng.Search(context.Background(), "zzzz no such book", p)
	require.NoError(t, err)

	assert.Zero(t, archive.callCount(), "background sources skipped when the fast phase is empty")
	assert.Empty(t, p.linkBatches)

	require.Len(t, p.noResults, 1)
	ev := p.noResults[0]
	assert.Equal(t, "zzzz no such book", ev.Query)
	assert.False(t, ev.BookFound)
	assert.Contains(t, noResultsMessages, ev.Message)
	assert.NotEmpty(t, ev.PurchaseLinks)

	assert.Equal(t, []string{"zzzz no such book"}, tracker.queries)
}

func TestSearchNoResultsWithKnownBook(t *testing.T) {
	// Metadata resolves but no source ever yields a link: the book
	// exists, we just have nothing free for it.
	fast := &fakeSource{id: types.SourceOpenLibrary}

	info := knownBook()
	info.Author = types.UnknownAuthor // keep the author fallback out of the way
	eng := New(quietConfig(), &fakeMetadata{info: info}, fast, nil, nil)
	p := &recordingPresenter{}

	require.NoError(t, eng.Search(context.Background(), "dune", p))

	require.Len(t, p.noResults, 1)
	assert.True(t, p.noResults[0].BookFound)
}

func TestSearchBackgroundFailureDegrades(t *testing.T) {
	fast := &fakeSource{id: types.SourceOpenLibrary, links: []types.LinkCandidate{
		link("Dune", "https://openlibrary.org/works/OL1", types.SourceOpenLibrary),
		link("Dune Messiah", "https://openlibrary.org/works/OL2", types.SourceOpenLibrary),
		link("Children of Dune", "https://openlibrary.org/works/OL3", types.SourceOpenLibrary),
		link("God Emperor of Dune", "https://openlibrary.org/works/OL4", types.SourceOpenLibrary),
		link("Heretics of Dune", "https://openlibrary.org/works/OL5", types.SourceOpenLibrary),
	}}
	archive := &fakeSource{id: types.SourceInternetArchive, err: assert.AnError}
	gutenberg := &fakeSource{id: types.SourceGutenberg, links: []types.LinkCandidate{
		link("Dune", "https://gutendex.com/books/1", types.SourceGutenberg),
	}}

	eng := New(quietConfig(), &fakeMetadata{info: knownBook()}, fast, sources{archive, gutenberg}.asSources(), nil)
	p := &recordingPresenter{}

	err := eng.Search(context.Background(), "dune", p)
	require.NoError(t, err, "a background source failure never fails the search")

	require.Len(t, p.linkBatches, 2)
	assert.Len(t, p.linkBatches[1], 6, "failed source only loses its own slot")
	assert.Equal(t, 1, archive.callCount())
	assert.Equal(t, 1, gutenberg.callCount())
}

func TestSearchAuthorFallback(t *testing.T) {
	fast := &fakeSource{id: types.SourceOpenLibrary, links: []types.LinkCandidate{
		link("Dune", "https://openlibrary.org/works/OL1", types.SourceOpenLibrary),
	}}
	// Yields nothing for the title but two hits for the author query.
	archive := &fakeSource{id: types.SourceInternetArchive}
	archive.search = func(req *types.SearchRequest) ([]types.LinkCandidate, error) {
		if req.Query == "Frank Herbert" {
			return []types.LinkCandidate{
				link("Dune Messiah", "https://archive.org/details/dunemessiah", types.SourceInternetArchive),
				link("Whipping Star", "https://archive.org/details/whippingstar", types.SourceInternetArchive),
			}, nil
		}
		return nil, nil
	}

	eng := New(quietConfig(), &fakeMetadata{info: knownBook()}, fast, sources{archive}.asSources(), nil)
	p := &recordingPresenter{}

	require.NoError(t, eng.Search(context.Background(), "dune", p))

	require.Len(t, p.linkBatches, 2)
	final := p.urls(1)
	assert.Contains(t, final, "https://openlibrary.org/works/OL1")
	assert.Contains(t, final, "https://archive.org/details/dunemessiah")
	assert.Contains(t, final, "https://archive.org/details/whippingstar")
	assert.Equal(t, 2, archive.callCount(), "once for the title, once for the author")
}

func TestSearchAuthorFallbackCap(t *testing.T) {
	fast := &fakeSource{id: types.SourceOpenLibrary, links: []types.LinkCandidate{
		link("Dune", "https://openlibrary.org/works/OL1", types.SourceOpenLibrary),
	}}
	archive := &fakeSource{id: types.SourceInternetArchive}
	archive.search = func(req *types.SearchRequest) ([]types.LinkCandidate, error) {
		if req.Query != "Frank Herbert" {
			return nil, nil
		}
		var links []types.LinkCandidate
		for i := 0; i < 30; i++ {
			links = append(links, link("Dune", "https://archive.org/details/dune"+string(rune('a'+i)), types.SourceInternetArchive))
		}
		return links, nil
	}

	cfg := quietConfig()
	cfg.FallbackCap = 3
	eng := New(cfg, &fakeMetadata{info: knownBook()}, fast, sources{archive}.asSources(), nil)
	p := &recordingPresenter{}

	require.NoError(t, eng.Search(context.Background(), "dune", p))
	require.Len(t, p.linkBatches, 2)
	assert.Len(t, p.linkBatches[1], 3)
}

func TestSearchNoAuthorFallbackForUnknownAuthor(t *testing.T) {
	fast := &fakeSource{id: types.SourceOpenLibrary, links: []types.LinkCandidate{
		link("obscure pamphlet", "https://openlibrary.org/works/OL9", types.SourceOpenLibrary),
	}}
	archive := &fakeSource{id: types.SourceInternetArchive}

	info := types.DefaultBookInfo("obscure pamphlet")
	eng := New(quietConfig(), &fakeMetadata{info: info}, fast, sources{archive}.asSources(), nil)
	p := &recordingPresenter{}

	require.NoError(t, eng.Search(context.Background(), "obscure pamphlet", p))
	assert.Equal(t, 1, archive.callCount(), "no second pass without a real author")
	assert.Equal(t, 1, fast.callCount())
}

func TestSearchStaleSessionSuppressed(t *testing.T) {
	eng := New(quietConfig(), &fakeMetadata{info: knownBook()}, nil, nil, nil)

	fast := &fakeSource{id: types.SourceOpenLibrary, links: []types.LinkCandidate{
		link("Dune", "https://openlibrary.org/works/OL1", types.SourceOpenLibrary),
	}}
	// Simulate the user typing a new query mid-flight.
	fast.hook = func() { eng.sessions.Add(1) }
	eng.fast = fast

	p := &recordingPresenter{}
	err := eng.Search(context.Background(), "dune", p)
	require.NoError(t, err, "a superseded session ends silently")

	assert.Len(t, p.infos, 1, "the card resolved before the session went stale")
	assert.Empty(t, p.linkBatches, "stale links never reach the presenter")
	assert.Empty(t, p.noResults)
}

func TestSearchStaleBeforeMetadataEmission(t *testing.T) {
	meta := &fakeMetadata{info: knownBook()}
	eng := New(quietConfig(), meta, &fakeSource{id: types.SourceOpenLibrary}, nil, nil)
	meta.hook = func() { eng.sessions.Add(1) }

	p := &recordingPresenter{}
	require.NoError(t, eng.Search(context.Background(), "dune", p))
	assert.Empty(t, p.infos)
	assert.Empty(t, p.linkBatches)
	assert.Empty(t, p.noResults)
}

func TestSearchStatusMessagesRotate(t *testing.T) {
	cfg := quietConfig()
	cfg.StatusInterval = 5 * time.Millisecond

	slowFast := &fakeSource{id: types.SourceOpenLibrary, links: []types.LinkCandidate{
		link("Dune", "https://openlibrary.org/works/OL1", types.SourceOpenLibrary),
	}}
	slowFast.hook = func() { time.Sleep(30 * time.Millisecond) }

	eng := New(cfg, &fakeMetadata{info: knownBook()}, slowFast, nil, nil)
	p := &recordingPresenter{}

	require.NoError(t, eng.Search(context.Background(), "dune", p))

	p.mu.Lock()
	defer p.mu.Unlock()
	require.NotEmpty(t, p.statuses)
	assert.Equal(t, loadingSteps[0], p.statuses[0], "first message fires immediately")
	for _, msg := range p.statuses {
		assert.Contains(t, loadingSteps, msg)
	}
}

func TestRotatorStopIsIdempotent(t *testing.T) {
	var mu sync.Mutex
	var got []string
	r := newRotator([]string{"a", "b"}, time.Millisecond, func(msg string) {
		mu.Lock()
		got = append(got, msg)
		mu.Unlock()
	})

	r.Start()
	time.Sleep(10 * time.Millisecond)
	r.Stop()
	r.Stop()

	mu.Lock()
	n := len(got)
	require.NotEmpty(t, got)
	assert.Equal(t, "a", got[0])
	mu.Unlock()

	time.Sleep(10 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, n, len(got), "no emissions after Stop")
	mu.Unlock()
}

func TestRotatorDisabledByZeroInterval(t *testing.T) {
	called := false
	r := newRotator([]string{"a"}, 0, func(string) { called = true })
	r.Start()
	r.Stop()
	assert.False(t, called)
}

// sources is a test helper converting fakes to the engine's input type.
type sources []*fakeSource

func (s sources) asSources() []source.Source {
	out := make([]source.Source, len(s))
	for i, f := range s {
		out[i] = f
	}
	return out
}
