package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/bookdiscovery/internal/search/types"
)

func testConfig(id types.SourceID, host string) *types.SourceConfig {
	return &types.SourceConfig{
		ID:      id,
		Name:    id.DisplayName(),
		APIHost: host,
		Timeout: 5,
	}
}

func TestOpenLibrarySource_Search(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		assert.Equal(t, "/search.json", r.URL.Path)
		w.Write([]byte(`{"docs":[
			{"title":"Nineteen Eighty-Four","author_name":["George Orwell"],"has_fulltext":true,"ia":["nineteeneighty00orwe"],"key":"/works/OL1168083W"},
			{"title":"1984: Commentary","author_name":["Someone Else"],"has_fulltext":false},
			{"title":"Animal Farm","author_name":["George Orwell"],"has_fulltext":true,"key":"/works/OL1168007W"},
			{"title":"Homage to Catalonia","author_name":["George Orwell"],"ia":["homagetocataloni00orwe"],"key":"/works/OL1168026W"}
		]}`))
	}))
	defer server.Close()

	src, err := NewOpenLibrarySource(testConfig(types.SourceOpenLibrary, server.URL), nil)
	require.NoError(t, err)

	links, err := src.Search(context.Background(), &types.SearchRequest{
		Query:      "1984",
		Variations: []string{"1984", "1984 pdf"},
	})
	require.NoError(t, err)

	// Only docs with full text or an archive identifier become candidates.
	require.Len(t, links, 3)
	assert.Equal(t, "Nineteen Eighty-Four - Open Library", links[0].Title)
	assert.Equal(t, server.URL+"/works/OL1168083W", links[0].URL)
	assert.Equal(t, types.LinkReadOnline, links[0].Type)
	assert.Equal(t, types.SourceOpenLibrary, links[0].Source)
	assert.Equal(t, "Online", links[0].Size)
	assert.Equal(t, "George Orwell", links[0].Author)

	// Early exit: the first variation already returned enough.
	assert.Equal(t, 1, requests)
}

func TestOpenLibrarySource_Search_BadStatusSkipsVariation(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"docs":[{"title":"The Hobbit","has_fulltext":true,"key":"/works/OL45883W"}]}`))
	}))
	defer server.Close()

	src, err := NewOpenLibrarySource(testConfig(types.SourceOpenLibrary, server.URL), nil)
	require.NoError(t, err)

	links, err := src.Search(context.Background(), &types.SearchRequest{
		Query:      "The Hobbit",
		Variations: []string{"the hobbit", "hobbit"},
	})
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, 2, requests)
}

func TestOpenLibrarySource_Search_MalformedJSONRecovered(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"docs": [`))
	}))
	defer server.Close()

	src, err := NewOpenLibrarySource(testConfig(types.SourceOpenLibrary, server.URL), nil)
	require.NoError(t, err)

	links, err := src.Search(context.Background(), &types.SearchRequest{
		Query:      "anything",
		Variations: []string{"anything"},
	})
	assert.NoError(t, err)
	assert.Empty(t, links)
}

func TestOpenLibrarySource_FetchBookInfo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		w.Write([]byte(`{"docs":[{
			"title":"Nineteen Eighty-Four",
			"author_name":["George Orwell"],
			"first_publish_year":1949,
			"subject":["Dystopias","Totalitarianism","Fiction","Political fiction","Classics","Extra Subject"],
			"language":["eng","fre","ger","spa","ita"],
			"publisher":["Secker & Warburg","Not Specified"],
			"cover_i":153541
		}]}`))
	}))
	defer server.Close()

	src, err := NewOpenLibrarySource(testConfig(types.SourceOpenLibrary, server.URL), nil)
	require.NoError(t, err)
	ol := src.(*OpenLibrarySource)

	info, err := ol.FetchBookInfo(context.Background(), "1984", []string{"1984"})
	require.NoError(t, err)

	assert.False(t, info.IsDefaultInfo)
	assert.Equal(t, "Nineteen Eighty-Four", info.Title)
	assert.Equal(t, "George Orwell", info.Author)
	assert.Equal(t, "1949", info.FirstPublished)
	assert.Equal(t, "Dystopias, Totalitarianism, Fiction, Political fiction, Classics", info.Subjects)
	assert.Equal(t, "eng, fre, ger +2 more", info.Language)
	assert.Len(t, info.AllLanguages, 5)
	assert.Equal(t, "Secker & Warburg", info.Publisher)
	assert.Equal(t, int64(153541), info.CoverID)
	assert.Contains(t, info.CoverURL(), "153541")
}

func TestOpenLibrarySource_FetchBookInfo_DefaultOnNoMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"docs":[]}`))
	}))
	defer server.Close()

	src, err := NewOpenLibrarySource(testConfig(types.SourceOpenLibrary, server.URL), nil)
	require.NoError(t, err)
	ol := src.(*OpenLibrarySource)

	info, err := ol.FetchBookInfo(context.Background(), "asdkjasdkj123notabook", []string{"asdkjasdkj123notabook"})
	require.NoError(t, err)

	assert.True(t, info.IsDefaultInfo)
	assert.Equal(t, "asdkjasdkj123notabook", info.Title)
	assert.Equal(t, types.UnknownAuthor, info.Author)
}

func TestOpenLibrarySource_FetchBookInfo_DefaultOnServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	src, err := NewOpenLibrarySource(testConfig(types.SourceOpenLibrary, server.URL), nil)
	require.NoError(t, err)
	ol := src.(*OpenLibrarySource)

	info, err := ol.FetchBookInfo(context.Background(), "1984", []string{"1984"})
	require.NoError(t, err)
	assert.True(t, info.IsDefaultInfo)
}
