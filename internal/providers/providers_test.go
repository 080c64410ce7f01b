package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/corpquery/corpquery/internal/config"
)

func TestWikipediaSummary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch q.Get("list") {
		case "search":
			assert.Equal(t, "Tesla Inc.", q.Get("srsearch"))
			w.Write([]byte(`{"query":{"search":[{"title":"Tesla, Inc."}]}}`))
		default:
			assert.Equal(t, "Tesla, Inc.", q.Get("titles"))
			w.Write([]byte(`{"query":{"pages":{"5533631":{"title":"Tesla, Inc.","extract":"Tesla, Inc. is an American electric vehicle maker."}}}}`))
		}
	}))
	defer srv.Close()

	wiki := NewWikipedia(config.WikipediaConfig{
		BaseURL: srv.URL, Timeout: time.Second, TopK: 5, MaxCharChunk: 5000,
	}, 0, zaptest.NewLogger(t))

	summary, err := wiki.Summary(context.Background(), "Tesla Inc.")
	require.NoError(t, err)
	assert.Equal(t, "Tesla, Inc. is an American electric vehicle maker.", summary)
}

func TestWikipediaSummaryNoPages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"query":{"search":[]}}`))
	}))
	defer srv.Close()

	wiki := NewWikipedia(config.WikipediaConfig{BaseURL: srv.URL, Timeout: time.Second}, 0, zaptest.NewLogger(t))
	_, err := wiki.Summary(context.Background(), "Xqzv Nonexistent Corp")
	assert.ErrorIs(t, err, ErrNoPages)
}

func TestWikipediaPagesFetchesLazily(t *testing.T) {
	var extractCalls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("list") == "search" {
			w.Write([]byte(`{"query":{"search":[{"title":"A"},{"title":"B"},{"title":"C"}]}}`))
			return
		}
		extractCalls.Add(1)
		title := q.Get("titles")
		body := map[string]interface{}{
			"query": map[string]interface{}{
				"pages": map[string]interface{}{
					"1": map[string]string{"title": title, "extract": "about " + title},
				},
			},
		}
		json.NewEncoder(w).Encode(body)
	}))
	defer srv.Close()

	wiki := NewWikipedia(config.WikipediaConfig{
		BaseURL: srv.URL, Timeout: time.Second, TopK: 3, MaxCharChunk: 5000,
	}, 0, zaptest.NewLogger(t))

	it, err := wiki.Pages(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, int64(0), extractCalls.Load(), "no extracts before the first advance")

	chunk, ok, err := it.Next(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "A", chunk.Title)
	assert.Equal(t, "about A", chunk.Content)
	assert.Equal(t, int64(1), extractCalls.Load(), "one extract per advance")

	// Drain the rest.
	var titles []string
	for {
		chunk, ok, err := it.Next(context.Background())
		require.NoError(t, err)
		if !ok {
			break
		}
		titles = append(titles, chunk.Title)
	}
	assert.Equal(t, []string{"B", "C"}, titles)

	// A fresh iterator starts over on the same result set.
	it2, err := wiki.Pages(context.Background(), "anything")
	require.NoError(t, err)
	chunk, ok, err = it2.Next(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "A", chunk.Title)
}

func TestWikipediaChunkCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("list") == "search" {
			w.Write([]byte(`{"query":{"search":[{"title":"Long"}]}}`))
			return
		}
		w.Write([]byte(`{"query":{"pages":{"1":{"title":"Long","extract":"abcdefghij"}}}}`))
	}))
	defer srv.Close()

	wiki := NewWikipedia(config.WikipediaConfig{
		BaseURL: srv.URL, Timeout: time.Second, TopK: 1, MaxCharChunk: 4,
	}, 0, zaptest.NewLogger(t))

	summary, err := wiki.Summary(context.Background(), "Long")
	require.NoError(t, err)
	assert.Equal(t, "abcd", summary)
}

func TestQuoteSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v7/finance/quote", r.URL.Path)
		assert.Equal(t, "TSLA", r.URL.Query().Get("symbols"))
		w.Write([]byte(`{"quoteResponse":{"result":[{
			"regularMarketPrice": 251.3,
			"marketCap": 798000000000,
			"trailingPE": 62.1,
			"fiftyTwoWeekHigh": 299.29,
			"fiftyTwoWeekLow": 138.8
		}]}}`))
	}))
	defer srv.Close()

	qc := NewQuoteClient(config.QuoteConfig{BaseURL: srv.URL, Timeout: time.Second}, 0, zaptest.NewLogger(t))
	snap, err := qc.Snapshot(context.Background(), "TSLA")
	require.NoError(t, err)

	require.NotNil(t, snap.Price)
	assert.Equal(t, 251.3, *snap.Price)
	require.NotNil(t, snap.MarketCap)
	assert.Equal(t, 798000000000.0, *snap.MarketCap)
	assert.Nil(t, snap.DividendYield, "missing field stays nil")
}

func TestQuoteSnapshotUnknownSymbol(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"quoteResponse":{"result":[]}}`))
	}))
	defer srv.Close()

	qc := NewQuoteClient(config.QuoteConfig{BaseURL: srv.URL, Timeout: time.Second}, 0, zaptest.NewLogger(t))
	_, err := qc.Snapshot(context.Background(), "ZZZZZZ")
	assert.ErrorIs(t, err, ErrNoQuote)
}

func TestTavilySearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "secret-a", body["api_key"])
		assert.Equal(t, "Tesla news 2026", body["query"])
		w.Write([]byte(`{"results":[
			{"content":"first snippet","url":"https://example.com/1"},
			{"content":"second snippet","url":"https://example.com/2"}
		]}`))
	}))
	defer srv.Close()

	tv := NewTavily(config.SearchBackendConfig{
		APIKey: "secret-a", BaseURL: srv.URL, Timeout: time.Second, MaxResults: 5,
	}, 0, zaptest.NewLogger(t))

	results, err := tv.Search(context.Background(), "Tesla news 2026")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "first snippet", results[0].Content)
	assert.Equal(t, "https://example.com/2", results[1].URL)
}

func TestSerperSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key-b", r.Header.Get("X-API-KEY"))
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Tesla news 2026", body["q"])
		w.Write([]byte(`{"organic":[{"snippet":"organic one","link":"https://example.org/a"}]}`))
	}))
	defer srv.Close()

	sp := NewSerper(config.SearchBackendConfig{
		APIKey: "key-b", BaseURL: srv.URL, Timeout: time.Second, MaxResults: 5,
	}, 0, zaptest.NewLogger(t))

	results, err := sp.Search(context.Background(), "Tesla news 2026")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "organic one", results[0].Content)
	assert.Equal(t, "https://example.org/a", results[0].URL)
}

func TestDoJSONRetriesServerErrors(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	var out struct {
		OK bool `json:"ok"`
	}
	err := doJSON(context.Background(), srv.Client(), "test", 2, func() (*http.Request, error) {
		return http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL, nil)
	}, &out)
	require.NoError(t, err)
	assert.True(t, out.OK)
	assert.Equal(t, int64(2), calls.Load())
}

func TestDoJSONDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	var out struct{}
	err := doJSON(context.Background(), srv.Client(), "test", 3, func() (*http.Request, error) {
		return http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL, nil)
	}, &out)
	require.Error(t, err)
	var serr *statusError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, http.StatusUnauthorized, serr.code)
	assert.Equal(t, int64(1), calls.Load())
}
