package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/corpquery/corpquery/internal/circuitbreaker"
	"github.com/corpquery/corpquery/internal/config"
)

// ErrNoPages is returned when a search matches no articles.
var ErrNoPages = errors.New("wikipedia: no matching pages")

// Chunk is one article extract together with the article it came from.
type Chunk struct {
	Content string
	Title   string
}

// Wikipedia is a MediaWiki API client for encyclopedic lookups.
type Wikipedia struct {
	cfg     config.WikipediaConfig
	retries int
	doer    httpDoer
	logger  *zap.Logger
}

func NewWikipedia(cfg config.WikipediaConfig, maxRetries int, logger *zap.Logger) *Wikipedia {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := &http.Client{Timeout: cfg.Timeout}
	return &Wikipedia{
		cfg:     cfg,
		retries: maxRetries,
		doer:    circuitbreaker.NewHTTPWrapper(client, "wikipedia", logger),
		logger:  logger,
	}
}

// Summary returns the extract of the top article matching the query, capped
// at the configured chunk size.
func (w *Wikipedia) Summary(ctx context.Context, query string) (string, error) {
	titles, err := w.search(ctx, query, 1)
	if err != nil {
		return "", err
	}
	if len(titles) == 0 {
		return "", ErrNoPages
	}
	chunk, err := w.extract(ctx, titles[0])
	if err != nil {
		return "", err
	}
	return chunk.Content, nil
}

// Pages resolves the query to an iterator over up to TopK article extracts.
// Each call starts a fresh pass over the same result set; extracts are
// fetched one page at a time as the iterator advances.
func (w *Wikipedia) Pages(ctx context.Context, query string) (*PageIterator, error) {
	titles, err := w.search(ctx, query, w.cfg.TopK)
	if err != nil {
		return nil, err
	}
	return &PageIterator{wiki: w, titles: titles}, nil
}

// PageIterator walks a fixed list of article titles, fetching each extract
// on demand.
type PageIterator struct {
	wiki   *Wikipedia
	titles []string
	idx    int
}

// Next returns the next chunk, or ok=false once the titles are exhausted.
func (it *PageIterator) Next(ctx context.Context) (Chunk, bool, error) {
	for it.idx < len(it.titles) {
		title := it.titles[it.idx]
		it.idx++
		chunk, err := it.wiki.extract(ctx, title)
		if err != nil {
			return Chunk{}, false, err
		}
		if strings.TrimSpace(chunk.Content) == "" {
			continue
		}
		return chunk, true, nil
	}
	return Chunk{}, false, nil
}

func (w *Wikipedia) search(ctx context.Context, query string, limit int) ([]string, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("list", "search")
	params.Set("srsearch", query)
	params.Set("srlimit", fmt.Sprintf("%d", limit))
	params.Set("format", "json")

	var out struct {
		Query struct {
			Search []struct {
				Title string `json:"title"`
			} `json:"search"`
		} `json:"query"`
	}
	if err := w.get(ctx, params, &out); err != nil {
		return nil, err
	}
	titles := make([]string, 0, len(out.Query.Search))
	for _, hit := range out.Query.Search {
		titles = append(titles, hit.Title)
	}
	return titles, nil
}

func (w *Wikipedia) extract(ctx context.Context, title string) (Chunk, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("prop", "extracts")
	params.Set("explaintext", "1")
	params.Set("redirects", "1")
	params.Set("titles", title)
	params.Set("format", "json")

	var out struct {
		Query struct {
			Pages map[string]struct {
				Title   string `json:"title"`
				Extract string `json:"extract"`
			} `json:"pages"`
		} `json:"query"`
	}
	if err := w.get(ctx, params, &out); err != nil {
		return Chunk{}, err
	}
	for _, page := range out.Query.Pages {
		content := page.Extract
		if w.cfg.MaxCharChunk > 0 && len(content) > w.cfg.MaxCharChunk {
			content = content[:w.cfg.MaxCharChunk]
		}
		return Chunk{Content: content, Title: page.Title}, nil
	}
	return Chunk{}, ErrNoPages
}

func (w *Wikipedia) get(ctx context.Context, params url.Values, out interface{}) error {
	return doJSON(ctx, w.doer, "wikipedia", w.retries, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.cfg.BaseURL+"?"+params.Encode(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	}, out)
}
