package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/corpquery/corpquery/internal/evidence"
	"github.com/corpquery/corpquery/internal/providers"
)

// Searcher is the web-search capability shape shared by both backends.
type Searcher interface {
	Name() string
	Search(ctx context.Context, q string) ([]providers.SearchResult, error)
}

// SearchTool exposes a web-search backend as a generic-handler tool.
type SearchTool struct {
	backend Searcher
}

func NewSearchTool(backend Searcher) *SearchTool {
	return &SearchTool{backend: backend}
}

func (t *SearchTool) Name() string { return t.backend.Name() }

func (t *SearchTool) Invoke(ctx context.Context, q string) (evidence.Evidence, error) {
	results, err := t.backend.Search(ctx, q)
	if err != nil {
		return evidence.Evidence{}, err
	}
	snippets := make([]string, 0, len(results))
	sources := make([]string, 0, len(results))
	for _, r := range results {
		snippets = append(snippets, r.Content)
		sources = append(sources, r.URL)
	}
	return evidence.Evidence{
		Text:    strings.Join(snippets, " "),
		Sources: sources,
		Origin:  t.backend.Name(),
	}, nil
}

// WikipediaTool exposes the encyclopedic lookup as a generic-handler tool.
// It takes only the first matching extract; deeper walks belong to the
// encyclopedic handler.
type WikipediaTool struct {
	wiki Encyclopedia
}

func NewWikipediaTool(wiki Encyclopedia) *WikipediaTool {
	return &WikipediaTool{wiki: wiki}
}

func (t *WikipediaTool) Name() string { return "wikipedia" }

func (t *WikipediaTool) Invoke(ctx context.Context, q string) (evidence.Evidence, error) {
	it, err := t.wiki.Pages(ctx, q)
	if err != nil {
		return evidence.Evidence{}, err
	}
	chunk, ok, err := it.Next(ctx)
	if err != nil {
		return evidence.Evidence{}, err
	}
	if !ok {
		return evidence.Evidence{
			Text:   fmt.Sprintf("No relevant Wikipedia data found for %s.", q),
			Origin: "wikipedia",
		}, nil
	}
	return evidence.Evidence{
		Text:    chunk.Content,
		Sources: []string{articleBaseURL + strings.ReplaceAll(chunk.Title, " ", "_")},
		Origin:  "wikipedia",
	}, nil
}
