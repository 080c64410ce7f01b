package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/corpquery/corpquery/internal/circuitbreaker"
	"github.com/corpquery/corpquery/internal/config"
)

// Tavily is the primary web-search backend.
type Tavily struct {
	cfg     config.SearchBackendConfig
	retries int
	doer    httpDoer
	logger  *zap.Logger
}

func NewTavily(cfg config.SearchBackendConfig, maxRetries int, logger *zap.Logger) *Tavily {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := &http.Client{Timeout: cfg.Timeout}
	return &Tavily{
		cfg:     cfg,
		retries: maxRetries,
		doer:    circuitbreaker.NewHTTPWrapper(client, "tavily", logger),
		logger:  logger,
	}
}

func (t *Tavily) Name() string { return "tavily" }

// Search runs the query and returns hits in relevance order.
func (t *Tavily) Search(ctx context.Context, query string) ([]SearchResult, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"api_key":      t.cfg.APIKey,
		"query":        query,
		"max_results":  t.cfg.MaxResults,
		"search_depth": "advanced",
	})
	if err != nil {
		return nil, err
	}

	var out struct {
		Results []struct {
			Content string `json:"content"`
			URL     string `json:"url"`
		} `json:"results"`
	}
	err = doJSON(ctx, t.doer, "tavily", t.retries, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.BaseURL+"/search", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}, &out)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(out.Results))
	for _, r := range out.Results {
		results = append(results, SearchResult{Content: r.Content, URL: r.URL})
	}
	return results, nil
}
