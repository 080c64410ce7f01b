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

// Serper is the secondary web-search backend.
type Serper struct {
	cfg     config.SearchBackendConfig
	retries int
	doer    httpDoer
	logger  *zap.Logger
}

func NewSerper(cfg config.SearchBackendConfig, maxRetries int, logger *zap.Logger) *Serper {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := &http.Client{Timeout: cfg.Timeout}
	return &Serper{
		cfg:     cfg,
		retries: maxRetries,
		doer:    circuitbreaker.NewHTTPWrapper(client, "serper", logger),
		logger:  logger,
	}
}

func (s *Serper) Name() string { return "serper" }

// Search runs the query and returns organic hits in rank order.
func (s *Serper) Search(ctx context.Context, query string) ([]SearchResult, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"q":   query,
		"num": s.cfg.MaxResults,
	})
	if err != nil {
		return nil, err
	}

	var out struct {
		Organic []struct {
			Snippet string `json:"snippet"`
			Link    string `json:"link"`
		} `json:"organic"`
	}
	err = doJSON(ctx, s.doer, "serper", s.retries, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+"/search", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-API-KEY", s.cfg.APIKey)
		return req, nil
	}, &out)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(out.Organic))
	for _, r := range out.Organic {
		results = append(results, SearchResult{Content: r.Snippet, URL: r.Link})
	}
	return results, nil
}
