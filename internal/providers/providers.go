// Package providers implements the external retrieval capabilities: the
// encyclopedic lookup, the financial snapshot provider, and two
// independently-sourced web-search backends.
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/corpquery/corpquery/internal/metrics"
)

// SearchResult is one web-search hit: a content snippet and its source URL.
type SearchResult struct {
	Content string
	URL     string
}

// httpDoer is satisfied by *http.Client and the circuit-breaker wrapper.
type httpDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// statusError marks non-2xx responses; 4xx are permanent, 5xx retryable.
type statusError struct {
	provider string
	code     int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%s: http status %d", e.provider, e.code)
}

// doJSON executes the request with exponential backoff and decodes the JSON
// body into out. The request is rebuilt per attempt because bodies are
// single-use.
func doJSON(ctx context.Context, doer httpDoer, provider string, maxRetries int, build func() (*http.Request, error), out interface{}) error {
	start := time.Now()

	op := func() error {
		req, err := build()
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := doer.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			serr := &statusError{provider: provider, code: resp.StatusCode}
			if resp.StatusCode < 500 {
				return backoff.Permanent(serr)
			}
			return serr
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(body, out); err != nil {
			return backoff.Permanent(fmt.Errorf("%s: decode response: %w", provider, err))
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 250 * time.Millisecond
	bo.MaxElapsedTime = 0

	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(maxRetries)), ctx))
	if err != nil {
		metrics.RecordProviderCall(provider, "error", time.Since(start).Seconds())
		return err
	}
	metrics.RecordProviderCall(provider, "ok", time.Since(start).Seconds())
	return nil
}
