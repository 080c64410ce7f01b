package circuitbreaker

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// HTTPWrapper wraps an http.Client with a breaker. 5xx responses count as
// breaker failures; 4xx are business errors and do not trip it.
type HTTPWrapper struct {
	client *http.Client
	b      *Breaker
	logger *zap.Logger
}

// NewHTTPWrapper builds a wrapper named after the provider it guards.
func NewHTTPWrapper(client *http.Client, name string, logger *zap.Logger) *HTTPWrapper {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPWrapper{
		client: client,
		b:      New(name, DefaultConfig(), logger),
		logger: logger,
	}
}

// Do executes the request through the breaker. When the failure was a 5xx
// classification the underlying response is still returned to the caller.
func (hw *HTTPWrapper) Do(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	err := hw.b.Execute(req.Context(), func() error {
		var doErr error
		resp, doErr = hw.client.Do(req)
		if doErr != nil {
			return doErr
		}
		if resp.StatusCode >= 500 {
			return &httpStatusError{code: resp.StatusCode}
		}
		return nil
	})

	if _, ok := err.(*httpStatusError); ok {
		return resp, nil
	}
	return resp, err
}

// State exposes the underlying breaker state.
func (hw *HTTPWrapper) State() State { return hw.b.State() }

type httpStatusError struct{ code int }

func (e *httpStatusError) Error() string { return http.StatusText(e.code) }
