package providers

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/corpquery/corpquery/internal/circuitbreaker"
	"github.com/corpquery/corpquery/internal/config"
)

// ErrNoQuote is returned when the quote service has no record for a symbol.
var ErrNoQuote = errors.New("quote: symbol not found")

// Snapshot holds the point-in-time trading figures for one symbol. Every
// field may be absent; a nil pointer means the service did not report it.
type Snapshot struct {
	Price            *float64
	MarketCap        *float64
	PERatio          *float64
	DividendYield    *float64
	FiftyTwoWeekHigh *float64
	FiftyTwoWeekLow  *float64
}

// QuoteClient fetches snapshots from a Yahoo-compatible quote endpoint.
type QuoteClient struct {
	cfg     config.QuoteConfig
	retries int
	doer    httpDoer
	logger  *zap.Logger
}

func NewQuoteClient(cfg config.QuoteConfig, maxRetries int, logger *zap.Logger) *QuoteClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := &http.Client{Timeout: cfg.Timeout}
	return &QuoteClient{
		cfg:     cfg,
		retries: maxRetries,
		doer:    circuitbreaker.NewHTTPWrapper(client, "quote", logger),
		logger:  logger,
	}
}

// Snapshot fetches the current figures for the given ticker.
func (q *QuoteClient) Snapshot(ctx context.Context, ticker string) (Snapshot, error) {
	params := url.Values{}
	params.Set("symbols", ticker)

	var out struct {
		QuoteResponse struct {
			Result []struct {
				RegularMarketPrice *float64 `json:"regularMarketPrice"`
				MarketCap          *float64 `json:"marketCap"`
				TrailingPE         *float64 `json:"trailingPE"`
				DividendYield      *float64 `json:"trailingAnnualDividendYield"`
				FiftyTwoWeekHigh   *float64 `json:"fiftyTwoWeekHigh"`
				FiftyTwoWeekLow    *float64 `json:"fiftyTwoWeekLow"`
			} `json:"result"`
		} `json:"quoteResponse"`
	}

	err := doJSON(ctx, q.doer, "quote", q.retries, func() (*http.Request, error) {
		u := q.cfg.BaseURL + "/v7/finance/quote?" + params.Encode()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	}, &out)
	if err != nil {
		return Snapshot{}, err
	}
	if len(out.QuoteResponse.Result) == 0 {
		return Snapshot{}, ErrNoQuote
	}

	r := out.QuoteResponse.Result[0]
	return Snapshot{
		Price:            r.RegularMarketPrice,
		MarketCap:        r.MarketCap,
		PERatio:          r.TrailingPE,
		DividendYield:    r.DividendYield,
		FiftyTwoWeekHigh: r.FiftyTwoWeekHigh,
		FiftyTwoWeekLow:  r.FiftyTwoWeekLow,
	}, nil
}
