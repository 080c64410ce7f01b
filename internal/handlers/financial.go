package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/corpquery/corpquery/internal/citations"
	"github.com/corpquery/corpquery/internal/evidence"
	"github.com/corpquery/corpquery/internal/llm"
	"github.com/corpquery/corpquery/internal/metrics"
	"github.com/corpquery/corpquery/internal/providers"
	"github.com/corpquery/corpquery/internal/query"
)

// QuoteProvider is the financial data capability consumed by the handler.
type QuoteProvider interface {
	Snapshot(ctx context.Context, ticker string) (providers.Snapshot, error)
}

const tickerLookupSystem = "You are an assistant that maps company names to their corresponding stock ticker symbols. " +
	"ONLY respond with the stock ticker (e.g. 'Apple' -> 'AAPL')."

const financialAnswerSystem = "You are a financial assistant that analyzes stock data and provides insights. " +
	"Provide a succinct, 1-2 sentence summary, that ONLY directly answers the user question. " +
	"Start your response 'As of %s', include the company's name and the ticker in parentheses " +
	"(e.g., Tesla, Inc. ($TSLA) ...), avoid excessive details, and focus only on valuable information. " +
	"End your response with (Source: Yahoo Finance)."

// Financial answers stock questions from a market data snapshot. A company
// the model cannot map to a ticker is reported as NotTradedError.
type Financial struct {
	model  llm.Model
	quotes QuoteProvider
	logger *zap.Logger
	now    func() time.Time
}

func NewFinancial(model llm.Model, quotes QuoteProvider, logger *zap.Logger) *Financial {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Financial{model: model, quotes: quotes, logger: logger, now: time.Now}
}

// WithClock fixes the handler's notion of today. Test hook.
func (f *Financial) WithClock(now func() time.Time) *Financial {
	f.now = now
	return f
}

func (f *Financial) Name() string { return "Yahoo Finance" }

// ResolveTicker asks the model for the company's ticker symbol. Anything
// longer than 5 characters is the model explaining why there is no ticker,
// so it is surfaced as a NotTradedError carrying that explanation.
func (f *Financial) ResolveTicker(ctx context.Context, company string) (string, error) {
	out, err := f.model.Complete(ctx, llm.Request{
		Purpose: "ticker_lookup",
		System:  tickerLookupSystem,
		User:    fmt.Sprintf("Company Name: %s\nWhat is the stock ticker?", company),
	})
	if err != nil {
		return "", err
	}
	ticker := strings.TrimPrefix(strings.TrimSpace(out), "$")
	if len(ticker) > 5 {
		return "", &NotTradedError{Company: company, Message: ticker}
	}
	return ticker, nil
}

func (f *Financial) ResolveQuery(ctx context.Context, q query.Resolution) (Result, error) {
	ticker, err := f.ResolveTicker(ctx, q.Company)
	if err != nil {
		metrics.HandlerInvocations.WithLabelValues("financial", "not_traded").Inc()
		return Result{}, err
	}
	f.logger.Debug("ticker resolved",
		zap.String("company", q.Company),
		zap.String("ticker", ticker))

	snap, err := f.quotes.Snapshot(ctx, ticker)
	if err != nil {
		metrics.HandlerInvocations.WithLabelValues("financial", "error").Inc()
		return Result{}, fmt.Errorf("fetch snapshot for %s: %w", ticker, err)
	}

	today := f.now().Format("January 2, 2006")
	answer, err := f.model.Complete(ctx, llm.Request{
		Purpose: "financial_answer",
		System:  fmt.Sprintf(financialAnswerSystem, today),
		User: fmt.Sprintf("Stock Symbol: %s\nCurrent Data: %s\nUser Question: %s",
			ticker, formatSnapshot(snap), q.RefinedText),
	})
	if err != nil {
		metrics.HandlerInvocations.WithLabelValues("financial", "error").Inc()
		return Result{}, err
	}

	quoteURL := citations.QuoteURL(ticker)
	metrics.HandlerInvocations.WithLabelValues("financial", "ok").Inc()
	return Result{
		Evidence: evidence.Evidence{
			Text:    answer,
			Sources: []string{quoteURL},
			Origin:  "yahoo_finance",
		},
		SourceURL: quoteURL,
		Ticker:    ticker,
	}, nil
}

func formatSnapshot(s providers.Snapshot) string {
	field := func(v *float64) string {
		if v == nil {
			return "n/a"
		}
		return fmt.Sprintf("%g", *v)
	}
	return fmt.Sprintf("price: %s, market_cap: %s, pe_ratio: %s, dividend_yield: %s, 52_week_high: %s, 52_week_low: %s",
		field(s.Price), field(s.MarketCap), field(s.PERatio),
		field(s.DividendYield), field(s.FiftyTwoWeekHigh), field(s.FiftyTwoWeekLow))
}
