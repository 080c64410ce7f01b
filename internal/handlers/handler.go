// Package handlers implements the retrieval handlers the router dispatches
// to: financial, encyclopedic, and the generic tool-selecting catch-all.
package handlers

import (
	"context"
	"fmt"

	"github.com/corpquery/corpquery/internal/evidence"
	"github.com/corpquery/corpquery/internal/query"
)

// Result is a handler's candidate answer. SourceURL is the canonical page
// backing the answer, used as the auxiliary source during verification.
// Ticker is set only by the financial handler and drives quote-page
// citation rendering.
type Result struct {
	Evidence  evidence.Evidence
	SourceURL string
	Ticker    string
}

// Handler resolves a refined query into a candidate answer. Implementations
// are interchangeable from the orchestrator's point of view.
type Handler interface {
	Name() string
	ResolveQuery(ctx context.Context, q query.Resolution) (Result, error)
}

// NotTradedError signals that a company could not be resolved to a market
// ticker. It is a business condition, not a fault; the orchestrator turns it
// into a clarifying prompt.
type NotTradedError struct {
	Company string
	Message string
}

func (e *NotTradedError) Error() string {
	return fmt.Sprintf("%s: %s", e.Company, e.Message)
}

// HandlerID names one of the three handler variants.
type HandlerID string

const (
	HandlerFinancial    HandlerID = "financial"
	HandlerEncyclopedic HandlerID = "encyclopedic"
	HandlerGeneric      HandlerID = "generic"
)

// Route maps an intent to the handler that serves it. Stock intents need
// market data; news and unrecognized intents need live web lookup; the
// remaining profile-style intents are best answered encyclopedically.
func Route(intent query.Intent) HandlerID {
	switch intent {
	case query.IntentStock:
		return HandlerFinancial
	case query.IntentNews, query.IntentUnknown:
		return HandlerGeneric
	default:
		return HandlerEncyclopedic
	}
}
