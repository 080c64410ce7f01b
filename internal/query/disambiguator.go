// Package query disambiguates an under-specified company question and
// compiles it into a structured, intent-tagged search query.
package query

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/corpquery/corpquery/internal/llm"
	"github.com/corpquery/corpquery/internal/metrics"
)

// Ambiguity is the outcome of ambiguity detection.
type Ambiguity struct {
	Ambiguous bool
	FollowUp  string
}

// Structured is the intent record extracted from a query. A malformed
// extraction yields the sentinel {Unknown, unknown, "", ""} rather than an
// error.
type Structured struct {
	Company       string
	Intent        Intent
	Details       string
	TimeReference string
}

// Resolution is the session's query record: the immutable raw text plus
// everything the disambiguator resolved from it.
type Resolution struct {
	RawText             string
	RefinedText         string
	Intent              Intent
	Company             string
	Details             string
	TimeReference       string
	IsAmbiguous         bool
	ClarificationAnswer string
}

// ClarifyFunc obtains exactly one clarification from the caller. It is the
// pipeline's hard synchronous suspension point; a non-interactive caller
// returns an error instead of an answer.
type ClarifyFunc func(question string) (string, error)

// Disambiguator detects ambiguity, collects at most one clarification and
// compiles the question into a retrieval query.
type Disambiguator struct {
	model  llm.Model
	logger *zap.Logger
	now    func() time.Time
}

// NewDisambiguator wires the disambiguator to a model. The clock is
// injectable for deterministic template tests.
func NewDisambiguator(model llm.Model, logger *zap.Logger) *Disambiguator {
	return &Disambiguator{model: model, logger: logger, now: time.Now}
}

// WithClock overrides the clock used to resolve relative time expressions.
func (d *Disambiguator) WithClock(now func() time.Time) *Disambiguator {
	d.now = now
	return d
}

// DetectAmbiguity asks the model whether the question is ambiguous. A
// malformed response is treated as unambiguous so the pipeline proceeds.
func (d *Disambiguator) DetectAmbiguity(ctx context.Context, userInput string) (Ambiguity, error) {
	out, err := d.model.Complete(ctx, llm.Request{
		Purpose:  "detect_ambiguity",
		System:   detectAmbiguitySystem,
		User:     "Query: " + userInput,
		JSONMode: true,
	})
	if err != nil {
		return Ambiguity{}, fmt.Errorf("detect ambiguity: %w", err)
	}

	res, ok := llm.ExtractJSON(out)
	if !ok {
		metrics.MalformedModelOutput.WithLabelValues("detect_ambiguity").Inc()
		d.logger.Warn("ambiguity detection returned malformed JSON, assuming unambiguous",
			zap.String("raw", out))
		return Ambiguity{Ambiguous: false}, nil
	}
	return Ambiguity{
		Ambiguous: res.Get("ambiguous").Bool(),
		FollowUp:  res.Get("follow_up").String(),
	}, nil
}

// ClarifyQuery refines the original query with the user's clarification.
func (d *Disambiguator) ClarifyQuery(ctx context.Context, original, clarification string) (string, error) {
	out, err := d.model.Complete(ctx, llm.Request{
		Purpose: "clarify_query",
		System:  clarifySystem,
		User: fmt.Sprintf("Original Query: %s\nClarification: %s\nRefined Query:",
			original, clarification),
	})
	if err != nil {
		return "", fmt.Errorf("clarify query: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// ExtractStructured pulls {company, intent, details, time_reference} out of
// the query. Extraction failures fall back to the sentinel record; the
// pipeline continues rather than aborting.
func (d *Disambiguator) ExtractStructured(ctx context.Context, userQuery string) (Structured, error) {
	out, err := d.model.Complete(ctx, llm.Request{
		Purpose:  "extract_structured",
		System:   extractSystem,
		User:     "Query: " + userQuery,
		JSONMode: true,
	})
	if err != nil {
		return Structured{}, fmt.Errorf("extract structured: %w", err)
	}

	res, ok := llm.ExtractJSON(out)
	if !ok || !res.Get("company").Exists() {
		metrics.MalformedModelOutput.WithLabelValues("extract_structured").Inc()
		d.logger.Warn("structured extraction returned malformed JSON, using sentinel",
			zap.String("raw", out))
		return Structured{Company: "Unknown", Intent: IntentUnknown}, nil
	}

	return Structured{
		Company:       res.Get("company").String(),
		Intent:        ParseIntent(res.Get("intent").String()),
		Details:       strings.TrimSpace(res.Get("details").String()),
		TimeReference: strings.TrimSpace(res.Get("time_reference").String()),
	}, nil
}

// relativeTimeWords resolve to the current calendar year at compile time.
var relativeTimeWords = []string{"recently", "latest", "current", "today", "this year"}

var whitespace = regexp.MustCompile(`\s+`)

// CompileQuery builds the retrieval query from the structured record using
// the fixed per-intent templates. Unrecognized intents fall back to the
// generic concatenation. Retry mode bypasses templates entirely and returns
// the raw concatenation, used only after a failed verification round.
func (d *Disambiguator) CompileQuery(s Structured, retry bool) string {
	if retry {
		return collapse(fmt.Sprintf("%s %s %s", s.Company, s.Details, s.TimeReference))
	}

	// Avoid repeating the intent word inside the constructed query.
	details := stripWholeWord(s.Details, string(s.Intent))

	timeRef := s.TimeReference
	if timeRef != "" && containsRelativeTime(timeRef) {
		timeRef = fmt.Sprintf("%d", d.now().Year())
	}

	var q string
	switch s.Intent {
	case IntentGeneralInformation:
		q = fmt.Sprintf("%s history and products overview", s.Company)
	case IntentLocation:
		if details == "" {
			q = fmt.Sprintf("%s headquarters location", s.Company)
		} else {
			q = fmt.Sprintf("%s %s location", s.Company, details)
		}
	case IntentBusinessModel:
		q = fmt.Sprintf("%s revenue model", s.Company)
	case IntentInvestments:
		q = fmt.Sprintf("%s investment portfolio %s", s.Company, timeRef)
	case IntentStock:
		q = fmt.Sprintf("%s stock %s", s.Company, details)
	case IntentNews:
		q = fmt.Sprintf("Latest news on %s %s", s.Company, timeRef)
	case IntentProducts:
		q = fmt.Sprintf("%s product lineup %s", s.Company, timeRef)
	case IntentHistory:
		q = fmt.Sprintf("%s history overview %s", s.Company, timeRef)
	default:
		q = fmt.Sprintf("%s %s %s", s.Company, details, timeRef)
	}

	return collapse(q)
}

// Resolve handles ambiguity, refines the query, and returns the full
// resolution record. The ask callback is invoked at most once.
func (d *Disambiguator) Resolve(ctx context.Context, userQuery string, ask ClarifyFunc, retry bool) (*Resolution, error) {
	r := &Resolution{RawText: userQuery}

	refined := userQuery
	if retry {
		answer, err := ask("Hmm, your query didn't yield any search results. Could you provide more information?")
		if err != nil {
			return nil, err
		}
		r.ClarificationAnswer = answer
		refined, err = d.ClarifyQuery(ctx, userQuery, answer)
		if err != nil {
			return nil, err
		}
	} else {
		det, err := d.DetectAmbiguity(ctx, userQuery)
		if err != nil {
			return nil, err
		}
		if det.Ambiguous {
			r.IsAmbiguous = true
			followUp := det.FollowUp
			if followUp == "" {
				followUp = "Could you clarify?"
			}
			answer, err := ask(followUp)
			if err != nil {
				return nil, err
			}
			r.ClarificationAnswer = answer
			refined, err = d.ClarifyQuery(ctx, userQuery, answer)
			if err != nil {
				return nil, err
			}
		}
	}

	s, err := d.ExtractStructured(ctx, refined)
	if err != nil {
		return nil, err
	}

	r.Intent = s.Intent
	r.Company = s.Company
	r.Details = s.Details
	r.TimeReference = s.TimeReference
	r.RefinedText = d.CompileQuery(s, retry)

	d.logger.Debug("query resolved",
		zap.String("raw", r.RawText),
		zap.String("refined", r.RefinedText),
		zap.String("intent", string(r.Intent)),
		zap.String("company", r.Company),
	)
	return r, nil
}

func containsRelativeTime(timeRef string) bool {
	lower := strings.ToLower(timeRef)
	for _, w := range relativeTimeWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// stripWholeWord removes whole-word occurrences of phrase from s.
func stripWholeWord(s, phrase string) string {
	if s == "" || phrase == "" {
		return s
	}
	re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(phrase) + `\b`)
	if err != nil {
		return s
	}
	return collapse(re.ReplaceAllString(s, ""))
}

func collapse(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}
