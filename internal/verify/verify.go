// Package verify cross-checks candidate answers against two independent
// web-search backends and reconciles them into a single cited answer.
package verify

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/corpquery/corpquery/internal/citations"
	"github.com/corpquery/corpquery/internal/evidence"
	"github.com/corpquery/corpquery/internal/handlers"
	"github.com/corpquery/corpquery/internal/llm"
	"github.com/corpquery/corpquery/internal/metrics"
)

const synthesizeSystem = "You are an assistant that synthesizes and validates search results for a user query. " +
	"Given two separate web searches, your task is to produce a DIRECT, concise (one sentence) " +
	"answer that combines the key information from both results. Follow these rules: " +
	"1. Your answer must address the query directly without additional commentary. " +
	"2. If the query requests a list (e.g., companies), include specific, concrete examples. " +
	"3. At the end of your answer, append the source names in the following format: (Source: Source1, Source2, ..., Source n) for ALL relevant sources. " +
	"4. Format each source as a **separate clickable hyperlink** using ANSI escape sequences, ensuring that links are correctly separated. " +
	"Use this structure for each source: '\x1b]8;;<source_url>\x1b\\<source_name>\x1b]8;;\x1b\\' " +
	"When listing multiple sources, separate them with `, ` (a comma and a space), ensuring **NO ANSI escape characters touch each other**. " +
	"Example: (Source: \x1b]8;;https://businessinsider.com/\x1b\\Business Insider\x1b]8;;\x1b\\, " +
	"\x1b]8;;https://reuters.com/\x1b\\Reuters\x1b]8;;\x1b\\). " +
	"5. If the two sources conflict, rely on the Second search. " +
	"Provide ONLY the final answer in the specified format."

const validateSystem = "You are an assistant that validates whether an auxiliary response is accurate, " +
	"using search results from web searches First search and Second search. Respond based on the following: " +
	"- If the auxiliary response contains factually correct and relevant information based on the search results, respond with 'valid'. " +
	"- ONLY if the auxiliary response is inaccurate, respond with 'invalid'. " +
	"Respond with either 'valid' or 'invalid'."

// Auxiliary is a candidate answer from a non-web-search handler pending
// cross-verification. Ticker is set when the answer came from market data
// and selects quote-page citation rendering.
type Auxiliary struct {
	Answer string
	Source string
	Ticker string
}

// Verifier runs both search backends and reconciles their evidence with an
// optional auxiliary answer.
type Verifier struct {
	model    llm.Model
	first    handlers.Searcher
	second   handlers.Searcher
	maxExtra int
	logger   *zap.Logger
}

func New(model llm.Model, first, second handlers.Searcher, maxExtraSources int, logger *zap.Logger) *Verifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxExtraSources <= 0 {
		maxExtraSources = 5
	}
	return &Verifier{model: model, first: first, second: second, maxExtra: maxExtraSources, logger: logger}
}

// CombinedSearch runs both backends and produces the final answer text.
//
// Without an auxiliary answer it synthesizes one cited sentence from both
// searches, with the second search taking precedence on conflict. With one,
// the auxiliary answer is first validated against the searches: valid means
// it is kept verbatim with citations appended, invalid means it is wholly
// discarded in favor of the synthesized answer. There is no partial merge.
func (v *Verifier) CombinedSearch(ctx context.Context, query string, aux *Auxiliary) (string, error) {
	firstEv, secondEv, err := v.searchBoth(ctx, query)
	if err != nil {
		return "", err
	}
	allSources := evidence.UnionSources(firstEv.Sources, secondEv.Sources)

	if aux != nil && aux.Answer != "" {
		valid, err := v.validate(ctx, query, aux.Answer, firstEv.Text, secondEv.Text)
		if err != nil {
			return "", err
		}
		if valid {
			return v.cite(aux, allSources), nil
		}
		v.logger.Debug("auxiliary answer rejected", zap.String("query", query))
	}

	return v.synthesize(ctx, query, firstEv.Text, secondEv.Text, allSources)
}

// searchBoth fans out to both backends concurrently. Each side keeps at
// most the first 3 snippets, joined with single spaces, plus its full
// ordered source list.
func (v *Verifier) searchBoth(ctx context.Context, query string) (evidence.Evidence, evidence.Evidence, error) {
	var firstEv, secondEv evidence.Evidence
	eg, gctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		ev, err := searchEvidence(gctx, v.first, query)
		if err != nil {
			return fmt.Errorf("%s: %w", v.first.Name(), err)
		}
		firstEv = ev
		return nil
	})
	eg.Go(func() error {
		ev, err := searchEvidence(gctx, v.second, query)
		if err != nil {
			return fmt.Errorf("%s: %w", v.second.Name(), err)
		}
		secondEv = ev
		return nil
	})
	if err := eg.Wait(); err != nil {
		return evidence.Evidence{}, evidence.Evidence{}, err
	}
	return firstEv, secondEv, nil
}

func searchEvidence(ctx context.Context, backend handlers.Searcher, query string) (evidence.Evidence, error) {
	results, err := backend.Search(ctx, query)
	if err != nil {
		return evidence.Evidence{}, err
	}
	var snippets []string
	sources := make([]string, 0, len(results))
	for i, r := range results {
		if i < 3 {
			snippets = append(snippets, r.Content)
		}
		sources = append(sources, r.URL)
	}
	return evidence.Evidence{
		Text:    strings.Join(snippets, " "),
		Sources: sources,
		Origin:  backend.Name(),
	}, nil
}

func (v *Verifier) validate(ctx context.Context, query, auxAnswer, firstText, secondText string) (bool, error) {
	out, err := v.model.Complete(ctx, llm.Request{
		Purpose: "aux_validate",
		System:  validateSystem,
		User: fmt.Sprintf("Query: %s\nAuxiliary Response: %s\nFirst search: %s\nSecond search: %s",
			query, auxAnswer, firstText, secondText),
	})
	if err != nil {
		return false, err
	}
	verdict := strings.ToLower(strings.Trim(strings.TrimSpace(out), "'\"."))
	switch verdict {
	case "valid":
		metrics.Verdicts.WithLabelValues("valid").Inc()
		return true, nil
	case "invalid":
		metrics.Verdicts.WithLabelValues("invalid").Inc()
		return false, nil
	default:
		// An off-script validator discards the auxiliary answer; replacing
		// it with search evidence is the conservative direction.
		metrics.MalformedModelOutput.WithLabelValues("aux_validate").Inc()
		v.logger.Warn("validator returned unexpected output", zap.String("output", out))
		metrics.Verdicts.WithLabelValues("invalid").Inc()
		return false, nil
	}
}

// cite renders the validated auxiliary answer with citations. Ticker-backed
// answers carry their own trailing source annotation and get the canonical
// quote-page link; otherwise the auxiliary source is appended first, ahead
// of up to maxExtra corroborating sources, so the cap never displaces it.
func (v *Verifier) cite(aux *Auxiliary, allSources []string) string {
	if aux.Ticker != "" {
		return citations.FormatSources(aux.Answer, aux.Ticker)
	}
	extra := allSources
	if len(extra) > v.maxExtra {
		extra = extra[:v.maxExtra]
	}
	joined := strings.Join(append([]string{aux.Source}, extra...), ", ")
	trimmed := strings.TrimSuffix(aux.Answer, ".")
	return citations.FormatSources(fmt.Sprintf("%s (%s)", trimmed, joined), "")
}

func (v *Verifier) synthesize(ctx context.Context, query, firstText, secondText string, allSources []string) (string, error) {
	capped := allSources
	if len(capped) > v.maxExtra {
		capped = capped[:v.maxExtra]
	}
	out, err := v.model.Complete(ctx, llm.Request{
		Purpose: "verify_synthesize",
		System:  synthesizeSystem,
		User: fmt.Sprintf("User Query: %s\nFirst search: %s\nSecond search: %s\nSources: %s",
			query, firstText, secondText, strings.Join(capped, ", ")),
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
