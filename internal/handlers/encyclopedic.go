package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/corpquery/corpquery/internal/evidence"
	"github.com/corpquery/corpquery/internal/llm"
	"github.com/corpquery/corpquery/internal/metrics"
	"github.com/corpquery/corpquery/internal/providers"
	"github.com/corpquery/corpquery/internal/query"
)

// PageSequence yields article extracts one at a time; ok=false marks
// exhaustion. Sequences restart from scratch only: a fresh Pages call is
// the only way to walk the results again.
type PageSequence interface {
	Next(ctx context.Context) (providers.Chunk, bool, error)
}

// Encyclopedia is the encyclopedic lookup capability consumed by the handler.
type Encyclopedia interface {
	Summary(ctx context.Context, q string) (string, error)
	Pages(ctx context.Context, q string) (PageSequence, error)
}

// WikipediaSource adapts the concrete client to the Encyclopedia interface.
type WikipediaSource struct {
	Client *providers.Wikipedia
}

func (w WikipediaSource) Summary(ctx context.Context, q string) (string, error) {
	return w.Client.Summary(ctx, q)
}

func (w WikipediaSource) Pages(ctx context.Context, q string) (PageSequence, error) {
	it, err := w.Client.Pages(ctx, q)
	if err != nil {
		return nil, err
	}
	return it, nil
}

// noContextSentinel is the prefix the model is instructed to emit when the
// supplied context cannot answer the question.
const noContextSentinel = "The context provided does not mention"

const articleBaseURL = "https://en.wikipedia.org/wiki/"

const contextAnswerSystem = "You are a helpful assistant. Please respond to the user's request only based on the given context. " +
	"If the context does not mention the user's question, " +
	"return 'The context provided does not mention {question}.' " +
	"ONLY provide a one-sentence answer that directly answers the question."

// Encyclopedic answers company-profile questions from article extracts,
// walking candidate articles until one yields an answer.
type Encyclopedic struct {
	model  llm.Model
	wiki   Encyclopedia
	logger *zap.Logger
}

func NewEncyclopedic(model llm.Model, wiki Encyclopedia, logger *zap.Logger) *Encyclopedic {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Encyclopedic{model: model, wiki: wiki, logger: logger}
}

func (e *Encyclopedic) Name() string { return "Wikipedia" }

func (e *Encyclopedic) ResolveQuery(ctx context.Context, q query.Resolution) (Result, error) {
	question := q.RefinedText

	// Location facts live in the company's own article; searching by the
	// bare company name is more reliable than the refined query.
	if q.Intent == query.IntentLocation && q.Company != "" {
		summary, err := e.wiki.Summary(ctx, q.Company)
		switch {
		case errors.Is(err, providers.ErrNoPages):
			// Fall through to the chunk walk below.
		case err != nil:
			metrics.HandlerInvocations.WithLabelValues("encyclopedic", "error").Inc()
			return Result{}, err
		default:
			answer, err := e.answerFrom(ctx, question, summary)
			if err != nil {
				metrics.HandlerInvocations.WithLabelValues("encyclopedic", "error").Inc()
				return Result{}, err
			}
			if !strings.HasPrefix(answer, noContextSentinel) {
				url := articleBaseURL + strings.ReplaceAll(q.Company, " ", "_")
				metrics.HandlerInvocations.WithLabelValues("encyclopedic", "ok").Inc()
				return Result{
					Evidence: evidence.Evidence{
						Text:    answer,
						Sources: []string{url},
						Origin:  "wikipedia",
					},
					SourceURL: url,
				}, nil
			}
		}
	}

	it, err := e.wiki.Pages(ctx, question)
	if err != nil {
		if errors.Is(err, providers.ErrNoPages) {
			return e.exhausted(question), nil
		}
		metrics.HandlerInvocations.WithLabelValues("encyclopedic", "error").Inc()
		return Result{}, err
	}
	for {
		chunk, ok, err := it.Next(ctx)
		if err != nil {
			metrics.HandlerInvocations.WithLabelValues("encyclopedic", "error").Inc()
			return Result{}, err
		}
		if !ok {
			return e.exhausted(question), nil
		}
		answer, err := e.answerFrom(ctx, question, chunk.Content)
		if err != nil {
			metrics.HandlerInvocations.WithLabelValues("encyclopedic", "error").Inc()
			return Result{}, err
		}
		if strings.HasPrefix(answer, noContextSentinel) {
			e.logger.Debug("chunk rejected", zap.String("title", chunk.Title))
			continue
		}
		url := articleBaseURL + strings.ReplaceAll(chunk.Title, " ", "_")
		metrics.HandlerInvocations.WithLabelValues("encyclopedic", "ok").Inc()
		return Result{
			Evidence: evidence.Evidence{
				Text:    answer,
				Sources: []string{url},
				Origin:  "wikipedia",
			},
			SourceURL: url,
		}, nil
	}
}

// exhausted produces the terminal no-data answer. It is a textual result,
// not a fault: the evaluator will reject it and push the pipeline toward
// web search.
func (e *Encyclopedic) exhausted(question string) Result {
	metrics.HandlerInvocations.WithLabelValues("encyclopedic", "exhausted").Inc()
	return Result{
		Evidence: evidence.Evidence{
			Text:   fmt.Sprintf("No relevant Wikipedia data found for %s.", question),
			Origin: "wikipedia",
		},
	}
}

func (e *Encyclopedic) answerFrom(ctx context.Context, question, contextText string) (string, error) {
	out, err := e.model.Complete(ctx, llm.Request{
		Purpose: "context_answer",
		System:  contextAnswerSystem,
		User:    fmt.Sprintf("Question: %s\nContext: %s", question, contextText),
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
