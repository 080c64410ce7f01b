// Package pipeline sequences a question through disambiguation, retrieval,
// sufficiency evaluation, and cross-source verification.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/corpquery/corpquery/internal/evaluation"
	"github.com/corpquery/corpquery/internal/handlers"
	"github.com/corpquery/corpquery/internal/metrics"
	"github.com/corpquery/corpquery/internal/query"
	"github.com/corpquery/corpquery/internal/verify"
)

// UnableToAnswer is the terminal response after the retry budget is spent.
const UnableToAnswer = "I'm sorry, I wasn't able to find a reliable answer to your question."

// Resolver is the disambiguation stage.
type Resolver interface {
	Resolve(ctx context.Context, userQuery string, ask query.ClarifyFunc, retry bool) (*query.Resolution, error)
}

// Evaluator is the sufficiency stage.
type Evaluator interface {
	Evaluate(ctx context.Context, question, answer string) evaluation.Verdict
}

// Verifier is the cross-source verification stage.
type Verifier interface {
	CombinedSearch(ctx context.Context, q string, aux *verify.Auxiliary) (string, error)
}

// Result is the outcome of one session. NotTraded marks the structured
// non-answer from the financial handler; the caller should present Reason
// as a clarifying prompt rather than an answer.
type Result struct {
	SessionID uuid.UUID
	Text      string
	NotTraded bool
	Reason    string
}

// Orchestrator owns the session's query record and drives the stage
// sequence. Stages run strictly in order; concurrency lives inside the
// stages themselves.
type Orchestrator struct {
	resolver   Resolver
	handlers   map[handlers.HandlerID]handlers.Handler
	evaluator  Evaluator
	verifier   Verifier
	maxRetries int
	logger     *zap.Logger
}

func New(resolver Resolver, hs map[handlers.HandlerID]handlers.Handler, evaluator Evaluator, verifier Verifier, maxRetries int, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Orchestrator{
		resolver:   resolver,
		handlers:   hs,
		evaluator:  evaluator,
		verifier:   verifier,
		maxRetries: maxRetries,
		logger:     logger,
	}
}

// Answer runs one full session for the user's question. The ask callback is
// the interactive suspension point for clarifications; it may be called for
// ambiguity resolution and once more per retry round.
func (o *Orchestrator) Answer(ctx context.Context, userInput string, ask query.ClarifyFunc) (Result, error) {
	session := uuid.New()
	metrics.SessionsStarted.Inc()
	log := o.logger.With(zap.String("session_id", session.String()))

	res, err := o.run(ctx, log, userInput, ask, 0)
	if err != nil {
		var nt *handlers.NotTradedError
		if errors.As(err, &nt) {
			metrics.SessionsCompleted.WithLabelValues("not_traded").Inc()
			return Result{SessionID: session, NotTraded: true, Reason: nt.Message}, nil
		}
		metrics.SessionsCompleted.WithLabelValues("error").Inc()
		return Result{SessionID: session}, err
	}

	res.SessionID = session
	if res.Text == UnableToAnswer {
		metrics.SessionsCompleted.WithLabelValues("exhausted").Inc()
	} else {
		metrics.SessionsCompleted.WithLabelValues("answered").Inc()
	}
	return res, nil
}

func (o *Orchestrator) run(ctx context.Context, log *zap.Logger, input string, ask query.ClarifyFunc, attempt int) (Result, error) {
	retry := attempt > 0

	stop := stageTimer("resolve")
	res, err := o.resolver.Resolve(ctx, input, ask, retry)
	stop()
	if err != nil {
		return Result{}, fmt.Errorf("resolve query: %w", err)
	}
	log.Debug("stage: resolved",
		zap.String("refined", res.RefinedText),
		zap.String("intent", string(res.Intent)),
		zap.Int("attempt", attempt))

	id := handlers.Route(res.Intent)
	h, ok := o.handlers[id]
	if !ok {
		return Result{}, fmt.Errorf("no handler registered for %q", id)
	}

	stop = stageTimer("retrieve")
	candidate, err := h.ResolveQuery(ctx, *res)
	stop()
	if err != nil {
		return Result{}, err
	}
	log.Debug("stage: retrieved",
		zap.String("handler", h.Name()),
		zap.Int("sources", len(candidate.Evidence.Sources)))

	stop = stageTimer("evaluate")
	verdict := o.evaluator.Evaluate(ctx, res.RefinedText, candidate.Evidence.Text)
	stop()
	log.Debug("stage: evaluated", zap.String("verdict", string(verdict)))

	if verdict == evaluation.VerdictSufficient {
		stop = stageTimer("verify")
		final, err := o.verifier.CombinedSearch(ctx, res.RefinedText, &verify.Auxiliary{
			Answer: candidate.Evidence.Text,
			Source: candidate.SourceURL,
			Ticker: candidate.Ticker,
		})
		stop()
		if err != nil {
			return Result{}, fmt.Errorf("verify answer: %w", err)
		}
		log.Debug("stage: verified")
		return Result{Text: final}, nil
	}

	// The candidate fell short; let the verifier search on its own.
	log.Debug("stage: candidate insufficient, searching directly",
		zap.String("handler", h.Name()))
	stop = stageTimer("verify")
	final, err := o.verifier.CombinedSearch(ctx, res.RefinedText, nil)
	stop()
	if err != nil {
		return Result{}, fmt.Errorf("combined search: %w", err)
	}

	verdict = o.evaluator.Evaluate(ctx, res.RefinedText, final)
	log.Debug("stage: re-evaluated", zap.String("verdict", string(verdict)))
	if verdict == evaluation.VerdictSufficient {
		return Result{Text: final}, nil
	}

	if attempt < o.maxRetries {
		metrics.PipelineRetries.Inc()
		log.Debug("retrying with renewed clarification", zap.Int("attempt", attempt+1))
		return o.run(ctx, log, res.RefinedText, ask, attempt+1)
	}
	return Result{Text: UnableToAnswer}, nil
}

func stageTimer(stage string) func() {
	start := time.Now()
	return func() {
		metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}
}
