// Package evaluation classifies whether a candidate answer adequately and
// relevantly answers the question.
package evaluation

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/corpquery/corpquery/internal/llm"
	"github.com/corpquery/corpquery/internal/metrics"
)

// Verdict is the sufficiency classification. It is derived, never persisted.
type Verdict string

const (
	VerdictSufficient Verdict = "sufficient"
	VerdictIrrelevant Verdict = "irrelevant"
	VerdictIncomplete Verdict = "incomplete"
)

const evaluateSystem = `You are an evaluation assistant that determines whether a retrieved response completely and accurately answers the user's question.
Evaluation Criteria:
1. Relevance: Does the information directly address the user's specific question (e.g., user question: 'Apple stock price' --> response includes 'Apple', 'stock' and its price in $)?
2. Completeness: Is the answer detailed enough to answer the user query?
Decision Rules:
- If the retrieved response is relevant for and adequately answers the user question, return 'sufficient'.
- If the retrieved response is not relevant to the user question, return 'irrelevant'.
- If the retrieved response is not complete or enough to answer the user question, return 'incomplete'.
ONLY return 'sufficient', 'irrelevant', 'incomplete'.`

// Evaluator scores candidate answers against the question.
type Evaluator struct {
	model  llm.Model
	logger *zap.Logger
}

// NewEvaluator builds an evaluator on the given model.
func NewEvaluator(model llm.Model, logger *zap.Logger) *Evaluator {
	return &Evaluator{model: model, logger: logger}
}

// Evaluate returns exactly one of the three verdicts for any input pair.
// Output outside the enum coerces to incomplete: ambiguous evaluator output
// means "needs more evidence", never "needs a different answer". Model
// failure coerces the same way so the pipeline keeps gathering evidence.
func (e *Evaluator) Evaluate(ctx context.Context, question, answer string) Verdict {
	out, err := e.model.Complete(ctx, llm.Request{
		Purpose: "evaluate",
		System:  evaluateSystem,
		User:    "User Question: " + question + "\nRetrieved Response: " + answer,
	})
	if err != nil {
		e.logger.Warn("evaluation call failed, treating as incomplete", zap.Error(err))
		metrics.Verdicts.WithLabelValues(string(VerdictIncomplete)).Inc()
		return VerdictIncomplete
	}

	v := Verdict(strings.ToLower(strings.Trim(strings.TrimSpace(out), `'".`)))
	switch v {
	case VerdictSufficient, VerdictIrrelevant, VerdictIncomplete:
	default:
		e.logger.Warn("evaluator returned out-of-enum verdict, coercing to incomplete",
			zap.String("raw", out))
		metrics.MalformedModelOutput.WithLabelValues("evaluate").Inc()
		v = VerdictIncomplete
	}
	metrics.Verdicts.WithLabelValues(string(v)).Inc()
	return v
}
