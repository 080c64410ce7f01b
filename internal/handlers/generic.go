package handlers

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/corpquery/corpquery/internal/evidence"
	"github.com/corpquery/corpquery/internal/llm"
	"github.com/corpquery/corpquery/internal/metrics"
	"github.com/corpquery/corpquery/internal/query"
)

// Tool is one retrieval capability the generic handler can select.
type Tool interface {
	Name() string
	Invoke(ctx context.Context, q string) (evidence.Evidence, error)
}

const toolSelectSystem = "You are a smart assistant that selects the best search tools for a given task. " +
	"You have access to the following tools: " +
	"- wikipedia (for structured information like general knowledge, company profiles, historical/product info, location) " +
	"- serper (for up-to-date news, financial queries, Google-like search) " +
	"- tavily (as a fallback, for web-wide search, including blogs, analysis, and lists). " +
	"Return a JSON object with the best tools for the task, STRICTLY in the following format " +
	`{"tools": ["<tool1>", "<tool2>"]}.`

// Generic maps a free-text task to retrieval tools via a model
// classification step and fans out to the selected tools concurrently.
type Generic struct {
	model    llm.Model
	tools    map[string]Tool
	fallback Tool
	logger   *zap.Logger
}

// NewGeneric builds the handler. fallback is the broad-web-search tool used
// when selection fails or comes back empty; it must also appear in tools if
// it should be selectable by name.
func NewGeneric(model llm.Model, tools []Tool, fallback Tool, logger *zap.Logger) *Generic {
	if logger == nil {
		logger = zap.NewNop()
	}
	byName := make(map[string]Tool, len(tools))
	for _, t := range tools {
		byName[t.Name()] = t
	}
	return &Generic{model: model, tools: byName, fallback: fallback, logger: logger}
}

func (g *Generic) Name() string { return "Web Search" }

func (g *Generic) ResolveQuery(ctx context.Context, q query.Resolution) (Result, error) {
	selected := g.selectTools(ctx, q.RefinedText)

	results := make([]evidence.Evidence, len(selected))
	eg, gctx := errgroup.WithContext(ctx)
	for i, tool := range selected {
		i, tool := i, tool
		eg.Go(func() error {
			ev, err := tool.Invoke(gctx, q.RefinedText)
			if err != nil {
				return fmt.Errorf("%s: %w", tool.Name(), err)
			}
			results[i] = ev
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		metrics.HandlerInvocations.WithLabelValues("generic", "error").Inc()
		return Result{}, err
	}

	merged := evidence.Merge(results...)
	metrics.HandlerInvocations.WithLabelValues("generic", "ok").Inc()
	var sourceURL string
	if len(merged.Sources) > 0 {
		sourceURL = merged.Sources[0]
	}
	return Result{Evidence: merged, SourceURL: sourceURL}, nil
}

// selectTools asks the model which tools fit the task. Unknown names are
// dropped; a malformed response or an empty selection falls back to the
// broad web-search tool.
func (g *Generic) selectTools(ctx context.Context, task string) []Tool {
	out, err := g.model.Complete(ctx, llm.Request{
		Purpose:  "tool_select",
		System:   toolSelectSystem,
		User:     task,
		JSONMode: true,
	})
	if err != nil {
		g.logger.Warn("tool selection failed, using fallback", zap.Error(err))
		return []Tool{g.fallback}
	}

	parsed, ok := llm.ExtractJSON(out)
	if !ok {
		metrics.MalformedModelOutput.WithLabelValues("tool_select").Inc()
		g.logger.Warn("tool selection returned malformed output", zap.String("output", out))
		return []Tool{g.fallback}
	}

	var selected []Tool
	for _, name := range parsed.Get("tools").Array() {
		tool, known := g.tools[strings.ToLower(strings.TrimSpace(name.String()))]
		if !known {
			g.logger.Debug("dropping unknown tool", zap.String("tool", name.String()))
			continue
		}
		selected = append(selected, tool)
	}
	if len(selected) == 0 {
		return []Tool{g.fallback}
	}
	return selected
}
