// Package llm provides the language-model capability consumed by every
// pipeline stage: text in, free text or a JSON-shaped value out. The core
// never depends on a specific model identity, only on this contract.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/corpquery/corpquery/internal/config"
	"github.com/corpquery/corpquery/internal/metrics"
)

// ErrEmptyCompletion is returned when the model produced no usable text.
var ErrEmptyCompletion = errors.New("llm: empty completion")

// Request is one model invocation. Purpose labels the call for metrics and
// logs; JSONMode asks the provider for constrained JSON-object decoding.
type Request struct {
	Purpose  string
	System   string
	User     string
	JSONMode bool
}

// Model is the text-in/text-out capability contract.
type Model interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	cfg     config.ModelConfig
	api     openai.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewClient builds a client from the model config. Calls share one rate
// limiter so a retry storm cannot exhaust the provider quota.
func NewClient(cfg config.ModelConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RPS == 0 {
		cfg.RPS = 2
	}
	if cfg.Burst == 0 {
		cfg.Burst = 4
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Client{
		cfg:     cfg,
		api:     openai.NewClient(opts...),
		limiter: rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
		logger:  logger,
	}
}

// Complete runs one chat completion and returns the trimmed assistant text.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.cfg.Name),
		Temperature: openai.Float(0),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.User),
		},
	}
	if req.JSONMode {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	start := time.Now()
	resp, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		metrics.ModelCalls.WithLabelValues(req.Purpose, "error").Inc()
		return "", fmt.Errorf("chat completion (%s): %w", req.Purpose, err)
	}
	if len(resp.Choices) == 0 {
		metrics.ModelCalls.WithLabelValues(req.Purpose, "empty").Inc()
		return "", ErrEmptyCompletion
	}

	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		metrics.ModelCalls.WithLabelValues(req.Purpose, "empty").Inc()
		return "", ErrEmptyCompletion
	}

	metrics.ModelCalls.WithLabelValues(req.Purpose, "ok").Inc()
	c.logger.Debug("model call completed",
		zap.String("purpose", req.Purpose),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("chars", len(out)),
	)
	return out, nil
}
