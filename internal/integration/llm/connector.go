package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/avast/retry-go/v4"
	"github.com/futig/vitos-assistant/internal/config"
	pkghttp "github.com/futig/vitos-assistant/pkg/http"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

// NewConnector builds the chat model behind the reasoning loop. DeepSeek speaks the
// OpenAI chat-completions protocol, so the langchaingo openai client is pointed at it.
func NewConnector(cfg config.LLMConfig, apiKey string, logger *zap.Logger) (*Connector, error) {
	client := pkghttp.NewClient(
		pkghttp.WithRequestTimeout(cfg.HTTP.RequestTimeout),
		pkghttp.WithConnTimeout(cfg.HTTP.ConnTimeout),
		pkghttp.WithResponseHeaderTimeout(cfg.HTTP.ResponseHeaderTimeout),
		pkghttp.WithRequestLogging(),
	)

	model, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(strings.TrimPrefix(apiKey, "Bearer ")),
		openai.WithModel(cfg.Model),
		openai.WithHTTPClient(client),
	)
	if err != nil {
		return nil, fmt.Errorf("create chat model: %w", err)
	}

	return &Connector{
		model:  model,
		config: cfg,
		logger: logger,
	}, nil
}

// Connector is an llms.Model that retries transient failures of the wrapped model
// and pins the configured temperature.
type Connector struct {
	model  llms.Model
	config config.LLMConfig
	logger *zap.Logger
}

var _ llms.Model = (*Connector)(nil)

// Wrap decorates an existing model with the retry policy. Used by tests and mocks.
func Wrap(model llms.Model, cfg config.LLMConfig, logger *zap.Logger) *Connector {
	return &Connector{model: model, config: cfg, logger: logger}
}

func (c *Connector) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := append([]llms.CallOption{llms.WithTemperature(c.config.Temperature)}, options...)

	var resp *llms.ContentResponse
	attempt := 0
	err := c.config.Retry.Do(ctx, func() error {
		attempt++
		var err error
		resp, err = c.model.GenerateContent(ctx, messages, opts...)
		return err
	}, retry.RetryIf(isRetryable), retry.OnRetry(func(n uint, err error) {
		ctxzap.Warn(ctx, "chat model call failed, retrying",
			zap.Uint("attempt", n+1),
			zap.Error(err),
		)
	}))
	if err != nil {
		return nil, fmt.Errorf("generate content after %d attempt(s): %w", attempt, err)
	}

	return resp, nil
}

func (c *Connector) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, c, prompt, options...)
}

// the openai client reports non-200 answers only as text
var statusCodePattern = regexp.MustCompile(`status code: (\d{3})`)

// isRetryable stops retrying on client errors (4xx other than 429) and cancellation.
// Transport failures and unrecognised errors are retried.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var httpErr *pkghttp.HTTPError
	if errors.As(err, &httpErr) {
		return pkghttp.IsRetryable(err)
	}

	if m := statusCodePattern.FindStringSubmatch(err.Error()); m != nil {
		code, _ := strconv.Atoi(m[1])
		return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
	}

	return true
}
