package ai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/logger"
	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/request"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"
)

const (
	// DefaultOpenAIModel is the default model to use
	DefaultOpenAIModel = "gpt-4o-mini"
	// DefaultOpenAIBaseURL is the default OpenAI API base URL
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	// DefaultTimeout is the default timeout for a reorder call
	DefaultTimeout = 4 * time.Second

	// ErrNoChoicesInResponse is returned when the API response has no choices
	ErrNoChoicesInResponse = "no choices in response"
)

// OpenAIProvider implements Reorderer using OpenAI's chat completions API
type OpenAIProvider struct {
	client    openai.Client
	model     string
	timeout   time.Duration
	logger    *zap.Logger
	debugMode bool
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(apiKey string, model string) *OpenAIProvider {
	return NewOpenAIProviderWithLogger(apiKey, DefaultOpenAIBaseURL, model, DefaultTimeout, nil, false)
}

// NewOpenAIProviderWithLogger creates a new OpenAI provider with logger support.
// Calls are never retried; timeout bounds each call end to end.
func NewOpenAIProviderWithLogger(apiKey, baseURL, model string, timeout time.Duration, log *zap.Logger, debugMode bool) *OpenAIProvider {
	if model == "" {
		model = DefaultOpenAIModel
	}
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(&http.Client{Timeout: timeout}),
		option.WithMaxRetries(0),
	)

	return &OpenAIProvider{
		client:    client,
		model:     model,
		timeout:   timeout,
		logger:    logger.OrNop(log),
		debugMode: debugMode,
	}
}

// Reorder asks the model to reorder req's quests and validates the answer.
func (p *OpenAIProvider) Reorder(ctx context.Context, req ReorderRequest) (*Reordering, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	prompt, err := BuildReorderPrompt(req)
	if err != nil {
		return nil, err
	}

	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(ReorderSystemPrompt),
			openai.UserMessage(prompt),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}

	requestID := request.RequestID(ctx)
	if p.debugMode {
		p.logger.Debug("llm_api_request",
			zap.String("operation", "reorder_quests"),
			zap.String("model", p.model),
			zap.Int("prompt_length", len(prompt)),
			zap.String("prompt_preview", logger.SanitizeDebugContent(prompt)),
			zap.String("request_id", requestID),
		)
	}

	start := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, params)
	latency := time.Since(start)
	if err != nil {
		if p.debugMode {
			p.logger.Debug("llm_api_error",
				zap.String("operation", "reorder_quests"),
				zap.String("model", p.model),
				zap.Error(err),
				zap.String("request_id", requestID),
				zap.Duration("latency_ms", latency),
			)
		}
		if apiErr := ExtractAPIError(err); apiErr != nil {
			return nil, fmt.Errorf("failed to reorder quests: %w", apiErr)
		}
		return nil, fmt.Errorf("failed to reorder quests: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, &MalformedAIResponseError{Reason: ErrNoChoicesInResponse}
	}

	content := resp.Choices[0].Message.Content
	if p.debugMode {
		p.logger.Debug("llm_api_response",
			zap.String("operation", "reorder_quests"),
			zap.String("model", p.model),
			zap.Int("response_length", len(content)),
			zap.String("response_preview", logger.SanitizeDebugContent(content)),
			zap.String("request_id", requestID),
			zap.Duration("latency_ms", latency),
		)
	}

	return ParseReorderResponse(content, req.Keys())
}

// RegisterOpenAI registers the OpenAI provider with the registry
func RegisterOpenAI(registry *ProviderRegistry, log *zap.Logger, debugMode bool) {
	registry.Register("openai", func(config map[string]string) (Reorderer, error) {
		apiKey, ok := config["api_key"]
		if !ok || apiKey == "" {
			return nil, fmt.Errorf("openai api_key is required")
		}

		var timeout time.Duration
		if raw := config["timeout"]; raw != "" {
			d, err := time.ParseDuration(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid openai timeout %q: %w", raw, err)
			}
			timeout = d
		}

		return NewOpenAIProviderWithLogger(apiKey, config["base_url"], config["model"], timeout, log, debugMode), nil
	})
}
