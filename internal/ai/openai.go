package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/edgard/rojitobot/internal/config"
)

// OpenAIClient generates replies with an OpenAI compatible chat completions API.
type OpenAIClient struct {
	client      *openai.Client
	log         *slog.Logger
	model       string
	temperature float32
}

// NewOpenAIClient creates an OpenAI client. A non-empty BaseURL points it at
// any compatible endpoint.
func NewOpenAIClient(cfg config.AIConfig, log *slog.Logger) (*OpenAIClient, error) {
	if cfg.OpenAI.APIKey == "" {
		return nil, errors.New("openai API key is required")
	}

	clientCfg := openai.DefaultConfig(cfg.OpenAI.APIKey)
	if cfg.OpenAI.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.OpenAI.BaseURL, "/")
	}

	logger := log.With("component", "openai_client")
	logger.Info("OpenAI client initialized successfully", "model", cfg.OpenAI.Model)
	return &OpenAIClient{
		client:      openai.NewClientWithConfig(clientCfg),
		log:         logger,
		model:       cfg.OpenAI.Model,
		temperature: cfg.Temperature,
	}, nil
}

// Name implements Generator.
func (c *OpenAIClient) Name() string { return "openai" }

// Generate implements Generator. Chat completions have no search tool, so
// WebSearch is ignored.
func (c *OpenAIClient) Generate(ctx context.Context, req *Request) (string, error) {
	c.log.DebugContext(ctx, "Generating reply", "message_count", len(req.Messages), "language", req.LanguageHint)

	msgs := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.SystemInstruction != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.SystemInstruction})
	}
	for _, m := range req.Messages {
		role := openai.ChatMessageRoleUser
		if m.Role == RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	temperature := c.temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    msgs,
		Temperature: temperature,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			c.log.ErrorContext(ctx, "OpenAI API returned an error", "status", apiErr.HTTPStatusCode, "type", apiErr.Type, "error", apiErr.Message)
		} else {
			c.log.ErrorContext(ctx, "OpenAI API call failed", "error", err)
		}
		return "", fmt.Errorf("openai API call failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", ErrEmptyResponse)
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("%w: finish reason %s", ErrEmptyResponse, resp.Choices[0].FinishReason)
	}
	return text, nil
}
