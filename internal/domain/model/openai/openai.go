// Package openai adapts any OpenAI-compatible chat completion endpoint to the
// model.Provider interface.
package openai

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/sashabaranov/go-openai"

	"chopchop-server-go/internal/platform/config"
	"chopchop-server-go/internal/platform/errors"
	"chopchop-server-go/internal/platform/logging"
	"chopchop-server-go/internal/platform/observability"

	"chopchop-server-go/internal/domain/model"
)

// thinkBlock matches reasoning traces some models emit before the answer.
var thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)

type Provider struct {
	client    *openai.Client
	modelName string
	logger    *logging.Logger
}

func New(cfg *config.ModelConfig, logger *logging.Logger) (*Provider, error) {
	const op = "openai.New"

	if cfg.APIKey == "" {
		return nil, errors.New(errors.KindConfig, op, "model api key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Provider{
		client:    openai.NewClientWithConfig(clientConfig),
		modelName: cfg.ModelName,
		logger:    logger,
	}, nil
}

// Converse sends one completion request and returns the full reply text.
func (p *Provider) Converse(ctx context.Context, req model.Request) (string, error) {
	const op = "openai.Converse"

	ctx, endSpan := observability.StartSpan(ctx, "model", "converse")

	messages := make([]openai.ChatCompletionMessage, 0, len(req.History)+2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	for _, msg := range req.History {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}
	messages = append(messages, p.userMessage(req))

	p.logger.DebugTag("MODEL", "completion request: model=%s turns=%d image=%v max_tokens=%d",
		p.modelName, len(messages), req.Image != nil, req.Params.MaxTokens)

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.modelName,
		Messages:    messages,
		MaxTokens:   req.Params.MaxTokens,
		Temperature: float32(req.Params.Temperature),
		TopP:        float32(req.Params.TopP),
	})
	if err != nil {
		endSpan(err)
		return "", errors.Wrap(errors.KindUpstream, op, "chat completion", err)
	}
	endSpan(nil)

	if len(resp.Choices) == 0 {
		return "", errors.New(errors.KindUpstream, op, "empty completion response")
	}

	content := stripThinkBlocks(resp.Choices[0].Message.Content)
	observability.RecordMetric(ctx, "model_completion_chars", float64(len(content)),
		map[string]string{"model": p.modelName})
	return content, nil
}

// userMessage builds the final user turn, multimodal when an image rides
// along.
func (p *Provider) userMessage(req model.Request) openai.ChatCompletionMessage {
	if req.Image == nil {
		return openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: req.Text,
		}
	}

	encoded := base64.StdEncoding.EncodeToString(req.Image.Data)
	return openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser,
		MultiContent: []openai.ChatMessagePart{
			{
				Type: openai.ChatMessagePartTypeText,
				Text: req.Text,
			},
			{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL: fmt.Sprintf("data:image/%s;base64,%s", req.Image.Format, encoded),
				},
			},
		},
	}
}

func stripThinkBlocks(content string) string {
	return strings.TrimSpace(thinkBlock.ReplaceAllString(content, ""))
}
