package openai

import (
	"context"
	"errors"
	"strings"

	openaiapi "github.com/sashabaranov/go-openai"

	"lawgpt/internal/usecase/chat"
)

// ErrSummaryUnsupported is returned for document intents; only the webhook
// service can summarize uploads.
var ErrSummaryUnsupported = errors.New("openai backend does not summarize documents")

type Config struct {
	Token               string
	BaseURL             string
	Model               string
	SystemPrompt        string
	MaxCompletionTokens int
}

type Client struct {
	api *openaiapi.Client
	cfg Config
}

func NewClient(cfg Config) *Client {
	apiCfg := openaiapi.DefaultConfig(cfg.Token)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	return &Client{
		api: openaiapi.NewClientWithConfig(apiCfg),
		cfg: cfg,
	}
}

func (c *Client) Query(ctx context.Context, message string) (chat.Reply, error) {
	messages := make([]openaiapi.ChatCompletionMessage, 0, 2)
	if strings.TrimSpace(c.cfg.SystemPrompt) != "" {
		messages = append(messages, openaiapi.ChatCompletionMessage{
			Role:    openaiapi.ChatMessageRoleSystem,
			Content: c.cfg.SystemPrompt,
		})
	}
	messages = append(messages, openaiapi.ChatCompletionMessage{
		Role:    openaiapi.ChatMessageRoleUser,
		Content: message,
	})

	resp, err := c.api.CreateChatCompletion(ctx, openaiapi.ChatCompletionRequest{
		Model:               c.cfg.Model,
		MaxCompletionTokens: c.cfg.MaxCompletionTokens,
		Stream:              false,
		Messages:            messages,
	})
	if err != nil {
		return chat.Reply{}, err
	}

	if len(resp.Choices) == 0 {
		return chat.Reply{}, errors.New("openai returned empty response")
	}

	return chat.Reply{Content: resp.Choices[0].Message.Content}, nil
}

func (c *Client) Summarize(ctx context.Context, doc chat.Document) (chat.Reply, error) {
	return chat.Reply{}, ErrSummaryUnsupported
}
