package llm

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/liushuangls/go-anthropic/v2"
)

type ClaudeClient struct {
	client      *anthropic.Client
	model       string
	temperature float32
	maxTokens   int
}

func NewClaudeClient(apiKey, model, baseURL string, temperature float32, maxTokens int, timeout time.Duration) *ClaudeClient {
	var opts []anthropic.ClientOption
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(baseURL))
	}
	if timeout > 0 {
		opts = append(opts, anthropic.WithHTTPClient(&http.Client{Timeout: timeout}))
	}
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	return &ClaudeClient{
		client:      anthropic.NewClient(apiKey, opts...),
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

func (c *ClaudeClient) Generate(ctx context.Context, instructions, input string) (string, error) {
	temperature := c.temperature
	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:  anthropic.Model(c.model),
		System: instructions,
		Messages: []anthropic.Message{
			{
				Role: anthropic.RoleUser,
				Content: []anthropic.MessageContent{
					anthropic.NewTextMessageContent(input),
				},
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: &temperature,
	})
	if err != nil {
		return "", c.fail(err)
	}

	if len(resp.Content) > 0 && resp.Content[0].Text != nil {
		return *resp.Content[0].Text, nil
	}
	return "", c.fail(errors.New("no response content"))
}

func (c *ClaudeClient) fail(err error) error {
	return &GenerationError{Provider: "claude", Model: c.model, Err: err}
}
