package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type GeminiClient struct {
	client      *genai.Client
	model       string
	temperature float32
}

func NewGeminiClient(ctx context.Context, apiKey, model string, temperature float32) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &GeminiClient{
		client:      client,
		model:       model,
		temperature: temperature,
	}, nil
}

func (c *GeminiClient) Generate(ctx context.Context, instructions, input string) (string, error) {
	model := c.client.GenerativeModel(c.model)
	model.SetTemperature(c.temperature)
	if instructions != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(instructions)}}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(input))
	if err != nil {
		return "", c.fail(err)
	}

	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		var b strings.Builder
		for _, part := range resp.Candidates[0].Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				b.WriteString(string(txt))
			}
		}
		if b.Len() > 0 {
			return b.String(), nil
		}
	}

	return "", c.fail(errors.New("no response candidates or content"))
}

func (c *GeminiClient) Close() error {
	return c.client.Close()
}

func (c *GeminiClient) fail(err error) error {
	return &GenerationError{Provider: "gemini", Model: c.model, Err: err}
}
