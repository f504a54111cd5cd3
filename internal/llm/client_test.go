package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/modelhub/internal/config"
)

func TestOpenAIGenerate(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"{\"ok\":true}"},"finish_reason":"stop"}]}`)
	}))
	defer srv.Close()

	c := NewOpenAIClient("sk-test", "gpt-test", srv.URL, 0.2, time.Second)
	out, err := c.Generate(context.Background(), "be terse", `{"turns":[]}`)
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, out)

	assert.Equal(t, "gpt-test", got["model"])
	messages, ok := got["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
	assert.Equal(t, "be terse", messages[0].(map[string]any)["content"])
	assert.Equal(t, "user", messages[1].(map[string]any)["role"])
}

func TestOpenAIGenerateError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"message":"slow down","type":"rate_limit"}}`)
	}))
	defer srv.Close()

	c := NewOpenAIClient("sk-test", "gpt-test", srv.URL, 0, time.Second)
	_, err := c.Generate(context.Background(), "", "hi")

	var gerr *GenerationError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, "openai", gerr.Provider)
	assert.Equal(t, "gpt-test", gerr.Model)
}

func TestOpenAIGenerateNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"c1","choices":[]}`)
	}))
	defer srv.Close()

	c := NewOpenAIClient("sk-test", "gpt-test", srv.URL, 0, time.Second)
	_, err := c.Generate(context.Background(), "", "hi")

	var gerr *GenerationError
	assert.ErrorAs(t, err, &gerr)
}

func TestClaudeGenerate(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"m1","type":"message","role":"assistant","model":"claude-test","content":[{"type":"text","text":"[1,2]"}],"stop_reason":"end_turn","usage":{"input_tokens":3,"output_tokens":2}}`)
	}))
	defer srv.Close()

	c := NewClaudeClient("key", "claude-test", srv.URL, 0, 0, time.Second)
	out, err := c.Generate(context.Background(), "system prompt", "transcript")
	require.NoError(t, err)
	assert.Equal(t, "[1,2]", out)
	assert.Equal(t, "system prompt", got["system"])
	assert.EqualValues(t, 4096, got["max_tokens"])
}

func TestNewClient(t *testing.T) {
	ctx := context.Background()

	c, err := NewClient(ctx, config.LLMConfig{Provider: "OpenAI", Model: "gpt"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIClient{}, c)

	c, err = NewClient(ctx, config.LLMConfig{Provider: "ollama", Model: "llama3"})
	require.NoError(t, err)
	require.IsType(t, &OpenAIClient{}, c)
	assert.Equal(t, "ollama", c.(*OpenAIClient).provider)

	c, err = NewClient(ctx, config.LLMConfig{Provider: "claude", Model: "claude"})
	require.NoError(t, err)
	assert.IsType(t, &ClaudeClient{}, c)

	_, err = NewClient(ctx, config.LLMConfig{Provider: "watson"})
	assert.EqualError(t, err, "unsupported llm provider: watson")
}
