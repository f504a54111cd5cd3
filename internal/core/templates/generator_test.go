package templates

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockLLMClient struct {
	Response     string
	Err          error
	Instructions string
	Input        string
}

func (m *MockLLMClient) Generate(_ context.Context, instructions, input string) (string, error) {
	m.Instructions, m.Input = instructions, input
	return m.Response, m.Err
}

func TestGenerate(t *testing.T) {
	mock := &MockLLMClient{Response: "```json\n" + `{
		"description": "Check the agent names the brand in the first 10 seconds",
		"template": {
			"templateName": "brand_mention",
			"modules": [
				{"key": "entidades", "enabled": true, "config": {"extraer": true, "tipos": ["marca"]}}
			]
		}
	}` + "\n```"}

	g, err := NewGenerator(mock)
	require.NoError(t, err)

	out, err := g.Generate(context.Background(), "brand in first seconds", map[string]any{"brand": "Acme"})
	require.NoError(t, err)

	assert.Equal(t, SystemPrompt, mock.Instructions)
	assert.Contains(t, mock.Input, `User goal: "brand in first seconds"`)
	assert.Contains(t, mock.Input, `{"brand":"Acme"}`)

	assert.Equal(t, "brand_mention", out.Template.TemplateName)
	require.Len(t, out.Template.Modules, 1)
	assert.Equal(t, "entidades", out.Template.Modules[0].Key)
	assert.True(t, out.Template.Modules[0].Enabled)
	assert.Equal(t, true, out.Template.Modules[0].Config["extraer"])
}

func TestGenerateNilDetails(t *testing.T) {
	mock := &MockLLMClient{Response: `{"description": "d", "template": {"templateName": "t", "modules": []}}`}
	g, err := NewGenerator(mock)
	require.NoError(t, err)

	_, err = g.Generate(context.Background(), "goal", nil)
	require.NoError(t, err)
	assert.Contains(t, mock.Input, "Optional context (JSON): null")
}

func TestGenerateRejectsInvalidShape(t *testing.T) {
	responses := []string{
		`{"description": "missing template"}`,
		`{"description": 1, "template": {"templateName": "t", "modules": []}}`,
		`{"description": "d", "template": {"templateName": "t", "modules": [{"key": "k", "enabled": "yes", "config": {}}]}}`,
		`{"description": "d", "template": {"templateName": "", "modules": []}}`,
	}
	for _, resp := range responses {
		t.Run(resp, func(t *testing.T) {
			g, err := NewGenerator(&MockLLMClient{Response: resp})
			require.NoError(t, err)

			_, err = g.Generate(context.Background(), "goal", nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "does not match schema")
		})
	}
}

func TestGenerateErrors(t *testing.T) {
	g, err := NewGenerator(&MockLLMClient{Err: errors.New("quota")})
	require.NoError(t, err)
	_, err = g.Generate(context.Background(), "goal", nil)
	assert.ErrorContains(t, err, "quota")

	g, err = NewGenerator(&MockLLMClient{Response: "sorry, no"})
	require.NoError(t, err)
	_, err = g.Generate(context.Background(), "goal", nil)
	assert.ErrorContains(t, err, "failed to parse template")
}
