package templates

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/agenthands/modelhub/internal/core/common"
	"github.com/agenthands/modelhub/internal/core/model"
	"github.com/agenthands/modelhub/internal/llm"
)

// SystemPrompt instructs the generation service to turn an analysis goal
// into a modular template.
const SystemPrompt = `You generate conversational analysis templates for an AI application.
Produce:
1) "description": a short, clear, operational restatement of the user's goal.
2) "template": a JSON object compatible with a modular analysis template:
   {
     "templateName": string,
     "modules": [
       { "key": string, "enabled": boolean, "config": object }
     ]
   }

Rules:
- Answer ONLY with valid UTF-8 JSON and no extra text.
- Do not invent business data: turn the intent into verifiable rules and parameters.
- If the intent is about detecting entities (brand, company, product), use the "entidades" module.
- If the intent validates a mention within a time window (e.g. at the start), add window rules in seconds to the module config.
- If the intent is a binary check (yes/no), return the minimum modules needed.
- Keep "key" to existing names: "sentiment", "emociones", "consentimiento", "entidades", etc.
- For "entidades", config must include at least:
  {
    "extraer": true,
    "tipos": [...],
    "reglas": {
      "debe_mencionarse": boolean,
      "ventana_inicial_segundos": number,
      "coincidencia": { "modo": "exacta|parcial|lemmatizada", "case_sensitive": boolean },
      "sinonimos": string[]
    }
  }
- Use sensible defaults when the user does not provide values.
- "templateName" must be short and describe the goal.`

const outputSchema = `{
	"type": "object",
	"required": ["description", "template"],
	"properties": {
		"description": {"type": "string"},
		"template": {
			"type": "object",
			"required": ["templateName", "modules"],
			"properties": {
				"templateName": {"type": "string", "minLength": 1},
				"modules": {
					"type": "array",
					"items": {
						"type": "object",
						"required": ["key", "enabled", "config"],
						"properties": {
							"key": {"type": "string", "minLength": 1},
							"enabled": {"type": "boolean"},
							"config": {"type": "object"}
						}
					}
				}
			}
		}
	}
}`

type Generator struct {
	LLM    llm.LLMClient
	schema *jsonschema.Schema
}

func NewGenerator(client llm.LLMClient) (*Generator, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("template.json", strings.NewReader(outputSchema)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("template.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Generator{LLM: client, schema: schema}, nil
}

// Generate asks for a template that fulfils goal. details is optional
// context passed through as JSON.
func (g *Generator) Generate(ctx context.Context, goal string, details map[string]any) (*model.GeneratedTemplate, error) {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("invalid details: %w", err)
	}
	input := fmt.Sprintf("User goal: %q\nOptional context (JSON): %s", goal, detailsJSON)

	response, err := g.LLM.Generate(ctx, SystemPrompt, input)
	if err != nil {
		return nil, fmt.Errorf("failed to generate template: %w", err)
	}

	value, err := common.Normalize(response)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode template: %w", err)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal template: %w", err)
	}
	if err := g.schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("template does not match schema: %w", err)
	}

	var out model.GeneratedTemplate
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode template: %w", err)
	}
	return &out, nil
}
