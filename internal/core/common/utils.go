package common

import (
	"encoding/json"
	"fmt"
)

// ParseJSON cleans and unmarshals an LLM response into a type T.
// It handles common LLM quirks like surrounding markdown, extra text or
// unquoted keys. Responses holding several JSON values are rejected.
func ParseJSON[T any](response string) (T, error) {
	var zero T

	values, err := normalize(response)
	if err != nil {
		return zero, err
	}
	if len(values) != 1 {
		return zero, fmt.Errorf("expected a single JSON value, found %d", len(values))
	}

	data, err := json.Marshal(values[0])
	if err != nil {
		return zero, fmt.Errorf("failed to re-encode JSON: %w", err)
	}

	var result T
	if err := json.Unmarshal(data, &result); err != nil {
		return zero, fmt.Errorf("failed to unmarshal JSON: %w\nData: %s", err, data)
	}
	return result, nil
}
