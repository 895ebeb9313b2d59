package engine

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zombor/expense-tracker/internal/extraction"
)

// parseResultJSON parses the JSON object an engine returned.
// Models sometimes ignore instructions and wrap output in markdown or prose,
// so only the outermost object is decoded.
func parseResultJSON(text string) (*extraction.EngineResult, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSpace(text)

	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return nil, fmt.Errorf("no JSON object found in response")
	}

	endIdx := strings.LastIndex(text, "}")
	if endIdx == -1 || endIdx < startIdx {
		return nil, fmt.Errorf("invalid JSON object in response")
	}

	var result extraction.EngineResult
	if err := json.Unmarshal([]byte(text[startIdx:endIdx+1]), &result); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}

	result.Category = strings.TrimSpace(result.Category)
	result.Description = strings.TrimSpace(result.Description)
	result.PaymentMethod = strings.TrimSpace(result.PaymentMethod)

	return &result, nil
}
