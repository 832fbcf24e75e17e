package planning

import (
	"encoding/json"
	"strings"
)

// ExtractJSONObject returns the text between the first '{' and the last '}'.
// The scan is greedy on purpose: prose before and after the object is dropped,
// nested objects stay intact.
func ExtractJSONObject(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return "", false
	}
	return text[start : end+1], true
}

// ParseResponse extracts and decodes the JSON object embedded in raw model output.
func ParseResponse(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, NewPlanParsingError("No JSON object found in AI response", raw, ErrEmptyResponse)
	}

	payload, ok := ExtractJSONObject(raw)
	if !ok {
		return nil, NewPlanParsingError("No JSON object found in AI response", raw, nil)
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(payload), &obj); err != nil {
		return nil, NewPlanParsingError("Failed to parse AI response as JSON", raw, err)
	}
	return obj, nil
}
