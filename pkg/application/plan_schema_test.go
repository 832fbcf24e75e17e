package application

import "testing"

func TestSchemaIssues(t *testing.T) {
	valid := map[string]any{
		"epicName": "E",
		"features": []any{map[string]any{"title": "F", "executionOrder": float64(1)}},
	}
	if issues := schemaIssues(valid); len(issues) != 0 {
		t.Errorf("expected no issues, got %v", issues)
	}

	lenient := map[string]any{
		"epicName": "E",
		"features": []any{map[string]any{"title": "F", "executionOrder": "first"}},
	}
	if issues := schemaIssues(lenient); len(issues) == 0 {
		t.Error("expected the schema to flag a non-integer executionOrder")
	}
}
