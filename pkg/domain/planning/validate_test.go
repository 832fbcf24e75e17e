package planning

import (
	"errors"
	"testing"
)

func decode(t *testing.T, raw string) map[string]any {
	t.Helper()
	obj, err := ParseResponse(raw)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	return obj
}

func TestValidatePlannerResponse_Full(t *testing.T) {
	raw := decode(t, `{
		"epicName": "  Auth  ",
		"epicDescription": "Login and sessions",
		"riskLevel": "high",
		"features": [
			{
				"title": "Login",
				"executionOrder": 1,
				"canParallelize": true,
				"parallelGroup": "core",
				"estimatedComplexity": "complex",
				"acceptanceCriteria": ["works", 3, "  "],
				"tasks": [
					{"title": "Form", "executionOrder": 1, "dependencies": [], "validations": [
						{"type": "command", "description": "tests", "command": "go test ./...", "expectedExitCode": 0},
						{"type": "lint", "description": "ignored"}
					]},
					{"title": "API", "executionOrder": 2, "dependencies": [1, "x", 1.5]}
				]
			},
			{"title": "Sessions", "dependencies": [1]}
		]
	}`)

	resp, err := ValidatePlannerResponse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.EpicName != "Auth" {
		t.Errorf("expected trimmed epic name, got %q", resp.EpicName)
	}
	if resp.RiskLevel != RiskHigh {
		t.Errorf("expected epic risk high, got %q", resp.RiskLevel)
	}
	if len(resp.Features) != 2 || resp.TaskCount() != 2 {
		t.Fatalf("expected 2 features and 2 tasks, got %d/%d", len(resp.Features), resp.TaskCount())
	}

	login := resp.Features[0]
	if login.Complexity != ComplexityComplex || login.ParallelGroup != "core" || !login.CanParallelize {
		t.Errorf("unexpected login scheduling: %+v", login)
	}
	if len(login.AcceptanceCriteria) != 1 || login.AcceptanceCriteria[0] != "works" {
		t.Errorf("expected non-string and blank criteria dropped, got %v", login.AcceptanceCriteria)
	}

	form := login.Tasks[0]
	if len(form.Validations) != 1 {
		t.Fatalf("expected unknown validation type dropped, got %d", len(form.Validations))
	}
	if form.Validations[0].ExpectedExitCode == nil || *form.Validations[0].ExpectedExitCode != 0 {
		t.Error("expected exit code 0 to be kept")
	}

	api := login.Tasks[1]
	if len(api.Dependencies) != 1 || api.Dependencies[0] != 1 {
		t.Errorf("expected only integral dependencies kept, got %v", api.Dependencies)
	}

	sessions := resp.Features[1]
	if sessions.ExecutionOrder != 2 {
		t.Errorf("expected default execution order 2, got %d", sessions.ExecutionOrder)
	}
	if sessions.Complexity != DefaultComplexity {
		t.Errorf("expected default complexity, got %q", sessions.Complexity)
	}
	if sessions.Tasks == nil || len(sessions.Tasks) != 0 {
		t.Errorf("expected empty task list, got %v", sessions.Tasks)
	}
}

func TestValidatePlannerResponse_Lenient(t *testing.T) {
	raw := decode(t, `{
		"epicName": "E",
		"features": [{
			"title": "F",
			"executionOrder": "first",
			"canParallelize": "yes",
			"dependencies": "1",
			"complexity": "galactic",
			"tasks": [{"title": "T", "executionOrder": 2.5}]
		}]
	}`)

	resp, err := ValidatePlannerResponse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f := resp.Features[0]
	if f.ExecutionOrder != 1 {
		t.Errorf("expected fallback order 1, got %d", f.ExecutionOrder)
	}
	if f.CanParallelize {
		t.Error("expected non-boolean canParallelize to be false")
	}
	if len(f.Dependencies) != 0 {
		t.Errorf("expected non-array dependencies to be empty, got %v", f.Dependencies)
	}
	if f.Complexity != DefaultComplexity {
		t.Errorf("expected default complexity, got %q", f.Complexity)
	}
	if f.Tasks[0].ExecutionOrder != 1 {
		t.Errorf("expected fractional order to fall back to position, got %d", f.Tasks[0].ExecutionOrder)
	}
}

func TestValidatePlannerResponse_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"missing epic name", `{"features":[{"title":"F"}]}`, "AI response is missing or has an invalid epicName"},
		{"blank epic name", `{"epicName":"   ","features":[{"title":"F"}]}`, "AI response is missing or has an invalid epicName"},
		{"numeric epic name", `{"epicName":7,"features":[{"title":"F"}]}`, "AI response is missing or has an invalid epicName"},
		{"missing features", `{"epicName":"E"}`, "AI response has a missing or empty features array"},
		{"empty features", `{"epicName":"E","features":[]}`, "AI response has a missing or empty features array"},
		{"features not array", `{"epicName":"E","features":{}}`, "AI response has a missing or empty features array"},
		{"feature without title", `{"epicName":"E","features":[{"title":"A"},{"description":"x"}]}`, "feature 2 is missing a title"},
		{"feature not object", `{"epicName":"E","features":["A"]}`, "feature 1 is missing a title"},
		{"task without title", `{"epicName":"E","features":[{"title":"A","tasks":[{"title":"t"},{"title":""}]}]}`, "task 2 in feature 1 is missing a title"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidatePlannerResponse(decode(t, tt.raw))
			var perr *PlanParsingError
			if !errors.As(err, &perr) {
				t.Fatalf("expected PlanParsingError, got %v", err)
			}
			if perr.Message != tt.want {
				t.Errorf("message = %q, want %q", perr.Message, tt.want)
			}
		})
	}
}

func TestValidatePlannerResponse_OutOfRangeNumbers(t *testing.T) {
	resp, err := ValidatePlannerResponse(decode(t, `{
		"epicName": "E",
		"features": [
			{"title": "A", "executionOrder": 1e300, "dependencies": [1e300, -1e12, 2], "tasks": [
				{"title": "t", "executionOrder": 4294967296, "validations": [
					{"type": "command", "command": "make", "expectedExitCode": 1e20}
				]}
			]}
		]
	}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f := resp.Features[0]
	if f.ExecutionOrder != 1 {
		t.Errorf("expected position fallback for huge order, got %d", f.ExecutionOrder)
	}
	if len(f.Dependencies) != 1 || f.Dependencies[0] != 2 {
		t.Errorf("expected out-of-range dependencies dropped, got %v", f.Dependencies)
	}
	task := f.Tasks[0]
	if task.ExecutionOrder != 1 {
		t.Errorf("expected position fallback for task order, got %d", task.ExecutionOrder)
	}
	if task.Validations[0].ExpectedExitCode != nil {
		t.Errorf("expected huge exit code dropped, got %d", *task.Validations[0].ExpectedExitCode)
	}
}
