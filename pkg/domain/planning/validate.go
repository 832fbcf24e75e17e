package planning

import (
	"fmt"
	"math"
	"strings"
)

// ValidatePlannerResponse narrows a decoded model response into a PlannerResponse.
//
// Identity fields (epic name, feature and task titles) and the features container
// are strict. Scheduling metadata is lenient: bad values fall back to defaults so a
// sloppy schedule degrades to "everything sequential" instead of failing the plan.
func ValidatePlannerResponse(raw map[string]any) (*PlannerResponse, error) {
	epicName, ok := nonEmptyString(raw, "epicName")
	if !ok {
		return nil, validationError("AI response is missing or has an invalid epicName")
	}

	rawFeatures, ok := raw["features"].([]any)
	if !ok || len(rawFeatures) == 0 {
		return nil, validationError("AI response has a missing or empty features array")
	}

	resp := &PlannerResponse{
		EpicName:        epicName,
		EpicDescription: stringValue(raw, "epicDescription"),
		Instructions:    instructionsFrom(raw),
		Features:        make([]PlannedFeature, 0, len(rawFeatures)),
	}

	for i, item := range rawFeatures {
		fm, _ := item.(map[string]any)
		feature, err := validateFeature(fm, i)
		if err != nil {
			return nil, err
		}
		resp.Features = append(resp.Features, feature)
	}

	return resp, nil
}

func validateFeature(fm map[string]any, index int) (PlannedFeature, error) {
	title, ok := nonEmptyString(fm, "title")
	if !ok {
		return PlannedFeature{}, validationError(fmt.Sprintf("feature %d is missing a title", index+1))
	}

	feature := PlannedFeature{
		Title:          title,
		Description:    stringValue(fm, "description"),
		ExecutionOrder: intOr(fm["executionOrder"], index+1),
		CanParallelize: boolValue(fm, "canParallelize"),
		ParallelGroup:  stringValue(fm, "parallelGroup"),
		Complexity:     ParseComplexity(stringValue(fm, "estimatedComplexity", "complexity")),
		Dependencies:   intSlice(fm["dependencies"]),
		Instructions:   instructionsFrom(fm),
	}

	rawTasks, _ := fm["tasks"].([]any)
	feature.Tasks = make([]PlannedTask, 0, len(rawTasks))
	for j, item := range rawTasks {
		tm, _ := item.(map[string]any)
		task, err := validateTask(tm, index, j)
		if err != nil {
			return PlannedFeature{}, err
		}
		feature.Tasks = append(feature.Tasks, task)
	}

	return feature, nil
}

func validateTask(tm map[string]any, featureIndex, taskIndex int) (PlannedTask, error) {
	title, ok := nonEmptyString(tm, "title")
	if !ok {
		return PlannedTask{}, validationError(fmt.Sprintf("task %d in feature %d is missing a title", taskIndex+1, featureIndex+1))
	}

	return PlannedTask{
		Title:          title,
		Description:    stringValue(tm, "description"),
		Complexity:     ParseComplexity(stringValue(tm, "estimatedComplexity", "complexity")),
		ExecutionOrder: intOr(tm["executionOrder"], taskIndex+1),
		CanParallelize: boolValue(tm, "canParallelize"),
		ParallelGroup:  stringValue(tm, "parallelGroup"),
		Dependencies:   intSlice(tm["dependencies"]),
		Validations:    validationsFrom(tm["validations"]),
		Instructions:   instructionsFrom(tm),
	}, nil
}

func validationError(msg string) *PlanParsingError {
	return &PlanParsingError{Message: msg, Hint: ParsingHint}
}

func instructionsFrom(m map[string]any) Instructions {
	return Instructions{
		AIInstructions:     stringValue(m, "aiInstructions"),
		AcceptanceCriteria: stringSlice(m["acceptanceCriteria"]),
		FilesInvolved:      stringSlice(m["filesInvolved"]),
		TechnicalNotes:     stringValue(m, "technicalNotes"),
		RiskLevel:          ParseRiskLevel(stringValue(m, "riskLevel")),
		EstimatedEffort:    ParseEstimatedEffort(stringValue(m, "estimatedEffort")),
	}
}

func validationsFrom(v any) []ValidationCheck {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	var checks []ValidationCheck
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		vt := ValidationType(stringValue(m, "type"))
		if !vt.IsValid() {
			continue
		}
		check := ValidationCheck{
			Type:          vt,
			Description:   stringValue(m, "description"),
			Command:       stringValue(m, "command"),
			FilePath:      stringValue(m, "filePath"),
			SearchPattern: stringValue(m, "searchPattern"),
			TestCommand:   stringValue(m, "testCommand"),
		}
		if n, ok := intValue(m["expectedExitCode"]); ok {
			check.ExpectedExitCode = &n
		}
		if n, ok := intValue(m["timeoutMs"]); ok {
			check.TimeoutMs = &n
		}
		checks = append(checks, check)
	}
	return checks
}

func nonEmptyString(m map[string]any, key string) (string, bool) {
	s, ok := m[key].(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// stringValue returns the first string value found under keys, or "".
func stringValue(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := m[key].(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func boolValue(m map[string]any, key string) bool {
	b, _ := m[key].(bool)
	return b
}

// intValue accepts only integral JSON numbers within the int32 range.
func intValue(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) || n < math.MinInt32 || n > math.MaxInt32 {
			return 0, false
		}
		return int(n), true
	case int:
		return intInRange(int64(n))
	case int64:
		return intInRange(n)
	default:
		return 0, false
	}
}

func intInRange(n int64) (int, bool) {
	if n < math.MinInt32 || n > math.MaxInt32 {
		return 0, false
	}
	return int(n), true
}

func intOr(v any, fallback int) int {
	if n, ok := intValue(v); ok {
		return n
	}
	return fallback
}

func intSlice(v any) []int {
	items, _ := v.([]any)
	out := make([]int, 0, len(items))
	for _, item := range items {
		if n, ok := intValue(item); ok {
			out = append(out, n)
		}
	}
	return out
}

func stringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		s, ok := item.(string)
		if !ok || strings.TrimSpace(s) == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}
