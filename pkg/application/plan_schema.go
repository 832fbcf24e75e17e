package application

import (
	"github.com/xeipuuv/gojsonschema"
)

const plannerSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["epicName", "features"],
  "properties": {
    "epicName": { "type": "string", "minLength": 1 },
    "epicDescription": { "type": "string" },
    "features": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["title"],
        "properties": {
          "title": { "type": "string", "minLength": 1 },
          "executionOrder": { "type": "integer", "minimum": 1 },
          "canParallelize": { "type": "boolean" },
          "parallelGroup": { "type": ["string", "null"] },
          "dependencies": { "type": "array", "items": { "type": "integer" } },
          "tasks": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["title"],
              "properties": {
                "title": { "type": "string", "minLength": 1 },
                "executionOrder": { "type": "integer", "minimum": 1 },
                "canParallelize": { "type": "boolean" },
                "dependencies": { "type": "array", "items": { "type": "integer" } }
              }
            }
          }
        }
      }
    }
  }
}`

var plannerSchemaLoader = gojsonschema.NewStringLoader(plannerSchemaJSON)

// schemaIssues checks a decoded planner response against the published shape.
// The result is advisory: the validator tolerates most of what is reported here.
func schemaIssues(doc map[string]any) []string {
	result, err := gojsonschema.Validate(plannerSchemaLoader, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return []string{err.Error()}
	}
	if result.Valid() {
		return nil
	}
	issues := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		issues = append(issues, desc.String())
	}
	return issues
}

// PlannerSchema returns the JSON Schema describing the model response shape.
func PlannerSchema() string {
	return plannerSchemaJSON
}
