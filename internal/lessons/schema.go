package lessons

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// lessonSchema is the JSON Schema every lesson source must satisfy before
// it is accepted into the catalog. Structural requirements only; the
// zero-steps rule lives here as minItems so malformed and empty lessons
// fail through the same gate.
var lessonSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"id": map[string]any{
			"type":      "string",
			"minLength": 1,
		},
		"title": map[string]any{
			"type": "string",
		},
		"description": map[string]any{
			"type": "string",
		},
		"steps": map[string]any{
			"type":     "array",
			"minItems": 1,
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name": map[string]any{
						"type": "string",
					},
					"goals": map[string]any{
						"type":  "array",
						"items": map[string]any{"type": "string"},
					},
					"best_practices": map[string]any{
						"type":  "array",
						"items": map[string]any{"type": "string"},
					},
					"prompts_for_user": map[string]any{
						"type":  "array",
						"items": map[string]any{"type": "string"},
					},
				},
				"additionalProperties": false,
			},
		},
	},
	"required":             []any{"id", "steps"},
	"additionalProperties": false,
}

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

// validateSource checks a decoded lesson document against the schema.
// doc must hold JSON-compatible values (maps keyed by string).
func validateSource(doc any) error {
	compileOnce.Do(func() {
		compiledSchema, compileErr = compileLessonSchema()
	})
	if compileErr != nil {
		return fmt.Errorf("compile lesson schema: %w", compileErr)
	}
	return compiledSchema.Validate(doc)
}

func compileLessonSchema() (*jsonschema.Schema, error) {
	// The compiler expects a parsed JSON value. Round-trip through
	// encoding/json to normalize the definition literal.
	raw, err := json.Marshal(lessonSchema)
	if err != nil {
		return nil, fmt.Errorf("marshal definition: %w", err)
	}
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse definition: %w", err)
	}

	c := jsonschema.NewCompiler()
	const url = "schema://lesson.json"
	if err := c.AddResource(url, parsed); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}
	return c.Compile(url)
}
