package jsonout

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// summaryShapeSchema is a loose structural check over the summary's top-level
// sections. It only constrains types of sections when they are present; the
// recovery parser's is-object check stays the sole hard gate, so an imperfect
// but usable summary is never rejected here.
var summaryShapeSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"patient_demographics": map[string]any{"type": "object"},
		"vital_signs":          map[string]any{"type": "object"},
		"chief_complaints":     map[string]any{"type": "object"},
		"medical_history":      map[string]any{"type": "object"},
		"symptoms_timeline":    map[string]any{"type": "array"},
		"lab_results":          map[string]any{"type": "object"},
		"diagnosis":            map[string]any{"type": "object"},
		"medications":          map[string]any{"type": "object"},
		"treatment_plan":       map[string]any{"type": "object"},
		"follow_up_plan":       map[string]any{"type": "object"},
		"medical_entities":     map[string]any{"type": "object"},
		"visualizations":       map[string]any{"type": "array"},
	},
}

var compiledSummaryShape = mustCompile(summaryShapeSchema)

// CheckSummaryShape validates a parsed summary against the loose top-level
// schema. Callers log the returned error as a warning; it is advisory only.
func CheckSummaryShape(obj map[string]any) error {
	// Round-trip so nested values are plain JSON types for the validator.
	b, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("unmarshal summary: %w", err)
	}
	if err := compiledSummaryShape.Validate(v); err != nil {
		return fmt.Errorf("summary does not match expected shape: %w", err)
	}
	return nil
}

func mustCompile(schemaMap map[string]any) *jsonschema.Schema {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		panic(err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("summary.json", bytes.NewReader(b)); err != nil {
		panic(err)
	}
	sch, err := compiler.Compile("summary.json")
	if err != nil {
		panic(err)
	}
	return sch
}
