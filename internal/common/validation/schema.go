package validation

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"roi-workers/pkg/registry"
)

//go:embed schemas/roi-input.json
var embeddedROIInputSchema []byte

// EmbeddedROIInputSchema returns the bundled estimator input schema.
func EmbeddedROIInputSchema() []byte {
	out := make([]byte, len(embeddedROIInputSchema))
	copy(out, embeddedROIInputSchema)
	return out
}

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Validator checks documents against a compiled JSON Schema.
type Validator struct {
	schema *gojsonschema.Schema
	source string
}

// NewValidator compiles schemaJSON once; the result is safe for concurrent use.
func NewValidator(schemaJSON []byte) (*Validator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Validator{schema: schema, source: "custom"}, nil
}

// NewROIInputValidator uses the registry's input schema for taskType and falls back
// to the embedded schema when the registry is nil, lacks the activity or carries a
// schema that does not compile.
func NewROIInputValidator(reg *registry.ActivityRegistry, taskType string) *Validator {
	if reg != nil {
		if raw, err := reg.InputSchemaJSON(taskType); err == nil {
			if v, err := NewValidator(raw); err == nil {
				v.source = "registry"
				return v
			}
		}
	}

	v, err := NewValidator(embeddedROIInputSchema)
	if err != nil {
		// the embedded schema is covered by tests
		panic(fmt.Sprintf("embedded ROI input schema: %v", err))
	}
	v.source = "embedded"
	return v
}

// Source reports where the schema came from: registry, embedded or custom.
func (v *Validator) Source() string {
	return v.source
}

// Validate checks a decoded JSON document (typically job variables).
func (v *Validator) Validate(document interface{}) (*ValidationResult, error) {
	result, err := v.schema.Validate(gojsonschema.NewGoLoader(document))
	if err != nil {
		return nil, fmt.Errorf("validate document: %w", err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, re := range result.Errors() {
		out.Errors = append(out.Errors, toValidationError(re))
	}
	sort.SliceStable(out.Errors, func(i, j int) bool {
		return out.Errors[i].Field < out.Errors[j].Field
	})
	return out, nil
}

func toValidationError(re gojsonschema.ResultError) ValidationError {
	field := re.Field()
	if re.Type() == "required" {
		if prop, ok := re.Details()["property"].(string); ok {
			field = prop
		}
	}
	return ValidationError{
		Field:   field,
		Message: re.Description(),
		Code:    strings.ToUpper(re.Type()),
	}
}

// Messages flattens the errors into "field: message" strings.
func (r *ValidationResult) Messages() []string {
	out := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		out[i] = e.Field + ": " + e.Message
	}
	return out
}
