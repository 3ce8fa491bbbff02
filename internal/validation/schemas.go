package validation

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// Ingestion payload schemas. They gate raw request bodies before binding so
// malformed documents fail with field-level errors instead of bind errors.
const productSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["id", "name", "category", "price"],
	"properties": {
		"id": {"type": "string", "minLength": 1},
		"name": {"type": "string", "minLength": 1, "maxLength": 500},
		"description": {"type": "string", "maxLength": 10000},
		"category": {"type": "string", "minLength": 1},
		"subcategory": {"type": "string"},
		"brand": {"type": "string"},
		"price": {"type": "number", "minimum": 0},
		"tags": {"type": "array", "items": {"type": "string"}},
		"attributes": {"type": "object"},
		"embedding": {"type": "array", "items": {"type": "number"}},
		"popularity": {"type": "number", "minimum": 0, "maximum": 100},
		"rating": {"type": "number", "minimum": 0, "maximum": 5},
		"review_count": {"type": "integer", "minimum": 0}
	}
}`

const interactionSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["user_id", "product_id", "type"],
	"properties": {
		"user_id": {"type": "string", "minLength": 1},
		"product_id": {"type": "string", "minLength": 1},
		"type": {"type": "string", "enum": ["view", "click", "cart", "purchase"]},
		"metadata": {"type": "object"}
	}
}`

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (ve ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ve.Field, ve.Message)
}

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// SchemaValidator validates ingestion payloads against embedded JSON schemas.
type SchemaValidator struct {
	schemas map[string]*gojsonschema.Schema
}

func NewSchemaValidator() (*SchemaValidator, error) {
	sources := map[string]string{
		"product":     productSchema,
		"interaction": interactionSchema,
	}

	sv := &SchemaValidator{schemas: make(map[string]*gojsonschema.Schema, len(sources))}
	for name, source := range sources {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(source))
		if err != nil {
			return nil, fmt.Errorf("failed to compile %s schema: %w", name, err)
		}
		sv.schemas[name] = schema
	}
	return sv, nil
}

// ValidateProduct validates one raw product document.
func (sv *SchemaValidator) ValidateProduct(raw []byte) *ValidationResult {
	return sv.validate("product", raw)
}

// ValidateInteraction validates one raw interaction document.
func (sv *SchemaValidator) ValidateInteraction(raw []byte) *ValidationResult {
	return sv.validate("interaction", raw)
}

func (sv *SchemaValidator) validate(name string, raw []byte) *ValidationResult {
	schema := sv.schemas[name]

	result, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return &ValidationResult{
			Valid:  false,
			Errors: []ValidationError{{Field: "body", Message: err.Error()}},
		}
	}

	if result.Valid() {
		return &ValidationResult{Valid: true}
	}

	out := &ValidationResult{Valid: false}
	for _, resultErr := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   resultErr.Field(),
			Message: resultErr.Description(),
		})
	}
	return out
}
