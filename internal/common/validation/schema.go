package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/xeipuuv/gojsonschema"

	apperrors "cafe-directory/internal/common/errors"
)

// JSONSchema defines the structure of a request body schema.
type JSONSchema struct {
	Type                 string              `json:"type"`
	Properties           map[string]Property `json:"properties"`
	Required             []string            `json:"required,omitempty"`
	AdditionalProperties bool                `json:"additionalProperties"`
	MinProperties        *int                `json:"minProperties,omitempty"`
}

type Property struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
	Pattern     *string  `json:"pattern,omitempty"`
	MinLength   *int     `json:"minLength,omitempty"`
	MaxLength   *int     `json:"maxLength,omitempty"`
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

// Schema is a compiled JSONSchema.
type Schema struct {
	name   string
	schema *gojsonschema.Schema
}

// Compile builds a reusable validator for s.
func Compile(name string, s JSONSchema) (*Schema, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(s))
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return &Schema{name: name, schema: compiled}, nil
}

// MustCompile is Compile for package-level schemas.
func MustCompile(name string, s JSONSchema) *Schema {
	compiled, err := Compile(name, s)
	if err != nil {
		panic(err)
	}
	return compiled
}

// Validate checks a raw JSON document.
func (s *Schema) Validate(document []byte) (*ValidationResult, error) {
	result, err := s.schema.Validate(gojsonschema.NewBytesLoader(document))
	if err != nil {
		return nil, err
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, re := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   fieldOf(re),
			Message: re.Description(),
			Code:    re.Type(),
		})
	}
	sort.SliceStable(out.Errors, func(i, j int) bool {
		return out.Errors[i].Field < out.Errors[j].Field
	})
	return out, nil
}

// fieldOf names the offending property. Missing and unexpected properties are
// reported on the property rather than the enclosing object.
func fieldOf(re gojsonschema.ResultError) string {
	if field := re.Field(); field != gojsonschema.STRING_ROOT_SCHEMA_PROPERTY {
		return field
	}
	if prop, ok := re.Details()["property"].(string); ok && prop != "" {
		return prop
	}
	return "body"
}

// FieldErrors converts the result for a VALIDATION_FAILED response.
func (r *ValidationResult) FieldErrors() []apperrors.FieldError {
	fields := make([]apperrors.FieldError, len(r.Errors))
	for i, e := range r.Errors {
		fields[i] = apperrors.FieldError{Field: e.Field, Message: e.Message}
	}
	return fields
}

// DecodeBody reads a JSON request body, validates it against s and unmarshals
// it into dst. Failures are returned as standard errors ready for the boundary.
func DecodeBody(body io.Reader, s *Schema, dst interface{}) error {
	raw, err := io.ReadAll(body)
	if err != nil {
		return apperrors.NewInvalidRequestBodyError(err)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || !json.Valid(raw) {
		return apperrors.NewInvalidRequestBodyError(fmt.Errorf("%s: body is not valid JSON", s.name))
	}

	result, err := s.Validate(raw)
	if err != nil {
		return apperrors.NewInvalidRequestBodyError(err)
	}
	if !result.Valid {
		return apperrors.NewValidationError("Invalid request body", result.FieldErrors())
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return apperrors.NewInvalidRequestBodyError(err)
	}
	return nil
}

// Len returns a pointer to n for MinLength/MaxLength/MinProperties.
func Len(n int) *int {
	return &n
}
