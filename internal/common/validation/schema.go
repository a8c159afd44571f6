package validation

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"movie-dropoff/internal/models"
)

type JSONSchema struct {
	Schema               string              `json:"$schema,omitempty"`
	Title                string              `json:"title,omitempty"`
	Type                 string              `json:"type"`
	Properties           map[string]Property `json:"properties"`
	Required             []string            `json:"required,omitempty"`
	AdditionalProperties bool                `json:"additionalProperties"`
}

type Property struct {
	Type        string      `json:"type"`
	Description string      `json:"description,omitempty"`
	Default     interface{} `json:"default,omitempty"`
	Minimum     *float64    `json:"minimum,omitempty"`
	Maximum     *float64    `json:"maximum,omitempty"`
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

func (r *ValidationResult) Error() string {
	if r.Valid {
		return ""
	}
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("%v", msgs)
}

func float(v float64) *float64 { return &v }

// FeatureVectorSchema describes the prediction service's input payload:
// every schema field required, nothing else allowed.
func FeatureVectorSchema() JSONSchema {
	s := JSONSchema{
		Schema:     "http://json-schema.org/draft-07/schema#",
		Title:      "FeatureVector",
		Type:       "object",
		Properties: make(map[string]Property, models.FeatureCount),
	}
	for _, spec := range models.FeatureSchema() {
		p := Property{
			Type:    "number",
			Minimum: float(spec.Min),
			Maximum: float(spec.Max),
		}
		if spec.Type != models.FieldTypeDecimal {
			p.Type = "integer"
		}
		if !spec.ClockDefault {
			p.Default = spec.Default
		}
		s.Properties[string(spec.Key)] = p
		s.Required = append(s.Required, string(spec.Key))
	}
	return s
}

var (
	compileOnce    sync.Once
	compiledSchema *gojsonschema.Schema
	compileErr     error
)

func featureVectorSchema() (*gojsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiledSchema, compileErr = gojsonschema.NewSchema(gojsonschema.NewGoLoader(FeatureVectorSchema()))
	})
	return compiledSchema, compileErr
}

// ValidateFeatureVector checks a vector's encoded form against the schema.
// A vector that cannot be encoded (NaN, Inf) is reported as invalid.
func ValidateFeatureVector(v models.FeatureVector) *ValidationResult {
	data, err := json.Marshal(v)
	if err != nil {
		return &ValidationResult{Errors: []ValidationError{{
			Field:   "(root)",
			Message: err.Error(),
			Code:    "NOT_ENCODABLE",
		}}}
	}
	return validate(gojsonschema.NewBytesLoader(data))
}

// ValidateDocument validates an already decoded payload, e.g. a feature
// vector passed in as job variables.
func ValidateDocument(doc map[string]interface{}) *ValidationResult {
	return validate(gojsonschema.NewGoLoader(doc))
}

func validate(doc gojsonschema.JSONLoader) *ValidationResult {
	schema, err := featureVectorSchema()
	if err != nil {
		return &ValidationResult{Errors: []ValidationError{{Field: "(schema)", Message: err.Error(), Code: "SCHEMA_COMPILE"}}}
	}

	result, err := schema.Validate(doc)
	if err != nil {
		return &ValidationResult{Errors: []ValidationError{{Field: "(root)", Message: err.Error(), Code: "UNREADABLE"}}}
	}
	if result.Valid() {
		return &ValidationResult{Valid: true}
	}

	out := &ValidationResult{Errors: make([]ValidationError, 0, len(result.Errors()))}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
			Code:    desc.Type(),
		})
	}
	return out
}
