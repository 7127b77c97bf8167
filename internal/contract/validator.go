// Package contract classifies raw generation-service responses before the
// pipeline trusts them. The service is expected to answer with JSON, but in
// practice it returns blanks, prose, truncated objects and self-reported
// errors; every stage invocation runs its response through Validate exactly
// once.
package contract

import (
	"encoding/json"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Kind tags the validation outcome for one raw response.
type Kind string

const (
	Valid                Kind = "VALID"
	Empty                Kind = "EMPTY"
	Malformed            Kind = "MALFORMED"
	ServiceReportedError Kind = "SERVICE_REPORTED_ERROR"
)

// maxExcerpt bounds how much raw text a Malformed outcome carries for
// operator debugging.
const maxExcerpt = 500

// errorKey is the reserved key a well-formed body uses to report a failure.
const errorKey = "error"

// Outcome is the immutable result of validating one raw response.
type Outcome struct {
	Kind Kind

	// Value holds the parsed JSON value when Kind is Valid. Usually an
	// object; the recommendations stage legitimately answers with an array.
	Value interface{}

	// RawExcerpt and ParseError are set when Kind is Malformed.
	RawExcerpt string
	ParseError string

	// ErrorMessage is set when Kind is ServiceReportedError.
	ErrorMessage string
}

// Object returns the payload as a JSON object when possible.
func (o Outcome) Object() (map[string]interface{}, bool) {
	m, ok := o.Value.(map[string]interface{})
	return m, ok
}

// List returns the payload as a JSON array when possible.
func (o Outcome) List() ([]interface{}, bool) {
	l, ok := o.Value.([]interface{})
	return l, ok
}

// Validate classifies a raw service response. Emptiness is checked before
// parsing because it is cheaper to detect, and a parsed body carrying the
// reserved error key is never treated as a usable payload even though it
// parsed.
func Validate(raw string) Outcome {
	if strings.TrimSpace(raw) == "" {
		return Outcome{Kind: Empty}
	}

	var value interface{}
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return Outcome{
			Kind:       Malformed,
			RawExcerpt: excerpt(raw),
			ParseError: err.Error(),
		}
	}

	if obj, ok := value.(map[string]interface{}); ok {
		if reported, exists := obj[errorKey]; exists {
			return Outcome{
				Kind:         ServiceReportedError,
				ErrorMessage: stringify(reported),
			}
		}
	}

	return Outcome{Kind: Valid, Value: value}
}

// CheckSchema validates a payload object against a category schema. Schemas
// are permissive about which fields appear but strict about their types, so a
// response that renames fields still passes while one that, say, returns the
// score as an object does not.
func CheckSchema(payload map[string]interface{}, schema map[string]interface{}) error {
	schemaLoader := gojsonschema.NewGoLoader(schema)
	documentLoader := gojsonschema.NewGoLoader(payload)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return err
	}

	if !result.Valid() {
		messages := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			messages = append(messages, desc.String())
		}
		return &SchemaError{Problems: messages}
	}

	return nil
}

// SchemaError reports type-level schema violations in an otherwise valid body.
type SchemaError struct {
	Problems []string
}

func (e *SchemaError) Error() string {
	return "payload schema check failed: " + strings.Join(e.Problems, "; ")
}

func excerpt(raw string) string {
	if len(raw) > maxExcerpt {
		return raw[:maxExcerpt]
	}
	return raw
}

func stringify(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "unknown error"
	}
	return string(data)
}
