// Package jsonschema validates JSON response bodies against JSON Schema
// documents.
package jsonschema

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const resourceName = "schema.json"

// ErrInvalidJSON is returned when the instance is not valid JSON.
var ErrInvalidJSON = errors.New("invalid JSON")

// ValidationErrors represents a collection of validation errors
type ValidationErrors []error

// Error implements the error interface for ValidationErrors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return ""
	}

	var sb strings.Builder
	for i, err := range ve {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(err.Error())
	}
	return sb.String()
}

// Schema is a compiled schema that can validate any number of bodies.
type Schema struct {
	compiled *jsonschema.Schema
}

// Compile parses and compiles schemaJSON.
func Compile(schemaJSON string) (*Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(resourceName, strings.NewReader(schemaJSON)); err != nil {
		return nil, errors.Wrap(err, "invalid schema")
	}

	compiled, err := compiler.Compile(resourceName)
	if err != nil {
		return nil, errors.Wrap(err, "invalid schema")
	}
	return &Schema{compiled: compiled}, nil
}

// Validate checks body against the schema. A body that violates the schema
// yields ValidationErrors; a body that is not JSON yields ErrInvalidJSON.
func (s *Schema) Validate(body []byte) error {
	var instance any
	if err := json.Unmarshal(body, &instance); err != nil {
		return errors.Wrap(ErrInvalidJSON, err.Error())
	}

	err := s.compiled.Validate(instance)
	if err == nil {
		return nil
	}

	var validationErr *jsonschema.ValidationError
	if errors.As(err, &validationErr) {
		if errs := extractValidationErrors(validationErr); len(errs) > 0 {
			return errs
		}
	}
	return ValidationErrors{err}
}

// Validate reports whether body conforms to schemaJSON. The error is non-nil
// only when the schema or the body cannot be parsed.
func Validate(body []byte, schemaJSON string) (bool, error) {
	schema, err := Compile(schemaJSON)
	if err != nil {
		return false, err
	}

	err = schema.Validate(body)
	if errors.Is(err, ErrInvalidJSON) {
		return false, err
	}
	return err == nil, nil
}

// ValidateWithErrors is like Validate but returns every violation found.
func ValidateWithErrors(body []byte, schemaJSON string) (bool, ValidationErrors) {
	schema, err := Compile(schemaJSON)
	if err != nil {
		return false, ValidationErrors{err}
	}

	err = schema.Validate(body)
	if err == nil {
		return true, nil
	}

	var errs ValidationErrors
	if errors.As(err, &errs) {
		return false, errs
	}
	return false, ValidationErrors{err}
}

// extractValidationErrors flattens a jsonschema.ValidationError tree
func extractValidationErrors(err *jsonschema.ValidationError) ValidationErrors {
	var errs ValidationErrors

	if err.Message != "" && len(err.Causes) == 0 {
		errs = append(errs, errors.Errorf("validation error at %s: %s", location(err.InstanceLocation), err.Message))
	}

	for _, cause := range err.Causes {
		errs = append(errs, extractValidationErrors(cause)...)
	}

	return errs
}

func location(instanceLocation string) string {
	if instanceLocation == "" {
		return "/"
	}
	return instanceLocation
}
