package config

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"

	"github.com/wesleyorama2/restclient/rest"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Path    string
	Message string
}

// Error returns the error message
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidateConfig validates the configuration. Errors are returned in a stable
// order.
func ValidateConfig(config *Config) []ValidationError {
	var errs []ValidationError

	if len(config.Requests) == 0 {
		errs = append(errs, ValidationError{
			Path:    "requests",
			Message: "at least one request is required",
		})
	}

	hasBaseURL := false
	for _, name := range sortedKeys(config.Environments) {
		env := config.Environments[name]
		if env.BaseURL != "" {
			hasBaseURL = true
		}
	}

	for _, name := range sortedKeys(config.Requests) {
		req := config.Requests[name]

		if req.Method == "" {
			errs = append(errs, ValidationError{
				Path:    fmt.Sprintf("requests.%s.method", name),
				Message: "method is required",
			})
		}

		if req.URI == "" && len(req.Segments) == 0 && !hasBaseURL {
			errs = append(errs, ValidationError{
				Path:    fmt.Sprintf("requests.%s.uri", name),
				Message: "uri is required when no environment defines a baseUrl",
			})
		}

		if req.Credentials != "" {
			if _, err := rest.ParseCredentials(req.Credentials); err != nil {
				errs = append(errs, ValidationError{
					Path:    fmt.Sprintf("requests.%s.credentials", name),
					Message: fmt.Sprintf("invalid credentials mode: %s", req.Credentials),
				})
			}
		}

		if req.Schema != "" {
			if _, ok := config.Schemas[req.Schema]; !ok {
				errs = append(errs, ValidationError{
					Path:    fmt.Sprintf("requests.%s.schema", name),
					Message: fmt.Sprintf("schema not found: %s", req.Schema),
				})
			}
		}

		for _, varName := range sortedKeys(req.Extract) {
			if req.Extract[varName] == "" {
				errs = append(errs, ValidationError{
					Path:    fmt.Sprintf("requests.%s.extract.%s", name, varName),
					Message: "extract path cannot be empty",
				})
			}
		}
	}

	return errs
}

// ValidateEnvironment validates that an environment exists
func ValidateEnvironment(config *Config, envName string) error {
	if _, ok := config.Environments[envName]; !ok {
		return errors.Errorf("environment not found: %s", envName)
	}
	return nil
}

// ValidateRequest validates that a request exists
func ValidateRequest(config *Config, reqName string) error {
	if _, ok := config.Requests[reqName]; !ok {
		return errors.Errorf("request not found: %s", reqName)
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
