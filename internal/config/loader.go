package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config represents a request collection file
type Config struct {
	Environments map[string]Environment `json:"environments" yaml:"environments" toml:"environments"`
	Requests     map[string]Request     `json:"requests" yaml:"requests" toml:"requests"`
	Schemas      map[string]any         `json:"schemas,omitempty" yaml:"schemas,omitempty" toml:"schemas,omitempty"`
}

// Environment represents an environment configuration
type Environment struct {
	BaseURL       string            `json:"baseUrl" yaml:"baseUrl" toml:"baseUrl"`
	Headers       map[string]string `json:"headers,omitempty" yaml:"headers,omitempty" toml:"headers,omitempty"`
	Vars          map[string]string `json:"variables,omitempty" yaml:"variables,omitempty" toml:"variables,omitempty"`
	Authorization string            `json:"authorization,omitempty" yaml:"authorization,omitempty" toml:"authorization,omitempty"`
}

// Request represents a named request definition
type Request struct {
	Method        string            `json:"method" yaml:"method" toml:"method"`
	URI           string            `json:"uri" yaml:"uri" toml:"uri"`
	Segments      []any             `json:"segments,omitempty" yaml:"segments,omitempty" toml:"segments,omitempty"`
	Headers       map[string]string `json:"headers,omitempty" yaml:"headers,omitempty" toml:"headers,omitempty"`
	Parameters    map[string]any    `json:"parameters,omitempty" yaml:"parameters,omitempty" toml:"parameters,omitempty"`
	Body          any               `json:"body,omitempty" yaml:"body,omitempty" toml:"body,omitempty"`
	Authorization string            `json:"authorization,omitempty" yaml:"authorization,omitempty" toml:"authorization,omitempty"`
	Credentials   string            `json:"credentials,omitempty" yaml:"credentials,omitempty" toml:"credentials,omitempty"`
	Extract       map[string]string `json:"extract,omitempty" yaml:"extract,omitempty" toml:"extract,omitempty"`
	Schema        string            `json:"schema,omitempty" yaml:"schema,omitempty" toml:"schema,omitempty"`
}

// LoadConfig loads a request collection from a file.
//
// The file format is determined by extension:
//   - .json -> JSON
//   - .toml -> TOML
//   - .yaml, .yml and anything else -> YAML
func LoadConfig(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, errors.Errorf("config file not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "error reading config file")
	}

	return ParseConfig(data, path)
}

// ParseConfig parses configuration data, choosing the format from the
// extension of path.
func ParseConfig(data []byte, path string) (*Config, error) {
	var config Config

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, errors.Wrap(err, "failed to parse JSON config")
		}
	case ".toml":
		if err := toml.Unmarshal(data, &config); err != nil {
			return nil, errors.Wrap(err, "failed to parse TOML config")
		}
	default:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, errors.Wrapf(err, "failed to parse YAML config %s", filepath.Base(path))
		}
	}

	return &config, nil
}

// ProcessEnvironment replaces {{name}} placeholders in a string
func ProcessEnvironment(input string, env map[string]string) string {
	result := input
	for key, value := range env {
		result = strings.ReplaceAll(result, "{{"+key+"}}", value)
	}
	return result
}

// ProcessEnvironmentInMap processes placeholders in every value of a map
func ProcessEnvironmentInMap(input map[string]string, env map[string]string) map[string]string {
	result := make(map[string]string, len(input))
	for key, value := range input {
		result[key] = ProcessEnvironment(value, env)
	}
	return result
}

// ProcessEnvironmentInValue walks decoded YAML/JSON/TOML values and replaces
// placeholders in every string it finds.
func ProcessEnvironmentInValue(input any, env map[string]string) any {
	switch v := input.(type) {
	case string:
		return ProcessEnvironment(v, env)
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, value := range v {
			out[key] = ProcessEnvironmentInValue(value, env)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(v))
		for key, value := range v {
			out[ProcessEnvironment(toString(key), env)] = ProcessEnvironmentInValue(value, env)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, value := range v {
			out[i] = ProcessEnvironmentInValue(value, env)
		}
		return out
	default:
		return v
	}
}

// MergeEnvironments merges two variable sets, with the second taking precedence
func MergeEnvironments(base, override map[string]string) map[string]string {
	result := make(map[string]string, len(base)+len(override))
	for key, value := range base {
		result[key] = value
	}
	for key, value := range override {
		result[key] = value
	}
	return result
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return strings.Trim(string(data), `"`)
}
