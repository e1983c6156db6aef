package config

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/wesleyorama2/restclient/rest"
)

// ResolvedRequest is a request definition with its environment applied and
// every {{variable}} substituted.
type ResolvedRequest struct {
	Name          string
	BaseURL       string
	Method        string
	URI           string
	Segments      []any
	Headers       map[string]string
	Parameters    map[string]any
	Body          any
	Authorization string
	Credentials   string
	Extract       map[string]string

	// SchemaName names the referenced schema; Schema holds it as JSON
	// text. Both are empty when no schema is referenced.
	SchemaName string
	Schema     string
}

// Resolve looks up request and environment by name and applies variables.
// Request headers override environment headers; the request authorization
// overrides the environment one. An empty envName selects the only
// environment when the file defines exactly one, otherwise the "default"
// environment if present, otherwise none.
func Resolve(cfg *Config, requestName, envName string) (*ResolvedRequest, error) {
	reqDef, ok := cfg.Requests[requestName]
	if !ok {
		return nil, errors.Errorf("request not found: %s", requestName)
	}

	env, err := selectEnvironment(cfg, envName)
	if err != nil {
		return nil, err
	}

	vars := env.Vars
	resolved := &ResolvedRequest{
		Name:          requestName,
		BaseURL:       ProcessEnvironment(env.BaseURL, vars),
		Method:        reqDef.Method,
		URI:           ProcessEnvironment(reqDef.URI, vars),
		Headers:       MergeEnvironments(ProcessEnvironmentInMap(env.Headers, vars), ProcessEnvironmentInMap(reqDef.Headers, vars)),
		Authorization: ProcessEnvironment(env.Authorization, vars),
		Credentials:   reqDef.Credentials,
		Extract:       reqDef.Extract,
	}

	if reqDef.Authorization != "" {
		resolved.Authorization = ProcessEnvironment(reqDef.Authorization, vars)
	}

	for _, segment := range reqDef.Segments {
		resolved.Segments = append(resolved.Segments, ProcessEnvironmentInValue(segment, vars))
	}

	if len(reqDef.Parameters) > 0 {
		resolved.Parameters = make(map[string]any, len(reqDef.Parameters))
		for name, value := range reqDef.Parameters {
			resolved.Parameters[name] = ProcessEnvironmentInValue(value, vars)
		}
	}

	if reqDef.Body != nil {
		resolved.Body = ProcessEnvironmentInValue(reqDef.Body, vars)
	}

	if reqDef.Schema != "" {
		schema, ok := cfg.Schemas[reqDef.Schema]
		if !ok {
			return nil, errors.Errorf("schema not found: %s", reqDef.Schema)
		}
		data, err := json.Marshal(normalize(schema))
		if err != nil {
			return nil, errors.Wrapf(err, "encode schema %s", reqDef.Schema)
		}
		resolved.SchemaName = reqDef.Schema
		resolved.Schema = string(data)
	}

	return resolved, nil
}

// Apply configures b with the resolved request.
func (r *ResolvedRequest) Apply(b *rest.Builder) *rest.Builder {
	if r.Method != "" {
		b.WithMethod(r.Method)
	}
	b.WithURI(r.URI).
		WithURISegment(r.Segments...).
		WithHeaders(r.Headers).
		WithAuthorization(r.Authorization)

	for name, value := range r.Parameters {
		b.WithParameter(name, value)
	}
	if r.Body != nil {
		b.WithJSONBody(r.Body)
	}
	if r.Credentials != "" {
		b.WithCredentials(rest.Credentials(r.Credentials))
	}
	return b
}

func selectEnvironment(cfg *Config, envName string) (Environment, error) {
	if envName == "" {
		if len(cfg.Environments) == 1 {
			for _, env := range cfg.Environments {
				return env, nil
			}
		}
		if env, ok := cfg.Environments[DefaultEnvironment]; ok {
			return env, nil
		}
		return Environment{}, nil
	}

	env, ok := cfg.Environments[envName]
	if !ok {
		return Environment{}, errors.Errorf("environment not found: %s", envName)
	}
	return env, nil
}

// normalize converts map[any]any nodes so the value can be JSON-encoded.
func normalize(v any) any {
	return ProcessEnvironmentInValue(v, nil)
}
