package config

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyorama2/restclient/rest"
)

type captureTransport struct {
	req *rest.Request
}

func (c *captureTransport) Send(_ context.Context, req *rest.Request) (*rest.RawResponse, error) {
	c.req = req
	return &rest.RawResponse{StatusCode: http.StatusNoContent, Status: "204 No Content", Header: make(http.Header)}, nil
}

func loadCollection(t *testing.T) *Config {
	t.Helper()
	cfg, err := ParseConfig([]byte(yamlCollection), "requests.yaml")
	require.NoError(t, err)
	return cfg
}

func TestResolve_SubstitutesVariables(t *testing.T) {
	cfg := loadCollection(t)

	resolved, err := Resolve(cfg, "getUser", "dev")
	require.NoError(t, err)

	assert.Equal(t, "https://dev.example.com/api", resolved.BaseURL)
	assert.Equal(t, "GET", resolved.Method)
	assert.Equal(t, []any{"42", 7}, resolved.Segments)
	assert.Equal(t, "application/json", resolved.Headers["Accept"])
	assert.Empty(t, resolved.Schema)
}

func TestResolve_SingleEnvironmentIsImplicit(t *testing.T) {
	cfg := loadCollection(t)

	resolved, err := Resolve(cfg, "createUser", "")
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"name": "42", "tags": []any{"a", "b"}}, resolved.Body)
	assert.Equal(t, "user", resolved.SchemaName)
	assert.JSONEq(t, `{"type":"object","required":["id"]}`, resolved.Schema)
}

func TestResolve_RequestOverridesEnvironment(t *testing.T) {
	cfg := &Config{
		Environments: map[string]Environment{
			"dev": {
				Headers:       map[string]string{"Accept": "text/plain", "X-Env": "dev"},
				Authorization: "Bearer env",
			},
		},
		Requests: map[string]Request{
			"r": {Method: "GET", URI: "/", Headers: map[string]string{"Accept": "application/json"}, Authorization: "Bearer req"},
		},
	}

	resolved, err := Resolve(cfg, "r", "dev")
	require.NoError(t, err)
	assert.Equal(t, "application/json", resolved.Headers["Accept"])
	assert.Equal(t, "dev", resolved.Headers["X-Env"])
	assert.Equal(t, "Bearer req", resolved.Authorization)
}

func TestResolve_Errors(t *testing.T) {
	cfg := loadCollection(t)

	_, err := Resolve(cfg, "missing", "dev")
	assert.ErrorContains(t, err, "request not found")

	_, err = Resolve(cfg, "getUser", "staging")
	assert.ErrorContains(t, err, "environment not found")

	cfg.Requests["bad"] = Request{Method: "GET", URI: "/", Schema: "nope"}
	_, err = Resolve(cfg, "bad", "dev")
	assert.ErrorContains(t, err, "schema not found")
}

func TestResolvedRequest_Apply(t *testing.T) {
	cfg := loadCollection(t)
	resolved, err := Resolve(cfg, "getUser", "dev")
	require.NoError(t, err)
	resolved.Authorization = "Bearer abc"
	resolved.Credentials = "include"

	transport := &captureTransport{}
	_, err = resolved.Apply(rest.NewBuilder(transport)).Go(context.Background()).Wait()
	require.NoError(t, err)

	require.NotNil(t, transport.req)
	assert.Equal(t, "GET", transport.req.Method)
	assert.Equal(t, "/users/42/7", transport.req.URI)
	assert.Equal(t, []string{"profile"}, transport.req.Params["expand"])
	assert.Equal(t, "Bearer abc", transport.req.Header.Get("Authorization"))
	assert.Equal(t, "application/json", transport.req.Header.Get("Accept"))
	assert.Equal(t, rest.CredentialsInclude, transport.req.Credentials)
	assert.Nil(t, transport.req.Body)
}

func TestResolvedRequest_ApplyBody(t *testing.T) {
	cfg := loadCollection(t)
	resolved, err := Resolve(cfg, "createUser", "dev")
	require.NoError(t, err)

	transport := &captureTransport{}
	_, err = resolved.Apply(rest.NewBuilder(transport)).Go(context.Background()).Wait()
	require.NoError(t, err)

	assert.Equal(t, "POST", transport.req.Method)
	assert.JSONEq(t, `{"name":"42","tags":["a","b"]}`, string(transport.req.Body))
}

func TestResolvedRequest_ApplyInvalidCredentials(t *testing.T) {
	resolved := &ResolvedRequest{Method: "GET", URI: "/", Credentials: "sometimes"}

	transport := &captureTransport{}
	_, err := resolved.Apply(rest.NewBuilder(transport)).Go(context.Background()).Wait()
	assert.ErrorIs(t, err, rest.ErrInvalidCredentials)
	assert.Nil(t, transport.req)
}

func TestResolve_EmptyNameFallsBackToDefault(t *testing.T) {
	cfg := &Config{
		Environments: map[string]Environment{
			DefaultEnvironment: {BaseURL: "https://default.example.com"},
			"staging":          {BaseURL: "https://staging.example.com"},
		},
		Requests: map[string]Request{"r": {Method: "GET", URI: "/"}},
	}

	resolved, err := Resolve(cfg, "r", "")
	require.NoError(t, err)
	assert.Equal(t, "https://default.example.com", resolved.BaseURL)

	delete(cfg.Environments, DefaultEnvironment)
	cfg.Environments["prod"] = Environment{BaseURL: "https://prod.example.com"}
	resolved, err = Resolve(cfg, "r", "")
	require.NoError(t, err)
	assert.Empty(t, resolved.BaseURL)
}
