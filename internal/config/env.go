package config

import (
	"os"
	"strings"
)

// Environment variables recognised by ApplyEnv.
const (
	EnvBaseURL       = "RESTCLIENT_BASE_URL"
	EnvAuthorization = "RESTCLIENT_AUTHORIZATION"
	EnvVarPrefix     = "RESTCLIENT_VAR_"
)

// DefaultEnvironment is the environment used when none is named.
const DefaultEnvironment = "default"

// ApplyEnv overrides every environment in cfg from the process environment:
// RESTCLIENT_BASE_URL replaces baseUrl, RESTCLIENT_AUTHORIZATION replaces the
// environment authorization, and RESTCLIENT_VAR_<name> sets variable <name>.
// A file without environments gains a "default" one when any of them is set.
func ApplyEnv(cfg *Config) {
	baseURL := os.Getenv(EnvBaseURL)
	authorization := os.Getenv(EnvAuthorization)

	vars := make(map[string]string)
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, EnvVarPrefix) {
			continue
		}
		if name := strings.TrimPrefix(key, EnvVarPrefix); name != "" {
			vars[name] = value
		}
	}

	if len(cfg.Environments) == 0 && (baseURL != "" || authorization != "" || len(vars) > 0) {
		cfg.Environments = map[string]Environment{DefaultEnvironment: {}}
	}

	for name, env := range cfg.Environments {
		if baseURL != "" {
			env.BaseURL = baseURL
		}
		if authorization != "" {
			env.Authorization = authorization
		}
		if len(vars) > 0 {
			env.Vars = MergeEnvironments(env.Vars, vars)
		}
		cfg.Environments[name] = env
	}
}
