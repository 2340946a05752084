// Package config loads the client configuration: gateway endpoints,
// credentials source, model/route defaults and poller tuning.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the resolved client configuration.
type Config struct {
	// APIEndpoint is the base URL of the chat/agent service.
	APIEndpoint string `yaml:"api_endpoint"`
	// JobsEndpoint is the base URL of the batch jobs service.
	JobsEndpoint string `yaml:"jobs_endpoint"`
	// TokenEnv names the environment variable holding the bearer token.
	// Defaults to CASEY_TOKEN.
	TokenEnv string `yaml:"token_env,omitempty"`
	// Route is the routing target prompts are dispatched to.
	Route string `yaml:"route,omitempty"`
	// DefaultModel is the initially selected language model.
	DefaultModel string `yaml:"default_model,omitempty"`
	// HTTPTimeout bounds each gateway request. Parsed as a Go duration.
	HTTPTimeout string `yaml:"http_timeout,omitempty"`
	// PollInterval and PollDeadline tune the batch job poller.
	PollInterval string `yaml:"poll_interval,omitempty"`
	PollDeadline string `yaml:"poll_deadline,omitempty"`
}

const defaultTokenEnv = "CASEY_TOKEN"

// Load reads, expands and validates the configuration file. A missing
// file is not an error: the configuration then comes entirely from
// environment variables.
func Load(path string) (*Config, error) {
	log := slog.With("config_path", path)

	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		log.Info("No configuration file, using environment only")
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		expanded := ExpandEnv(data)
		if err := yaml.Unmarshal(expanded, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		log.Info("Loaded configuration file")
	}

	cfg.applyEnvOverrides()
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides lets environment variables override file values, so
// a containerized deployment can run without any file at all.
func (c *Config) applyEnvOverrides() {
	overrides := []struct {
		env    string
		target *string
	}{
		{"CASEY_API_ENDPOINT", &c.APIEndpoint},
		{"CASEY_JOBS_ENDPOINT", &c.JobsEndpoint},
		{"CASEY_TOKEN_ENV", &c.TokenEnv},
		{"CASEY_ROUTE", &c.Route},
		{"CASEY_DEFAULT_MODEL", &c.DefaultModel},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.target = v
		}
	}
}

func (c *Config) applyDefaults() {
	if c.TokenEnv == "" {
		c.TokenEnv = defaultTokenEnv
	}
}

func (c *Config) validate() error {
	if c.APIEndpoint == "" {
		return fmt.Errorf("api_endpoint is required (or set CASEY_API_ENDPOINT)")
	}
	if c.JobsEndpoint == "" {
		return fmt.Errorf("jobs_endpoint is required (or set CASEY_JOBS_ENDPOINT)")
	}
	for _, d := range []struct {
		name string
		val  string
	}{
		{"http_timeout", c.HTTPTimeout},
		{"poll_interval", c.PollInterval},
		{"poll_deadline", c.PollDeadline},
	} {
		if d.val == "" {
			continue
		}
		if _, err := time.ParseDuration(d.val); err != nil {
			return fmt.Errorf("invalid %s %q: %w", d.name, d.val, err)
		}
	}
	return nil
}

// Token resolves the bearer token from the configured environment
// variable. Empty when unset; gateway calls then run unauthenticated and
// job status lookups short-circuit.
func (c *Config) Token() string {
	return os.Getenv(c.TokenEnv)
}

// Duration accessors return zero when unset, deferring to package
// defaults downstream.

func (c *Config) HTTPTimeoutDuration() time.Duration { return parseDuration(c.HTTPTimeout) }
func (c *Config) PollIntervalDuration() time.Duration {
	return parseDuration(c.PollInterval)
}
func (c *Config) PollDeadlineDuration() time.Duration {
	return parseDuration(c.PollDeadline)
}

func parseDuration(s string) time.Duration {
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}
