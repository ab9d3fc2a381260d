// Package config collects the run configuration from the environment
// into one immutable value, before any network activity happens.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// rawConfig mirrors the environment variables verbatim. Resolution
// (token precedence, set splitting, truthiness) happens in Load.
type rawConfig struct {
	AccessToken   string        `env:"ACCESS_TOKEN"`
	GitHubToken   string        `env:"GITHUB_TOKEN"`
	User          string        `env:"GITHUB_ACTOR"`
	Excluded      string        `env:"EXCLUDED"`
	ExcludedLangs string        `env:"EXCLUDED_LANGS"`
	ExcludeForks  string        `env:"EXCLUDE_FORKED_REPOS"`
	Timeout       time.Duration `env:"REQUEST_TIMEOUT" env-default:"300s"`
}

// Config is the resolved configuration for a single run.
type Config struct {
	Token         string
	User          string
	ExcludedRepos map[string]struct{}
	ExcludedLangs map[string]struct{}
	IgnoreForks   bool
	Timeout       time.Duration
}

// Load reads a local .env file (if any), then the process environment.
// Real environment variables win over .env entries.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var raw rawConfig
	if err := cleanenv.ReadEnv(&raw); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	token := raw.AccessToken
	if token == "" {
		token = raw.GitHubToken
	}
	if token == "" {
		return nil, errors.New("a personal access token is required: set ACCESS_TOKEN or GITHUB_TOKEN")
	}
	if raw.User == "" {
		return nil, errors.New("environment variable GITHUB_ACTOR must be set")
	}

	return &Config{
		Token:         token,
		User:          raw.User,
		ExcludedRepos: splitSet(raw.Excluded),
		ExcludedLangs: splitSet(raw.ExcludedLangs),
		IgnoreForks:   truthy(raw.ExcludeForks),
		Timeout:       raw.Timeout,
	}, nil
}

// splitSet turns a comma-separated list into a set, trimming whitespace
// around every entry and dropping empty ones.
func splitSet(s string) map[string]struct{} {
	if s == "" {
		return nil
	}
	set := make(map[string]struct{})
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			set[part] = struct{}{}
		}
	}
	return set
}

// truthy reports whether a flag-style variable is set to anything but
// the literal "false" (case-insensitive). Unset means false.
func truthy(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && !strings.EqualFold(s, "false")
}
