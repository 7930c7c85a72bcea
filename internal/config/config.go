// Package config loads the optional YAML settings file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/anas-shakeel/go-chromakey/internal/filters"
	"github.com/anas-shakeel/go-chromakey/internal/logging"
)

type Config struct {
	Log     LogConfig    `yaml:"log"`
	Report  bool         `yaml:"report"`
	Preview bool         `yaml:"preview"`
	Digest  bool         `yaml:"digest"`
	Rules   []RuleConfig `yaml:"rules,omitempty"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// RuleConfig is a key rule given as an expression over red, green and blue.
type RuleConfig struct {
	Name string `yaml:"name"`
	Expr string `yaml:"expr"`
}

// Default returns the settings used when no file is given.
func Default() *Config {
	return &Config{
		Log:    LogConfig{Level: "info", Format: "text"},
		Report: true,
	}
}

// Load reads the configuration at path on top of Default. A missing file is
// not an error; the defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Info("configuration file not found, using defaults", "path", path)
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read configuration file '%s': %w", path, err)
	}

	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		var typeErr *yaml.TypeError
		if errors.As(err, &typeErr) {
			for _, msg := range typeErr.Errors {
				logging.Debug("YAML unmarshal error", "path", path, "error", msg)
			}
		}
		return nil, fmt.Errorf("failed to parse configuration file '%s': %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration file '%s': %w", path, err)
	}
	logging.Debug("loaded configuration", "path", path, "rules", len(cfg.Rules))
	return cfg, nil
}

// Validate checks the log settings and rules.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if _, err := logging.ParseFormat(c.Log.Format); err != nil {
		return err
	}
	_, err := c.KeyRules()
	return err
}

// KeyRules compiles the configured rules in order. It returns nil when none
// are configured, which selects the built-in rules.
func (c *Config) KeyRules() ([]filters.Rule, error) {
	if len(c.Rules) == 0 {
		return nil, nil
	}

	rules := make([]filters.Rule, 0, len(c.Rules))
	for i, rc := range c.Rules {
		name := strings.TrimSpace(rc.Name)
		if name == "" {
			name = fmt.Sprintf("rule%d", i+1)
		}
		rule, err := filters.NewExprRule(name, strings.TrimSpace(rc.Expr))
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}
