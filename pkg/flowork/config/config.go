// Package config loads engine and server settings from the
// environment, with an optional YAML file overlay.
//
// Environment variables win over file values, and both win over the
// compiled-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"
)

// Settings holds all runtime configuration.
type Settings struct {
	// GroqAPIKey authenticates against the Groq API. Required for
	// serving and running workflows.
	GroqAPIKey string `env:"GROQ_API_KEY" yaml:"groq_api_key"`

	// ModelName is the model identifier sent with every completion.
	ModelName string `env:"LLM_MODEL_NAME" yaml:"model_name"`

	// Temperature is the sampling temperature, in [0, 2].
	Temperature float64 `env:"LLM_TEMPERATURE" yaml:"temperature"`

	// StoragePath is the directory for file-backed workflow storage.
	StoragePath string `env:"WORKFLOW_STORAGE_PATH" yaml:"storage_path"`

	// TemplatesPath is the directory holding bundled workflow templates.
	TemplatesPath string `env:"WORKFLOW_TEMPLATES_PATH" yaml:"templates_path"`

	// ListenAddr is the HTTP server bind address.
	ListenAddr string `env:"LISTEN_ADDR" yaml:"listen_addr"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"LOG_LEVEL" yaml:"log_level"`

	// RecursionMultiplier and RecursionBase bound run length:
	// limit = node count * multiplier + base.
	RecursionMultiplier int `env:"RECURSION_MULTIPLIER" yaml:"recursion_multiplier"`
	RecursionBase       int `env:"RECURSION_BASE" yaml:"recursion_base"`

	// ModelTimeout bounds each model call during a run.
	ModelTimeout time.Duration `env:"MODEL_TIMEOUT" yaml:"model_timeout"`
}

// Default returns settings with the compiled-in defaults applied.
func Default() *Settings {
	return &Settings{
		ModelName:           "qwen/qwen3-32b",
		Temperature:         0.2,
		StoragePath:         "./workflows",
		TemplatesPath:       "./templates",
		ListenAddr:          ":8080",
		LogLevel:            "info",
		RecursionMultiplier: 3,
		RecursionBase:       10,
		ModelTimeout:        2 * time.Minute,
	}
}

// Load reads settings, layering the optional YAML file at path over
// the defaults, then environment variables over both. An empty path
// skips the file step.
func Load(path string) (*Settings, error) {
	s := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, s); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}
	if err := env.Parse(s); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return s, nil
}

// Validate checks settings that cannot be defaulted sensibly.
func (s *Settings) Validate() error {
	var errs []error
	if s.GroqAPIKey == "" {
		errs = append(errs, errors.New("GROQ_API_KEY is required"))
	}
	if s.Temperature < 0 || s.Temperature > 2 {
		errs = append(errs, fmt.Errorf("temperature %.2f out of range [0, 2]", s.Temperature))
	}
	if s.RecursionMultiplier < 1 {
		errs = append(errs, fmt.Errorf("recursion multiplier %d must be at least 1", s.RecursionMultiplier))
	}
	if s.RecursionBase < 0 {
		errs = append(errs, fmt.Errorf("recursion base %d must not be negative", s.RecursionBase))
	}
	return errors.Join(errs...)
}

// SlogLevel maps the configured log level to an slog level. Unknown
// values fall back to info.
func (s *Settings) SlogLevel() string {
	switch s.LogLevel {
	case "debug", "info", "warn", "error":
		return s.LogLevel
	default:
		return "info"
	}
}
