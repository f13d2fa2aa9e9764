package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if REHEARSE_CONFIG is set
//  3. env (prefix REHEARSE_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("REHEARSE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// Environment variables: REHEARSE_ADDR, REHEARSE_POLL_ATTEMPTS, ...
	// Map env keys like REHEARSE_POLL_ATTEMPTS -> poll_attempts (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("REHEARSE_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "rehearse_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	// Basic validation
	if cfg.Addr == "" {
		return nil, fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if cfg.BackendBaseURL == "" {
		return nil, fmt.Errorf("%w: backend_base_url must not be empty", ErrInvalidConfig)
	}
	if cfg.CountdownSeconds <= 0 || cfg.MaxRecordingSeconds <= 0 {
		return nil, fmt.Errorf("%w: countdown_seconds and max_recording_seconds must be positive", ErrInvalidConfig)
	}
	if cfg.PollAttempts <= 0 || cfg.PollIntervalMS <= 0 {
		return nil, fmt.Errorf("%w: poll_attempts and poll_interval_ms must be positive", ErrInvalidConfig)
	}
	if cfg.UploadMaxAttempts <= 0 {
		return nil, fmt.Errorf("%w: upload_max_attempts must be positive", ErrInvalidConfig)
	}
	return &cfg, nil
}
