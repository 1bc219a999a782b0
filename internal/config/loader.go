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
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if PELOTONIQ_CONFIG is set
//  3. env (prefix PELOTONIQ_)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("PELOTONIQ_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: PELOTONIQ_ADDR, PELOTONIQ_MAX_EVENTS, ...
	// Map env keys like PELOTONIQ_STALE_TIMEOUT_SECONDS -> stale_timeout_seconds.
	envProvider := env.Provider("PELOTONIQ_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "pelotoniq_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations that would silently break detection.
// A bad threshold should fail at startup, not degrade mid-race.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.HistorySize < 1:
		return fmt.Errorf("%w: history_size must be positive", ErrInvalidConfig)
	case c.MaxSpeedMS <= 0:
		return fmt.Errorf("%w: max_speed_ms must be positive", ErrInvalidConfig)
	case c.StaleTimeoutSeconds <= 0:
		return fmt.Errorf("%w: stale_timeout_seconds must be positive", ErrInvalidConfig)
	case c.InterpolateMinAgeSeconds < 0 || c.InterpolateMaxAgeSeconds <= c.InterpolateMinAgeSeconds:
		return fmt.Errorf("%w: interpolation band must satisfy 0 <= min < max", ErrInvalidConfig)
	case c.GroupProximitySeconds <= 0:
		return fmt.Errorf("%w: group_proximity_seconds must be positive", ErrInvalidConfig)
	case c.MinEventConfidence < 0 || c.MinEventConfidence > 1:
		return fmt.Errorf("%w: min_event_confidence must be within [0, 1]", ErrInvalidConfig)
	case c.MergeWindowSeconds <= 0 || c.MergeDistanceMeters < 0:
		return fmt.Errorf("%w: merge window must be positive and merge distance non-negative", ErrInvalidConfig)
	case c.MaxEvents < 1:
		return fmt.Errorf("%w: max_events must be positive", ErrInvalidConfig)
	case c.StateIntervalMS < 1 || c.DetectIntervalMS < 1 || c.CleanupIntervalMS < 1:
		return fmt.Errorf("%w: scheduler intervals must be positive", ErrInvalidConfig)
	}
	return nil
}
