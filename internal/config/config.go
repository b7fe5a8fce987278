// Package config reads runtime settings from the environment.
package config

import (
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"
)

// Config holds process-level settings. Program settings live in the YAML file instead.
type Config struct {
	AppName      string     `env:"RANGETIMER_APP_NAME" envDefault:"rangetimer"`
	AppID        string     `env:"RANGETIMER_APP_ID" envDefault:"com.rangetimer.app"`
	LogLevel     slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	Lang         string     `env:"RANGETIMER_LANG"`
	AudioEnabled bool       `env:"RANGETIMER_AUDIO" envDefault:"true"`
	CuesDir      string     `env:"RANGETIMER_CUES_DIR"`
	SampleRate   int        `env:"RANGETIMER_SAMPLE_RATE" envDefault:"44100"`
}

// Load parses the environment into a Config.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("parsing environment: RANGETIMER_SAMPLE_RATE must be positive, got %d", cfg.SampleRate)
	}
	return &cfg, nil
}
