package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the process configuration, loaded from the environment.
type Config struct {
	Port    string `env:"PORT" envDefault:"3001"`
	DataDir string `env:"DATA_DIR" envDefault:"data"`

	// Orchestration mode: "rules" classifies actions into mechanical
	// branches; "narration" sends every action through the narrator.
	GameMode string `env:"GAME_MODE" envDefault:"rules"`

	NarratorAPIKey  string `env:"OPENAI_API_KEY"`
	NarratorBaseURL string `env:"NARRATOR_BASE_URL" envDefault:"https://api.openai.com/v1"`
	ModelDefault    string `env:"NARRATOR_MODEL" envDefault:"gpt-4o-mini"`
	ModelDialogue   string `env:"NARRATOR_DIALOGUE_MODEL" envDefault:"gpt-4o"`
	ModelFallback   string `env:"NARRATOR_FALLBACK_MODEL" envDefault:"gpt-4o-mini"`

	SRDBaseURL string        `env:"SRD_BASE_URL" envDefault:"http://localhost:8000"`
	SRDTimeout time.Duration `env:"SRD_TIMEOUT" envDefault:"30s"`
}

// Load parses the configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.GameMode != "rules" && cfg.GameMode != "narration" {
		return nil, fmt.Errorf("invalid GAME_MODE %q: want rules or narration", cfg.GameMode)
	}
	return &cfg, nil
}
