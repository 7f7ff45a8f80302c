// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
)

// Config is populated from FINTASK_* environment variables.
type Config struct {
	// HTTPPort is the listen port for the query API.
	HTTPPort int `envconfig:"HTTP_PORT" default:"8087"`

	// FacadeURL is the base URL of the data access facade.
	FacadeURL string `envconfig:"FACADE_URL" default:"http://localhost:3001/api"`

	// DataDir holds local state such as the learned-query database.
	DataDir string `envconfig:"DATA_DIR"`

	// ModelEndpoint overrides the generative API base URL. Empty means the
	// provider default.
	ModelEndpoint string `envconfig:"MODEL_ENDPOINT"`

	// SafetyRulesPath points at an optional YAML file of extra blocked-prompt
	// signatures.
	SafetyRulesPath string `envconfig:"SAFETY_RULES"`

	// Verbose enables debug logging.
	Verbose bool `envconfig:"VERBOSE" default:"false"`
}

// Load reads the environment and fills in derived defaults.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("FINTASK", &cfg); err != nil {
		return Config{}, fmt.Errorf("read environment: %w", err)
	}
	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("resolve home dir: %w", err)
		}
		cfg.DataDir = filepath.Join(home, ".fintask")
	}
	return cfg, nil
}

// LearnedDBPath is the location of the learned-query database.
func (c Config) LearnedDBPath() string {
	return filepath.Join(c.DataDir, "learned.db")
}
