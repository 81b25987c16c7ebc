package instances

import (
	"path/filepath"

	"github.com/caarlos0/env/v11"
	homedir "github.com/mitchellh/go-homedir"
)

// Config holds the few knobs the core exposes. Everything can be set
// through the environment, mostly to make ad-hoc testing easy.
type Config struct {
	// Dir is the global data directory (versions, libraries, assets)
	Dir string `env:"MCLC_DIR"`
	// GameDir is the working directory the game runs in (saves, mods, …)
	GameDir string `env:"MCLC_GAME_DIR"`
	// Concurrency caps the number of parallel downloads
	Concurrency int `env:"MCLC_CONCURRENCY" envDefault:"16"`
	// MaxRPS rate limits outgoing requests (0 = unlimited), mostly to
	// stay friendly with the asset mirror
	MaxRPS float64 `env:"MCLC_MAX_RPS"`
	// ClientID is the azure application id used for the device code flow
	ClientID string `env:"MCLC_CLIENT_ID"`
}

// LoadConfig reads the environment and fills in defaults
func LoadConfig() (*Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}

	if cfg.Dir == "" {
		home, err := homedir.Dir()
		if err != nil {
			return nil, err
		}
		cfg.Dir = filepath.Join(home, ".mclc")
	}
	if cfg.GameDir == "" {
		cfg.GameDir = filepath.Join(cfg.Dir, "minecraft")
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 16
	}

	return &cfg, nil
}
