package engine

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/marionette/engine/core"
)

// Config drives engine startup. It is usually decoded from a
// marionette.toml next to the binary; zero values fall back to the
// defaults below.
type Config struct {
	// Name labels the application in logs.
	Name string `toml:"name"`

	Assets   AssetsConfig   `toml:"assets"`
	Skinning SkinningConfig `toml:"skinning"`
	Playback PlaybackConfig `toml:"playback"`

	// Workers sizes the job pool. Zero means one worker per CPU.
	Workers int `toml:"workers"`
}

type AssetsConfig struct {
	// Dir is the root directory watched for assets.
	Dir string `toml:"dir"`
	// Mesh, Skeleton and Clip are paths relative to Dir.
	Mesh     string `toml:"mesh"`
	Skeleton string `toml:"skeleton"`
	Clip     string `toml:"clip"`
	// WeightCache is the sidecar path for persisted weights. Empty
	// disables caching.
	WeightCache string `toml:"weight_cache"`
}

type SkinningConfig struct {
	MaxInfluences int     `toml:"max_influences"`
	Falloff       float32 `toml:"falloff"`
	MaxDistance   float32 `toml:"max_distance"`
	BatchSize     int     `toml:"batch_size"`
}

type PlaybackConfig struct {
	Loop bool `toml:"loop"`
	// FPS is the fixed sampling rate used by offline evaluation. Zero
	// means 30.
	FPS float32 `toml:"fps"`
}

func DefaultConfig() Config {
	return Config{
		Name: "marionette",
		Assets: AssetsConfig{
			Dir: "assets",
		},
		Skinning: SkinningConfig{
			MaxInfluences: 4,
			Falloff:       2.0,
			MaxDistance:   512.0,
		},
		Playback: PlaybackConfig{
			Loop: true,
			FPS:  30,
		},
	}
}

// LoadConfig decodes a TOML config file on top of the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Assets.Dir == "" {
		return fmt.Errorf("assets.dir is required: %w", core.ErrInvalidConfiguration)
	}
	if c.Skinning.MaxInfluences < 1 {
		return fmt.Errorf("skinning.max_influences must be at least 1: %w", core.ErrInvalidConfiguration)
	}
	if c.Skinning.Falloff < 0 {
		return fmt.Errorf("skinning.falloff must not be negative: %w", core.ErrInvalidConfiguration)
	}
	if c.Skinning.MaxDistance < 0 {
		return fmt.Errorf("skinning.max_distance must not be negative: %w", core.ErrInvalidConfiguration)
	}
	if c.Playback.FPS < 0 {
		return fmt.Errorf("playback.fps must not be negative: %w", core.ErrInvalidConfiguration)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative: %w", core.ErrInvalidConfiguration)
	}
	return nil
}
