package core

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"

	"github.com/pelletier/go-toml/v2"
)

type LogConfig struct {
	Level string `toml:"level"`
}

type LoaderConfig struct {
	/** @brief Store rows bottom-up, the way GL expects texture data. */
	FlipY bool `toml:"flip_y"`
	/** @brief Upper bound on width*height accepted before decoding. 0 disables the check. */
	MaxPixels uint64 `toml:"max_pixels"`
}

type AssetsConfig struct {
	BasePath string `toml:"base_path"`
}

type JobsConfig struct {
	Workers   int `toml:"workers"`
	QueueSize int `toml:"queue_size"`
}

type Config struct {
	Log    LogConfig    `toml:"log"`
	Loader LoaderConfig `toml:"loader"`
	Assets AssetsConfig `toml:"assets"`
	Jobs   JobsConfig   `toml:"jobs"`
}

func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{Level: "info"},
		Loader: LoaderConfig{
			FlipY: true,
			// 16k x 16k, well beyond anything the GPUs we target can sample
			MaxPixels: 16384 * 16384,
		},
		Assets: AssetsConfig{BasePath: "."},
		Jobs: JobsConfig{
			Workers:   runtime.NumCPU(),
			QueueSize: 16,
		},
	}
}

// LoadConfig reads a TOML file on top of DefaultConfig. An empty or missing
// path yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		LogDebug("config file '%s' not found, using defaults", path)
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Jobs.Workers <= 0 {
		return fmt.Errorf("jobs.workers must be > 0, got %d", c.Jobs.Workers)
	}
	if c.Jobs.QueueSize < 0 {
		return fmt.Errorf("jobs.queue_size must be >= 0, got %d", c.Jobs.QueueSize)
	}
	return nil
}
