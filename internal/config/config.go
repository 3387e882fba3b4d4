// Package config loads the server configuration from a YAML file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the server-side configuration.
type Config struct {
	// DBPath is the SQLite database file. Empty means fully in-memory
	// store and queue.
	DBPath string `yaml:"db_path"`

	// ListenAddr is the HTTP listen address.
	ListenAddr string `yaml:"listen_addr"`

	// Workers is the number of concurrent job workers.
	Workers int `yaml:"workers"`

	// PollInterval is the default client polling interval.
	PollInterval time.Duration `yaml:"poll_interval"`

	// MaxPollAttempts bounds client polling.
	MaxPollAttempts int `yaml:"max_poll_attempts"`

	// Debug enables debug logging.
	Debug bool `yaml:"debug"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		ListenAddr:      ":8080",
		Workers:         2,
		PollInterval:    500 * time.Millisecond,
		MaxPollAttempts: 120,
	}
}

// Load reads a YAML config file on top of the defaults. Fields absent
// from the file keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval)
	}
	if c.MaxPollAttempts < 1 {
		return fmt.Errorf("max_poll_attempts must be at least 1, got %d", c.MaxPollAttempts)
	}
	return nil
}
