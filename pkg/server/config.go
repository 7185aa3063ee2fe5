package server

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/thepwagner/cydiarepo/pkg/signing"
	"github.com/thepwagner/cydiarepo/pkg/storage"
	"gopkg.in/yaml.v3"
)

const DefaultConfigPath = "cydiarepo.yml"

type Config struct {
	Addr string `yaml:"addr" env:"ADDR"`
	// BaseURL is substituted into each package's Filename and depiction URLs.
	BaseURL   string         `yaml:"url" env:"URL"`
	AssetsDir string         `yaml:"assets" env:"ASSETS_DIR"`
	Database  storage.Config `yaml:"database"`
	Signing   signing.Config `yaml:"signing"`
}

// ConfigError reports a missing required setting.
type ConfigError struct {
	Key string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s must be set", e.Key)
}

// LoadConfig reads the YAML file at path if it exists, then applies
// environment overrides and defaults.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	f, err := os.Open(path)
	if err == nil {
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("error decoding config: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error opening config: %w", err)
	} else {
		slog.Debug("no config file found, using environment", slog.String("path", path))
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing environment: %w", err)
	}

	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.AssetsDir == "" {
		cfg.AssetsDir = "assets"
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")

	return &cfg, nil
}

// Validate checks the settings every server needs.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return &ConfigError{Key: "DATABASE_URL"}
	}
	if c.BaseURL == "" {
		return &ConfigError{Key: "URL"}
	}
	return nil
}
