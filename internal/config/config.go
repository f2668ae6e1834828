package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the configuration file looked up when none is given.
const DefaultFile = "enerator.yaml"

// Config represents the application configuration
type Config struct {
	Root    string        `yaml:"root"`
	Sitemap SitemapConfig `yaml:"sitemap"`
	Output  OutputConfig  `yaml:"output"`
	Cache   CacheConfig   `yaml:"cache"`
	Preview PreviewConfig `yaml:"preview"`
}

// Load loads configuration from the specified file. A missing file is not an
// error: the defaults are returned instead.
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	if err := loadEnvFile(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	cfg := &Config{}
	data, err := os.ReadFile(configPath)
	switch {
	case os.IsNotExist(err):
		slog.Debug("Configuration file not found, using defaults", "path", configPath)
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		// Expand environment variables in the YAML content
		expandedData := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expandedData), cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	if err := ApplyDefaults(cfg); err != nil {
		return nil, err
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a configuration with all defaults applied.
func Default() *Config {
	cfg := &Config{}
	// Defaults never fail on an empty configuration.
	_ = ApplyDefaults(cfg)
	return cfg
}

// Resolve returns p relative to the site root unless it is already absolute.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Root, p)
}

// SitemapPath is the resolved location of the sitemap file or database.
func (c *Config) SitemapPath() string {
	return c.Resolve(c.Sitemap.Path)
}

// OutputDir is the resolved static generation output directory.
func (c *Config) OutputDir() string {
	return c.Resolve(c.Output.Directory)
}
