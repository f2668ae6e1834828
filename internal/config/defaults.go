package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// ApplyDefaults runs every domain applier in order.
func ApplyDefaults(cfg *Config) error {
	appliers := []DefaultApplier{
		&RootDefaultApplier{},
		&SitemapDefaultApplier{},
		&OutputDefaultApplier{},
		&CacheDefaultApplier{},
		&PreviewDefaultApplier{},
	}
	for _, a := range appliers {
		if err := a.ApplyDefaults(cfg); err != nil {
			return fmt.Errorf("apply %s defaults: %w", a.Domain(), err)
		}
	}
	return nil
}

// RootDefaultApplier resolves the site root to an absolute path (cwd by default).
type RootDefaultApplier struct{}

func (r *RootDefaultApplier) Domain() string { return "root" }

func (r *RootDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		cfg.Root = wd
	}
	abs, err := filepath.Abs(cfg.Root)
	if err != nil {
		return err
	}
	cfg.Root = abs
	return nil
}

// SitemapDefaultApplier handles sitemap persistence defaults.
type SitemapDefaultApplier struct{}

func (s *SitemapDefaultApplier) Domain() string { return "sitemap" }

func (s *SitemapDefaultApplier) ApplyDefaults(cfg *Config) error {
	cfg.Sitemap.Backend = SitemapBackend(strings.ToLower(string(cfg.Sitemap.Backend)))
	if cfg.Sitemap.Backend == "" {
		cfg.Sitemap.Backend = SitemapBackendJSON
	}
	if cfg.Sitemap.Path == "" {
		if cfg.Sitemap.Backend == SitemapBackendSQLite {
			cfg.Sitemap.Path = "pages.db"
		} else {
			cfg.Sitemap.Path = "pages.json"
		}
	}
	return nil
}

// OutputDefaultApplier handles generation output defaults.
type OutputDefaultApplier struct{}

func (o *OutputDefaultApplier) Domain() string { return "output" }

func (o *OutputDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Output.Directory == "" {
		cfg.Output.Directory = "public"
	}
	return nil
}

// CacheDefaultApplier handles module cache defaults.
type CacheDefaultApplier struct{}

func (c *CacheDefaultApplier) Domain() string { return "cache" }

func (c *CacheDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Cache.Capacity <= 0 {
		cfg.Cache.Capacity = 100
	}
	return nil
}

// PreviewDefaultApplier handles preview server defaults.
type PreviewDefaultApplier struct{}

func (p *PreviewDefaultApplier) Domain() string { return "preview" }

func (p *PreviewDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Preview.Host == "" {
		cfg.Preview.Host = "0.0.0.0"
	}
	if cfg.Preview.Port == 0 {
		cfg.Preview.Port = 8080
	}
	if len(cfg.Preview.StaticPrefixes) == 0 {
		cfg.Preview.StaticPrefixes = []string{"/assets"}
	}
	for i, prefix := range cfg.Preview.StaticPrefixes {
		cfg.Preview.StaticPrefixes[i] = "/" + strings.Trim(prefix, "/")
	}
	if cfg.Preview.PollInterval <= 0 {
		cfg.Preview.PollInterval = 2 * time.Second
	}
	if cfg.Preview.ChunkSize <= 0 {
		cfg.Preview.ChunkSize = 1024
	}
	return nil
}
