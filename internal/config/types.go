package config

import "time"

// SitemapBackend selects the persistence used for the sitemap.
type SitemapBackend string

const (
	SitemapBackendJSON   SitemapBackend = "json"
	SitemapBackendSQLite SitemapBackend = "sqlite"
)

// SitemapConfig configures sitemap persistence
type SitemapConfig struct {
	Backend SitemapBackend `yaml:"backend"`
	Path    string         `yaml:"path"`
}

// OutputConfig represents static generation output configuration
type OutputConfig struct {
	Directory string `yaml:"directory"`
}

// CacheConfig bounds the page module cache
type CacheConfig struct {
	Capacity int `yaml:"capacity"`
}

// PreviewConfig configures the development preview server
type PreviewConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	StaticPrefixes []string      `yaml:"static_prefixes"`
	PollInterval   time.Duration `yaml:"poll_interval"`
	ChunkSize      int           `yaml:"chunk_size"`
	TLSCert        string        `yaml:"tls_cert,omitempty"`
	TLSKey         string        `yaml:"tls_key,omitempty"`
	MetricsAddr    string        `yaml:"metrics_addr,omitempty"`
}

// TLSEnabled reports whether both certificate and key are configured.
func (p PreviewConfig) TLSEnabled() bool {
	return p.TLSCert != "" && p.TLSKey != ""
}
