package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "git.home.luguber.info/inful/enerator/internal/errors"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(filepath.Join(dir, "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, SitemapBackendJSON, cfg.Sitemap.Backend)
	assert.Equal(t, "pages.json", cfg.Sitemap.Path)
	assert.Equal(t, 100, cfg.Cache.Capacity)
	assert.Equal(t, 8080, cfg.Preview.Port)
	assert.Equal(t, 2*time.Second, cfg.Preview.PollInterval)
	assert.Equal(t, 1024, cfg.Preview.ChunkSize)
	assert.Equal(t, []string{"/assets"}, cfg.Preview.StaticPrefixes)
	assert.True(t, filepath.IsAbs(cfg.Root))
}

func TestLoad_FileWithEnvExpansion(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ENERATOR_TEST_PORT", "9191")
	path := filepath.Join(dir, "enerator.yaml")
	content := `root: ` + dir + `
sitemap:
  backend: SQLite
output:
  directory: dist
preview:
  port: ${ENERATOR_TEST_PORT}
  poll_interval: 250ms
  static_prefixes: ["static/", "/img"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, SitemapBackendSQLite, cfg.Sitemap.Backend)
	assert.Equal(t, filepath.Join(dir, "pages.db"), cfg.SitemapPath())
	assert.Equal(t, filepath.Join(dir, "dist"), cfg.OutputDir())
	assert.Equal(t, 9191, cfg.Preview.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.Preview.PollInterval)
	assert.Equal(t, []string{"/static", "/img"}, cfg.Preview.StaticPrefixes)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.Sitemap.Backend = "redis" }},
		{"half tls", func(c *Config) { c.Preview.TLSCert = "cert.pem" }},
		{"nested prefix", func(c *Config) { c.Preview.StaticPrefixes = []string{"/a/b"} }},
		{"reserved prefix", func(c *Config) { c.Preview.StaticPrefixes = []string{"/sse"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := ValidateConfig(cfg)
			require.Error(t, err)
			assert.True(t, derrors.IsCategory(err, derrors.CategoryValidation))
		})
	}

	require.NoError(t, ValidateConfig(Default()))
}

func TestPreviewConfig_TLSEnabled(t *testing.T) {
	p := PreviewConfig{}
	assert.False(t, p.TLSEnabled())
	p.TLSCert, p.TLSKey = "c", "k"
	assert.True(t, p.TLSEnabled())
}
