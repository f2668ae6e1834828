package config

import (
	"strings"

	derrors "git.home.luguber.info/inful/enerator/internal/errors"
)

// ValidateConfig validates the complete configuration structure.
func ValidateConfig(cfg *Config) error {
	switch cfg.Sitemap.Backend {
	case SitemapBackendJSON, SitemapBackendSQLite:
	default:
		return derrors.ValidationFailed("sitemap.backend", "must be json or sqlite, got "+string(cfg.Sitemap.Backend))
	}
	if cfg.Preview.Port < 0 || cfg.Preview.Port > 65535 {
		return derrors.ValidationFailed("preview.port", "out of range")
	}
	if (cfg.Preview.TLSCert == "") != (cfg.Preview.TLSKey == "") {
		return derrors.ValidationFailed("preview.tls", "tls_cert and tls_key must be set together")
	}
	for _, prefix := range cfg.Preview.StaticPrefixes {
		if prefix == "/" || strings.Contains(strings.TrimPrefix(prefix, "/"), "/") {
			return derrors.ValidationFailed("preview.static_prefixes", "prefix must be a single path segment: "+prefix)
		}
		if prefix == "/sse" {
			return derrors.ValidationFailed("preview.static_prefixes", "/sse is reserved for live reload")
		}
	}
	return nil
}
