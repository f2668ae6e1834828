package commands

import (
	"context"
	"os/signal"
	"syscall"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/enerator/internal/config"
	"git.home.luguber.info/inful/enerator/internal/metrics"
	"git.home.luguber.info/inful/enerator/internal/preview"
)

// PreviewCmd serves the site with live reload until interrupted.
type PreviewCmd struct {
	Host        string `name:"host" help:"Listen host (overrides config)"`
	Port        int    `name:"port" short:"p" help:"Listen port (overrides config)"`
	TLSCert     string `name:"tls-cert" help:"TLS certificate file; serves HTTPS together with --tls-key"`
	TLSKey      string `name:"tls-key" help:"TLS private key file"`
	MetricsAddr string `name:"metrics-addr" help:"Address for the /metrics and /health admin listener"`
}

// apply overlays the flags given on the command line onto cfg.
func (p *PreviewCmd) apply(cfg *config.Config) error {
	if p.Host != "" {
		cfg.Preview.Host = p.Host
	}
	if p.Port != 0 {
		cfg.Preview.Port = p.Port
	}
	if p.TLSCert != "" {
		cfg.Preview.TLSCert = cfg.Resolve(p.TLSCert)
	}
	if p.TLSKey != "" {
		cfg.Preview.TLSKey = cfg.Resolve(p.TLSKey)
	}
	if p.MetricsAddr != "" {
		cfg.Preview.MetricsAddr = p.MetricsAddr
	}
	return config.ValidateConfig(cfg)
}

func (p *PreviewCmd) Run(g *Global, root *CLI) error {
	sigctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	if err := p.apply(cfg); err != nil {
		return err
	}

	var (
		recorder metrics.Recorder = metrics.NoopRecorder{}
		registry *prom.Registry
	)
	if cfg.Preview.MetricsAddr != "" {
		registry = prom.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(registry)
	}

	s, err := openSite(cfg, recorder)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	d := preview.NewDispatcher(s.renderer, s.routes, s.modules, preview.Options{
		Root:           cfg.Root,
		StaticPrefixes: cfg.Preview.StaticPrefixes,
		ChunkSize:      cfg.Preview.ChunkSize,
		PollInterval:   cfg.Preview.PollInterval,
		Recorder:       recorder,
		Logger:         g.Logger,
	})
	return preview.NewServer(cfg.Preview, d, s.store, registry, g.Logger).Run(sigctx)
}
