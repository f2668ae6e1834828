package commands

import (
	"git.home.luguber.info/inful/enerator/internal/config"
	"git.home.luguber.info/inful/enerator/internal/metrics"
	"git.home.luguber.info/inful/enerator/internal/module"
	"git.home.luguber.info/inful/enerator/internal/render"
	"git.home.luguber.info/inful/enerator/internal/routes"
	"git.home.luguber.info/inful/enerator/internal/sitemap"
)

// site bundles the collaborators every command works with.
type site struct {
	cfg      *config.Config
	store    sitemap.Store
	modules  *module.Cache
	routes   *routes.Table
	renderer *render.Renderer
}

func openSite(cfg *config.Config, recorder metrics.Recorder) (*site, error) {
	store, err := sitemap.Open(cfg)
	if err != nil {
		return nil, err
	}
	modules, err := module.NewCache(module.NewFSLoader(cfg.Root), cfg.Cache.Capacity)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	table := routes.New(store, modules)
	return &site{
		cfg:      cfg,
		store:    store,
		modules:  modules,
		routes:   table,
		renderer: render.New(modules, table, store, render.WithRecorder(recorder)),
	}, nil
}

func (s *site) Close() error {
	return s.store.Close()
}
