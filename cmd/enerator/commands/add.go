package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/enerator/internal/scaffold"
	"git.home.luguber.info/inful/enerator/internal/sitemap"
)

// AddCmd implements the 'add' command.
type AddCmd struct {
	Module   string `arg:"" help:"Dotted page module name, such as pages.about"`
	Sitepath string `short:"s" help:"URL path of the page (derived from the module name when empty)"`
	Title    string `short:"t" help:"Page title (derived from the module name when empty)"`
}

func (a *AddCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	store, err := sitemap.Open(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	res, err := scaffold.Add(context.Background(), scaffold.Options{
		Root:     cfg.Root,
		Module:   a.Module,
		Sitepath: a.Sitepath,
		Title:    a.Title,
		Store:    store,
	})
	if err != nil {
		return err
	}
	verb := "Created"
	if !res.Created {
		verb = "Updated"
	}
	_, _ = fmt.Fprintf(g.Stdout, "%s %s at %s (%s)\n", verb, a.Module, res.Sitepath, res.Dir)
	return nil
}
