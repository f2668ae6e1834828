package commands

import (
	"context"
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/enerator/internal/logfields"
	"git.home.luguber.info/inful/enerator/internal/metrics"
)

// GenerateCmd implements the 'generate' command.
type GenerateCmd struct {
	Module string `short:"m" help:"Generate a single page module (all routed pages when empty)"`
	Output string `short:"o" help:"Output directory (overrides the configured output directory)"`
}

func (gc *GenerateCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	if gc.Output != "" {
		cfg.Output.Directory = gc.Output
	}
	s, err := openSite(cfg, metrics.NoopRecorder{})
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	ctx := context.Background()
	out := cfg.OutputDir()
	var written []string
	if gc.Module != "" {
		var file string
		file, err = s.renderer.Generate(ctx, gc.Module, out)
		if file != "" {
			written = append(written, file)
		}
	} else {
		written, err = s.renderer.GenerateAll(ctx, out)
	}
	for _, f := range written {
		_, _ = fmt.Fprintln(g.Stdout, f)
	}
	if err != nil {
		return err
	}
	slog.Info("Static site generated", logfields.Output(out), slog.Int("pages", len(written)))
	return nil
}
