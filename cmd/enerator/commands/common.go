package commands

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/enerator/internal/config"
)

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
	Stdout io.Writer
}

// CLI definition & global flags - used by commands that need access to root config.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path, relative paths resolve against --root" default:"enerator.yaml"`
	Root    string           `short:"r" help:"Site root directory (overrides the configured root)"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Add      AddCmd      `cmd:"" help:"Create a page module and register it in the sitemap"`
	Generate GenerateCmd `cmd:"" aliases:"gen" help:"Write the static site"`
	Preview  PreviewCmd  `cmd:"" help:"Serve pages with live reload"`

	// LogOutput receives log lines; stderr when nil.
	LogOutput io.Writer `kong:"-"`
}

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	out := c.LogOutput
	if out == nil {
		out = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// LoadConfig reads the configuration file and applies the --root override.
func (c *CLI) LoadConfig() (*config.Config, error) {
	path := c.Config
	if c.Root != "" && !filepath.IsAbs(path) {
		path = filepath.Join(c.Root, path)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if c.Root != "" {
		root, err := filepath.Abs(c.Root)
		if err != nil {
			return nil, err
		}
		cfg.Root = root
	}
	return cfg, nil
}
