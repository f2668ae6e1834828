package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/enerator/cmd/enerator/commands"
	eerrors "git.home.luguber.info/inful/enerator/internal/errors"
	"git.home.luguber.info/inful/enerator/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// exitRequest carries a kong exit (help, version) out of parsing.
type exitRequest int

func run(args []string, stdout, stderr io.Writer) (code int) {
	cli := &commands.CLI{LogOutput: stderr}
	parser, err := kong.New(cli,
		kong.Name("enerator"),
		kong.Description("A minimal static site generator with live-reload preview."),
		kong.Vars{"version": version.String()},
		kong.Writers(stdout, stderr),
		kong.Exit(func(c int) { panic(exitRequest(c)) }),
	)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, "enerator:", err)
		return 1
	}

	defer func() {
		if r := recover(); r != nil {
			c, ok := r.(exitRequest)
			if !ok {
				panic(r)
			}
			code = int(c)
		}
	}()

	if len(args) == 0 {
		args = []string{"--help"}
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		parser.Errorf("%s", err)
		return 2
	}

	err = kctx.Run(&commands.Global{Logger: slog.Default(), Stdout: stdout})
	if err != nil {
		return eerrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).Report(stderr, err)
	}
	return 0
}
