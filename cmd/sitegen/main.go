package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"github.com/mkrogh/sitegen/cmd/sitegen/commands"
	ferrors "github.com/mkrogh/sitegen/internal/foundation/errors"
	"github.com/mkrogh/sitegen/internal/version"
)

func main() {
	var cli commands.CLI
	ctx := kong.Parse(&cli,
		kong.Name("sitegen"),
		kong.Description("Static site generator: markdown and layouts in, HTML tree out."),
		kong.UsageOnError(),
		kong.Vars{"version": version.Version},
	)

	global := &commands.Global{Logger: slog.Default()}
	if err := ctx.Run(global, &cli); err != nil {
		// HandleError prints, logs and exits with the mapped code: 0 success,
		// 1 partial build, 2 fatal.
		ferrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
	}
}
