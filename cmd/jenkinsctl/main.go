package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/jenkinsrest/cmd/jenkinsctl/commands"
	"git.home.luguber.info/inful/jenkinsrest/internal/foundation/errors"
	"git.home.luguber.info/inful/jenkinsrest/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	global := commands.NewGlobal(ctx)
	var cli commands.CLI
	parser := kong.Parse(&cli,
		kong.Name("jenkinsctl"),
		kong.Description("Command line client for the Jenkins REST API"),
		kong.UsageOnError(),
		kong.Vars{"version": version.Version},
		kong.Bind(global),
	)

	if err := parser.Run(global, &cli); err != nil {
		stop()
		errors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
	}
}
