// Command gearledger runs the equipment ledger HTTP server and offers
// direct access to the ledger from the shell.
//
// Query and record commands print JSON on stdout.
// Exit codes: 0 = success, 1 = error, 2 = event rejected by a ledger rule,
// 3 = invalid input.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func newRootCommand() *cli.Command {
	return &cli.Command{
		Name:  "gearledger",
		Usage: "Equipment lifecycle event ledger",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "YAML config file (default ./config.yaml when present)",
				Sources: cli.EnvVars("CONFIG_PATH"),
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
			recordCommand(),
			historyCommand(),
			latestCommand(),
			eventCommand(),
		},
	}
}
