// Command forestctl is a demonstration and diagnostic CLI over the forest
// module's engines: balance, borderbalance, partition, and checksum each
// build a small forest, run one engine against it, and print a before/after
// summary - grounded on the same urfave/cli/v2 one-command-per-file layout
// and top-level App wiring as ues-lite's cmd/ds.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "forestctl",
		Usage: "exercise the forest module's mesh engines",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a YAML config file (FORESTCTL_* env vars also apply)",
			},
		},
		Commands: []*cli.Command{
			balanceCommand,
			borderBalanceCommand,
			partitionCommand,
			checksumCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "forestctl:", err)
		os.Exit(1)
	}
}
