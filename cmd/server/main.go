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

	app := &cli.Command{
		Name:  "catalogsync",
		Usage: "Mirror IPTV provider catalogs into a local database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "provider",
				Usage: "Provider backend: xtream or mock",
				Value: providerXtream,
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			syncCommand(),
			subscriptionsCommand(),
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "catalogsync: %v\n", err)
		os.Exit(1)
	}
}
