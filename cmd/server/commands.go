package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/cesargomez89/catalogsync/internal/domain"
	httpapp "github.com/cesargomez89/catalogsync/internal/http"
	"github.com/cesargomez89/catalogsync/internal/scheduler"
	"github.com/cesargomez89/catalogsync/internal/supervisor"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API and the sync scheduler",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(true)
			if err != nil {
				return err
			}
			app, err := newApplication(cfg, cmd.String("provider"))
			if err != nil {
				return err
			}
			defer app.Close()

			if n, err := app.db.ResetStuckRuns(ctx); err != nil {
				app.logger.Warn("Failed to reset interrupted runs", "error", err)
			} else if n > 0 {
				app.logger.Info("Marked interrupted runs as failed", "count", n)
			}

			h := httpapp.NewHandler(app.runner, app.db, app.hub, app.logger)
			router := httpapp.NewRouter(h, httpapp.RouterConfig{
				CronSecret:       cfg.CronSecret,
				TriggerRateLimit: cfg.TriggerRateLimit,
			})
			srv := &http.Server{
				Addr:              ":" + cfg.Port,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			tree := supervisor.NewTree(app.logger.Logger, supervisor.DefaultTreeConfig())
			tree.AddAPIService(supervisor.NewHTTPService(srv, 10*time.Second))
			tree.AddWorker(scheduler.New(app.runner, cfg.SyncInterval, app.logger))

			app.logger.Info("Server listening", "addr", srv.Addr)
			if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			app.logger.Info("Server exiting")
			return nil
		},
	}
}

func syncCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Run one sync now and print the outcomes as JSON",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "subscription",
				Usage: "Only sync this subscription id",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(false)
			if err != nil {
				return err
			}
			app, err := newApplication(cfg, cmd.Root().String("provider"))
			if err != nil {
				return err
			}
			defer app.Close()

			var outcomes []domain.Outcome
			if id := int64(cmd.Int("subscription")); id > 0 {
				out, err := app.runner.RunOne(ctx, id)
				if err != nil {
					return err
				}
				outcomes = []domain.Outcome{out}
			} else {
				outcomes, err = app.runner.RunAll(ctx)
				if err != nil {
					return err
				}
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(outcomes)
		},
	}
}

func subscriptionsCommand() *cli.Command {
	return &cli.Command{
		Name:  "subscriptions",
		Usage: "Manage provider subscriptions",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Register a provider account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "host", Usage: "Provider base URL", Required: true},
					&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Required: true},
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Required: true},
					&cli.StringFlag{Name: "owner", Usage: "Opaque owner reference"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withStore(ctx, cmd, func(app *application) error {
						sub := &domain.Subscription{
							Host:     cmd.String("host"),
							Username: cmd.String("username"),
							Password: cmd.String("password"),
							OwnerRef: cmd.String("owner"),
						}
						if err := app.db.CreateSubscription(ctx, sub); err != nil {
							return fmt.Errorf("failed to add subscription: %w", err)
						}
						fmt.Printf("Added subscription %d (%s)\n", sub.ID, sub.Host)
						return nil
					})
				},
			},
			{
				Name:  "list",
				Usage: "List registered subscriptions",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withStore(ctx, cmd, func(app *application) error {
						subs, err := app.db.ListSubscriptions(ctx)
						if err != nil {
							return err
						}
						tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
						fmt.Fprintln(tw, "ID\tHOST\tUSERNAME\tOWNER\tLAST RUN")
						for _, s := range subs {
							last := "-"
							if run, err := app.db.LatestRun(ctx, s.ID); err == nil && run != nil {
								last = fmt.Sprintf("%s (%s)", run.Status, run.UpdatedAt.Format(time.RFC3339))
							}
							fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", s.ID, s.Host, s.Username, s.OwnerRef, last)
						}
						return tw.Flush()
					})
				},
			},
			{
				Name:  "remove",
				Usage: "Delete a subscription and its catalog",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "id", Required: true},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withStore(ctx, cmd, func(app *application) error {
						id := int64(cmd.Int("id"))
						if err := app.db.DeleteSubscription(ctx, id); err != nil {
							return err
						}
						fmt.Printf("Removed subscription %d\n", id)
						return nil
					})
				},
			},
		},
	}
}

func withStore(ctx context.Context, cmd *cli.Command, fn func(app *application) error) error {
	cfg, err := loadConfig(false)
	if err != nil {
		return err
	}
	app, err := newApplication(cfg, cmd.Root().String("provider"))
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(app)
}
