package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/trackly/trackly-api/config"
	"github.com/trackly/trackly-api/internal/domain/model"
	"github.com/urfave/cli/v2"
)

const (
	ServiceName      = "trackly-api"
	ServiceNamespace = "trackly"
)

var (
	version        = "0.0.0"
	commit         = "hash"
	commitDate     = time.Now().String()
	branch         = "branch"
	buildTimestamp = ""
)

func Run() error {
	model.ServerVersion = version

	app := &cli.App{
		Name:    ServiceName,
		Usage:   "Issue tracking API with live event streams",
		Version: version,
		Metadata: map[string]any{
			"commit":          commit,
			"commit_date":     commitDate,
			"branch":          branch,
			"build_timestamp": buildTimestamp,
		},
		Commands: []*cli.Command{
			serverCmd(),
			topCmd(),
		},
	}

	return app.Run(os.Args)
}

func serverCmd() *cli.Command {
	return &cli.Command{
		Name:    "server",
		Aliases: []string{"s"},
		Usage:   "Run the HTTP API server",
		// Flags are declared by config.Flags and parsed there, so --help
		// lists them through the usage text below.
		SkipFlagParsing: true,
		UsageText:       ServiceName + " server [--config_file path] " + flagUsage(),
		Action: func(c *cli.Context) error {
			cfg, err := config.LoadConfig(c.Args().Slice())
			if err != nil {
				return err
			}
			app := NewApp(cfg)

			if err := app.Start(c.Context); err != nil {
				return err
			}

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
			<-stop

			slog.Info("Shutting down...")
			ctx, cancel := context.WithTimeout(context.Background(), app.StopTimeout())
			defer cancel()
			return app.Stop(ctx)
		},
	}
}

func flagUsage() string {
	fs := config.Flags()
	return "\n\n" + fs.FlagUsages()
}
