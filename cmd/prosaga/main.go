// Package main provides the prosaga command-line process runner.
package main

import (
	"context"
	"os"

	"github.com/prosaga/prosaga/pkg/log"
	cli "github.com/urfave/cli/v3"
)

func main() {
	logger := log.WithModule("runner")

	cmd := &cli.Command{
		Name:                  "prosaga",
		Usage:                 "Run saga process definitions from the command line",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "definition",
				Aliases:  []string{"f"},
				Usage:    "Path to the process definition JSON file",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "Initial context data as a JSON object",
				Value:   "{}",
			},
			&cli.StringFlag{
				Name:    "event-store",
				Usage:   "Event store URL (memory://, file://<path>, redis://..., postgres://...)",
				Value:   "memory://",
				Sources: cli.EnvVars("EVENT_STORE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:  "plugins-path",
				Usage: "Path to the directory containing step plugins",
				Value: "",
			},
			&cli.StringFlag{
				Name:  "schedule",
				Usage: "Cron expression to run the process repeatedly instead of once",
				Value: "",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log format (text, json)",
				Value:   "text",
				Sources: cli.EnvVars("LOG_FORMAT"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"), command.String("log-format"))

			return run(ctx, logger, command)
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		logger.Error("Run failed", "error", err)
		os.Exit(1)
	}
}
