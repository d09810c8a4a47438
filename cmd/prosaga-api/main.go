package main

import (
	"context"
	"os"
	"time"

	cli "github.com/urfave/cli/v3"

	"github.com/prosaga/prosaga/pkg/circuit"
	"github.com/prosaga/prosaga/pkg/cmd"
	"github.com/prosaga/prosaga/pkg/engine"
	"github.com/prosaga/prosaga/pkg/log"
	"github.com/prosaga/prosaga/pkg/otelhelper"
	"github.com/prosaga/prosaga/pkg/services"
)

const defaultPort = 9091

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "prosaga-api",
		Usage:                 "Create, manage and execute saga process definitions",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Storage URL for process definitions",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
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
			&cli.IntFlag{
				Name:    "breaker-threshold",
				Usage:   "Consecutive failures before a step's circuit opens",
				Value:   circuit.DefaultFailureThreshold,
				Sources: cli.EnvVars("BREAKER_THRESHOLD"),
			},
			&cli.IntFlag{
				Name:    "breaker-timeout",
				Usage:   "Seconds an open circuit waits before a half-open probe",
				Value:   int(circuit.DefaultTimeout / time.Second),
				Sources: cli.EnvVars("BREAKER_TIMEOUT"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Enable OpenTelemetry tracing",
				Sources: cli.EnvVars("TRACING_ENABLED"),
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
				Value:   "json",
				Sources: cli.EnvVars("LOG_FORMAT"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"), command.String("log-format"))

			logger.InfoContext(ctx, "Initializing Prosaga API")

			persistence := cmd.NewPersistence(command.String("database-url"))
			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			store := cmd.NewEventStore(ctx, logger, command.String("event-store"))
			defer func() {
				if err := store.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close event store", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(command.String("event-bus"), logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			locator := services.NewLocator()
			registry := cmd.NewRegistry(logger, locator, command.String("plugins-path"))

			eng := engine.NewEngine(logger, registry, store).
				WithEventBus(eventBus).
				WithBreakerConfig(
					command.Int("breaker-threshold"),
					time.Duration(command.Int("breaker-timeout"))*time.Second,
				)

			if command.Bool("tracing") {
				tracer, err := otelhelper.NewTracer(ctx, "prosaga-api")
				if err != nil {
					return err
				}

				eng = eng.WithTracer(tracer)
			}

			api := NewAPI(logger, persistence, eng, store, registry)

			if err := api.Start(command.Int("port")); err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)

				return err
			}

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		logger.Error("Run failed", "error", err)
		os.Exit(1)
	}
}
