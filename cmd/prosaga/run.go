package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	cli "github.com/urfave/cli/v3"

	"github.com/prosaga/prosaga/pkg/cmd"
	"github.com/prosaga/prosaga/pkg/engine"
	"github.com/prosaga/prosaga/pkg/models"
	"github.com/prosaga/prosaga/pkg/services"
)

func run(ctx context.Context, logger *slog.Logger, command *cli.Command) error {
	definition, err := loadDefinition(command.String("definition"))
	if err != nil {
		return err
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(command.String("data")), &data); err != nil {
		return fmt.Errorf("failed to parse --data: %w", err)
	}

	store := cmd.NewEventStore(ctx, logger, command.String("event-store"))
	defer func() {
		if err := store.Close(ctx); err != nil {
			logger.Error("Failed to close event store", "error", err)
		}
	}()

	eventBus := cmd.NewEventBus(command.String("event-bus"), logger)
	defer func() {
		if err := eventBus.Close(); err != nil {
			logger.Error("Failed to close event bus", "error", err)
		}
	}()

	locator := services.NewLocator()
	registry := cmd.NewRegistry(logger, locator, command.String("plugins-path"))

	eng := engine.NewEngine(logger, registry, store).WithEventBus(eventBus)

	if schedule := command.String("schedule"); schedule != "" {
		return runScheduled(ctx, logger, eng, definition, data, schedule)
	}

	return runOnce(ctx, logger, eng, definition, data)
}

func runOnce(
	ctx context.Context,
	logger *slog.Logger,
	eng *engine.Engine,
	definition *models.ProcessDefinition,
	data map[string]any,
) error {
	pctx := models.NewContext()
	for k, v := range data {
		pctx.Data[k] = v
	}

	result, err := eng.ExecuteProcess(ctx, definition, pctx)
	if err != nil {
		return err
	}

	output, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}

	fmt.Println(string(output))

	logger.Info("Process completed",
		"process", definition.Name,
		"process_id", result.ProcessID,
		"steps", len(result.ExecutionTrace))

	return nil
}

// runScheduled triggers a fresh run of the definition on every cron tick
// until the context is cancelled. Failed runs are logged and do not stop
// the schedule.
func runScheduled(
	ctx context.Context,
	logger *slog.Logger,
	eng *engine.Engine,
	definition *models.ProcessDefinition,
	data map[string]any,
	schedule string,
) error {
	scheduler := cron.New()

	_, err := scheduler.AddFunc(schedule, func() {
		if err := runOnce(ctx, logger, eng, definition, data); err != nil {
			logger.Error("Scheduled run failed", "process", definition.Name, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid --schedule expression: %w", err)
	}

	logger.Info("Running on schedule", "process", definition.Name, "schedule", schedule)
	scheduler.Start()

	<-ctx.Done()
	<-scheduler.Stop().Done()

	return nil
}

func loadDefinition(path string) (*models.ProcessDefinition, error) {
	body, err := os.ReadFile(path) // #nosec G304 -- path comes from the CLI flag
	if err != nil {
		return nil, fmt.Errorf("failed to read definition file: %w", err)
	}

	var definition models.ProcessDefinition
	if err := json.Unmarshal(body, &definition); err != nil {
		return nil, fmt.Errorf("failed to parse definition file: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := definition.Validate(validate); err != nil {
		return nil, fmt.Errorf("invalid process definition: %w", err)
	}

	return &definition, nil
}
