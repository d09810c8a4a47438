package web

import (
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"

	"github.com/prosaga/prosaga/pkg/engine"
	"github.com/prosaga/prosaga/pkg/eventstore"
	"github.com/prosaga/prosaga/pkg/persistence"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType("not_found").
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func conflict(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(409).
		WithInstance(c.Path()).
		WithType("conflict").
		WithDetail(detail)

	return c.Status(fiber.StatusConflict).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleExecutionError maps engine errors onto problem responses.
func handleExecutionError(c fiber.Ctx, err error) error {
	switch {
	case engine.IsDependencyCycle(err):
		problem := problems.NewStatusProblem(422).
			WithInstance(c.Path()).
			WithType("dependency_cycle").
			WithDetail(err.Error())

		return c.Status(fiber.StatusUnprocessableEntity).JSON(problem)

	case engine.IsCircuitOpen(err):
		problem := problems.NewStatusProblem(503).
			WithInstance(c.Path()).
			WithType("circuit_open").
			WithDetail(err.Error())

		return c.Status(fiber.StatusServiceUnavailable).JSON(problem)

	case persistence.IsProcessNotFound(err):
		return notFound(c, "process definition not found")

	case eventstore.IsProcessHistoryNotFound(err):
		return notFound(c, "no execution history for process")

	default:
		return internalError(c, err)
	}
}
