// Package web provides the HTTP handlers for managing process definitions
// and running them through the orchestration engine.
package web

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/prosaga/prosaga/pkg/engine"
	"github.com/prosaga/prosaga/pkg/eventstore"
	"github.com/prosaga/prosaga/pkg/models"
	"github.com/prosaga/prosaga/pkg/persistence"
	"github.com/prosaga/prosaga/pkg/registry"
)

type APIHandlers struct {
	persistence persistence.Persistence
	engine      *engine.Engine
	store       eventstore.EventStore
	registry    *registry.Registry
	validator   *validator.Validate
}

func NewAPIHandlers(
	persistence persistence.Persistence,
	engine *engine.Engine,
	store eventstore.EventStore,
	registry *registry.Registry,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		persistence: persistence,
		engine:      engine,
		store:       store,
		registry:    registry,
		validator:   validator,
	}
}

func (h *APIHandlers) GetProcesses(c fiber.Ctx) error {
	definitions, err := h.persistence.ProcessDefinitions(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{
		"processes":   definitions,
		"total_count": len(definitions),
	})
}

func (h *APIHandlers) GetProcess(c fiber.Ctx) error {
	name := c.Params("name")
	if name == "" {
		return badRequest(c, "Process name is required")
	}

	definition, err := h.persistence.ProcessDefinitionByName(c.Context(), name)
	if err != nil {
		if persistence.IsProcessNotFound(err) {
			return notFound(c, "Process definition not found")
		}

		return internalError(c, err)
	}

	return c.JSON(definition)
}

func (h *APIHandlers) CreateProcess(c fiber.Ctx) error {
	var definition models.ProcessDefinition
	if err := c.Bind().JSON(&definition); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := definition.Validate(h.validator); err != nil {
		return badRequest(c, err.Error())
	}

	if _, err := h.persistence.ProcessDefinitionByName(c.Context(), definition.Name); err == nil {
		return conflict(c, "Process definition already exists")
	} else if !persistence.IsProcessNotFound(err) {
		return internalError(c, err)
	}

	if err := h.persistence.SaveProcessDefinition(c.Context(), &definition); err != nil {
		return internalError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(definition)
}

func (h *APIHandlers) UpdateProcess(c fiber.Ctx) error {
	name := c.Params("name")
	if name == "" {
		return badRequest(c, "Process name is required")
	}

	if _, err := h.persistence.ProcessDefinitionByName(c.Context(), name); err != nil {
		if persistence.IsProcessNotFound(err) {
			return notFound(c, "Process definition not found")
		}

		return internalError(c, err)
	}

	var definition models.ProcessDefinition
	if err := c.Bind().JSON(&definition); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if definition.Name != name {
		return badRequest(c, "Process name in body must match URL")
	}

	if err := definition.Validate(h.validator); err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.persistence.SaveProcessDefinition(c.Context(), &definition); err != nil {
		return internalError(c, err)
	}

	return c.JSON(definition)
}

func (h *APIHandlers) DeleteProcess(c fiber.Ctx) error {
	name := c.Params("name")
	if name == "" {
		return badRequest(c, "Process name is required")
	}

	err := h.persistence.DeleteProcessDefinition(c.Context(), name)
	if err != nil {
		if persistence.IsProcessNotFound(err) {
			return notFound(c, "Process definition not found")
		}

		return internalError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ExecuteProcess runs a stored definition synchronously and returns the
// final context. A failed run still returns the context accumulated before
// the failure, alongside the error detail.
func (h *APIHandlers) ExecuteProcess(c fiber.Ctx) error {
	name := c.Params("name")
	if name == "" {
		return badRequest(c, "Process name is required")
	}

	definition, err := h.persistence.ProcessDefinitionByName(c.Context(), name)
	if err != nil {
		if persistence.IsProcessNotFound(err) {
			return notFound(c, "Process definition not found")
		}

		return internalError(c, err)
	}

	var req ExecuteProcessRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "Invalid JSON format")
		}
	}

	pctx := models.NewContext()
	pctx.UserID = req.UserID
	pctx.TenantID = req.TenantID

	for k, v := range req.Data {
		pctx.Data[k] = v
	}

	for k, v := range req.Metadata {
		pctx.Metadata[k] = v
	}

	result, execErr := h.engine.ExecuteProcess(c.Context(), definition, pctx)
	if execErr != nil {
		if engine.IsDependencyCycle(execErr) {
			return handleExecutionError(c, execErr)
		}

		body := fiber.Map{
			"success":    false,
			"process_id": pctx.ProcessID,
			"status":     "failed",
			"error":      execErr.Error(),
		}
		if procErr, ok := engine.AsProcessError(execErr); ok {
			body["failed_step"] = procErr.StepID
		}

		// The engine mutates the context in place, so the data and trace
		// accumulated before the failure are still visible here.
		body["context"] = pctx

		return c.Status(http.StatusUnprocessableEntity).JSON(body)
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"process_id": result.ProcessID,
		"status":     "completed",
		"context":    result,
	})
}

func (h *APIHandlers) GetExecution(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Process ID is required")
	}

	history, err := h.store.ProcessHistory(c.Context(), id)
	if err != nil {
		return handleExecutionError(c, err)
	}

	return c.JSON(fiber.Map{
		"process_id": id,
		"executions": history,
	})
}

func (h *APIHandlers) ReplayExecution(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Process ID is required")
	}

	replayed, err := h.store.ReplayProcess(c.Context(), id)
	if err != nil {
		return handleExecutionError(c, err)
	}

	return c.JSON(fiber.Map{
		"process_id": id,
		"context":    replayed,
	})
}

func (h *APIHandlers) GetSteps(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"steps": h.registry.AvailableSteps(),
	})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryErr := h.persistence.HealthCheck(c.Context())

	status := "healthy"
	message := "Prosaga API is healthy"
	httpStatus := http.StatusOK
	repositoryCheck := "ok"

	if repositoryErr != nil {
		status = "unhealthy"
		message = "Prosaga API is unhealthy"
		httpStatus = http.StatusInternalServerError
		repositoryCheck = repositoryErr.Error()
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
			"steps":      h.registry.ListSteps(),
		},
		"timestamp": time.Now().UTC(),
	})
}
