package web_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prosaga/prosaga/pkg/engine"
	"github.com/prosaga/prosaga/pkg/eventstore"
	"github.com/prosaga/prosaga/pkg/models"
	"github.com/prosaga/prosaga/pkg/persistence/file"
	"github.com/prosaga/prosaga/pkg/registry"
	"github.com/prosaga/prosaga/pkg/services"
	"github.com/prosaga/prosaga/pkg/steps/logstep"
	"github.com/prosaga/prosaga/pkg/steps/validation"
	"github.com/prosaga/prosaga/pkg/web"
)

func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()

	persistence := file.NewPersistence(t.TempDir())
	store := eventstore.NewMemoryStore()

	reg := registry.NewRegistry(slog.Default())
	require.NoError(t, reg.Register(validation.NewFactory(services.NewLocator())))
	require.NoError(t, reg.Register(logstep.NewFactory(slog.Default())))

	eng := engine.NewEngine(slog.Default(), reg, store)
	validate := validator.New(validator.WithRequiredStructEnabled())

	handlers := web.NewAPIHandlers(persistence, eng, store, reg, validate)

	app := fiber.New()

	p := app.Group("/processes")
	p.Get("/", handlers.GetProcesses)
	p.Post("/", handlers.CreateProcess)
	p.Get("/:name", handlers.GetProcess)
	p.Put("/:name", handlers.UpdateProcess)
	p.Delete("/:name", handlers.DeleteProcess)
	p.Post("/:name/execute", handlers.ExecuteProcess)

	e := app.Group("/executions")
	e.Get("/:id", handlers.GetExecution)
	e.Get("/:id/replay", handlers.ReplayExecution)

	app.Get("/steps", handlers.GetSteps)
	app.Get("/health", handlers.HealthCheck)

	return app
}

func greetingDefinition() map[string]any {
	return map[string]any{
		"name": "greeting-flow",
		"steps": []map[string]any{
			{
				"name": "check_input",
				"type": "validation",
				"params": map[string]any{
					"required_keys": []string{"name"},
				},
			},
			{
				"name":         "greet",
				"type":         "log",
				"dependencies": []string{"check_input"},
				"params": map[string]any{
					"message": "hello {{ .data.name }}",
				},
			},
		},
	}
}

func createProcess(t *testing.T, app *fiber.App, definition map[string]any) {
	t.Helper()

	body, err := json.Marshal(definition)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/processes/", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestAPIHandlers_CreateAndGetProcess(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)
	createProcess(t, app, greetingDefinition())

	req := httptest.NewRequest(http.MethodGet, "/processes/greeting-flow", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var definition models.ProcessDefinition
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, &definition))

	assert.Equal(t, "greeting-flow", definition.Name)
	assert.Len(t, definition.Steps, 2)
}

func TestAPIHandlers_CreateProcessValidation(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)

	tests := []struct {
		name           string
		definition     map[string]any
		expectedStatus int
	}{
		{
			name:           "missing steps",
			definition:     map[string]any{"name": "no-steps"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "dependency on undeclared step",
			definition: map[string]any{
				"name": "broken-flow",
				"steps": []map[string]any{
					{"name": "a", "type": "log", "dependencies": []string{"ghost"}},
				},
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			body, err := json.Marshal(tt.definition)
			require.NoError(t, err)

			req := httptest.NewRequest(http.MethodPost, "/processes/", bytes.NewBuffer(body))
			req.Header.Set("Content-Type", "application/json")

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}
}

func TestAPIHandlers_CreateDuplicateProcess(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)
	createProcess(t, app, greetingDefinition())

	body, err := json.Marshal(greetingDefinition())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/processes/", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAPIHandlers_GetProcessNotFound(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/processes/ghost", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIHandlers_DeleteProcess(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)
	createProcess(t, app, greetingDefinition())

	req := httptest.NewRequest(http.MethodDelete, "/processes/greeting-flow", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/processes/greeting-flow", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIHandlers_ExecuteProcess(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)
	createProcess(t, app, greetingDefinition())

	body, err := json.Marshal(web.ExecuteProcessRequest{
		Data: map[string]any{"name": "ada"},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/processes/greeting-flow/execute", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var result struct {
		ProcessID string         `json:"process_id"`
		Status    string         `json:"status"`
		Context   models.Context `json:"context"`
	}
	require.NoError(t, json.Unmarshal(respBody, &result))

	assert.Equal(t, "completed", result.Status)
	assert.NotEmpty(t, result.ProcessID)
	assert.Contains(t, result.Context.Data, models.ResultKey("check_input"))
	assert.Contains(t, result.Context.Data, models.ResultKey("greet"))
	assert.Len(t, result.Context.ExecutionTrace, 2)
}

func TestAPIHandlers_ExecuteProcessFailureReturnsFailedStep(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)
	createProcess(t, app, greetingDefinition())

	// No "name" in the initial data, so the validation step fails.
	req := httptest.NewRequest(http.MethodPost, "/processes/greeting-flow/execute", bytes.NewBufferString("{}"))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var result struct {
		Status     string `json:"status"`
		FailedStep string `json:"failed_step"`
		Error      string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(respBody, &result))

	assert.Equal(t, "failed", result.Status)
	assert.Equal(t, "check_input", result.FailedStep)
	assert.Contains(t, result.Error, "check_input")
}

func TestAPIHandlers_ExecutionHistoryAndReplay(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)
	createProcess(t, app, greetingDefinition())

	body, err := json.Marshal(web.ExecuteProcessRequest{
		Data: map[string]any{"name": "ada"},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/processes/greeting-flow/execute", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var executed struct {
		ProcessID string `json:"process_id"`
	}
	require.NoError(t, json.Unmarshal(respBody, &executed))

	req = httptest.NewRequest(http.MethodGet, "/executions/"+executed.ProcessID, nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	respBody, err = io.ReadAll(resp.Body)
	require.NoError(t, err)

	var history struct {
		Executions []*models.StepExecution `json:"executions"`
	}
	require.NoError(t, json.Unmarshal(respBody, &history))
	assert.Len(t, history.Executions, 2)

	req = httptest.NewRequest(http.MethodGet, "/executions/"+executed.ProcessID+"/replay", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	respBody, err = io.ReadAll(resp.Body)
	require.NoError(t, err)

	var replay struct {
		Context models.Context `json:"context"`
	}
	require.NoError(t, json.Unmarshal(respBody, &replay))
	assert.Contains(t, replay.Context.Data, models.ResultKey("greet"))
}

func TestAPIHandlers_ReplayUnknownProcess(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/executions/unknown/replay", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIHandlers_GetSteps(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/steps", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var steps struct {
		Steps map[string]map[string]any `json:"steps"`
	}
	require.NoError(t, json.Unmarshal(respBody, &steps))
	assert.Contains(t, steps.Steps, "validation")
	assert.Contains(t, steps.Steps, "log")
}

func TestAPIHandlers_HealthCheck(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
