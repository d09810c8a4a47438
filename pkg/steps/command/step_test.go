package command_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prosaga/prosaga/pkg/models"
	"github.com/prosaga/prosaga/pkg/services"
	"github.com/prosaga/prosaga/pkg/steps/command"
)

func TestCommandStep_ExecuteSuccess(t *testing.T) {
	t.Parallel()

	locator := services.NewLocator()
	require.NoError(t, locator.RegisterHandler("charge", func(_ context.Context, pctx *models.Context) (any, error) {
		return map[string]any{"charged": pctx.Data["amount"]}, nil
	}))

	factory := command.NewFactory(locator)

	step, err := factory.Create(map[string]any{
		"id":      "charge_payment",
		"handler": "charge",
	})
	require.NoError(t, err)

	pctx := models.NewContext()
	pctx.Data["amount"] = 42

	result, err := step.Execute(context.Background(), pctx)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, map[string]any{"charged": 42}, result.Data)
}

func TestCommandStep_RetriesAreInvisibleToCaller(t *testing.T) {
	t.Parallel()

	attempts := 0
	locator := services.NewLocator()
	require.NoError(t, locator.RegisterHandler("flaky", func(_ context.Context, _ *models.Context) (any, error) {
		attempts++
		if attempts < 3 {
			return nil, errors.New("transient")
		}

		return map[string]any{"attempts": attempts}, nil
	}))

	factory := command.NewFactory(locator)

	step, err := factory.Create(map[string]any{
		"id":               "flaky_call",
		"handler":          "flaky",
		"retry_count":      2,
		"retry_backoff_ms": 1,
	})
	require.NoError(t, err)

	// The step resolves to a single successful outcome; the two transient
	// failures never surface.
	result, err := step.Execute(context.Background(), models.NewContext())
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 3, attempts)
}

func TestCommandStep_ExhaustedRetriesReportLastError(t *testing.T) {
	t.Parallel()

	attempts := 0
	locator := services.NewLocator()
	require.NoError(t, locator.RegisterHandler("down", func(_ context.Context, _ *models.Context) (any, error) {
		attempts++

		return nil, errors.New("connection refused")
	}))

	factory := command.NewFactory(locator)

	step, err := factory.Create(map[string]any{
		"id":               "doomed",
		"handler":          "down",
		"retry_count":      2,
		"retry_backoff_ms": 1,
	})
	require.NoError(t, err)

	result, err := step.Execute(context.Background(), models.NewContext())
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "connection refused", result.Error)
	assert.Equal(t, 3, attempts)
}

func TestCommandStep_NoRetriesByDefault(t *testing.T) {
	t.Parallel()

	attempts := 0
	locator := services.NewLocator()
	require.NoError(t, locator.RegisterHandler("once", func(_ context.Context, _ *models.Context) (any, error) {
		attempts++

		return nil, errors.New("nope")
	}))

	factory := command.NewFactory(locator)

	step, err := factory.Create(map[string]any{
		"id":      "single_shot",
		"handler": "once",
	})
	require.NoError(t, err)

	result, err := step.Execute(context.Background(), models.NewContext())
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 1, attempts)
}

func TestCommandStep_Compensate(t *testing.T) {
	t.Parallel()

	refunded := false
	locator := services.NewLocator()
	require.NoError(t, locator.RegisterHandler("charge", func(_ context.Context, _ *models.Context) (any, error) {
		return nil, nil
	}))
	require.NoError(t, locator.RegisterHandler("refund", func(_ context.Context, _ *models.Context) (any, error) {
		refunded = true

		return map[string]any{"refunded": true}, nil
	}))

	factory := command.NewFactory(locator)

	step, err := factory.Create(map[string]any{
		"id":                 "charge_payment",
		"handler":            "charge",
		"compensate_handler": "refund",
	})
	require.NoError(t, err)

	result, err := step.Compensate(context.Background(), models.NewContext())
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.True(t, refunded)
}

func TestCommandStep_CompensateWithoutHandlerIsNoop(t *testing.T) {
	t.Parallel()

	locator := services.NewLocator()
	require.NoError(t, locator.RegisterHandler("noop", func(_ context.Context, _ *models.Context) (any, error) {
		return nil, nil
	}))

	factory := command.NewFactory(locator)

	step, err := factory.Create(map[string]any{
		"id":      "fire_and_forget",
		"handler": "noop",
	})
	require.NoError(t, err)

	result, err := step.Compensate(context.Background(), models.NewContext())
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestCommandFactory_UnknownHandler(t *testing.T) {
	t.Parallel()

	factory := command.NewFactory(services.NewLocator())

	_, err := factory.Create(map[string]any{
		"id":      "ghost",
		"handler": "missing",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, services.ErrNotRegistered))
}
