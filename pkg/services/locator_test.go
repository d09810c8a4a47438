package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prosaga/prosaga/pkg/models"
	"github.com/prosaga/prosaga/pkg/services"
)

func TestLocator_Handlers(t *testing.T) {
	t.Parallel()

	locator := services.NewLocator()

	require.NoError(t, locator.RegisterHandler("greet", func(_ context.Context, _ *models.Context) (any, error) {
		return "hello", nil
	}))

	handler, err := locator.Handler("greet")
	require.NoError(t, err)

	out, err := handler(context.Background(), models.NewContext())
	require.NoError(t, err)
	assert.Equal(t, "hello", out)

	_, err = locator.Handler("missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, services.ErrNotRegistered))

	err = locator.RegisterHandler("greet", func(_ context.Context, _ *models.Context) (any, error) {
		return nil, nil
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, services.ErrAlreadyRegistered))
}

func TestLocator_Predicates(t *testing.T) {
	t.Parallel()

	locator := services.NewLocator()

	require.NoError(t, locator.RegisterPredicate("always", func(_ context.Context, _ *models.Context) (bool, error) {
		return true, nil
	}))

	predicate, err := locator.Predicate("always")
	require.NoError(t, err)

	ok, err := predicate(context.Background(), models.NewContext())
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = locator.Predicate("never")
	assert.True(t, errors.Is(err, services.ErrNotRegistered))
}

func TestLocator_Services(t *testing.T) {
	t.Parallel()

	type mailer struct{ from string }

	locator := services.NewLocator()
	require.NoError(t, locator.RegisterService("mailer", &mailer{from: "noreply"}))

	svc, err := locator.Service("mailer")
	require.NoError(t, err)

	m, ok := svc.(*mailer)
	require.True(t, ok)
	assert.Equal(t, "noreply", m.from)
}
