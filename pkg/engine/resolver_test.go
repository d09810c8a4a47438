package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prosaga/prosaga/pkg/models"
	"github.com/prosaga/prosaga/pkg/protocol"
)

// fakeStep is a scriptable step used by the engine and resolver tests.
type fakeStep struct {
	id           string
	stepType     models.StepType
	dependencies []string

	validateOK  bool
	validateErr error

	executeFn    func(ctx context.Context, pctx *models.Context) (*models.StepResult, error)
	compensateFn func(ctx context.Context, pctx *models.Context) (*models.StepResult, error)

	executions    int
	compensations int
}

func newFakeStep(id string, dependencies ...string) *fakeStep {
	return &fakeStep{
		id:           id,
		stepType:     models.StepTypeCommand,
		dependencies: dependencies,
		validateOK:   true,
		executeFn: func(_ context.Context, _ *models.Context) (*models.StepResult, error) {
			return &models.StepResult{Success: true, Data: map[string]any{"step": id}}, nil
		},
	}
}

func (s *fakeStep) ID() string             { return s.id }
func (s *fakeStep) Type() models.StepType  { return s.stepType }
func (s *fakeStep) Dependencies() []string { return s.dependencies }

func (s *fakeStep) Validate(_ context.Context, _ *models.Context) (bool, error) {
	return s.validateOK, s.validateErr
}

func (s *fakeStep) Execute(ctx context.Context, pctx *models.Context) (*models.StepResult, error) {
	s.executions++

	return s.executeFn(ctx, pctx)
}

func (s *fakeStep) Compensate(ctx context.Context, pctx *models.Context) (*models.StepResult, error) {
	s.compensations++

	if s.compensateFn != nil {
		return s.compensateFn(ctx, pctx)
	}

	return &models.StepResult{Success: true}, nil
}

func stepList(steps ...*fakeStep) []protocol.Step {
	out := make([]protocol.Step, len(steps))
	for i, s := range steps {
		out[i] = s
	}

	return out
}

func orderedIDs(steps []protocol.Step) []string {
	ids := make([]string, len(steps))
	for i, s := range steps {
		ids[i] = s.ID()
	}

	return ids
}

func TestResolveOrder_LinearChain(t *testing.T) {
	t.Parallel()

	order, err := resolveOrder(stepList(
		newFakeStep("c", "b"),
		newFakeStep("b", "a"),
		newFakeStep("a"),
	))

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, orderedIDs(order))
}

func TestResolveOrder_PreservesInputOrderForIndependentSteps(t *testing.T) {
	t.Parallel()

	order, err := resolveOrder(stepList(
		newFakeStep("first"),
		newFakeStep("second"),
		newFakeStep("third"),
	))

	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, orderedIDs(order))
}

func TestResolveOrder_Diamond(t *testing.T) {
	t.Parallel()

	order, err := resolveOrder(stepList(
		newFakeStep("merge", "left", "right"),
		newFakeStep("left", "root"),
		newFakeStep("right", "root"),
		newFakeStep("root"),
	))

	require.NoError(t, err)
	assert.Equal(t, []string{"root", "left", "right", "merge"}, orderedIDs(order))
}

func TestResolveOrder_Cycle(t *testing.T) {
	t.Parallel()

	_, err := resolveOrder(stepList(
		newFakeStep("a", "b"),
		newFakeStep("b", "a"),
	))

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDependencyCycle))
	assert.Contains(t, err.Error(), "a, b")
}

func TestResolveOrder_MissingDependency(t *testing.T) {
	t.Parallel()

	_, err := resolveOrder(stepList(
		newFakeStep("a", "ghost"),
	))

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDependencyCycle))
}

func TestResolveOrder_PartialProgressBeforeCycle(t *testing.T) {
	t.Parallel()

	_, err := resolveOrder(stepList(
		newFakeStep("ok"),
		newFakeStep("x", "y"),
		newFakeStep("y", "x"),
	))

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDependencyCycle))
	assert.Contains(t, err.Error(), "x, y")
	assert.NotContains(t, err.Error(), "ok")
}

func TestResolveOrder_Empty(t *testing.T) {
	t.Parallel()

	order, err := resolveOrder(nil)

	require.NoError(t, err)
	assert.Empty(t, order)
}
