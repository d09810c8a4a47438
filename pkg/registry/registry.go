// Package registry maps step type names to factories and constructs step
// instances from declarative configuration. The registry is built explicitly
// by whoever assembles the engine; there is no package-level shared instance.
package registry

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/prosaga/prosaga/pkg/models"
	"github.com/prosaga/prosaga/pkg/protocol"
	"github.com/prosaga/prosaga/pkg/steps/critical"
)

type Registry struct {
	logger *slog.Logger

	mu        sync.RWMutex
	factories map[string]protocol.StepFactory
	aliases   map[string]string
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:    logger,
		factories: make(map[string]protocol.StepFactory),
		aliases:   make(map[string]string),
	}
}

// Register adds a step factory under its own type name.
func (r *Registry) Register(factory protocol.StepFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[factory.ID()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateFactory, factory.ID())
	}

	r.factories[factory.ID()] = factory
	r.logger.Debug("Registered step factory", "type", factory.ID())

	return nil
}

// RegisterAlias makes alias resolve to an already registered type name.
func (r *Registry) RegisterAlias(alias, target string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[target]; !exists {
		return fmt.Errorf("%w: alias target %s", ErrStepNotRegistered, target)
	}

	if _, exists := r.factories[alias]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateFactory, alias)
	}

	r.aliases[alias] = target

	return nil
}

// CreateStep constructs a step instance of the given type. The step's
// identity, dependencies and retry policy are injected into the config the
// factory receives; params are validated against the factory's schema first.
func (r *Registry) CreateStep(stepType, stepID string, config map[string]any) (protocol.Step, error) {
	factory, err := r.factory(stepType)
	if err != nil {
		return nil, err
	}

	if err := r.validateConfig(factory, stepType, stepID, config); err != nil {
		return nil, err
	}

	merged := make(map[string]any, len(config)+1)
	for k, v := range config {
		merged[k] = v
	}

	merged["id"] = stepID

	step, err := factory.Create(merged)
	if err != nil {
		return nil, fmt.Errorf("failed to create step %s of type %s: %w", stepID, stepType, err)
	}

	return step, nil
}

// BuildSteps constructs every step of a process definition, wrapping steps
// flagged critical with the escalating decorator. Implements engine.StepSource.
func (r *Registry) BuildSteps(definition *models.ProcessDefinition) ([]protocol.Step, error) {
	steps := make([]protocol.Step, 0, len(definition.Steps))

	for _, sd := range definition.Steps {
		config := make(map[string]any, len(sd.Params)+2)
		for k, v := range sd.Params {
			config[k] = v
		}

		config["dependencies"] = sd.Dependencies
		config["retry_count"] = sd.RetryCount

		step, err := r.CreateStep(sd.Type, sd.Name, config)
		if err != nil {
			return nil, err
		}

		if sd.Critical {
			step = critical.Wrap(step, r.logger)
		}

		steps = append(steps, step)
	}

	return steps, nil
}

// AvailableSteps returns the schema of every registered type, keyed by type
// name. Aliases are not expanded.
func (r *Registry) AvailableSteps() map[string]map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	available := make(map[string]map[string]any, len(r.factories))
	for name, factory := range r.factories {
		available[name] = factory.Schema()
	}

	return available
}

// ListSteps returns registered type names, sorted, with aliases included.
func (r *Registry) ListSteps() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories)+len(r.aliases))
	for name := range r.factories {
		names = append(names, name)
	}

	for alias := range r.aliases {
		names = append(names, alias)
	}

	sort.Strings(names)

	return names
}

func (r *Registry) factory(stepType string) (protocol.StepFactory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if target, ok := r.aliases[stepType]; ok {
		stepType = target
	}

	factory, ok := r.factories[stepType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrStepNotRegistered, stepType)
	}

	return factory, nil
}

// validateConfig checks the step config against the factory's JSON schema.
// Schemas constrain a type's own params; extra keys like dependencies and
// retry_count pass through untouched.
func (r *Registry) validateConfig(factory protocol.StepFactory, stepType, stepID string, config map[string]any) error {
	schema := factory.Schema()
	if len(schema) == 0 {
		return nil
	}

	schemaLoader := gojsonschema.NewGoLoader(schema)
	configLoader := gojsonschema.NewGoLoader(config)

	result, err := gojsonschema.Validate(schemaLoader, configLoader)
	if err != nil {
		return fmt.Errorf("failed to validate config for step %s of type %s: %w", stepID, stepType, err)
	}

	if result.Valid() {
		return nil
	}

	for _, resultError := range result.Errors() {
		if resultError.Type() == "required" {
			return fmt.Errorf("%w: step %s of type %s: %s",
				ErrMissingParameter, stepID, stepType, resultError.Description())
		}
	}

	return fmt.Errorf("%w: step %s of type %s: %s",
		ErrInvalidConfig, stepID, stepType, result.Errors()[0].Description())
}
