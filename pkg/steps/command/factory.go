package command

import (
	"time"

	"github.com/prosaga/prosaga/pkg/protocol"
	"github.com/prosaga/prosaga/pkg/services"
	"github.com/prosaga/prosaga/pkg/steps/stepconf"
)

type Factory struct {
	locator *services.Locator
}

func NewFactory(locator *services.Locator) *Factory {
	return &Factory{locator: locator}
}

func (f *Factory) ID() string { return "command" }

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"handler": map[string]any{
				"type":        "string",
				"description": "Named handler resolved from the service locator",
			},
			"compensate_handler": map[string]any{
				"type":        "string",
				"description": "Named handler invoked during saga rollback",
			},
			"retry_backoff_ms": map[string]any{
				"type":        "integer",
				"description": "Base backoff between retry attempts in milliseconds",
			},
		},
		"required": []string{"handler"},
	}
}

func (f *Factory) Create(config map[string]any) (protocol.Step, error) {
	handler, err := f.locator.Handler(stepconf.String(config, "handler"))
	if err != nil {
		return nil, err
	}

	var compensator services.Handler

	if name := stepconf.String(config, "compensate_handler"); name != "" {
		compensator, err = f.locator.Handler(name)
		if err != nil {
			return nil, err
		}
	}

	backoff := DefaultBackoff
	if ms := stepconf.Int(config, "retry_backoff_ms"); ms > 0 {
		backoff = time.Duration(ms) * time.Millisecond
	}

	return &Step{
		id:           stepconf.String(config, "id"),
		dependencies: stepconf.StringSlice(config, "dependencies"),
		retryCount:   stepconf.Int(config, "retry_count"),
		backoff:      backoff,
		handler:      handler,
		compensator:  compensator,
	}, nil
}

var _ protocol.StepFactory = (*Factory)(nil)
