// Package cmd provides common initialization for the command-line binaries.
package cmd

import (
	"log/slog"

	"github.com/prosaga/prosaga/pkg/registry"
	"github.com/prosaga/prosaga/pkg/services"
	"github.com/prosaga/prosaga/pkg/steps/command"
	"github.com/prosaga/prosaga/pkg/steps/logstep"
	"github.com/prosaga/prosaga/pkg/steps/query"
	"github.com/prosaga/prosaga/pkg/steps/validation"
)

func registerNativeSteps(reg *registry.Registry, logger *slog.Logger, locator *services.Locator) {
	mustRegister(reg.Register(validation.NewFactory(locator)))
	mustRegister(reg.Register(command.NewFactory(locator)))
	mustRegister(reg.Register(query.NewFactory(locator)))
	mustRegister(reg.Register(logstep.NewFactory(logger)))

	mustRegister(reg.RegisterAlias("validate", "validation"))
	mustRegister(reg.RegisterAlias("cmd", "command"))
	mustRegister(reg.RegisterAlias("side_effect", "command"))
	mustRegister(reg.RegisterAlias("select", "query"))
}

func mustRegister(err error) {
	if err != nil {
		panic(err)
	}
}

func NewRegistry(logger *slog.Logger, locator *services.Locator, pluginsPath string) *registry.Registry {
	reg := registry.NewRegistry(logger)

	registerNativeSteps(reg, logger, locator)

	if pluginsPath != "" {
		if err := reg.LoadPlugins(pluginsPath); err != nil {
			panic(err)
		}
	}

	return reg
}
