package engine

import (
	"fmt"
	"strings"

	"github.com/prosaga/prosaga/pkg/protocol"
)

// resolveOrder linearizes a step graph so every step appears after all of its
// dependencies. The scan preserves input order among eligible candidates,
// which makes the resulting execution trace reproducible for a given
// definition.
//
// A full pass over the remaining steps without progress means the graph has a
// cycle or references a step that does not exist; resolution aborts instead
// of looping.
func resolveOrder(steps []protocol.Step) ([]protocol.Step, error) {
	resolved := make([]protocol.Step, 0, len(steps))
	resolvedIDs := make(map[string]bool, len(steps))

	remaining := make([]protocol.Step, len(steps))
	copy(remaining, steps)

	for len(remaining) > 0 {
		progress := false

		next := remaining[:0]

		for _, step := range remaining {
			if !progress && dependenciesSatisfied(step, resolvedIDs) {
				resolved = append(resolved, step)
				resolvedIDs[step.ID()] = true
				progress = true

				continue
			}

			next = append(next, step)
		}

		if !progress {
			return nil, fmt.Errorf("%w: remaining steps [%s]", ErrDependencyCycle, stepIDs(remaining))
		}

		remaining = next
	}

	return resolved, nil
}

func dependenciesSatisfied(step protocol.Step, resolvedIDs map[string]bool) bool {
	for _, dep := range step.Dependencies() {
		if !resolvedIDs[dep] {
			return false
		}
	}

	return true
}

func stepIDs(steps []protocol.Step) string {
	ids := make([]string, 0, len(steps))
	for _, step := range steps {
		ids = append(ids, step.ID())
	}

	return strings.Join(ids, ", ")
}
