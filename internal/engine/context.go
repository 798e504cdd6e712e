package engine

import (
	"context"

	"github.com/tyemirov/forge/internal/capability"
)

const runContextKeyConstant = runContextKey("runContext")

type runContextKey string

// RunContext carries run-scoped build state: the requested target, the active
// build configuration, and the detected capability set. It is passed
// explicitly through the execution context, never held in package state.
type RunContext struct {
	RunID            string
	Target           string
	Configuration    string
	Capabilities     capability.Set
	WorkingDirectory string
}

// RunContextAccessor manages the run context stored in execution contexts.
type RunContextAccessor struct{}

// NewRunContextAccessor constructs a RunContextAccessor instance.
func NewRunContextAccessor() RunContextAccessor {
	return RunContextAccessor{}
}

// WithRunContext attaches the run context to the provided context.
func (accessor RunContextAccessor) WithRunContext(parentContext context.Context, runContext RunContext) context.Context {
	if parentContext == nil {
		parentContext = context.Background()
	}
	return context.WithValue(parentContext, runContextKeyConstant, runContext)
}

// RunContext extracts the run context from the provided execution context.
func (accessor RunContextAccessor) RunContext(executionContext context.Context) (RunContext, bool) {
	if executionContext == nil {
		return RunContext{}, false
	}
	value, valueAvailable := executionContext.Value(runContextKeyConstant).(RunContext)
	if !valueAvailable {
		return RunContext{}, false
	}
	return value, true
}
