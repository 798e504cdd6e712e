package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tyemirov/forge/internal/taskgraph"
)

const (
	registryNotConfiguredMessageConstant = "execution engine registry not configured"
	runStartMessageConstant              = "pipeline run starting"
	runSucceededMessageConstant          = "pipeline run completed"
	runFailedMessageConstant             = "pipeline run failed"
	taskStartMessageConstant             = "task action starting"
	taskSucceededMessageConstant         = "task action completed"
	taskSkippedMessageConstant           = "task action skipped by guard"
	runIdentifierFieldNameConstant       = "run_id"
	targetFieldNameConstant              = "target"
	taskFieldNameConstant                = "task"
	iterationItemFieldNameConstant       = "item"
	resolvedOrderFieldNameConstant       = "resolved_order"
	taskFailureErrorTemplateConstant     = "task %q failed: %v"
	guardFailureErrorTemplateConstant    = "guard evaluation failed: %w"
	iterationFailureErrorTemplate        = "iteration source evaluation failed: %w"
)

// ErrRegistryNotConfigured indicates the engine was constructed without a registry.
var ErrRegistryNotConfigured = errors.New(registryNotConfiguredMessageConstant)

// TaskFailureError attaches the originating task name to an action failure.
type TaskFailureError struct {
	TaskName string
	Cause    error
}

// Error implements the error interface.
func (failure TaskFailureError) Error() string {
	return fmt.Sprintf(taskFailureErrorTemplateConstant, failure.TaskName, failure.Cause)
}

// Unwrap exposes the underlying failure.
func (failure TaskFailureError) Unwrap() error {
	return failure.Cause
}

// Engine walks a resolved task sequence, running each task action exactly
// once per run and aborting the remaining sequence on first failure. The
// registry is shared across runs; pass/fail state never is.
type Engine struct {
	registry *taskgraph.Registry
	logger   *zap.Logger
	accessor RunContextAccessor
}

// NewEngine constructs an Engine for the provided registry.
func NewEngine(registry *taskgraph.Registry, logger *zap.Logger) (*Engine, error) {
	if registry == nil {
		return nil, ErrRegistryNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{registry: registry, logger: logger, accessor: NewRunContextAccessor()}, nil
}

// Run resolves the target into an ordered task sequence, then executes every
// action in order. Resolution errors (unknown names, cycles) surface before
// any action runs. Guards default to true; a false guard skips the action but
// marks the task done so downstream tasks are unaffected. Iteration sources
// are evaluated lazily at run time and produce one consistent snapshot per run.
func (engine *Engine) Run(executionContext context.Context, targetName string, runContext RunContext) (RunOutcome, error) {
	if len(runContext.RunID) == 0 {
		runContext.RunID = uuid.NewString()
	}
	runContext.Target = targetName

	outcome := RunOutcome{
		RunID:          runContext.RunID,
		Target:         targetName,
		IterationCount: make(map[string]int),
		StartTime:      time.Now(),
	}

	resolvedOrder, resolutionError := engine.registry.Resolve(targetName)
	if resolutionError != nil {
		return outcome, resolutionError
	}
	outcome.ResolvedOrder = resolvedOrder

	engine.logger.Info(runStartMessageConstant,
		zap.String(runIdentifierFieldNameConstant, runContext.RunID),
		zap.String(targetFieldNameConstant, targetName),
		zap.Strings(resolvedOrderFieldNameConstant, resolvedOrder),
	)

	taskContext := engine.accessor.WithRunContext(executionContext, runContext)

	for _, taskName := range resolvedOrder {
		task, lookupError := engine.registry.Lookup(taskName)
		if lookupError != nil {
			return engine.finishOutcome(outcome), lookupError
		}

		if executionError := engine.runTask(taskContext, task, &outcome); executionError != nil {
			finishedOutcome := engine.finishOutcome(outcome)
			engine.logger.Error(runFailedMessageConstant,
				zap.String(runIdentifierFieldNameConstant, runContext.RunID),
				zap.String(taskFieldNameConstant, taskName),
				zap.Error(executionError),
			)
			return finishedOutcome, executionError
		}
	}

	finishedOutcome := engine.finishOutcome(outcome)
	engine.logger.Info(runSucceededMessageConstant,
		zap.String(runIdentifierFieldNameConstant, runContext.RunID),
		zap.String(targetFieldNameConstant, targetName),
		zap.Strings(resolvedOrderFieldNameConstant, finishedOutcome.ExecutedTasks),
	)
	return finishedOutcome, nil
}

func (engine *Engine) runTask(taskContext context.Context, task taskgraph.Task, outcome *RunOutcome) error {
	if task.Guard != nil {
		guardAllows, guardError := task.Guard(taskContext)
		if guardError != nil {
			return TaskFailureError{TaskName: task.Name, Cause: fmt.Errorf(guardFailureErrorTemplateConstant, guardError)}
		}
		if !guardAllows {
			engine.logger.Info(taskSkippedMessageConstant, zap.String(taskFieldNameConstant, task.Name))
			outcome.SkippedTasks = append(outcome.SkippedTasks, task.Name)
			return nil
		}
	}

	if task.Action == nil {
		outcome.ExecutedTasks = append(outcome.ExecutedTasks, task.Name)
		return nil
	}

	iterationItems := []string{""}
	if task.IterationSource != nil {
		evaluatedItems, iterationError := task.IterationSource(taskContext)
		if iterationError != nil {
			return TaskFailureError{TaskName: task.Name, Cause: fmt.Errorf(iterationFailureErrorTemplate, iterationError)}
		}
		iterationItems = evaluatedItems
	}

	for _, iterationItem := range iterationItems {
		engine.logger.Info(taskStartMessageConstant,
			zap.String(taskFieldNameConstant, task.Name),
			zap.String(iterationItemFieldNameConstant, iterationItem),
		)
		if actionError := task.Action(taskContext, iterationItem); actionError != nil {
			return TaskFailureError{TaskName: task.Name, Cause: actionError}
		}
		if task.IterationSource != nil {
			outcome.IterationCount[task.Name]++
		}
	}

	outcome.ExecutedTasks = append(outcome.ExecutedTasks, task.Name)
	engine.logger.Info(taskSucceededMessageConstant, zap.String(taskFieldNameConstant, task.Name))
	return nil
}

func (engine *Engine) finishOutcome(outcome RunOutcome) RunOutcome {
	outcome.EndTime = time.Now()
	outcome.Duration = outcome.EndTime.Sub(outcome.StartTime)
	return outcome
}
