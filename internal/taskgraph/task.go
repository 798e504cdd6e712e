package taskgraph

import (
	"context"
	"errors"
	"strings"
)

const (
	taskNameMissingMessageConstant = "task name must be provided"
)

// ErrTaskNameMissing indicates a task was defined without a usable name.
var ErrTaskNameMissing = errors.New(taskNameMissingMessageConstant)

// Action performs the work of a task. Tasks with an iteration source receive
// one item per invocation; tasks without a source receive an empty item.
type Action func(executionContext context.Context, iterationItem string) error

// IterationSource lazily produces the items an action runs over. It is
// evaluated at run time, once per run, never at registration time.
type IterationSource func(executionContext context.Context) ([]string, error)

// Guard decides whether a task action executes. A false result skips the
// action while leaving the task's dependencies in effect.
type Guard func(executionContext context.Context) (bool, error)

// Task describes a named unit of work inside the dependency graph. Tasks are
// immutable once registered.
type Task struct {
	Name            string
	Description     string
	Dependencies    []string
	Action          Action
	IterationSource IterationSource
	Guard           Guard
}

// NewTask builds a task definition with a normalized name and deduplicated
// dependency list. A nil action is permitted for aggregate targets whose only
// purpose is fanning out to dependencies.
func NewTask(taskName string, taskDescription string, dependencyNames []string, taskAction Action) (Task, error) {
	normalizedName := strings.TrimSpace(taskName)
	if len(normalizedName) == 0 {
		return Task{}, ErrTaskNameMissing
	}

	sanitizedDependencies := make([]string, 0, len(dependencyNames))
	seenDependencies := make(map[string]struct{}, len(dependencyNames))
	for dependencyIndex := range dependencyNames {
		dependencyName := strings.TrimSpace(dependencyNames[dependencyIndex])
		if len(dependencyName) == 0 {
			continue
		}
		if _, alreadyIncluded := seenDependencies[dependencyName]; alreadyIncluded {
			continue
		}
		seenDependencies[dependencyName] = struct{}{}
		sanitizedDependencies = append(sanitizedDependencies, dependencyName)
	}

	return Task{
		Name:         normalizedName,
		Description:  strings.TrimSpace(taskDescription),
		Dependencies: sanitizedDependencies,
		Action:       taskAction,
	}, nil
}

// WithIterationSource returns a copy of the task using the provided iteration source.
func (task Task) WithIterationSource(source IterationSource) Task {
	task.IterationSource = source
	return task
}

// WithGuard returns a copy of the task using the provided guard predicate.
func (task Task) WithGuard(guard Guard) Task {
	task.Guard = guard
	return task
}
