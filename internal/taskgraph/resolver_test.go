package taskgraph_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tyemirov/forge/internal/taskgraph"
)

const (
	resolverCleanTaskNameConstant   = "clean"
	resolverRestoreTaskNameConstant = "restore"
	resolverBuildTaskNameConstant   = "build"
	resolverTestTaskNameConstant    = "test"
	resolverPackTaskNameConstant    = "pack"
	resolverDefaultTaskNameConstant = "default"
	resolverCycleFirstTaskConstant  = "alpha"
	resolverCycleSecondTaskConstant = "beta"
	resolverMissingTaskNameConstant = "publish"
	resolverSubtestNameTemplate     = "%d_%s"
)

type taskDefinition struct {
	name         string
	dependencies []string
}

func buildRegistry(testInstance *testing.T, definitions []taskDefinition) *taskgraph.Registry {
	registry := taskgraph.NewRegistry()
	for definitionIndex := range definitions {
		task, taskError := taskgraph.NewTask(definitions[definitionIndex].name, "", definitions[definitionIndex].dependencies, nil)
		require.NoError(testInstance, taskError)
		require.NoError(testInstance, registry.Register(task))
	}
	return registry
}

func TestResolveStandardPipelineOrder(testInstance *testing.T) {
	registry := buildRegistry(testInstance, []taskDefinition{
		{name: resolverCleanTaskNameConstant},
		{name: resolverRestoreTaskNameConstant, dependencies: []string{resolverCleanTaskNameConstant}},
		{name: resolverBuildTaskNameConstant, dependencies: []string{resolverRestoreTaskNameConstant}},
		{name: resolverTestTaskNameConstant},
		{name: resolverPackTaskNameConstant},
		{name: resolverDefaultTaskNameConstant, dependencies: []string{resolverBuildTaskNameConstant, resolverTestTaskNameConstant, resolverPackTaskNameConstant}},
	})

	resolvedOrder, resolutionError := registry.Resolve(resolverDefaultTaskNameConstant)
	require.NoError(testInstance, resolutionError)
	require.Equal(
		testInstance,
		[]string{
			resolverCleanTaskNameConstant,
			resolverRestoreTaskNameConstant,
			resolverBuildTaskNameConstant,
			resolverTestTaskNameConstant,
			resolverPackTaskNameConstant,
			resolverDefaultTaskNameConstant,
		},
		resolvedOrder,
	)
}

func TestResolveTopologicalValidity(testInstance *testing.T) {
	registry := buildRegistry(testInstance, []taskDefinition{
		{name: resolverCleanTaskNameConstant},
		{name: resolverRestoreTaskNameConstant, dependencies: []string{resolverCleanTaskNameConstant}},
		{name: resolverBuildTaskNameConstant, dependencies: []string{resolverRestoreTaskNameConstant, resolverCleanTaskNameConstant}},
		{name: resolverTestTaskNameConstant, dependencies: []string{resolverBuildTaskNameConstant, resolverRestoreTaskNameConstant}},
		{name: resolverDefaultTaskNameConstant, dependencies: []string{resolverTestTaskNameConstant, resolverBuildTaskNameConstant}},
	})

	resolvedOrder, resolutionError := registry.Resolve(resolverDefaultTaskNameConstant)
	require.NoError(testInstance, resolutionError)

	positionsByName := make(map[string]int, len(resolvedOrder))
	for orderIndex, taskName := range resolvedOrder {
		_, alreadySeen := positionsByName[taskName]
		require.False(testInstance, alreadySeen, "task %q emitted twice", taskName)
		positionsByName[taskName] = orderIndex
	}

	for _, taskName := range resolvedOrder {
		task, lookupError := registry.Lookup(taskName)
		require.NoError(testInstance, lookupError)
		for _, dependencyName := range task.Dependencies {
			require.Less(testInstance, positionsByName[dependencyName], positionsByName[taskName])
		}
	}
}

func TestResolveFailureModes(testInstance *testing.T) {
	testCases := []struct {
		name        string
		definitions []taskDefinition
		target      string
		verify      func(testInstance *testing.T, resolutionError error)
	}{
		{
			name: "two_task_cycle",
			definitions: []taskDefinition{
				{name: resolverCycleFirstTaskConstant, dependencies: []string{resolverCycleSecondTaskConstant}},
				{name: resolverCycleSecondTaskConstant, dependencies: []string{resolverCycleFirstTaskConstant}},
			},
			target: resolverCycleFirstTaskConstant,
			verify: func(testInstance *testing.T, resolutionError error) {
				var cycleError taskgraph.CyclicDependencyError
				require.ErrorAs(testInstance, resolutionError, &cycleError)
				require.Equal(
					testInstance,
					[]string{resolverCycleFirstTaskConstant, resolverCycleSecondTaskConstant, resolverCycleFirstTaskConstant},
					cycleError.Cycle,
				)
				require.Contains(testInstance, cycleError.Error(), resolverCycleSecondTaskConstant)
			},
		},
		{
			name: "self_dependency_cycle",
			definitions: []taskDefinition{
				{name: resolverCycleFirstTaskConstant, dependencies: []string{resolverCycleFirstTaskConstant}},
			},
			target: resolverCycleFirstTaskConstant,
			verify: func(testInstance *testing.T, resolutionError error) {
				var cycleError taskgraph.CyclicDependencyError
				require.ErrorAs(testInstance, resolutionError, &cycleError)
				require.Equal(
					testInstance,
					[]string{resolverCycleFirstTaskConstant, resolverCycleFirstTaskConstant},
					cycleError.Cycle,
				)
			},
		},
		{
			name: "unknown_dependency",
			definitions: []taskDefinition{
				{name: resolverBuildTaskNameConstant, dependencies: []string{resolverMissingTaskNameConstant}},
			},
			target: resolverBuildTaskNameConstant,
			verify: func(testInstance *testing.T, resolutionError error) {
				var unknownError taskgraph.UnknownTaskError
				require.ErrorAs(testInstance, resolutionError, &unknownError)
				require.Equal(testInstance, resolverMissingTaskNameConstant, unknownError.TaskName)
			},
		},
		{
			name:        "unknown_target",
			definitions: []taskDefinition{{name: resolverBuildTaskNameConstant}},
			target:      resolverMissingTaskNameConstant,
			verify: func(testInstance *testing.T, resolutionError error) {
				var unknownError taskgraph.UnknownTaskError
				require.ErrorAs(testInstance, resolutionError, &unknownError)
				require.Equal(testInstance, resolverMissingTaskNameConstant, unknownError.TaskName)
			},
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(resolverSubtestNameTemplate, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			registry := buildRegistry(testInstance, testCase.definitions)
			_, resolutionError := registry.Resolve(testCase.target)
			require.Error(testInstance, resolutionError)
			testCase.verify(testInstance, resolutionError)
		})
	}
}
