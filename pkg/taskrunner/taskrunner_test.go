package taskrunner_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tyemirov/forge/internal/engine"
	"github.com/tyemirov/forge/internal/execshell"
	"github.com/tyemirov/forge/internal/taskgraph"
	"github.com/tyemirov/forge/pkg/taskrunner"
)

const (
	testCompileTaskNameConstant  = "compile"
	testVerifyTaskNameConstant   = "verify"
	testReleaseTaskNameConstant  = "release"
	testWorkingDirectoryConstant = "/workspace"
	testCompileFailureMessage    = "compiler exploded"
)

type recordingRunnerExecutor struct {
	executedCommands []execshell.ShellCommand
}

func (executor *recordingRunnerExecutor) Execute(executionContext context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error) {
	executor.executedCommands = append(executor.executedCommands, command)
	return execshell.ExecutionResult{}, nil
}

func TestRunnerExecutesDependenciesInOrder(testInstance *testing.T) {
	runner := taskrunner.NewRunner(taskrunner.Options{})

	executedTaskNames := make([]string, 0, 3)
	recordAction := func(taskName string) taskrunner.Action {
		return func(executionContext context.Context, iterationItem string) error {
			executedTaskNames = append(executedTaskNames, taskName)
			return nil
		}
	}

	require.NoError(testInstance, runner.RegisterAction(testCompileTaskNameConstant, "", nil, recordAction(testCompileTaskNameConstant)))
	require.NoError(testInstance, runner.RegisterAction(testVerifyTaskNameConstant, "", []string{testCompileTaskNameConstant}, recordAction(testVerifyTaskNameConstant)))
	require.NoError(testInstance, runner.RegisterAction(testReleaseTaskNameConstant, "", []string{testVerifyTaskNameConstant}, recordAction(testReleaseTaskNameConstant)))

	outcome, runError := runner.Run(context.Background(), testReleaseTaskNameConstant, taskrunner.RunContext{})
	require.NoError(testInstance, runError)
	require.Equal(testInstance, []string{testCompileTaskNameConstant, testVerifyTaskNameConstant, testReleaseTaskNameConstant}, executedTaskNames)
	require.Equal(testInstance, executedTaskNames, outcome.ExecutedTasks)
}

func TestRunnerRejectsDuplicateRegistration(testInstance *testing.T) {
	runner := taskrunner.NewRunner(taskrunner.Options{})
	require.NoError(testInstance, runner.RegisterAction(testCompileTaskNameConstant, "", nil, nil))

	registrationError := runner.RegisterAction(testCompileTaskNameConstant, "", nil, nil)

	var duplicateError taskgraph.DuplicateTaskError
	require.ErrorAs(testInstance, registrationError, &duplicateError)
	require.Equal(testInstance, testCompileTaskNameConstant, duplicateError.TaskName)
}

func TestRunnerRegisterCommandInvokesExecutor(testInstance *testing.T) {
	runner := taskrunner.NewRunner(taskrunner.Options{})
	executor := &recordingRunnerExecutor{}

	require.NoError(testInstance, runner.RegisterCommand(
		testCompileTaskNameConstant,
		"",
		nil,
		[]string{"make", "all"},
		executor,
		testWorkingDirectoryConstant,
	))

	_, runError := runner.Run(context.Background(), testCompileTaskNameConstant, taskrunner.RunContext{})
	require.NoError(testInstance, runError)
	require.Len(testInstance, executor.executedCommands, 1)
	require.Equal(testInstance, execshell.CommandName("make"), executor.executedCommands[0].Name)
	require.Equal(testInstance, []string{"all"}, executor.executedCommands[0].Details.Arguments)
	require.Equal(testInstance, testWorkingDirectoryConstant, executor.executedCommands[0].Details.WorkingDirectory)
}

func TestRunnerSurfacesTaskFailure(testInstance *testing.T) {
	runner := taskrunner.NewRunner(taskrunner.Options{})
	require.NoError(testInstance, runner.RegisterAction(testCompileTaskNameConstant, "", nil, func(executionContext context.Context, iterationItem string) error {
		return errors.New(testCompileFailureMessage)
	}))

	_, runError := runner.Run(context.Background(), testCompileTaskNameConstant, taskrunner.RunContext{})

	var taskFailure engine.TaskFailureError
	require.ErrorAs(testInstance, runError, &taskFailure)
	require.Equal(testInstance, testCompileTaskNameConstant, taskFailure.TaskName)
}

func TestFormatSummaryListsResolvedOrder(testInstance *testing.T) {
	summary := taskrunner.FormatSummary(taskrunner.RunOutcome{
		Target:        testReleaseTaskNameConstant,
		ResolvedOrder: []string{testCompileTaskNameConstant, testVerifyTaskNameConstant, testReleaseTaskNameConstant},
		ExecutedTasks: []string{testCompileTaskNameConstant, testReleaseTaskNameConstant},
		SkippedTasks:  []string{testVerifyTaskNameConstant},
	})

	summaryLines := strings.Split(summary, "\n")
	require.Len(testInstance, summaryLines, 4)
	require.Contains(testInstance, summaryLines[0], testReleaseTaskNameConstant)
	require.Contains(testInstance, summaryLines[2], "skipped")
}
