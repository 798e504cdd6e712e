package taskrunner

import (
	"context"

	"go.uber.org/zap"

	"github.com/tyemirov/forge/internal/engine"
	"github.com/tyemirov/forge/internal/execshell"
	"github.com/tyemirov/forge/internal/taskgraph"
)

// Action is the unit of work executed for a task, once per iteration item.
type Action = taskgraph.Action

// Task describes a registered unit of the graph.
type Task = taskgraph.Task

// RunContext carries run-scoped state visible to every action.
type RunContext = engine.RunContext

// RunOutcome reports what a finished run resolved, executed, and skipped.
type RunOutcome = engine.RunOutcome

// CommandExecutor runs external commands for command-backed tasks.
type CommandExecutor interface {
	Execute(executionContext context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error)
}

// Options configures an embedded runner.
type Options struct {
	Logger *zap.Logger
}

// Runner assembles a write-once task registry and runs targets against it.
type Runner struct {
	registry *taskgraph.Registry
	logger   *zap.Logger
}

// NewRunner constructs an empty Runner.
func NewRunner(options Options) *Runner {
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		registry: taskgraph.NewRegistry(),
		logger:   logger,
	}
}

// Register adds a task to the runner. Registering a name twice fails with
// taskgraph.DuplicateTaskError.
func (runner *Runner) Register(task Task) error {
	return runner.registry.Register(task)
}

// RegisterAction registers a task running the provided action.
func (runner *Runner) RegisterAction(taskName string, taskDescription string, taskDependencies []string, taskAction Action) error {
	task, taskError := taskgraph.NewTask(taskName, taskDescription, taskDependencies, taskAction)
	if taskError != nil {
		return taskError
	}
	return runner.registry.Register(task)
}

// RegisterCommand registers a task invoking an external command through the
// provided executor. The first command element names the executable.
func (runner *Runner) RegisterCommand(taskName string, taskDescription string, taskDependencies []string, commandLine []string, commandExecutor CommandExecutor, workingDirectory string) error {
	commandName := ""
	commandArguments := []string{}
	if len(commandLine) > 0 {
		commandName = commandLine[0]
		commandArguments = commandLine[1:]
	}

	commandAction := func(executionContext context.Context, iterationItem string) error {
		invocationArguments := append([]string(nil), commandArguments...)
		if len(iterationItem) > 0 {
			invocationArguments = append(invocationArguments, iterationItem)
		}
		_, executionError := commandExecutor.Execute(executionContext, execshell.ShellCommand{
			Name: execshell.CommandName(commandName),
			Details: execshell.CommandDetails{
				Arguments:        invocationArguments,
				WorkingDirectory: workingDirectory,
			},
		})
		return executionError
	}

	return runner.RegisterAction(taskName, taskDescription, taskDependencies, commandAction)
}

// TaskNames lists registered tasks in registration order.
func (runner *Runner) TaskNames() []string {
	return runner.registry.TaskNames()
}

// Run resolves the target and executes its task sequence.
func (runner *Runner) Run(executionContext context.Context, targetName string, runContext RunContext) (RunOutcome, error) {
	executionEngine, engineError := engine.NewEngine(runner.registry, runner.logger)
	if engineError != nil {
		return RunOutcome{}, engineError
	}
	return executionEngine.Run(executionContext, targetName, runContext)
}
