package pipeline

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/tyemirov/forge/internal/capability"
	"github.com/tyemirov/forge/internal/engine"
	"github.com/tyemirov/forge/internal/execshell"
	"github.com/tyemirov/forge/internal/taskgraph"
)

// Built-in task names.
const (
	TaskNameClean             = "clean"
	TaskNameRestore           = "restore"
	TaskNameBuild             = "build"
	TaskNameTest              = "test"
	TaskNameCertificateExport = "cert-export"
	TaskNameCertificateImport = "cert-import"
	TaskNamePack              = "pack"
	TaskNameDefault           = "default"
)

// DefaultTargetName is the target resolved when the caller names none.
const DefaultTargetName = TaskNameDefault

const (
	cleanTaskDescriptionConstant          = "Removes build artifacts"
	restoreTaskDescriptionConstant        = "Restores external packages"
	buildTaskDescriptionConstant          = "Compiles the solution with the active configuration"
	testTaskDescriptionConstant           = "Runs every discovered test project with capability-derived trait filters"
	certificateExportTaskDescription      = "Exports the development certificate"
	certificateImportTaskDescription      = "Imports the development certificate into the local store"
	packTaskDescriptionConstant           = "Packages the single discovered packable project"
	defaultTaskDescriptionConstant        = "Builds, tests, and packages the solution"
	configurationArgumentNameConstant     = "--configuration"
	testFilterArgumentNameConstant        = "--filter"
	executorNotConfiguredMessageConstant  = "pipeline registry requires a command executor"
	ciHostEnvironmentVariableNameConstant = "FORGE_CI_HOST"
)

// ErrExecutorNotConfigured indicates the registry builder was given no command executor.
var ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)

// CommandExecutor runs the opaque external commands backing pipeline tasks.
type CommandExecutor interface {
	Execute(executionContext context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error)
}

// Dependencies configures shared collaborators for the built-in pipeline.
type Dependencies struct {
	Executor          CommandExecutor
	Logger            *zap.Logger
	WorkingDirectory  string
	EnvironmentLookup func(environmentVariableName string) (string, bool)
}

// Probes derives the capability probes from the pipeline configuration.
func Probes(configuration Configuration) []capability.Probe {
	return []capability.Probe{
		{
			Capability: capability.CapabilityDocker,
			Command: execshell.ShellCommand{
				Name:    execshell.CommandName(configuration.DockerProbe.Command),
				Details: execshell.CommandDetails{Arguments: configuration.DockerProbe.Arguments},
			},
		},
		{
			Capability: capability.CapabilityInteractive,
			Command: execshell.ShellCommand{
				Name:    execshell.CommandName(configuration.InteractiveProbe.Command),
				Details: execshell.CommandDetails{Arguments: configuration.InteractiveProbe.Arguments},
			},
		},
	}
}

// NewRegistry registers the built-in task set. The registry is immutable
// apart from manifest-declared additions merged by the caller before
// resolution.
func NewRegistry(configuration Configuration, dependencies Dependencies) (*taskgraph.Registry, error) {
	if dependencies.Executor == nil {
		return nil, ErrExecutorNotConfigured
	}

	builder := registryBuilder{
		configuration:      configuration,
		dependencies:       dependencies,
		registry:           taskgraph.NewRegistry(),
		runContextAccessor: engine.NewRunContextAccessor(),
	}
	if buildError := builder.registerBuiltinTasks(); buildError != nil {
		return nil, buildError
	}
	return builder.registry, nil
}

type registryBuilder struct {
	configuration      Configuration
	dependencies       Dependencies
	registry           *taskgraph.Registry
	runContextAccessor engine.RunContextAccessor
}

func (builder *registryBuilder) registerBuiltinTasks() error {
	registrations := []struct {
		name         string
		description  string
		dependencies []string
		buildTask    func(task taskgraph.Task) taskgraph.Task
		action       taskgraph.Action
	}{
		{
			name:        TaskNameClean,
			description: cleanTaskDescriptionConstant,
			action:      builder.commandAction(builder.configuration.Clean, nil, nil),
		},
		{
			name:         TaskNameRestore,
			description:  restoreTaskDescriptionConstant,
			dependencies: []string{TaskNameClean},
			action:       builder.commandAction(builder.configuration.Restore, nil, nil),
		},
		{
			name:         TaskNameBuild,
			description:  buildTaskDescriptionConstant,
			dependencies: []string{TaskNameRestore},
			action:       builder.commandAction(builder.configuration.Build, builder.configurationArguments, nil),
		},
		{
			name:         TaskNameTest,
			description:  testTaskDescriptionConstant,
			dependencies: []string{TaskNameBuild},
			action:       builder.testAction(),
			buildTask: func(task taskgraph.Task) taskgraph.Task {
				return task.WithIterationSource(builder.testProjectSource())
			},
		},
		{
			name:        TaskNameCertificateExport,
			description: certificateExportTaskDescription,
			action:      builder.commandAction(builder.configuration.CertificateExport, nil, nil),
		},
		{
			name:         TaskNameCertificateImport,
			description:  certificateImportTaskDescription,
			dependencies: []string{TaskNameCertificateExport},
			action: builder.commandAction(
				builder.configuration.CertificateImport.CommandConfiguration,
				nil,
				builder.trustedHostPredicate(),
			),
		},
		{
			name:         TaskNamePack,
			description:  packTaskDescriptionConstant,
			dependencies: []string{TaskNameBuild, TaskNameCertificateImport},
			action:       builder.packAction(),
		},
		{
			name:         TaskNameDefault,
			description:  defaultTaskDescriptionConstant,
			dependencies: []string{TaskNameBuild, TaskNameTest, TaskNamePack},
		},
	}

	for registrationIndex := range registrations {
		registration := registrations[registrationIndex]
		task, taskError := taskgraph.NewTask(registration.name, registration.description, registration.dependencies, registration.action)
		if taskError != nil {
			return taskError
		}
		if registration.buildTask != nil {
			task = registration.buildTask(task)
		}
		if registrationError := builder.registry.Register(task); registrationError != nil {
			return registrationError
		}
	}
	return nil
}

// commandAction invokes the configured command, optionally extending its
// arguments from the run context and tolerating failures per call site.
func (builder *registryBuilder) commandAction(
	command CommandConfiguration,
	extraArguments func(executionContext context.Context) []string,
	toleratedFailurePredicate func() bool,
) taskgraph.Action {
	return func(executionContext context.Context, iterationItem string) error {
		commandArguments := make([]string, 0, len(command.Arguments)+2)
		commandArguments = append(commandArguments, command.Arguments...)
		if extraArguments != nil {
			commandArguments = append(commandArguments, extraArguments(executionContext)...)
		}

		_, executionError := builder.dependencies.Executor.Execute(executionContext, execshell.ShellCommand{
			Name: execshell.CommandName(command.Command),
			Details: execshell.CommandDetails{
				Arguments:                 commandArguments,
				WorkingDirectory:          builder.dependencies.WorkingDirectory,
				ToleratedFailurePredicate: toleratedFailurePredicate,
			},
		})
		return executionError
	}
}

func (builder *registryBuilder) configurationArguments(executionContext context.Context) []string {
	runContext, _ := builder.runContextAccessor.RunContext(executionContext)
	if len(runContext.Configuration) == 0 {
		return nil
	}
	return []string{configurationArgumentNameConstant, runContext.Configuration}
}

func (builder *registryBuilder) testProjectSource() taskgraph.IterationSource {
	return func(executionContext context.Context) ([]string, error) {
		return DiscoverFilesBySuffix(builder.dependencies.WorkingDirectory, builder.configuration.Test.ProjectSuffix)
	}
}

func (builder *registryBuilder) testAction() taskgraph.Action {
	return func(executionContext context.Context, iterationItem string) error {
		runContext, _ := builder.runContextAccessor.RunContext(executionContext)

		commandArguments := make([]string, 0, len(builder.configuration.Test.Arguments)+5)
		commandArguments = append(commandArguments, builder.configuration.Test.Arguments...)
		commandArguments = append(commandArguments, iterationItem)

		traitFilter := capability.BuildTraitFilter(runContext.Capabilities, capability.DefaultTraitExclusions())
		if len(traitFilter) > 0 {
			commandArguments = append(commandArguments, testFilterArgumentNameConstant, traitFilter)
		}
		if len(runContext.Configuration) > 0 {
			commandArguments = append(commandArguments, configurationArgumentNameConstant, runContext.Configuration)
		}

		_, executionError := builder.dependencies.Executor.Execute(executionContext, execshell.ShellCommand{
			Name: execshell.CommandName(builder.configuration.Test.Command),
			Details: execshell.CommandDetails{
				Arguments:        commandArguments,
				WorkingDirectory: builder.dependencies.WorkingDirectory,
			},
		})
		return executionError
	}
}

func (builder *registryBuilder) packAction() taskgraph.Action {
	return func(executionContext context.Context, iterationItem string) error {
		packableProject, discoveryError := DiscoverSingleFile(builder.dependencies.WorkingDirectory, builder.configuration.Pack.ProjectSuffix)
		if discoveryError != nil {
			return discoveryError
		}

		runContext, _ := builder.runContextAccessor.RunContext(executionContext)
		commandArguments := make([]string, 0, len(builder.configuration.Pack.Arguments)+3)
		commandArguments = append(commandArguments, builder.configuration.Pack.Arguments...)
		commandArguments = append(commandArguments, packableProject)
		if len(runContext.Configuration) > 0 {
			commandArguments = append(commandArguments, configurationArgumentNameConstant, runContext.Configuration)
		}

		_, executionError := builder.dependencies.Executor.Execute(executionContext, execshell.ShellCommand{
			Name: execshell.CommandName(builder.configuration.Pack.Command),
			Details: execshell.CommandDetails{
				Arguments:        commandArguments,
				WorkingDirectory: builder.dependencies.WorkingDirectory,
			},
		})
		return executionError
	}
}

// trustedHostPredicate tolerates certificate import failures only on the
// configured CI hosts, keeping the leniency visible at the single call site
// that uses it.
func (builder *registryBuilder) trustedHostPredicate() func() bool {
	trustedHosts := builder.configuration.CertificateImport.TrustedHosts
	if len(trustedHosts) == 0 {
		return nil
	}

	environmentLookup := builder.dependencies.EnvironmentLookup
	return func() bool {
		if environmentLookup == nil {
			return false
		}
		currentHost, hostAvailable := environmentLookup(ciHostEnvironmentVariableNameConstant)
		if !hostAvailable {
			return false
		}
		for _, trustedHost := range trustedHosts {
			if strings.EqualFold(strings.TrimSpace(trustedHost), strings.TrimSpace(currentHost)) {
				return true
			}
		}
		return false
	}
}
