package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tyemirov/forge/internal/capability"
	"github.com/tyemirov/forge/internal/engine"
	"github.com/tyemirov/forge/internal/execshell"
	"github.com/tyemirov/forge/internal/manifest"
	"github.com/tyemirov/forge/internal/pipeline"
	"github.com/tyemirov/forge/internal/taskgraph"
	"github.com/tyemirov/forge/internal/version"
)

const (
	runCommandUseNameConstant              = "run [target]"
	runCommandShortDescriptionConstant     = "Resolve a target and execute its task sequence"
	runCommandLongDescriptionConstant      = "run resolves the named target (default when omitted) into a dependency-ordered task sequence and executes every task, stopping at the first failure."
	tasksCommandUseNameConstant            = "tasks"
	tasksCommandShortDescriptionConstant   = "List the registered tasks"
	versionCommandUseNameConstant          = "version"
	versionCommandShortDescriptionConstant = "Print the forge version"
	versionOutputTemplateConstant          = "forge version: %s\n"
	taskListingTemplateConstant            = "%-12s %s\n"
	runSucceededConsoleTemplateConstant    = "✓ %s (%d tasks in %s)"
	workingDirectoryErrorTemplateConstant  = "unable to determine working directory: %w"
	runFieldPipelineManifestConstant       = "pipeline_manifest"
	pipelineManifestLoadedMessageConstant  = "pipeline manifest merged"
	capabilityCountFieldNameConstant       = "capability_count"
	capabilitiesDetectedMessageConstant    = "capability detection completed"
	runDurationRoundingIntervalConstant    = time.Millisecond
)

type taskExecutionEnvironment struct {
	registry         *taskgraph.Registry
	shellExecutor    *execshell.ShellExecutor
	workingDirectory string
}

func (application *Application) newRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:           runCommandUseNameConstant,
		Short:         runCommandShortDescriptionConstant,
		Long:          runCommandLongDescriptionConstant,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			targetName := pipeline.DefaultTargetName
			if len(arguments) > 0 {
				targetName = arguments[0]
			}
			return application.executePipeline(command, targetName)
		},
	}
}

func (application *Application) newTasksCommand() *cobra.Command {
	return &cobra.Command{
		Use:           tasksCommandUseNameConstant,
		Short:         tasksCommandShortDescriptionConstant,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			executionEnvironment, environmentError := application.buildTaskExecutionEnvironment(command)
			if environmentError != nil {
				return environmentError
			}

			for _, taskName := range executionEnvironment.registry.TaskNames() {
				task, lookupError := executionEnvironment.registry.Lookup(taskName)
				if lookupError != nil {
					return lookupError
				}
				fmt.Fprintf(command.OutOrStdout(), taskListingTemplateConstant, task.Name, task.Description)
			}
			return nil
		},
	}
}

func (application *Application) newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:           versionCommandUseNameConstant,
		Short:         versionCommandShortDescriptionConstant,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			fmt.Fprintf(command.OutOrStdout(), versionOutputTemplateConstant, application.versionResolver(command.Context()))
			return nil
		},
	}
}

func (application *Application) resolveVersion(executionContext context.Context) string {
	return version.Detect(executionContext, version.Dependencies{})
}

// buildTaskExecutionEnvironment assembles the registry shared by the run and
// tasks commands: built-in tasks first, then any manifest-declared additions.
func (application *Application) buildTaskExecutionEnvironment(command *cobra.Command) (taskExecutionEnvironment, error) {
	workingDirectory, workingDirectoryError := os.Getwd()
	if workingDirectoryError != nil {
		return taskExecutionEnvironment{}, fmt.Errorf(workingDirectoryErrorTemplateConstant, workingDirectoryError)
	}

	shellExecutor, executorError := execshell.NewShellExecutor(
		application.logger,
		execshell.NewOSCommandRunner(),
		application.humanReadableLoggingEnabled(),
	)
	if executorError != nil {
		return taskExecutionEnvironment{}, executorError
	}

	registry, registryError := pipeline.NewRegistry(application.configuration.Pipeline, pipeline.Dependencies{
		Executor:          shellExecutor,
		Logger:            application.logger,
		WorkingDirectory:  workingDirectory,
		EnvironmentLookup: os.LookupEnv,
	})
	if registryError != nil {
		return taskExecutionEnvironment{}, registryError
	}

	manifestPath := application.resolvePipelineManifestPath(workingDirectory)
	if len(manifestPath) > 0 {
		manifestConfiguration, manifestError := manifest.LoadConfiguration(manifestPath)
		if manifestError != nil {
			return taskExecutionEnvironment{}, manifestError
		}

		manifestTasks, taskBuildError := manifestConfiguration.Tasks(manifest.TaskDependencies{
			Executor:         shellExecutor,
			WorkingDirectory: workingDirectory,
		})
		if taskBuildError != nil {
			return taskExecutionEnvironment{}, taskBuildError
		}

		for _, manifestTask := range manifestTasks {
			if registrationError := registry.Register(manifestTask); registrationError != nil {
				return taskExecutionEnvironment{}, registrationError
			}
		}

		application.logger.Debug(pipelineManifestLoadedMessageConstant,
			zap.String(runFieldPipelineManifestConstant, manifestPath),
		)
	}

	return taskExecutionEnvironment{
		registry:         registry,
		shellExecutor:    shellExecutor,
		workingDirectory: workingDirectory,
	}, nil
}

func (application *Application) executePipeline(command *cobra.Command, targetName string) error {
	executionEnvironment, environmentError := application.buildTaskExecutionEnvironment(command)
	if environmentError != nil {
		return environmentError
	}

	capabilityDetector := capability.NewDetector(executionEnvironment.shellExecutor, application.logger)
	detectedCapabilities := capabilityDetector.Detect(command.Context(), pipeline.Probes(application.configuration.Pipeline))
	application.logger.Debug(capabilitiesDetectedMessageConstant,
		zap.Int(capabilityCountFieldNameConstant, len(detectedCapabilities)),
	)

	buildConfiguration := application.resolveBuildConfiguration(command)

	pipelineEngine, engineError := engine.NewEngine(executionEnvironment.registry, application.logger)
	if engineError != nil {
		return engineError
	}

	outcome, runError := pipelineEngine.Run(command.Context(), targetName, engine.RunContext{
		Configuration:    buildConfiguration,
		Capabilities:     detectedCapabilities,
		WorkingDirectory: executionEnvironment.workingDirectory,
	})
	if runError != nil {
		return runError
	}

	application.consoleLogger.Info(fmt.Sprintf(
		runSucceededConsoleTemplateConstant,
		outcome.Target,
		len(outcome.ExecutedTasks),
		outcome.Duration.Round(runDurationRoundingIntervalConstant),
	))
	return nil
}
