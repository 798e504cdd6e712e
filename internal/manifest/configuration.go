package manifest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tyemirov/forge/internal/engine"
	"github.com/tyemirov/forge/internal/execshell"
	"github.com/tyemirov/forge/internal/taskgraph"
)

const (
	configurationLoadErrorTemplateConstant   = "failed to load pipeline manifest: %w"
	configurationParseErrorTemplateConstant  = "failed to parse pipeline manifest: %w"
	configurationPathRequiredMessageConstant = "pipeline manifest path must be provided"
	configurationEmptyStepsMessageConstant   = "pipeline manifest must define at least one step"
	configurationStepNameMissingMessage      = "pipeline step missing name"
	configurationCommandMissingTemplate      = "pipeline step %q missing command"
	configurationGuardInvalidTemplate        = "pipeline step %q has an invalid guard: %w"
	configurationSequenceMessageConstant     = "pipeline block must be defined as a sequence of steps"
	executorNotConfiguredMessageConstant     = "pipeline manifest task builder requires a command executor"
)

// ErrExecutorNotConfigured indicates the task builder was given no command executor.
var ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)

// Configuration describes the pipeline steps loaded from YAML.
type Configuration struct {
	Steps []StepConfiguration
}

type manifestFile struct {
	Pipeline []manifestStepWrapper `yaml:"pipeline"`
}

type manifestStepWrapper struct {
	Step StepConfiguration `yaml:"step"`
}

// StepConfiguration declares one additional command task merged into the registry.
type StepConfiguration struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Needs       []string `yaml:"needs"`
	When        string   `yaml:"when"`
	Command     []string `yaml:"command"`
	Each        string   `yaml:"each"`
}

// LoadConfiguration reads the pipeline manifest from disk and performs
// validation, including guard expression parsing, so configuration errors
// surface before resolution.
func LoadConfiguration(filePath string) (Configuration, error) {
	trimmedPath := strings.TrimSpace(filePath)
	if len(trimmedPath) == 0 {
		return Configuration{}, errors.New(configurationPathRequiredMessageConstant)
	}

	contentBytes, readError := os.ReadFile(trimmedPath)
	if readError != nil {
		return Configuration{}, fmt.Errorf(configurationLoadErrorTemplateConstant, readError)
	}

	var parsedManifest manifestFile
	if unmarshalError := yaml.Unmarshal(contentBytes, &parsedManifest); unmarshalError != nil {
		return Configuration{}, fmt.Errorf(configurationParseErrorTemplateConstant, unmarshalError)
	}

	if sequenceError := ensurePipelineSequence(contentBytes); sequenceError != nil {
		return Configuration{}, fmt.Errorf(configurationParseErrorTemplateConstant, sequenceError)
	}

	configuration := Configuration{Steps: make([]StepConfiguration, 0, len(parsedManifest.Pipeline))}
	for wrapperIndex := range parsedManifest.Pipeline {
		configuration.Steps = append(configuration.Steps, parsedManifest.Pipeline[wrapperIndex].Step)
	}

	if len(configuration.Steps) == 0 {
		return Configuration{}, errors.New(configurationEmptyStepsMessageConstant)
	}

	for stepIndex := range configuration.Steps {
		step := &configuration.Steps[stepIndex]
		step.Name = strings.TrimSpace(step.Name)
		if len(step.Name) == 0 {
			return Configuration{}, errors.New(configurationStepNameMissingMessage)
		}
		if len(step.Command) == 0 || len(strings.TrimSpace(step.Command[0])) == 0 {
			return Configuration{}, fmt.Errorf(configurationCommandMissingTemplate, step.Name)
		}
		step.When = strings.TrimSpace(step.When)
		if len(step.When) > 0 {
			if guardError := ValidateGuardExpression(step.When); guardError != nil {
				return Configuration{}, fmt.Errorf(configurationGuardInvalidTemplate, step.Name, guardError)
			}
		}
	}

	return configuration, nil
}

func ensurePipelineSequence(contentBytes []byte) error {
	var pipelineWrapper struct {
		Pipeline yaml.Node `yaml:"pipeline"`
	}

	if unmarshalError := yaml.Unmarshal(contentBytes, &pipelineWrapper); unmarshalError != nil {
		return unmarshalError
	}

	if pipelineWrapper.Pipeline.Kind == 0 {
		return nil
	}

	switch pipelineWrapper.Pipeline.Kind {
	case yaml.SequenceNode:
		return nil
	default:
		return errors.New(configurationSequenceMessageConstant)
	}
}

// CommandExecutor runs manifest step commands.
type CommandExecutor interface {
	Execute(executionContext context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error)
}

// TaskDependencies configures collaborators for manifest-declared tasks.
type TaskDependencies struct {
	Executor         CommandExecutor
	WorkingDirectory string
}

// Tasks converts the manifest steps into task definitions: needs become
// dependencies, when becomes a guard evaluated against the run context, and
// each becomes a lazy glob-backed iteration source whose items are appended
// to the command arguments.
func (configuration Configuration) Tasks(dependencies TaskDependencies) ([]taskgraph.Task, error) {
	if dependencies.Executor == nil {
		return nil, ErrExecutorNotConfigured
	}

	runContextAccessor := engine.NewRunContextAccessor()
	tasks := make([]taskgraph.Task, 0, len(configuration.Steps))

	for stepIndex := range configuration.Steps {
		step := configuration.Steps[stepIndex]

		task, taskError := taskgraph.NewTask(step.Name, step.Description, step.Needs, stepAction(step, dependencies))
		if taskError != nil {
			return nil, taskError
		}

		if len(step.Each) > 0 {
			iterationPattern := step.Each
			if !filepath.IsAbs(iterationPattern) && len(dependencies.WorkingDirectory) > 0 {
				iterationPattern = filepath.Join(dependencies.WorkingDirectory, iterationPattern)
			}
			task = task.WithIterationSource(func(executionContext context.Context) ([]string, error) {
				return filepath.Glob(iterationPattern)
			})
		}

		if len(step.When) > 0 {
			guardExpression := step.When
			task = task.WithGuard(func(executionContext context.Context) (bool, error) {
				runContext, _ := runContextAccessor.RunContext(executionContext)
				return EvaluateGuardExpression(guardExpression, GuardParameters(runContext))
			})
		}

		tasks = append(tasks, task)
	}

	return tasks, nil
}

func stepAction(step StepConfiguration, dependencies TaskDependencies) taskgraph.Action {
	return func(executionContext context.Context, iterationItem string) error {
		commandArguments := make([]string, 0, len(step.Command))
		commandArguments = append(commandArguments, step.Command[1:]...)
		if len(iterationItem) > 0 {
			commandArguments = append(commandArguments, iterationItem)
		}

		_, executionError := dependencies.Executor.Execute(executionContext, execshell.ShellCommand{
			Name: execshell.CommandName(step.Command[0]),
			Details: execshell.CommandDetails{
				Arguments:        commandArguments,
				WorkingDirectory: dependencies.WorkingDirectory,
			},
		})
		return executionError
	}
}
