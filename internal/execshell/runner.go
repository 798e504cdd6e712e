package execshell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// OSCommandRunner launches commands as child processes of the current
// process. A non-zero exit is an observable result, not a runner error;
// runner errors are reserved for failures to launch or wait.
type OSCommandRunner struct{}

// NewOSCommandRunner constructs an OSCommandRunner instance.
func NewOSCommandRunner() OSCommandRunner {
	return OSCommandRunner{}
}

// Run launches the command, blocks until the child process exits, and
// captures exit code, standard output, and standard error.
func (runner OSCommandRunner) Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	processCommand := exec.CommandContext(executionContext, string(command.Name), command.Details.Arguments...)
	processCommand.Dir = command.Details.WorkingDirectory
	processCommand.Env = mergeEnvironment(command.Details.EnvironmentVariables)

	if len(command.Details.StandardInput) > 0 {
		processCommand.Stdin = bytes.NewReader(command.Details.StandardInput)
	}

	var standardOutputBuffer bytes.Buffer
	var standardErrorBuffer bytes.Buffer
	processCommand.Stdout = &standardOutputBuffer
	processCommand.Stderr = &standardErrorBuffer

	runError := processCommand.Run()

	executionResult := ExecutionResult{
		StandardOutput: standardOutputBuffer.String(),
		StandardError:  standardErrorBuffer.String(),
	}

	if runError != nil {
		var exitError *exec.ExitError
		if errors.As(runError, &exitError) {
			executionResult.ExitCode = exitError.ExitCode()
			return executionResult, nil
		}
		return ExecutionResult{}, runError
	}

	if processCommand.ProcessState != nil {
		executionResult.ExitCode = processCommand.ProcessState.ExitCode()
	}

	return executionResult, nil
}

func mergeEnvironment(environmentOverrides map[string]string) []string {
	if len(environmentOverrides) == 0 {
		return nil
	}

	mergedEnvironment := os.Environ()
	for environmentKey, environmentValue := range environmentOverrides {
		mergedEnvironment = append(mergedEnvironment, fmt.Sprintf("%s=%s", environmentKey, environmentValue))
	}
	return mergedEnvironment
}
