package capability

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/tyemirov/forge/internal/execshell"
)

const (
	capabilityDetectedMessageConstant = "capability detected"
	capabilityAbsentMessageConstant   = "capability absent"
	capabilityFieldNameConstant       = "capability"
	probeCommandFieldNameConstant     = "probe_command"
	probeErrorFieldNameConstant       = "probe_error"
)

// Name identifies an environment capability adjusting pipeline behavior.
type Name string

// Capabilities probed by the built-in pipeline.
const (
	CapabilityDocker      Name = "docker"
	CapabilityInteractive Name = "interactive"
)

// Set records which capabilities were detected as present.
type Set map[Name]bool

// Present reports whether the named capability was detected.
func (capabilities Set) Present(capabilityName Name) bool {
	return capabilities[capabilityName]
}

// Probe couples a capability name with the command whose success indicates presence.
type Probe struct {
	Capability Name
	Command    execshell.ShellCommand
}

// CommandExecutor runs probe commands.
type CommandExecutor interface {
	Execute(executionContext context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error)
}

// Detector derives the capability set by invoking probe commands. Probe
// failures of any kind degrade to "capability absent" and never abort a run.
type Detector struct {
	commandExecutor CommandExecutor
	logger          *zap.Logger
}

// NewDetector constructs a Detector instance.
func NewDetector(commandExecutor CommandExecutor, logger *zap.Logger) *Detector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Detector{commandExecutor: commandExecutor, logger: logger}
}

// Detect evaluates every probe and returns the resulting capability set.
func (detector *Detector) Detect(executionContext context.Context, probes []Probe) Set {
	detectedCapabilities := make(Set, len(probes))
	for probeIndex := range probes {
		probe := probes[probeIndex]
		capabilityName := Name(strings.TrimSpace(string(probe.Capability)))
		if len(capabilityName) == 0 {
			continue
		}
		detectedCapabilities[capabilityName] = detector.probePresence(executionContext, capabilityName, probe.Command)
	}
	return detectedCapabilities
}

func (detector *Detector) probePresence(executionContext context.Context, capabilityName Name, probeCommand execshell.ShellCommand) bool {
	if detector.commandExecutor == nil || len(strings.TrimSpace(string(probeCommand.Name))) == 0 {
		return false
	}

	_, probeError := detector.commandExecutor.Execute(executionContext, probeCommand)
	if probeError != nil {
		detector.logger.Debug(capabilityAbsentMessageConstant,
			zap.String(capabilityFieldNameConstant, string(capabilityName)),
			zap.String(probeCommandFieldNameConstant, string(probeCommand.Name)),
			zap.String(probeErrorFieldNameConstant, probeError.Error()),
		)
		return false
	}

	detector.logger.Debug(capabilityDetectedMessageConstant,
		zap.String(capabilityFieldNameConstant, string(capabilityName)),
		zap.String(probeCommandFieldNameConstant, string(probeCommand.Name)),
	)
	return true
}
