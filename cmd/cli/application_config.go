package cli

import (
	"strings"

	"github.com/tyemirov/forge/internal/pipeline"
)

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common   ApplicationCommonConfiguration `mapstructure:"common"`
	Pipeline pipeline.Configuration         `mapstructure:"pipeline"`
}

// ApplicationCommonConfiguration stores logging and build defaults shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel      string `mapstructure:"log_level"`
	LogFormat     string `mapstructure:"log_format"`
	Configuration string `mapstructure:"configuration"`
}

// mergePipelineDefaults fills unset pipeline commands from the built-in set so
// a partial configuration file never leaves a task without a command.
func mergePipelineDefaults(loaded pipeline.Configuration) pipeline.Configuration {
	defaults := pipeline.DefaultConfiguration()

	mergeCommand := func(target *pipeline.CommandConfiguration, fallback pipeline.CommandConfiguration) {
		if len(strings.TrimSpace(target.Command)) == 0 {
			*target = fallback
		}
	}
	mergeProbe := func(target *pipeline.ProbeConfiguration, fallback pipeline.ProbeConfiguration) {
		if len(strings.TrimSpace(target.Command)) == 0 {
			*target = fallback
		}
	}

	mergeCommand(&loaded.Clean, defaults.Clean)
	mergeCommand(&loaded.Restore, defaults.Restore)
	mergeCommand(&loaded.Build, defaults.Build)
	mergeCommand(&loaded.Test.CommandConfiguration, defaults.Test.CommandConfiguration)
	mergeCommand(&loaded.Pack.CommandConfiguration, defaults.Pack.CommandConfiguration)
	mergeCommand(&loaded.CertificateExport, defaults.CertificateExport)
	mergeCommand(&loaded.CertificateImport.CommandConfiguration, defaults.CertificateImport.CommandConfiguration)
	mergeProbe(&loaded.DockerProbe, defaults.DockerProbe)
	mergeProbe(&loaded.InteractiveProbe, defaults.InteractiveProbe)

	if len(strings.TrimSpace(loaded.Test.ProjectSuffix)) == 0 {
		loaded.Test.ProjectSuffix = defaults.Test.ProjectSuffix
	}
	if len(strings.TrimSpace(loaded.Pack.ProjectSuffix)) == 0 {
		loaded.Pack.ProjectSuffix = defaults.Pack.ProjectSuffix
	}

	return loaded
}
