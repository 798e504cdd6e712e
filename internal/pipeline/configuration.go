package pipeline

// CommandConfiguration names the opaque external command backing a task.
type CommandConfiguration struct {
	Command   string   `mapstructure:"command"`
	Arguments []string `mapstructure:"arguments"`
}

// TestConfiguration extends the command with test project discovery settings.
type TestConfiguration struct {
	CommandConfiguration `mapstructure:",squash"`
	ProjectSuffix        string `mapstructure:"project_suffix"`
}

// PackConfiguration extends the command with packable project discovery settings.
type PackConfiguration struct {
	CommandConfiguration `mapstructure:",squash"`
	ProjectSuffix        string `mapstructure:"project_suffix"`
}

// CertificateImportConfiguration extends the command with the CI hosts whose
// import failures are tolerated.
type CertificateImportConfiguration struct {
	CommandConfiguration `mapstructure:",squash"`
	TrustedHosts         []string `mapstructure:"trusted_hosts"`
}

// ProbeConfiguration names a capability probe command.
type ProbeConfiguration struct {
	Command   string   `mapstructure:"command"`
	Arguments []string `mapstructure:"arguments"`
}

// Configuration describes every external command of the built-in pipeline.
type Configuration struct {
	Clean             CommandConfiguration           `mapstructure:"clean"`
	Restore           CommandConfiguration           `mapstructure:"restore"`
	Build             CommandConfiguration           `mapstructure:"build"`
	Test              TestConfiguration              `mapstructure:"test"`
	Pack              PackConfiguration              `mapstructure:"pack"`
	CertificateExport CommandConfiguration           `mapstructure:"cert_export"`
	CertificateImport CertificateImportConfiguration `mapstructure:"cert_import"`
	DockerProbe       ProbeConfiguration             `mapstructure:"docker_probe"`
	InteractiveProbe  ProbeConfiguration             `mapstructure:"interactive_probe"`
}

// DefaultConfiguration returns the built-in command set. Every command is an
// opaque external collaborator and may be overridden through the
// configuration file.
func DefaultConfiguration() Configuration {
	return Configuration{
		Clean:   CommandConfiguration{Command: "dotnet", Arguments: []string{"clean"}},
		Restore: CommandConfiguration{Command: "dotnet", Arguments: []string{"restore"}},
		Build:   CommandConfiguration{Command: "dotnet", Arguments: []string{"build", "--no-restore"}},
		Test: TestConfiguration{
			CommandConfiguration: CommandConfiguration{Command: "dotnet", Arguments: []string{"test"}},
			ProjectSuffix:        "Tests.csproj",
		},
		Pack: PackConfiguration{
			CommandConfiguration: CommandConfiguration{Command: "dotnet", Arguments: []string{"pack", "--no-build"}},
			ProjectSuffix:        "Package.csproj",
		},
		CertificateExport: CommandConfiguration{
			Command:   "dotnet",
			Arguments: []string{"dev-certs", "https", "--export-path", "certificate.pfx"},
		},
		CertificateImport: CertificateImportConfiguration{
			CommandConfiguration: CommandConfiguration{Command: "dotnet", Arguments: []string{"dev-certs", "https", "--trust"}},
		},
		DockerProbe:      ProbeConfiguration{Command: "docker", Arguments: []string{"info"}},
		InteractiveProbe: ProbeConfiguration{Command: "func", Arguments: []string{"--version"}},
	}
}
