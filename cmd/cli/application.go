package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/tyemirov/forge/internal/utils"
)

const (
	applicationNameConstant             = "forge"
	applicationShortDescriptionConstant = "Declarative build pipeline runner"
	applicationLongDescriptionConstant  = "forge resolves a dependency graph of build, test, and packaging tasks and drives the external tools behind them."

	configFileFlagNameConstant          = "config"
	configFileFlagUsageConstant         = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant            = "log-level"
	logLevelFlagUsageConstant           = "Override the configured log level."
	logFormatFlagNameConstant           = "log-format"
	logFormatFlagUsageConstant          = "Override the configured log format (structured or console)."
	buildConfigurationFlagNameConstant  = "configuration"
	buildConfigurationFlagUsageConstant = "Build configuration passed to compile and package tasks (for example Debug or Release)."
	pipelineManifestFlagNameConstant    = "pipeline"
	pipelineManifestFlagUsageConstant   = "Optional path to a pipeline manifest declaring additional tasks."

	commonConfigurationKeyConstant       = "common"
	commonLogLevelConfigKeyConstant      = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant     = commonConfigurationKeyConstant + ".log_format"
	commonBuildConfigurationConfigKey    = commonConfigurationKeyConstant + ".configuration"
	environmentPrefixConstant            = "FORGE"
	configurationNameConstant            = "config"
	configurationTypeConstant            = "yaml"
	defaultConfigurationSearchPath       = "."
	userConfigurationDirectoryName       = ".forge"
	xdgConfigHomeEnvironmentVariableName = "XDG_CONFIG_HOME"

	buildConfigurationEnvironmentVariableName = "FORGE_CONFIGURATION"
	defaultBuildConfigurationConstant         = "Debug"
	defaultPipelineManifestFileNameConstant   = "forge.yaml"

	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
)

type loggerOutputsFactory interface {
	CreateLoggerOutputs(utils.LogLevel, utils.LogFormat) (utils.LoggerOutputs, error)
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand                 *cobra.Command
	configurationLoader         *utils.ConfigurationLoader
	loggerFactory               loggerOutputsFactory
	logger                      *zap.Logger
	consoleLogger               *zap.Logger
	configuration               ApplicationConfiguration
	configurationMetadata       utils.LoadedConfiguration
	configurationFilePath       string
	logLevelFlagValue           string
	logFormatFlagValue          string
	buildConfigurationFlagValue string
	pipelineManifestFlagValue   string
	versionResolver             func(context.Context) string
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() *Application {
	application := &Application{
		loggerFactory: utils.NewLoggerFactory(),
		logger:        zap.NewNop(),
		consoleLogger: zap.NewNop(),
	}
	application.versionResolver = application.resolveVersion

	application.configurationLoader = utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		application.resolveConfigurationSearchPaths(),
	)

	embeddedConfigurationData, embeddedConfigurationType := EmbeddedDefaultConfiguration()
	application.configurationLoader.SetEmbeddedConfiguration(embeddedConfigurationData, embeddedConfigurationType)

	rootCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
	}

	rootCommand.SetContext(context.Background())
	rootCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	rootCommand.PersistentFlags().StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", logLevelFlagUsageConstant)
	rootCommand.PersistentFlags().StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", logFormatFlagUsageConstant)
	rootCommand.PersistentFlags().StringVar(&application.buildConfigurationFlagValue, buildConfigurationFlagNameConstant, "", buildConfigurationFlagUsageConstant)
	rootCommand.PersistentFlags().StringVar(&application.pipelineManifestFlagValue, pipelineManifestFlagNameConstant, "", pipelineManifestFlagUsageConstant)

	rootCommand.AddCommand(application.newRunCommand())
	rootCommand.AddCommand(application.newTasksCommand())
	rootCommand.AddCommand(application.newVersionCommand())

	application.rootCommand = rootCommand
	return application
}

// Execute runs the root command hierarchy.
func (application *Application) Execute() error {
	return application.rootCommand.Execute()
}

// Execute builds a fresh application instance and executes the root command hierarchy.
func Execute() error {
	return NewApplication().Execute()
}

// RootCommand exposes the assembled root command for embedding and tests.
func (application *Application) RootCommand() *cobra.Command {
	return application.rootCommand
}

// ConfigFileUsed returns the configuration file path used during initialization.
func (application *Application) ConfigFileUsed() string {
	return application.configurationMetadata.ConfigFileUsed
}

func (application *Application) resolveConfigurationSearchPaths() []string {
	configurationSearchPaths := []string{defaultConfigurationSearchPath}

	appendConfigurationDirectory := func(baseDirectoryPath string) {
		trimmedBaseDirectoryPath := strings.TrimSpace(baseDirectoryPath)
		if len(trimmedBaseDirectoryPath) == 0 {
			return
		}

		candidateDirectoryPath := filepath.Join(trimmedBaseDirectoryPath, userConfigurationDirectoryName)
		for _, existingDirectoryPath := range configurationSearchPaths {
			if existingDirectoryPath == candidateDirectoryPath {
				return
			}
		}

		configurationSearchPaths = append(configurationSearchPaths, candidateDirectoryPath)
	}

	appendConfigurationDirectory(os.Getenv(xdgConfigHomeEnvironmentVariableName))

	userConfigurationBaseDirectoryPath, userConfigurationDirectoryError := os.UserConfigDir()
	if userConfigurationDirectoryError == nil {
		appendConfigurationDirectory(userConfigurationBaseDirectoryPath)
	}

	userHomeDirectoryPath, userHomeDirectoryError := os.UserHomeDir()
	if userHomeDirectoryError == nil {
		appendConfigurationDirectory(userHomeDirectoryPath)
	}

	return configurationSearchPaths
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:   string(utils.LogLevelInfo),
		commonLogFormatConfigKeyConstant:  string(utils.LogFormatConsole),
		commonBuildConfigurationConfigKey: defaultBuildConfigurationConstant,
	}

	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultValues, &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}

	application.configurationMetadata = loadedConfiguration
	application.configuration.Pipeline = mergePipelineDefaults(application.configuration.Pipeline)

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}

	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}

	loggerOutputs, loggerCreationError := application.loggerFactory.CreateLoggerOutputs(
		utils.LogLevel(application.configuration.Common.LogLevel),
		utils.LogFormat(application.configuration.Common.LogFormat),
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}

	application.logger = loggerOutputs.DiagnosticLogger
	if application.logger == nil {
		application.logger = zap.NewNop()
	}

	application.consoleLogger = loggerOutputs.ConsoleLogger
	if application.consoleLogger == nil {
		application.consoleLogger = zap.NewNop()
	}

	application.logConfigurationInitialization()

	return nil
}

func (application *Application) humanReadableLoggingEnabled() bool {
	logFormatValue := strings.TrimSpace(application.configuration.Common.LogFormat)
	return strings.EqualFold(logFormatValue, string(utils.LogFormatConsole))
}

func (application *Application) logConfigurationInitialization() {
	if !strings.EqualFold(strings.TrimSpace(application.configuration.Common.LogLevel), string(utils.LogLevelDebug)) {
		return
	}

	application.logger.Debug(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
	)
}

func (application *Application) resolveBuildConfiguration(command *cobra.Command) string {
	if application.persistentFlagChanged(command, buildConfigurationFlagNameConstant) {
		return strings.TrimSpace(application.buildConfigurationFlagValue)
	}

	if environmentValue, environmentAvailable := os.LookupEnv(buildConfigurationEnvironmentVariableName); environmentAvailable {
		trimmedEnvironmentValue := strings.TrimSpace(environmentValue)
		if len(trimmedEnvironmentValue) > 0 {
			return trimmedEnvironmentValue
		}
	}

	configuredValue := strings.TrimSpace(application.configuration.Common.Configuration)
	if len(configuredValue) > 0 {
		return configuredValue
	}

	return defaultBuildConfigurationConstant
}

func (application *Application) resolvePipelineManifestPath(workingDirectory string) string {
	if len(strings.TrimSpace(application.pipelineManifestFlagValue)) > 0 {
		return strings.TrimSpace(application.pipelineManifestFlagValue)
	}

	candidatePath := filepath.Join(workingDirectory, defaultPipelineManifestFileNameConstant)
	if fileInformation, statError := os.Stat(candidatePath); statError == nil && !fileInformation.IsDir() {
		return candidatePath
	}

	return ""
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	var flagInstance *pflag.Flag
	if command.Flags() != nil {
		flagInstance = command.Flags().Lookup(flagName)
	}
	if flagInstance == nil && command.Root() != nil {
		flagInstance = command.Root().PersistentFlags().Lookup(flagName)
	}

	return flagInstance != nil && flagInstance.Changed
}
