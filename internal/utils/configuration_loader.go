package utils

import (
	"bytes"
	"errors"
	"strings"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const environmentKeySeparatorReplacerConstant = "_"

// LoadedConfiguration reports where the effective configuration came from.
type LoadedConfiguration struct {
	ConfigFileUsed string
}

// ConfigurationLoader layers defaults, embedded configuration, configuration
// files, and environment variables through viper. Later layers override
// earlier ones: defaults, then embedded content, then a configuration file,
// then environment variables.
type ConfigurationLoader struct {
	configurationName string
	configurationType string
	environmentPrefix string
	searchPaths       []string
	embeddedContent   []byte
	embeddedType      string
}

// NewConfigurationLoader returns a loader searching the provided directories
// in order for a configuration file with the given name and type.
func NewConfigurationLoader(configurationName string, configurationType string, environmentPrefix string, searchPaths []string) *ConfigurationLoader {
	return &ConfigurationLoader{
		configurationName: configurationName,
		configurationType: configurationType,
		environmentPrefix: environmentPrefix,
		searchPaths:       append([]string(nil), searchPaths...),
	}
}

// SetEmbeddedConfiguration registers baseline configuration merged beneath any
// configuration file found on disk.
func (loader *ConfigurationLoader) SetEmbeddedConfiguration(embeddedContent []byte, configurationType string) {
	loader.embeddedContent = embeddedContent
	loader.embeddedType = configurationType
}

// LoadConfiguration resolves the layered configuration into the target
// structure. An explicit configuration path bypasses the search directories.
func (loader *ConfigurationLoader) LoadConfiguration(explicitConfigurationPath string, defaultValues map[string]any, target any) (LoadedConfiguration, error) {
	viperInstance := viper.New()
	viperInstance.SetConfigName(loader.configurationName)
	viperInstance.SetConfigType(loader.configurationType)
	viperInstance.SetEnvPrefix(loader.environmentPrefix)
	viperInstance.SetEnvKeyReplacer(strings.NewReplacer(".", environmentKeySeparatorReplacerConstant))
	viperInstance.AutomaticEnv()

	for defaultKey, defaultValue := range defaultValues {
		viperInstance.SetDefault(defaultKey, defaultValue)
	}

	if len(loader.embeddedContent) > 0 {
		embeddedConfigurationType := loader.embeddedType
		if len(embeddedConfigurationType) == 0 {
			embeddedConfigurationType = loader.configurationType
		}
		viperInstance.SetConfigType(embeddedConfigurationType)
		if mergeError := viperInstance.MergeConfig(bytes.NewReader(loader.embeddedContent)); mergeError != nil {
			return LoadedConfiguration{}, mergeError
		}
		viperInstance.SetConfigType(loader.configurationType)
	}

	configurationFileUsed := ""
	if len(explicitConfigurationPath) > 0 {
		viperInstance.SetConfigFile(explicitConfigurationPath)
		if mergeError := viperInstance.MergeInConfig(); mergeError != nil {
			return LoadedConfiguration{}, mergeError
		}
		configurationFileUsed = viperInstance.ConfigFileUsed()
	} else {
		for _, searchPath := range loader.searchPaths {
			viperInstance.AddConfigPath(searchPath)
		}
		mergeError := viperInstance.MergeInConfig()
		switch {
		case mergeError == nil:
			configurationFileUsed = viperInstance.ConfigFileUsed()
		default:
			var configurationNotFoundError viper.ConfigFileNotFoundError
			if !errors.As(mergeError, &configurationNotFoundError) {
				return LoadedConfiguration{}, mergeError
			}
		}
	}

	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if unmarshalError := viperInstance.Unmarshal(target, decodeHook); unmarshalError != nil {
		return LoadedConfiguration{}, unmarshalError
	}

	return LoadedConfiguration{ConfigFileUsed: configurationFileUsed}, nil
}
