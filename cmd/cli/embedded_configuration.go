package cli

import (
	_ "embed"
)

//go:embed config.yaml
var embeddedDefaultConfigurationContent []byte

// EmbeddedDefaultConfiguration returns the baseline configuration compiled
// into the binary together with its encoding type.
func EmbeddedDefaultConfiguration() ([]byte, string) {
	return embeddedDefaultConfigurationContent, configurationTypeConstant
}
