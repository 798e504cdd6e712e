package pipeline

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

const (
	discoveryMismatchTemplateConstant = "expected exactly one file matching %q, found %d"
	gitDirectoryNameConstant          = ".git"
	binDirectoryNameConstant          = "bin"
	objDirectoryNameConstant          = "obj"
)

// DiscoveryMismatchError reports a discovery expecting exactly one matching
// file that found zero or several.
type DiscoveryMismatchError struct {
	Pattern string
	Matches []string
}

// Error implements the error interface.
func (errorDetails DiscoveryMismatchError) Error() string {
	message := fmt.Sprintf(discoveryMismatchTemplateConstant, errorDetails.Pattern, len(errorDetails.Matches))
	if len(errorDetails.Matches) > 0 {
		message = fmt.Sprintf("%s: %s", message, strings.Join(errorDetails.Matches, ", "))
	}
	return message
}

// DiscoverFilesBySuffix walks the working tree collecting files whose name
// ends with the provided suffix, in lexical walk order. Version control and
// build output directories are skipped.
func DiscoverFilesBySuffix(rootDirectory string, fileSuffix string) ([]string, error) {
	discoveredFiles := make([]string, 0)

	walkError := filepath.WalkDir(rootDirectory, func(entryPath string, directoryEntry fs.DirEntry, entryError error) error {
		if entryError != nil {
			return entryError
		}
		if directoryEntry.IsDir() {
			switch directoryEntry.Name() {
			case gitDirectoryNameConstant, binDirectoryNameConstant, objDirectoryNameConstant:
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(directoryEntry.Name(), fileSuffix) {
			discoveredFiles = append(discoveredFiles, entryPath)
		}
		return nil
	})
	if walkError != nil {
		return nil, walkError
	}

	return discoveredFiles, nil
}

// DiscoverSingleFile returns the sole file matching the suffix, failing with
// DiscoveryMismatchError when zero or multiple files match.
func DiscoverSingleFile(rootDirectory string, fileSuffix string) (string, error) {
	discoveredFiles, discoveryError := DiscoverFilesBySuffix(rootDirectory, fileSuffix)
	if discoveryError != nil {
		return "", discoveryError
	}
	if len(discoveredFiles) != 1 {
		return "", DiscoveryMismatchError{Pattern: fileSuffix, Matches: discoveredFiles}
	}
	return discoveredFiles[0], nil
}
