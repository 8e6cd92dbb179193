// conf/utils.go config file discovery helpers
package conf

import (
	"os"
	"path/filepath"
	"runtime"
)

const appDirName = "orderlens"

// GetDefaultConfigPaths returns the directories searched for config.yaml, in
// order: the working directory, the per-user config directory and, outside
// Windows, /etc/orderlens.
func GetDefaultConfigPaths() []string {
	paths := []string{"."}

	if configDir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(configDir, appDirName))
	}

	if runtime.GOOS != "windows" {
		paths = append(paths, filepath.Join("/etc", appDirName))
	}

	return paths
}

// DefaultConfigFile is where `config init` writes when no path is given
func DefaultConfigFile() string {
	paths := GetDefaultConfigPaths()
	if len(paths) > 1 {
		return filepath.Join(paths[1], "config.yaml")
	}
	return "config.yaml"
}
