// FILE: lixenwraith/paramconfig/discovery.go
package paramconfig

import (
	"os"
	"path/filepath"
	"strings"
)

// DiscoveryOptions configures lookup of a parameter file.
type DiscoveryOptions struct {
	// Base name of the file, without extension
	Name string

	// Extensions to try, in order
	Extensions []string

	// Custom search paths, tried before the defaults
	Paths []string

	// Environment variable holding an explicit path
	EnvVar string

	// Whether to search XDG config directories
	UseXDG bool

	// Whether to search the current directory
	UseCurrentDir bool
}

// DefaultDiscoveryOptions searches the current directory and XDG paths for
// appName with every supported extension.
func DefaultDiscoveryOptions(appName string) DiscoveryOptions {
	return DiscoveryOptions{
		Name:          appName,
		Extensions:    []string{".ini", ".json", ".yaml", ".yml", ".toml"},
		EnvVar:        strings.ToUpper(strings.ReplaceAll(appName, "-", "_")) + "_PARAMS",
		UseXDG:        true,
		UseCurrentDir: true,
	}
}

// Discover returns the first parameter file found and its format. The
// environment variable wins over the search paths. Not finding a file is
// not an error; the caller keeps its defaults.
func Discover(opts DiscoveryOptions) (string, Format, bool) {
	if opts.EnvVar != "" {
		if path := os.Getenv(opts.EnvVar); path != "" {
			f, _ := ParseFormat(filepath.Ext(path))
			return path, f, true
		}
	}

	var searchPaths []string
	searchPaths = append(searchPaths, opts.Paths...)
	if opts.UseCurrentDir {
		if cwd, err := os.Getwd(); err == nil {
			searchPaths = append(searchPaths, cwd)
		}
	}
	if opts.UseXDG {
		searchPaths = append(searchPaths, xdgConfigPaths(opts.Name)...)
	}

	for _, dir := range searchPaths {
		for _, ext := range opts.Extensions {
			path := filepath.Join(dir, opts.Name+ext)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				f, _ := ParseFormat(ext)
				return path, f, true
			}
		}
	}
	return "", FormatUnknown, false
}

// xdgConfigPaths returns XDG-compliant search paths for appName.
func xdgConfigPaths(appName string) []string {
	var paths []string
	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		paths = append(paths, filepath.Join(xdgHome, appName))
	} else if home := os.Getenv("HOME"); home != "" {
		paths = append(paths, filepath.Join(home, ".config", appName))
	}
	if xdgDirs := os.Getenv("XDG_CONFIG_DIRS"); xdgDirs != "" {
		for _, dir := range filepath.SplitList(xdgDirs) {
			paths = append(paths, filepath.Join(dir, appName))
		}
	} else {
		paths = append(paths, filepath.Join("/etc/xdg", appName))
	}
	return paths
}
