package config

import (
	"os"
	"path/filepath"
)

const (
	// EnvConfigPath is the environment variable for explicit config path
	EnvConfigPath = "MESHPLAN_CONFIG"
	// ConfigFileName is the config file name looked for in the working directory
	ConfigFileName = "meshplan.yaml"
	// ConfigDirName is the config directory name under XDG and /etc
	ConfigDirName = "meshplan"
)

// Source says where a config file was found
type Source string

const (
	SourceFlag     Source = "flag"
	SourceEnv      Source = "env"
	SourceWorkDir  Source = "workdir"
	SourceUser     Source = "user"
	SourceSystem   Source = "system"
	SourceDefaults Source = "defaults"
)

// Location is a resolved config file. Path is empty for SourceDefaults.
type Location struct {
	Source Source
	Path   string
}

// String renders the location for `config show`
func (l Location) String() string {
	if l.Path == "" {
		return "(defaults, no config file found)"
	}
	return l.Path + " (" + string(l.Source) + ")"
}

// Locate resolves the config file in priority order:
//  1. explicit, the --config flag; used even when missing so the read fails loudly
//  2. $MESHPLAN_CONFIG, skipped when the file is missing
//  3. ./meshplan.yaml
//  4. $XDG_CONFIG_HOME/meshplan/config.yaml, then ~/.config/meshplan/config.yaml
//  5. /etc/meshplan/config.yaml
//
// With none of them present the result is SourceDefaults.
func Locate(explicit string) Location {
	if explicit != "" {
		return Location{Source: SourceFlag, Path: explicit}
	}
	for _, candidate := range searchPath() {
		if fileExists(candidate.Path) {
			return candidate
		}
	}
	return Location{Source: SourceDefaults}
}

// FindConfigPath returns the first config file on the search path, or ""
func FindConfigPath() string {
	return Locate("").Path
}

// searchPath lists the implicit candidates, highest priority first
func searchPath() []Location {
	var candidates []Location

	if path := os.Getenv(EnvConfigPath); path != "" {
		candidates = append(candidates, Location{Source: SourceEnv, Path: path})
	}

	local := ConfigFileName
	if abs, err := filepath.Abs(ConfigFileName); err == nil {
		local = abs
	}
	candidates = append(candidates, Location{Source: SourceWorkDir, Path: local})

	if dir := userConfigDir(); dir != "" {
		candidates = append(candidates, Location{Source: SourceUser, Path: filepath.Join(dir, ConfigDirName, "config.yaml")})
	}

	return append(candidates, Location{Source: SourceSystem, Path: filepath.Join("/etc", ConfigDirName, "config.yaml")})
}

// userConfigDir is $XDG_CONFIG_HOME, falling back to ~/.config
func userConfigDir() string {
	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		return xdgHome
	}
	if home := os.Getenv("HOME"); home != "" {
		return filepath.Join(home, ".config")
	}
	return ""
}

// DefaultConfigPath returns where `config init` writes a new file: the user
// config directory when one is known, else the working directory.
func DefaultConfigPath() string {
	if dir := userConfigDir(); dir != "" {
		return filepath.Join(dir, ConfigDirName, "config.yaml")
	}
	return ConfigFileName
}

// EnsureConfigDir creates the config directory if it doesn't exist
func EnsureConfigDir(configPath string) error {
	return os.MkdirAll(filepath.Dir(configPath), 0755)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
