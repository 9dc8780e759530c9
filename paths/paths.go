// Package paths resolves where cubensis-link keeps its configuration and logs.
//
// Two layouts are supported:
//
//   - Flat: everything under ~/.cubensis-link/ (config.yaml, logs/)
//   - XDG: config.yaml under $XDG_CONFIG_HOME/cubensis-link, logs under $XDG_STATE_HOME/cubensis-link
//
// An existing ~/.cubensis-link/ directory always wins. Otherwise the XDG layout is
// used when any of the XDG variables is set, and the flat layout when none is.
package paths

import (
	"os"
	"path/filepath"
	"sync"
)

const appDirName = "cubensis-link"

var (
	mu       sync.Mutex
	resolved *layout
)

type layout struct {
	configDir string
	stateDir  string
	flat      bool
}

func resolve() (*layout, error) {
	mu.Lock()
	defer mu.Unlock()

	if resolved != nil {
		return resolved, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	flatDir := filepath.Join(home, "."+appDirName)
	if info, err := os.Stat(flatDir); err == nil && info.IsDir() {
		resolved = &layout{configDir: flatDir, stateDir: flatDir, flat: true}
		return resolved, nil
	}

	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	xdgState := os.Getenv("XDG_STATE_HOME")
	if xdgConfig == "" && xdgState == "" && os.Getenv("XDG_DATA_HOME") == "" {
		resolved = &layout{configDir: flatDir, stateDir: flatDir, flat: true}
		return resolved, nil
	}

	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}
	if xdgState == "" {
		xdgState = filepath.Join(home, ".local", "state")
	}
	resolved = &layout{
		configDir: filepath.Join(xdgConfig, appDirName),
		stateDir:  filepath.Join(xdgState, appDirName),
	}
	return resolved, nil
}

// ConfigDir returns the directory holding config.yaml.
func ConfigDir() (string, error) {
	l, err := resolve()
	if err != nil {
		return "", err
	}
	return l.configDir, nil
}

// StateDir returns the directory for runtime state and logs.
func StateDir() (string, error) {
	l, err := resolve()
	if err != nil {
		return "", err
	}
	return l.stateDir, nil
}

// ConfigFilePath returns the full path to config.yaml.
func ConfigFilePath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// LogsDir returns the directory for log files.
func LogsDir() (string, error) {
	dir, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "logs"), nil
}

// IsFlatLayout reports whether everything lives under ~/.cubensis-link/.
func IsFlatLayout() bool {
	l, err := resolve()
	if err != nil {
		return true
	}
	return l.flat
}

// Reset clears the cached resolution. Tests only.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	resolved = nil
}
