// Package config handles configuration loading, saving, and path management.
package config

import (
	"os"
	"path/filepath"
)

const (
	// GlobalDirName is the name of the global runbar directory.
	GlobalDirName = ".runbar"

	// HomeEnvVar overrides the global directory location.
	HomeEnvVar = "RUNBAR_HOME"
)

// File names
const (
	DaemonFileName   = "daemon.yaml"
	SettingsFileName = "settings.yaml"
	LockFileName     = "runbar.lock"
	LogFileName      = "runbar.log"
)

// GlobalDir returns the path to the global runbar directory (~/.runbar/),
// or $RUNBAR_HOME when set.
func GlobalDir() (string, error) {
	if dir := os.Getenv(HomeEnvVar); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, GlobalDirName), nil
}

func globalFile(name string) (string, error) {
	dir, err := GlobalDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// GlobalDaemonFile returns the path to the daemon.yaml file.
func GlobalDaemonFile() (string, error) {
	return globalFile(DaemonFileName)
}

// GlobalSettingsFile returns the path to the settings.yaml file.
func GlobalSettingsFile() (string, error) {
	return globalFile(SettingsFileName)
}

// GlobalLockFile returns the path to the single-instance lock file.
func GlobalLockFile() (string, error) {
	return globalFile(LockFileName)
}

// GlobalLogFile returns the path to the tray log file.
func GlobalLogFile() (string, error) {
	return globalFile(LogFileName)
}

// EnsureGlobalDir creates the global runbar directory if it doesn't exist.
func EnsureGlobalDir() error {
	dir, err := GlobalDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}
