package config

import (
	"fmt"
	"sync"

	"github.com/runbar-app/runbar/internal/models"
)

// LoadSettings loads the global settings from ~/.runbar/settings.yaml.
// If the file doesn't exist, returns default settings.
func LoadSettings() (*models.Settings, error) {
	path, err := GlobalSettingsFile()
	if err != nil {
		return nil, err
	}
	settings, err := LoadYAMLOrDefault(path, models.NewSettings)
	if err != nil {
		return nil, err
	}
	settings.ApplyDefaults()
	return settings, nil
}

// SaveSettings saves the global settings to ~/.runbar/settings.yaml.
func SaveSettings(settings *models.Settings) error {
	path, err := GlobalSettingsFile()
	if err != nil {
		return err
	}
	return SaveYAML(path, settings)
}

// EnsureSettings loads settings and writes back any defaults that were
// missing, so that open_at_login is persisted as true on first run.
func EnsureSettings() (*models.Settings, error) {
	path, err := GlobalSettingsFile()
	if err != nil {
		return nil, err
	}
	settings, err := LoadYAMLOrDefault(path, func() *models.Settings { return &models.Settings{} })
	if err != nil {
		return nil, err
	}
	if settings.ApplyDefaults() || !FileExists(path) {
		if err := SaveYAML(path, settings); err != nil {
			return nil, fmt.Errorf("failed to write default settings: %w", err)
		}
	}
	return settings, nil
}

// SettingsStore keeps the settings in memory and writes every change
// through to settings.yaml.
type SettingsStore struct {
	mu       sync.Mutex
	settings models.Settings
}

// OpenSettingsStore loads settings.yaml, creating it with defaults if needed.
func OpenSettingsStore() (*SettingsStore, error) {
	settings, err := EnsureSettings()
	if err != nil {
		return nil, err
	}
	return &SettingsStore{settings: *settings}, nil
}

// Settings returns a copy of the current settings.
func (s *SettingsStore) Settings() models.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// ProjectsRoot returns the configured projects root, if any.
func (s *SettingsStore) ProjectsRoot() (string, bool) {
	return s.Settings().Root()
}

// SetProjectsRoot stores a new projects root.
func (s *SettingsStore) SetProjectsRoot(path string) error {
	return s.update(func(st *models.Settings) {
		st.ProjectsRoot = path
	})
}

// OpenAtLogin returns the open-at-login flag.
func (s *SettingsStore) OpenAtLogin() bool {
	return s.Settings().OpenAtLoginEnabled()
}

// SetOpenAtLogin stores the open-at-login flag.
func (s *SettingsStore) SetOpenAtLogin(enabled bool) error {
	return s.update(func(st *models.Settings) {
		st.OpenAtLogin = &enabled
	})
}

func (s *SettingsStore) update(fn func(*models.Settings)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.settings
	fn(&next)
	if err := SaveSettings(&next); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	s.settings = next
	return nil
}
