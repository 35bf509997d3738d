package models

import "time"

// Default values for settings that are absent from settings.yaml.
const (
	DefaultRunner          = "npm"
	DefaultStopGracePeriod = 5 * time.Second
)

// Settings represents global application settings.
// This corresponds to ~/.runbar/settings.yaml.
type Settings struct {
	Version      int    `yaml:"version"`
	ProjectsRoot string `yaml:"projects_root,omitempty"`
	OpenAtLogin  *bool  `yaml:"open_at_login,omitempty"` // nil until first run writes the default
	Runner       string `yaml:"runner,omitempty"`        // package-script runner, invoked as "<runner> run <script>"

	// StopGracePeriod is how long a stopped process group may linger before
	// it is force killed. Zero disables the escalation.
	StopGracePeriod *time.Duration `yaml:"stop_grace_period,omitempty"`
}

// NewSettings creates settings with default values.
func NewSettings() *Settings {
	openAtLogin := true
	grace := DefaultStopGracePeriod
	return &Settings{
		Version:         1,
		OpenAtLogin:     &openAtLogin,
		Runner:          DefaultRunner,
		StopGracePeriod: &grace,
	}
}

// ApplyDefaults fills in fields that are missing from a loaded file.
// It reports whether anything changed.
func (s *Settings) ApplyDefaults() bool {
	changed := false
	if s.Version == 0 {
		s.Version = 1
		changed = true
	}
	if s.OpenAtLogin == nil {
		v := true
		s.OpenAtLogin = &v
		changed = true
	}
	if s.Runner == "" {
		s.Runner = DefaultRunner
		changed = true
	}
	if s.StopGracePeriod == nil {
		d := DefaultStopGracePeriod
		s.StopGracePeriod = &d
		changed = true
	}
	return changed
}

// Root returns the configured projects root, if any.
func (s Settings) Root() (string, bool) {
	return s.ProjectsRoot, s.ProjectsRoot != ""
}

// OpenAtLoginEnabled returns the open-at-login flag (true when unset).
func (s Settings) OpenAtLoginEnabled() bool {
	return s.OpenAtLogin == nil || *s.OpenAtLogin
}

// RunnerCommand returns the package-script runner binary.
func (s Settings) RunnerCommand() string {
	if s.Runner == "" {
		return DefaultRunner
	}
	return s.Runner
}

// GracePeriod returns the stop escalation delay.
func (s Settings) GracePeriod() time.Duration {
	if s.StopGracePeriod == nil {
		return DefaultStopGracePeriod
	}
	return *s.StopGracePeriod
}
