package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestApplyDefaults(t *testing.T) {
	var s Settings
	assert.True(t, s.ApplyDefaults())
	assert.Equal(t, 1, s.Version)
	assert.True(t, s.OpenAtLoginEnabled())
	assert.Equal(t, DefaultRunner, s.Runner)
	assert.Equal(t, DefaultStopGracePeriod, s.GracePeriod())

	assert.False(t, s.ApplyDefaults(), "second call changes nothing")
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	off := false
	zero := time.Duration(0)
	s := Settings{Version: 1, OpenAtLogin: &off, Runner: "pnpm", StopGracePeriod: &zero}

	assert.False(t, s.ApplyDefaults())
	assert.False(t, s.OpenAtLoginEnabled())
	assert.Equal(t, "pnpm", s.RunnerCommand())
	assert.Equal(t, time.Duration(0), s.GracePeriod())
}

func TestFindProject(t *testing.T) {
	projects := []Project{
		{Name: "api", Scripts: []string{"dev", "test"}},
		{Name: "web", Scripts: []string{"build"}},
	}

	p, ok := FindProject(projects, "web")
	assert.True(t, ok)
	assert.True(t, p.HasScript("build"))
	assert.False(t, p.HasScript("dev"))

	_, ok = FindProject(projects, "docs")
	assert.False(t, ok)
}
