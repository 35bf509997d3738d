package tray

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runbar-app/runbar/internal/daemon/supervisor"
	"github.com/runbar-app/runbar/internal/menu"
	"github.com/runbar-app/runbar/internal/models"
)

func slotsOf(placements []placement) []int {
	out := make([]int, 0, len(placements))
	for _, p := range placements {
		out = append(out, p.slot)
	}
	return out
}

func TestLayoutSize(t *testing.T) {
	assert.Equal(t, maxRunning+1+maxProjects+1+4, layoutSize(defaultLayout))
	assert.Len(t, slotKinds(defaultLayout), layoutSize(defaultLayout))
}

func TestPlaceEmptyMenu(t *testing.T) {
	spec := menu.Render(nil, nil, *models.NewSettings())

	placements, dropped := place(defaultLayout, spec.Items)
	require.Zero(t, dropped)

	// The separator takes the first separator slot; the fixed items keep
	// their own runs.
	sep2 := maxRunning + 1 + maxProjects
	assert.Equal(t, []int{maxRunning, sep2 + 1, sep2 + 2, sep2 + 3, sep2 + 4}, slotsOf(placements))
}

func TestPlaceRunningAndProjects(t *testing.T) {
	snapshot := []supervisor.SnapshotEntry{
		{ID: "1", Key: "api:dev", Label: "api:dev"},
		{ID: "2", Key: "web:build", Label: "web:build", Exited: true},
	}
	projects := []models.Project{
		{Name: "api", Path: "/code/api", Scripts: []string{"dev"}},
		{Name: "web", Path: "/code/web", Scripts: []string{"build"}},
	}
	spec := menu.Render(snapshot, projects, *models.NewSettings())

	placements, dropped := place(defaultLayout, spec.Items)
	require.Zero(t, dropped)
	require.Len(t, placements, len(spec.Items))

	projectsStart := maxRunning + 1
	sep2 := projectsStart + maxProjects
	assert.Equal(t, []int{
		0, 1,
		maxRunning,
		projectsStart, projectsStart + 1,
		sep2, sep2 + 1, sep2 + 2, sep2 + 3, sep2 + 4,
	}, slotsOf(placements))

	kinds := slotKinds(defaultLayout)
	for _, p := range placements {
		assert.Equal(t, kindOf(p.item), kinds[p.slot], "item %q", p.item.Label)
	}
}

func TestPlaceRunningWithoutProjects(t *testing.T) {
	snapshot := []supervisor.SnapshotEntry{{ID: "1", Key: "api:dev", Label: "api:dev"}}
	spec := menu.Render(snapshot, nil, *models.NewSettings())

	placements, dropped := place(defaultLayout, spec.Items)
	require.Zero(t, dropped)

	sep2 := maxRunning + 1 + maxProjects
	assert.Equal(t, []int{0, maxRunning, sep2, sep2 + 1, sep2 + 2, sep2 + 3, sep2 + 4}, slotsOf(placements))
}

func TestPlaceKeepsOrder(t *testing.T) {
	snapshot := make([]supervisor.SnapshotEntry, 3)
	for i := range snapshot {
		key := fmt.Sprintf("p%d:dev", i)
		snapshot[i] = supervisor.SnapshotEntry{ID: key, Key: key, Label: key}
	}
	spec := menu.Render(snapshot, nil, *models.NewSettings())

	placements, _ := place(defaultLayout, spec.Items)
	for i := 1; i < len(placements); i++ {
		assert.Less(t, placements[i-1].slot, placements[i].slot)
	}
}

func TestPlaceOverflow(t *testing.T) {
	snapshot := make([]supervisor.SnapshotEntry, maxRunning+3)
	for i := range snapshot {
		key := fmt.Sprintf("p%d:dev", i)
		snapshot[i] = supervisor.SnapshotEntry{ID: key, Key: key, Label: key}
	}
	spec := menu.Render(snapshot, nil, *models.NewSettings())

	placements, dropped := place(defaultLayout, spec.Items)
	assert.Equal(t, 3, dropped)
	assert.Len(t, placements, len(spec.Items)-3)

	// Overflowing running items never take the Open on startup checkbox.
	for _, p := range placements {
		if p.slot >= maxRunning {
			assert.NotContains(t, p.item.Label, ":dev")
		}
	}

	// The fixed items still find their slots.
	last := placements[len(placements)-1]
	assert.Equal(t, menu.LabelQuit, last.item.Label)
	assert.Equal(t, layoutSize(defaultLayout)-1, last.slot)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, kindSeparator, kindOf(menu.Separator()))
	assert.Equal(t, kindCheckbox, kindOf(menu.Item{Label: "x", Checkable: true}))
	assert.Equal(t, kindSubmenu, kindOf(menu.Item{Label: "x", Submenu: []menu.Item{{Label: "y"}}}))
	assert.Equal(t, kindPlain, kindOf(menu.Item{Label: "x"}))
	assert.Equal(t, "submenu", kindSubmenu.String())
}
