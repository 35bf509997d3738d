// Package menu turns registry, project and settings state into the
// status-bar menu. Rendering is a pure function; the presenter only draws
// the result and sends the bound Command back when an item is clicked.
package menu

import (
	"fmt"

	"github.com/runbar-app/runbar/internal/daemon/supervisor"
	"github.com/runbar-app/runbar/internal/models"
)

// Action identifies what a menu item does when clicked.
type Action int

// Menu actions.
const (
	ActionNone Action = iota
	ActionStart
	ActionStop
	ActionStopAll
	ActionChooseFolder
	ActionToggleOpenAtLogin
	ActionQuit
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionStart:
		return "start"
	case ActionStop:
		return "stop"
	case ActionStopAll:
		return "stop-all"
	case ActionChooseFolder:
		return "choose-folder"
	case ActionToggleOpenAtLogin:
		return "toggle-open-at-login"
	case ActionQuit:
		return "quit"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Command is the value bound to a menu item at render time.
type Command struct {
	Action Action

	// Start
	Project string
	Script  string
	Path    string

	// Stop: position in the snapshot the menu was rendered from, and the id
	// of the process that was at that position.
	Index     int
	ProcessID string
}

// Labels of the fixed menu items.
const (
	LabelChooseFolder = "Choose Folder"
	LabelOpenAtLogin  = "Open on startup"
	LabelStopAll      = "Stop All"
	LabelQuit         = "Quit"
)

// Item is one menu entry: a clickable item, a submenu, or a separator.
type Item struct {
	Label     string
	Checkable bool
	Checked   bool
	Disabled  bool
	Separator bool
	Submenu   []Item
	Command   Command
}

// IsSubmenu reports whether the item opens a submenu.
func (i Item) IsSubmenu() bool {
	return len(i.Submenu) > 0
}

// Spec is a complete menu plus the status-bar title.
type Spec struct {
	Title   string
	Tooltip string
	Items   []Item
}

// Separator returns a separator item.
func Separator() Item {
	return Item{Separator: true}
}

// Render builds the menu for the given state.
func Render(snapshot []supervisor.SnapshotEntry, projects []models.Project, settings models.Settings) Spec {
	items := make([]Item, 0, len(snapshot)+len(projects)+6)

	for i, entry := range snapshot {
		items = append(items, Item{
			Label:     entry.Label,
			Checkable: true,
			Checked:   !entry.Exited,
			Command:   Command{Action: ActionStop, Index: i, ProcessID: entry.ID},
		})
	}
	if len(snapshot) > 0 {
		items = append(items, Separator())
	}

	for _, p := range projects {
		items = append(items, projectItem(p))
	}

	items = append(items,
		Separator(),
		Item{Label: LabelChooseFolder, Command: Command{Action: ActionChooseFolder}},
		Item{
			Label:     LabelOpenAtLogin,
			Checkable: true,
			Checked:   settings.OpenAtLoginEnabled(),
			Command:   Command{Action: ActionToggleOpenAtLogin},
		},
		Item{Label: LabelStopAll, Command: Command{Action: ActionStopAll}},
		Item{Label: LabelQuit, Command: Command{Action: ActionQuit}},
	)

	return Spec{
		Title:   supervisor.Title(snapshot),
		Tooltip: formatTooltip(len(projects), len(snapshot)),
		Items:   items,
	}
}

func projectItem(p models.Project) Item {
	scripts := make([]Item, 0, len(p.Scripts))
	for _, script := range p.Scripts {
		scripts = append(scripts, Item{
			Label: script,
			Command: Command{
				Action:  ActionStart,
				Project: p.Name,
				Script:  script,
				Path:    p.Path,
			},
		})
	}
	return Item{Label: p.Name, Submenu: scripts}
}

func formatTooltip(projects, running int) string {
	return fmt.Sprintf("runbar: %d projects, %d running", projects, running)
}
