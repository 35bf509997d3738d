package tray

import "github.com/runbar-app/runbar/internal/menu"

// systray items cannot be removed or reordered once added, so the tray
// allocates a fixed layout of hidden slots up front and every render maps
// the menu onto it.

type slotKind int

const (
	kindPlain slotKind = iota
	kindCheckbox
	kindSubmenu
	kindSeparator
)

func (k slotKind) String() string {
	switch k {
	case kindPlain:
		return "plain"
	case kindCheckbox:
		return "checkbox"
	case kindSubmenu:
		return "submenu"
	case kindSeparator:
		return "separator"
	default:
		return "unknown"
	}
}

// run is a block of consecutive slots of one kind.
type run struct {
	kind  slotKind
	count int
}

// Slot capacities.
const (
	maxRunning  = 20
	maxProjects = 40
	maxScripts  = 30
)

// defaultLayout matches the menu order: running processes, separator,
// projects, separator, then the fixed items.
var defaultLayout = []run{
	{kindCheckbox, maxRunning},
	{kindSeparator, 1},
	{kindSubmenu, maxProjects},
	{kindSeparator, 1},
	{kindPlain, 1},    // Choose Folder
	{kindCheckbox, 1}, // Open on startup
	{kindPlain, 2},    // Stop All, Quit
}

// layoutSize returns the total number of top-level slots.
func layoutSize(layout []run) int {
	n := 0
	for _, r := range layout {
		n += r.count
	}
	return n
}

// slotKinds expands a layout into one kind per slot.
func slotKinds(layout []run) []slotKind {
	kinds := make([]slotKind, 0, layoutSize(layout))
	for _, r := range layout {
		for i := 0; i < r.count; i++ {
			kinds = append(kinds, r.kind)
		}
	}
	return kinds
}

func kindOf(item menu.Item) slotKind {
	switch {
	case item.Separator:
		return kindSeparator
	case item.IsSubmenu():
		return kindSubmenu
	case item.Checkable:
		return kindCheckbox
	default:
		return kindPlain
	}
}

// placement binds a menu item to a top-level slot.
type placement struct {
	slot int
	item menu.Item
}

// place assigns items to slots in order. A group of consecutive items of
// one kind takes the next run of that kind after the previous group's run;
// every separator is its own group. Items beyond a run's capacity are
// dropped and counted, so an overflowing group never spills into a later
// run.
func place(layout []run, items []menu.Item) ([]placement, int) {
	placements := make([]placement, 0, len(items))
	dropped := 0

	runIdx := -1 // run of the current group
	used := 0    // slots used in the current run
	offset := 0  // index of the current run's first slot
	prev := slotKind(-1)

	for _, item := range items {
		kind := kindOf(item)

		if kind != prev || kind == kindSeparator {
			prev = kind
			next := runIdx + 1
			nextOffset := offset
			if runIdx >= 0 {
				nextOffset += layout[runIdx].count
			}
			for next < len(layout) && layout[next].kind != kind {
				nextOffset += layout[next].count
				next++
			}
			if next == len(layout) {
				// No run left for this group; keep the cursor where it was.
				dropped++
				prev = slotKind(-1)
				continue
			}
			runIdx, used, offset = next, 0, nextOffset
		}

		if used >= layout[runIdx].count {
			dropped++
			continue
		}
		placements = append(placements, placement{slot: offset + used, item: item})
		used++
	}

	return placements, dropped
}
