// Package tray draws the menu in the system status bar.
package tray

import (
	"log"
	"sync"

	"github.com/getlantern/systray"

	"github.com/runbar-app/runbar/internal/menu"
)

// separatorLabel stands in for a separator; systray separators cannot be
// hidden.
const separatorLabel = "────────────"

type slot struct {
	kind     slotKind
	item     *systray.MenuItem
	children []*systray.MenuItem

	// Bindings for the current render, guarded by Tray.mu.
	active        bool
	command       menu.Command
	childCommands []menu.Command
}

// Tray presents menu.Specs in the status bar and forwards clicks.
type Tray struct {
	dispatch func(menu.Command)
	layout   []run

	mu      sync.Mutex
	slots   []*slot
	ready   bool
	pending *menu.Spec
}

// New creates a tray that sends clicked commands to dispatch.
func New(dispatch func(menu.Command)) *Tray {
	return &Tray{
		dispatch: dispatch,
		layout:   defaultLayout,
	}
}

// Run starts the status-bar loop. It blocks and must be called from the
// main goroutine. onStart runs once the tray is ready; onExit runs when it
// shuts down.
func (t *Tray) Run(onStart, onExit func()) {
	systray.Run(func() {
		t.build()
		if onStart != nil {
			onStart()
		}
	}, func() {
		if onExit != nil {
			onExit()
		}
	})
}

// Quit exits the status-bar loop.
func (t *Tray) Quit() {
	systray.Quit()
}

// build allocates every slot hidden and starts the click forwarders.
func (t *Tray) build() {
	kinds := slotKinds(t.layout)
	slots := make([]*slot, 0, len(kinds))

	for _, kind := range kinds {
		s := &slot{kind: kind}
		switch kind {
		case kindCheckbox:
			s.item = systray.AddMenuItemCheckbox("", "", false)
		case kindSeparator:
			s.item = systray.AddMenuItem(separatorLabel, "")
			s.item.Disable()
		case kindSubmenu:
			s.item = systray.AddMenuItem("", "")
			for i := 0; i < maxScripts; i++ {
				child := s.item.AddSubMenuItem("", "")
				child.Hide()
				s.children = append(s.children, child)
			}
			s.childCommands = make([]menu.Command, maxScripts)
		default:
			s.item = systray.AddMenuItem("", "")
		}
		s.item.Hide()
		slots = append(slots, s)
	}

	for _, s := range slots {
		if s.kind == kindSeparator {
			continue
		}
		if s.kind == kindSubmenu {
			for i, child := range s.children {
				go t.forwardClicks(child, func() (menu.Command, bool) {
					cmd := s.childCommands[i]
					return cmd, s.active && cmd.Action != menu.ActionNone
				})
			}
			continue
		}
		go t.forwardClicks(s.item, func() (menu.Command, bool) {
			return s.command, s.active
		})
	}

	t.mu.Lock()
	t.slots = slots
	t.ready = true
	pending := t.pending
	t.pending = nil
	t.mu.Unlock()

	if pending != nil {
		t.Render(*pending)
	}
}

// forwardClicks sends the command bound to item on every click. binding
// is called with t.mu held.
func (t *Tray) forwardClicks(item *systray.MenuItem, binding func() (menu.Command, bool)) {
	for range item.ClickedCh {
		t.mu.Lock()
		cmd, ok := binding()
		t.mu.Unlock()

		if ok {
			t.dispatch(cmd)
		}
	}
}

// Render draws spec. Calls made before the tray is ready are kept and
// drawn once it is.
func (t *Tray) Render(spec menu.Spec) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.ready {
		t.pending = &spec
		return
	}

	systray.SetTitle(spec.Title)
	systray.SetTooltip(spec.Tooltip)

	placements, dropped := place(t.layout, spec.Items)
	if dropped > 0 {
		log.Printf("[tray] Menu too large, %d items not shown", dropped)
	}

	used := make([]bool, len(t.slots))
	for _, p := range placements {
		used[p.slot] = true
		t.drawLocked(t.slots[p.slot], p.item)
	}
	for i, s := range t.slots {
		if !used[i] {
			s.active = false
			s.item.Hide()
		}
	}
}

func (t *Tray) drawLocked(s *slot, item menu.Item) {
	s.active = true
	s.command = item.Command

	if s.kind != kindSeparator {
		s.item.SetTitle(item.Label)
	}
	if s.kind == kindCheckbox {
		if item.Checked {
			s.item.Check()
		} else {
			s.item.Uncheck()
		}
	}
	if item.Disabled || s.kind == kindSeparator {
		s.item.Disable()
	} else {
		s.item.Enable()
	}

	if s.kind == kindSubmenu {
		if len(item.Submenu) > len(s.children) {
			log.Printf("[tray] %s has %d scripts, showing %d", item.Label, len(item.Submenu), len(s.children))
		}
		for i, child := range s.children {
			if i >= len(item.Submenu) {
				s.childCommands[i] = menu.Command{}
				child.Hide()
				continue
			}
			s.childCommands[i] = item.Submenu[i].Command
			child.SetTitle(item.Submenu[i].Label)
			child.Show()
		}
	}

	s.item.Show()
}
