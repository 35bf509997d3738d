// Package app ties the registry, settings, project lister and menu
// together. All menu commands and re-renders run on one event goroutine.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/runbar-app/runbar/internal/daemon/project"
	"github.com/runbar-app/runbar/internal/daemon/supervisor"
	"github.com/runbar-app/runbar/internal/menu"
	"github.com/runbar-app/runbar/internal/models"
)

// ErrStaleCommand is returned for a Stop command whose menu binding no
// longer matches the registry.
var ErrStaleCommand = errors.New("stale menu command")

// Presenter draws a rendered menu.
type Presenter interface {
	Render(spec menu.Spec)
	Quit()
}

// SettingsStore reads and writes persisted settings.
type SettingsStore interface {
	Settings() models.Settings
	SetProjectsRoot(path string) error
	SetOpenAtLogin(enabled bool) error
}

// Options configures an App. Registry, Settings and Presenter are required.
type Options struct {
	Registry  *supervisor.Registry
	Settings  SettingsStore
	Presenter Presenter

	// List discovers projects under a root. Defaults to project.List.
	List func(root string) []models.Project

	// ChooseFolder shows the folder picker. ok is false on cancel.
	ChooseFolder func(ctx context.Context, defaultPath string) (path string, ok bool, err error)

	// DefaultFolder is where the picker opens when no root is set.
	DefaultFolder string

	// ApplyLogin installs or removes the login item.
	ApplyLogin func(enabled bool) error

	// WatchRoot points the file watcher at a new projects root.
	WatchRoot func(root string) error
}

// App is the menu-bar application state machine.
type App struct {
	registry  *supervisor.Registry
	settings  SettingsStore
	presenter Presenter

	list          func(string) []models.Project
	chooseFolder  func(context.Context, string) (string, bool, error)
	defaultFolder string
	applyLogin    func(bool) error
	watchRoot     func(string) error

	commands chan menu.Command
	rebuild  chan struct{}
	done     chan struct{}
	quitOnce sync.Once

	mu   sync.Mutex
	spec menu.Spec
}

// New creates an App and subscribes it to registry changes.
func New(opts Options) *App {
	a := &App{
		registry:      opts.Registry,
		settings:      opts.Settings,
		presenter:     opts.Presenter,
		list:          opts.List,
		chooseFolder:  opts.ChooseFolder,
		defaultFolder: opts.DefaultFolder,
		applyLogin:    opts.ApplyLogin,
		watchRoot:     opts.WatchRoot,
		commands:      make(chan menu.Command, 16),
		rebuild:       make(chan struct{}, 1),
		done:          make(chan struct{}),
	}
	if a.list == nil {
		a.list = project.List
	}
	a.registry.SetOnChange(a.RequestRebuild)
	return a
}

// Dispatch queues a menu command for the event goroutine. It is safe to
// call from any goroutine and returns without effect after Quit.
func (a *App) Dispatch(cmd menu.Command) {
	select {
	case a.commands <- cmd:
	case <-a.done:
	}
}

// RequestRebuild asks the event goroutine to re-render the menu. Requests
// made while one is pending are coalesced.
func (a *App) RequestRebuild() {
	select {
	case a.rebuild <- struct{}{}:
	default:
	}
}

// Done is closed once the app has quit.
func (a *App) Done() <-chan struct{} {
	return a.done
}

// Run renders the initial menu and processes events until ctx is
// cancelled or a Quit command is handled.
func (a *App) Run(ctx context.Context) error {
	a.Rebuild()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-a.done:
			return nil
		case cmd := <-a.commands:
			if err := a.Handle(ctx, cmd); err != nil {
				log.Printf("[app] %s: %v", cmd.Action, err)
			}
		case <-a.rebuild:
			a.Rebuild()
		}
	}
}

// Handle executes one menu command and re-renders the menu.
func (a *App) Handle(ctx context.Context, cmd menu.Command) error {
	switch cmd.Action {
	case menu.ActionStart:
		a.registry.Start(cmd.Project, cmd.Script, cmd.Path)

	case menu.ActionStop:
		if err := a.stop(cmd); err != nil {
			return err
		}

	case menu.ActionStopAll:
		a.registry.StopAll()

	case menu.ActionChooseFolder:
		if err := a.chooseProjectsRoot(ctx); err != nil {
			return err
		}

	case menu.ActionToggleOpenAtLogin:
		if err := a.toggleOpenAtLogin(); err != nil {
			return err
		}

	case menu.ActionQuit:
		a.Quit()
		return nil

	case menu.ActionNone:
		return nil

	default:
		return fmt.Errorf("unknown action %s", cmd.Action)
	}

	a.Rebuild()
	return nil
}

// stop removes the process the menu item was bound to. The binding is
// checked against the current registry so a click queued before a
// re-render never stops a different process.
func (a *App) stop(cmd menu.Command) error {
	snapshot := a.registry.Snapshot()
	if cmd.Index < 0 || cmd.Index >= len(snapshot) || snapshot[cmd.Index].ID != cmd.ProcessID {
		return fmt.Errorf("%w: stop #%d (%s)", ErrStaleCommand, cmd.Index, cmd.ProcessID)
	}
	return a.registry.Stop(cmd.Index)
}

func (a *App) chooseProjectsRoot(ctx context.Context) error {
	if a.chooseFolder == nil {
		return errors.New("no folder picker available")
	}

	start, ok := a.settings.Settings().Root()
	if !ok {
		start = a.defaultFolder
	}

	path, ok, err := a.chooseFolder(ctx, start)
	if err != nil {
		return fmt.Errorf("failed to choose folder: %w", err)
	}
	if !ok {
		return nil
	}

	if err := a.settings.SetProjectsRoot(path); err != nil {
		return err
	}
	log.Printf("[app] Projects root set to %s", path)

	if a.watchRoot != nil {
		if err := a.watchRoot(path); err != nil {
			log.Printf("[app] Failed to watch %s: %v", path, err)
		}
	}
	return nil
}

func (a *App) toggleOpenAtLogin() error {
	enabled := !a.settings.Settings().OpenAtLoginEnabled()
	if err := a.settings.SetOpenAtLogin(enabled); err != nil {
		return err
	}
	if a.applyLogin != nil {
		if err := a.applyLogin(enabled); err != nil {
			return fmt.Errorf("failed to update login item: %w", err)
		}
	}
	return nil
}

// Rebuild renders the menu from current state and hands it to the
// presenter.
func (a *App) Rebuild() {
	settings := a.settings.Settings()

	var projects []models.Project
	if root, ok := settings.Root(); ok {
		projects = a.list(root)
	}

	spec := menu.Render(a.registry.Snapshot(), projects, settings)

	a.mu.Lock()
	a.spec = spec
	a.mu.Unlock()

	a.presenter.Render(spec)
}

// Spec returns the most recently rendered menu.
func (a *App) Spec() menu.Spec {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.spec
}

// Quit stops every process and closes the presenter. Safe to call more
// than once.
func (a *App) Quit() {
	a.quitOnce.Do(func() {
		log.Printf("[app] Quitting, stopping %d processes", a.registry.Len())
		a.registry.StopAll()
		close(a.done)
		a.presenter.Quit()
	})
}
