package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/runbar-app/runbar/internal/buildinfo"
	"github.com/runbar-app/runbar/internal/config"
	"github.com/runbar-app/runbar/internal/daemon/app"
	"github.com/runbar-app/runbar/internal/daemon/supervisor"
	"github.com/runbar-app/runbar/internal/daemon/tray"
	"github.com/runbar-app/runbar/internal/daemon/watcher"
	"github.com/runbar-app/runbar/internal/dialog"
	"github.com/runbar-app/runbar/internal/loginitem"
	"github.com/runbar-app/runbar/internal/menu"
	"github.com/runbar-app/runbar/internal/models"
	"github.com/runbar-app/runbar/internal/shellenv"
)

var trayCmd = &cobra.Command{
	Use:   "tray",
	Short: "Start the status-bar app",
	Args:  cobra.NoArgs,
	RunE:  runTray,
}

// runTray runs the status-bar app on the main goroutine until Quit.
// systray.Run must occupy the main goroutine on macOS (Cocoa requirement).
func runTray(cmd *cobra.Command, args []string) error {
	if err := config.EnsureGlobalDir(); err != nil {
		return fmt.Errorf("failed to create global directory: %w", err)
	}

	logFile, err := setupLogging()
	if err != nil {
		return err
	}
	defer logFile.Close()

	release, err := config.AcquireInstanceLock()
	if err != nil {
		return err
	}
	defer release()

	if err := shellenv.FixPath(context.Background()); err != nil {
		log.Printf("Failed to import login shell PATH: %v", err)
	}

	store, err := config.OpenSettingsStore()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	settings := store.Settings()

	registry := supervisor.New(supervisor.Options{
		Runner:      settings.RunnerCommand(),
		GracePeriod: settings.GracePeriod(),
	})

	w, err := watcher.New()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	var a *app.App
	t := tray.New(func(c menu.Command) { a.Dispatch(c) })
	a = app.New(app.Options{
		Registry:      registry,
		Settings:      store,
		Presenter:     t,
		ChooseFolder:  dialog.ChooseFolder,
		DefaultFolder: dialog.DefaultPath(),
		ApplyLogin:    applyLoginItem,
		WatchRoot:     w.SetRoot,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	onStart := func() {
		if err := config.SaveDaemonInfo(models.NewDaemonInfo(os.Getpid())); err != nil {
			log.Printf("Failed to write daemon info: %v", err)
		}

		if err := applyLoginItem(store.OpenAtLogin()); err != nil {
			log.Printf("Failed to update login item: %v", err)
		}

		if root, ok := store.ProjectsRoot(); ok {
			if err := w.SetRoot(root); err != nil {
				log.Printf("Failed to watch %s: %v", root, err)
			}
		}
		w.Start()

		go func() {
			for {
				select {
				case <-w.Changes():
					a.RequestRebuild()
				case <-ctx.Done():
					return
				}
			}
		}()

		go func() {
			if err := a.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("Event loop stopped: %v", err)
			}
		}()

		// Quit on SIGINT/SIGTERM so children are stopped
		go func() {
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			select {
			case sig := <-sigCh:
				log.Printf("Received signal %v, shutting down...", sig)
				a.Quit()
			case <-ctx.Done():
			}
		}()

		log.Printf("Started (PID %d, version %s)", os.Getpid(), buildinfo.Version)
	}

	onExit := func() {
		cancel()
		registry.StopAll()
		w.Stop()

		if err := config.RemoveDaemonInfo(); err != nil {
			log.Printf("Failed to remove daemon info: %v", err)
		}
		log.Println("Stopped")
	}

	// This blocks the main goroutine until the tray exits.
	t.Run(onStart, onExit)
	return nil
}

// setupLogging sends log output to stderr and ~/.runbar/runbar.log.
func setupLogging() (io.Closer, error) {
	log.SetPrefix("[runbar] ")
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	path, err := config.GlobalLogFile()
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	log.SetOutput(io.MultiWriter(os.Stderr, f))
	return f, nil
}

// applyLoginItem installs or removes the login item for this executable.
// Development builds are never registered.
func applyLoginItem(enabled bool) error {
	if !buildinfo.IsRelease() {
		log.Printf("Skipping login item for development build (open at login: %v)", enabled)
		return nil
	}

	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to locate executable: %w", err)
	}
	return loginitem.Apply(enabled, executable)
}
