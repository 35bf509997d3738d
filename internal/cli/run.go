package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/runbar-app/runbar/internal/config"
	"github.com/runbar-app/runbar/internal/daemon/project"
	"github.com/runbar-app/runbar/internal/daemon/supervisor"
	"github.com/runbar-app/runbar/internal/models"
)

var runCmd = &cobra.Command{
	Use:   "run <project> <script>",
	Short: "Run a project script in the foreground",
	Long: `Run a package script the same way the status-bar menu does, with its
output attached to this terminal.

Ctrl-C stops the script's whole process group.`,
	Args: cobra.ExactArgs(2),
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	projectName, scriptName := args[0], args[1]

	settings, err := config.LoadSettings()
	if err != nil {
		return err
	}
	root, err := projectsRoot(settings)
	if err != nil {
		return err
	}

	p, ok := models.FindProject(project.List(root), projectName)
	if !ok {
		return fmt.Errorf("project %q not found in %s. Run 'runbar list' to see projects", projectName, root)
	}
	if !p.HasScript(scriptName) {
		return fmt.Errorf("project %s has no script %q (available: %s)", p.Name, scriptName, strings.Join(p.Scripts, ", "))
	}

	runner := supervisor.RunnerCommand(settings.RunnerCommand())
	registry := supervisor.New(supervisor.Options{
		Command: func(workDir, script string) *exec.Cmd {
			c := runner(workDir, script)
			c.Stdout = os.Stdout
			c.Stderr = os.Stderr
			return c
		},
		GracePeriod: settings.GracePeriod(),
	})

	entry := registry.Start(p.Name, scriptName, p.Path)
	fmt.Println(styleHint.Render(fmt.Sprintf("Running %s in %s", entry.Key, p.Path)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = registry.AwaitExit(ctx, entry.ID)
	if errors.Is(err, context.Canceled) {
		fmt.Println()
		fmt.Println(styleHint.Render("Stopping " + entry.Key))
		registry.StopAll()
		// Wait for the process group to go away; a second Ctrl-C is not caught.
		stop()
		return registry.AwaitExit(context.Background(), entry.ID)
	}
	if err != nil {
		return err
	}

	proc, ok := registry.Process(entry.ID)
	if !ok {
		return nil
	}
	if exitErr := proc.ExitErr(); exitErr != nil {
		return fmt.Errorf("%s: %w", entry.Key, exitErr)
	}
	fmt.Println(styleSuccess.Render(entry.Key + " finished."))
	return nil
}
