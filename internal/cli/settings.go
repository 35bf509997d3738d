package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/runbar-app/runbar/internal/config"
)

var settingsCmd = &cobra.Command{
	Use:     "settings",
	Aliases: []string{"config"},
	Short:   "Show or change settings",
	Long: `Show the settings stored in ~/.runbar/settings.yaml.

Use the subcommands to change them. A running status-bar app picks up
changes the next time it starts.`,
	Args: cobra.NoArgs,
	RunE: runSettingsShow,
}

var settingsSetRootCmd = &cobra.Command{
	Use:   "set-root <path>",
	Short: "Set the folder that contains your projects",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsSetRoot,
}

var settingsOpenAtLoginCmd = &cobra.Command{
	Use:   "open-at-login <true|false>",
	Short: "Start runbar when you log in",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsOpenAtLogin,
}

func init() {
	settingsCmd.AddCommand(settingsOpenAtLoginCmd)
	settingsCmd.AddCommand(settingsSetRootCmd)
}

func runSettingsShow(cmd *cobra.Command, args []string) error {
	settings, err := config.LoadSettings()
	if err != nil {
		return err
	}

	path, err := config.GlobalSettingsFile()
	if err != nil {
		return err
	}

	root, ok := settings.Root()
	if !ok {
		root = styleHint.Render("(not set)")
	}

	fmt.Println(styleLabel.Render(path))
	fmt.Printf("  %s %s\n", styleLabel.Render("Projects root:    "), styleValue.Render(root))
	fmt.Printf("  %s %s\n", styleLabel.Render("Open at login:    "), styleValue.Render(strconv.FormatBool(settings.OpenAtLoginEnabled())))
	fmt.Printf("  %s %s\n", styleLabel.Render("Runner:           "), styleValue.Render(settings.RunnerCommand()))
	fmt.Printf("  %s %s\n", styleLabel.Render("Stop grace period:"), styleValue.Render(settings.GracePeriod().String()))
	return nil
}

func runSettingsSetRoot(cmd *cobra.Command, args []string) error {
	path, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", args[0], err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}

	store, err := config.OpenSettingsStore()
	if err != nil {
		return err
	}
	if err := store.SetProjectsRoot(path); err != nil {
		return err
	}

	fmt.Println(styleSuccess.Render("Projects root set to " + path))
	return nil
}

func runSettingsOpenAtLogin(cmd *cobra.Command, args []string) error {
	enabled, err := strconv.ParseBool(args[0])
	if err != nil {
		return fmt.Errorf("invalid value %q (expected true or false)", args[0])
	}

	store, err := config.OpenSettingsStore()
	if err != nil {
		return err
	}
	if err := store.SetOpenAtLogin(enabled); err != nil {
		return err
	}
	if err := applyLoginItem(enabled); err != nil {
		fmt.Println(styleWarning.Render("Warning: ") + err.Error())
	}

	fmt.Println(styleSuccess.Render("Open at login: " + strconv.FormatBool(enabled)))
	return nil
}
