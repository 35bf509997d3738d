package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/runbar-app/runbar/internal/config"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the status-bar app is running",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	running, info, err := config.IsDaemonRunning()
	if err != nil {
		return fmt.Errorf("failed to check status: %w", err)
	}

	if !running || info == nil {
		fmt.Println("runbar is not running.")
		return nil
	}

	uptime := time.Since(info.StartedAt).Truncate(time.Second)

	fmt.Println(styleSuccess.Render("runbar is running."))
	fmt.Printf("  %s %d\n", styleLabel.Render("PID:   "), info.PID)
	fmt.Printf("  %s %s\n", styleLabel.Render("Uptime:"), uptime)

	if path, err := config.GlobalLogFile(); err == nil {
		fmt.Printf("  %s %s\n", styleLabel.Render("Log:   "), path)
	}
	return nil
}
