// Package loginitem registers runbar to start when the user logs in.
package loginitem

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Label identifies the login item on every platform.
const Label = "io.runbar.runbar"

// Apply installs the login item for executable when enabled is true and
// removes it otherwise. Unsupported platforms are a no-op.
func Apply(enabled bool, executable string) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	switch runtime.GOOS {
	case "darwin":
		return apply(LaunchAgentPath(home), enabled, func() string { return launchAgentPlist(executable) })
	case "linux":
		return apply(AutostartPath(home), enabled, func() string { return autostartEntry(executable) })
	default:
		return nil
	}
}

// LaunchAgentPath returns the macOS LaunchAgent plist path.
func LaunchAgentPath(home string) string {
	return filepath.Join(home, "Library", "LaunchAgents", Label+".plist")
}

// AutostartPath returns the XDG autostart entry path.
func AutostartPath(home string) string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "autostart", "runbar.desktop")
}

func apply(path string, enabled bool, content func() string) error {
	if !enabled {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove login item %s: %w", path, err)
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(content()), 0o644); err != nil {
		return fmt.Errorf("failed to write login item %s: %w", path, err)
	}
	return nil
}

func launchAgentPlist(executable string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Label</key>
	<string>` + Label + `</string>
	<key>ProgramArguments</key>
	<array>
		<string>` + xmlEscape(executable) + `</string>
	</array>
	<key>RunAtLoad</key>
	<true/>
	<key>ProcessType</key>
	<string>Interactive</string>
</dict>
</plist>
`
}

func autostartEntry(executable string) string {
	return fmt.Sprintf(`[Desktop Entry]
Type=Application
Name=runbar
Comment=Run package scripts from the menu bar
Exec=%s
X-GNOME-Autostart-enabled=true
NoDisplay=true
`, desktopQuote(executable))
}

var xmlReplacer = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "'", "&apos;")

func xmlEscape(s string) string {
	return xmlReplacer.Replace(s)
}

// desktopQuote quotes an Exec value for a .desktop file.
func desktopQuote(s string) string {
	if !strings.ContainsAny(s, " \t\"'\\$`") {
		return s
	}
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "$", `\$`, "`", "\\`")
	return `"` + r.Replace(s) + `"`
}
