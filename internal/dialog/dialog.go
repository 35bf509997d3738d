// Package dialog shows the native "choose folder" dialog.
package dialog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// ErrUnsupported is returned on platforms without a folder picker.
var ErrUnsupported = errors.New("folder picker not supported on " + runtime.GOOS)

const prompt = "Choose the folder that contains your projects"

// DefaultPath returns the directory the picker opens in when no projects
// root is configured yet.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, "Documents")
}

// ChooseFolder shows a folder picker starting at defaultPath. It returns
// ok=false when the user cancels.
func ChooseFolder(ctx context.Context, defaultPath string) (string, bool, error) {
	name, args, err := pickerCommand(runtime.GOOS, defaultPath)
	if err != nil {
		return "", false, err
	}

	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && isCancel(runtime.GOOS, exitErr) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to run %s: %w", name, err)
	}

	path, ok := parseSelection(string(out))
	return path, ok, nil
}

// parseSelection turns picker output into a clean path. Empty output means
// nothing was chosen.
func parseSelection(out string) (string, bool) {
	path := strings.TrimSpace(out)
	if path == "" {
		return "", false
	}
	return filepath.Clean(path), true
}

func pickerCommand(goos, defaultPath string) (string, []string, error) {
	switch goos {
	case "darwin":
		script := fmt.Sprintf("POSIX path of (choose folder with prompt %s", appleScriptString(prompt))
		if defaultPath != "" {
			script += fmt.Sprintf(" default location POSIX file %s", appleScriptString(defaultPath))
		}
		script += ")"
		return "osascript", []string{"-e", script}, nil
	case "linux":
		args := []string{"--file-selection", "--directory", "--title=" + prompt}
		if defaultPath != "" {
			args = append(args, "--filename="+strings.TrimRight(defaultPath, "/")+"/")
		}
		return "zenity", args, nil
	default:
		return "", nil, ErrUnsupported
	}
}

// isCancel reports whether the picker exited because the user cancelled.
func isCancel(goos string, err *exec.ExitError) bool {
	switch goos {
	case "darwin":
		// osascript reports "User canceled. (-128)"
		return strings.Contains(string(err.Stderr), "-128")
	case "linux":
		return err.ExitCode() == 1
	default:
		return false
	}
}

func appleScriptString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}
