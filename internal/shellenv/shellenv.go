// Package shellenv imports the login shell PATH. Apps started from the
// Finder or a login item get a minimal PATH that usually lacks npm.
package shellenv

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

const timeout = 5 * time.Second

// marker delimits the PATH in the shell output; rc files may print noise.
const marker = "__RUNBAR_PATH__"

// FixPath replaces PATH with the one an interactive login shell sees.
func FixPath(ctx context.Context) error {
	if runtime.GOOS == "windows" {
		return nil
	}

	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/sh"
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	script := fmt.Sprintf(`printf '%s%%s%s' "$PATH"`, marker, marker)
	out, err := exec.CommandContext(ctx, shell, "-ilc", script).Output()
	if err != nil {
		return fmt.Errorf("failed to read PATH from %s: %w", shell, err)
	}

	path, ok := extract(string(out))
	if !ok {
		return fmt.Errorf("no PATH in %s output", shell)
	}
	return os.Setenv("PATH", path)
}

func extract(out string) (string, bool) {
	start := strings.Index(out, marker)
	if start < 0 {
		return "", false
	}
	rest := out[start+len(marker):]
	end := strings.Index(rest, marker)
	if end < 0 {
		return "", false
	}
	path := rest[:end]
	return path, path != ""
}
