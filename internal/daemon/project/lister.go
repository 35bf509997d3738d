// Package project discovers runnable Node.js projects under the projects root.
package project

import (
	"log"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"

	"github.com/runbar-app/runbar/internal/models"
)

// File names that mark a project directory.
const (
	ManifestFileName = "package.json"
	IgnoreFileName   = ".runbarignore"
)

// List returns the projects directly under root that have a package.json
// with at least one script, in directory name order. It never fails: a
// missing or unreadable root yields an empty list and unreadable manifests
// are skipped.
func List(root string) []models.Project {
	if root == "" {
		return []models.Project{}
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[project] Failed to read projects root %s: %v", root, err)
		}
		return []models.Project{}
	}

	projects := make([]models.Project, 0, len(entries))
	for _, entry := range entries {
		dir := filepath.Join(root, entry.Name())
		manifest := filepath.Join(dir, ManifestFileName)

		// Stat follows symlinked project directories
		if !fileExists(manifest) || fileExists(filepath.Join(dir, IgnoreFileName)) {
			continue
		}

		scripts := Scripts(manifest)
		if len(scripts) == 0 {
			continue
		}

		projects = append(projects, models.Project{
			Name:    entry.Name(),
			Path:    dir,
			Scripts: scripts,
		})
	}
	return projects
}

// Scripts returns the script names declared in a package.json, in the order
// they appear in the file. Unreadable or invalid files have no scripts.
func Scripts(manifestPath string) []string {
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil
	}
	return ParseScripts(data)
}

// ParseScripts extracts the keys of the "scripts" object of a package.json
// document.
func ParseScripts(data []byte) []string {
	if !gjson.ValidBytes(data) {
		return nil
	}

	scripts := gjson.GetBytes(data, "scripts")
	if !scripts.IsObject() {
		return nil
	}

	var names []string
	seen := make(map[string]bool)
	scripts.ForEach(func(key, _ gjson.Result) bool {
		name := key.String()
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
		return true
	})
	return names
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
