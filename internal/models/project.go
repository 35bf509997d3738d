// Package models contains shared data structures used across the application.
package models

// Project is a directory under the projects root whose package.json declares
// runnable scripts.
type Project struct {
	Name    string
	Path    string
	Scripts []string // in package.json order
}

// HasScript reports whether the project declares the named script.
func (p Project) HasScript(name string) bool {
	for _, s := range p.Scripts {
		if s == name {
			return true
		}
	}
	return false
}

// FindProject returns the project with the given name.
func FindProject(projects []Project, name string) (Project, bool) {
	for _, p := range projects {
		if p.Name == name {
			return p, true
		}
	}
	return Project{}, false
}
