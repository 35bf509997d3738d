package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/runbar-app/runbar/internal/config"
	"github.com/runbar-app/runbar/internal/daemon/project"
	"github.com/runbar-app/runbar/internal/models"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List projects and their scripts",
	Args:    cobra.NoArgs,
	RunE:    runList,
}

func runList(cmd *cobra.Command, args []string) error {
	settings, err := config.LoadSettings()
	if err != nil {
		return err
	}
	root, err := projectsRoot(settings)
	if err != nil {
		return err
	}

	projects := project.List(root)
	if len(projects) == 0 {
		fmt.Printf("No projects with scripts in %s.\n", root)
		return nil
	}

	fmt.Printf("%s %s\n\n", styleLabel.Render("Projects in"), styleValue.Render(root))
	for _, p := range projects {
		scripts := make([]string, 0, len(p.Scripts))
		for _, s := range p.Scripts {
			scripts = append(scripts, badgeScript.Render(s))
		}
		fmt.Printf("  %s  %s\n", styleCommand.Render(p.Name), strings.Join(scripts, " "))
	}
	return nil
}

// projectsRoot returns the configured projects root or an error telling the
// user how to set one.
func projectsRoot(settings *models.Settings) (string, error) {
	root, ok := settings.Root()
	if !ok {
		return "", fmt.Errorf("no projects folder set. Run 'runbar settings set-root <path>' first")
	}
	return root, nil
}
