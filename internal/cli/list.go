package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/ampview/ampview/internal/types"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true)
	projectStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func newListCmd() *cobra.Command {
	var projectFilter string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List discovered projects and sessions",
		Long: `List all projects and sessions found under the projects directory.

Sessions are shown per project in ID order, with parent/child links
resolved the same way the web UI shows them.`,
		Aliases: []string{"ls"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runListCmd(projectFilter, verbose)
		},
	}

	cmd.Flags().StringVar(&projectFilter, "project", "", "Only show sessions for this project slug")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed information")

	return cmd
}

func runListCmd(projectFilter string, verbose bool) error {
	manager := createManager()
	defer manager.Close()

	tree := manager.Refresh()
	if len(tree.Projects) == 0 {
		fmt.Println("No projects found.")
		fmt.Printf("\nLooked in: %s\n", manager.ProjectsDir())
		return nil
	}

	shown := 0
	for _, project := range tree.Projects {
		if projectFilter != "" && project.Slug != projectFilter {
			continue
		}
		shown++
		renderProject(project, verbose)
	}

	if shown == 0 {
		return fmt.Errorf("project '%s' not found", projectFilter)
	}
	return nil
}

func renderProject(project *types.Project, verbose bool) {
	fmt.Printf("%s %s\n", projectStyle.Render(project.Slug), dimStyle.Render(fmt.Sprintf("(%d sessions)", len(project.Sessions))))

	if len(project.Sessions) == 0 {
		fmt.Println(dimStyle.Render("  no sessions"))
		fmt.Println()
		return
	}

	// Column widths track the widest cell so the table stays aligned.
	idWidth := runewidth.StringWidth("SESSION")
	nameWidth := runewidth.StringWidth("NAME")
	for _, sess := range project.Sessions {
		if w := runewidth.StringWidth(sess.ID); w > idWidth {
			idWidth = w
		}
		if w := runewidth.StringWidth(sess.Name); w > nameWidth {
			nameWidth = w
		}
	}

	header := fmt.Sprintf("  %s  %s  %s",
		runewidth.FillRight("SESSION", idWidth),
		runewidth.FillRight("NAME", nameWidth),
		"TIMESTAMP")
	fmt.Println(headerStyle.Render(header))

	for _, sess := range project.Sessions {
		fmt.Printf("  %s  %s  %s\n",
			runewidth.FillRight(sess.ID, idWidth),
			runewidth.FillRight(sess.Name, nameWidth),
			sess.Timestamp)

		if verbose {
			if sess.ParentID != "" {
				fmt.Println(dimStyle.Render("      parent: " + sess.ParentID))
			}
			if len(sess.Children) > 0 {
				children := make([]string, len(sess.Children))
				for i, child := range sess.Children {
					children[i] = child.ID
				}
				fmt.Println(dimStyle.Render("      children: " + strings.Join(children, ", ")))
			}
			if sess.Description != "" {
				fmt.Println(dimStyle.Render("      " + sess.Description))
			}
		}
	}
	fmt.Println()
}
