package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ampview/ampview/internal/tui"
)

func newTailCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tail <session-id>",
		Short: "Live-tail a session's event log in the terminal",
		Long: `Open an interactive view that follows a session's event log,
showing new events as they are appended. Press q to quit.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTailCmd(args[0])
		},
	}
}

func runTailCmd(sessionID string) error {
	manager := createManager()
	defer manager.Close()

	sess := manager.Session(sessionID)
	if sess == nil {
		return fmt.Errorf("session '%s' not found under %s", sessionID, manager.ProjectsDir())
	}

	return tui.Run(sess.ID, sess.EventsPath)
}
