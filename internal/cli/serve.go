package cli

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ampview/ampview/internal/server"
	"github.com/ampview/ampview/internal/types"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the log viewer server in the foreground",
		Long: `Run the log viewer server in the foreground.

This command is used by the service manager and can also be used to run
the server directly in the terminal.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServeCmd()
		},
	}
}

func runServeCmd() error {
	manager := createManager()
	defer manager.Close()

	if err := manager.StartWatching(); err != nil {
		log.Warn("filesystem watching unavailable, relying on cache expiry", "error", err)
	}

	// Log refreshes as they happen, like a request log for the scanner.
	// Unsubscribing on shutdown closes the channel and ends the goroutine.
	refreshes := manager.EventBus()
	defer manager.Unsubscribe(refreshes)
	go func() {
		for event := range refreshes {
			if refreshed, ok := event.(types.TreeRefreshed); ok {
				log.Info("refresh",
					"projects", refreshed.Projects,
					"sessions", refreshed.Sessions,
					"scanned", refreshed.SessionsScanned,
					"cached", refreshed.SessionsCached,
					"took", refreshed.Duration)
			}
		}
	}()

	tree := manager.Refresh()
	if len(tree.Projects) == 0 {
		log.Info("no projects found yet", "dir", manager.ProjectsDir())
		log.Info("logs will appear once the agent has run at least once")
	}

	return server.New(manager).Run(host, port)
}
