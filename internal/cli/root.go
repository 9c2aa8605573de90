package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ampview/ampview/internal/state"
)

var (
	projectsDir string
	port        int
	host        string
	maxAgeDays  int
)

const defaultPort = 8180

// NewRootCmd creates the root command for the ampview CLI
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ampview",
		Short: "Local web viewer for structured agent session logs",
		Long: `ampview discovers session directories under a projects root, builds a
navigable project/session hierarchy, and serves paginated, incrementally
updating event data over HTTP with live tailing.

Run without a command to start the server in the foreground. Use the
'service' subcommand to manage it as a background service.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServeCmd()
		},
	}

	rootCmd.PersistentFlags().StringVar(&projectsDir, "projects-dir", state.DefaultProjectsDir(), "Path to the projects directory")
	rootCmd.PersistentFlags().IntVarP(&port, "port", "p", defaultPort, "Port to run the server on")
	rootCmd.PersistentFlags().StringVar(&host, "host", "127.0.0.1", "Host to bind to (use 0.0.0.0 for network access)")
	rootCmd.PersistentFlags().IntVar(&maxAgeDays, "max-age-days", 0, "Hide sessions older than this many days (0 = show all)")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newTailCmd())
	rootCmd.AddCommand(newServiceCmd())

	return rootCmd
}

// createManager creates a tree cache manager with the current configuration
func createManager() *state.Manager {
	return state.NewManager(state.Config{
		ProjectsDir: projectsDir,
		MaxAgeDays:  maxAgeDays,
	})
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
