package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Run a scan and show tree statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatusCmd()
		},
	}
}

func runStatusCmd() error {
	manager := createManager()
	defer manager.Close()

	// Scan twice so the incremental numbers are visible: the second pass
	// shows how much of the tree is served from cache.
	manager.Refresh()
	manager.Refresh()
	stats := manager.Stats()

	fmt.Printf("Projects directory: %s\n", manager.ProjectsDir())
	fmt.Printf("Projects:           %d\n", stats.ProjectCount)
	fmt.Printf("Sessions:           %d\n", stats.SessionCount)
	fmt.Printf("Last scan:          %s (%d scanned, %d cached)\n",
		formatDuration(stats.Scan.LastScanDuration),
		stats.Scan.SessionsScanned,
		stats.Scan.SessionsCached)
	return nil
}

func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}
