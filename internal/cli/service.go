package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ampview/ampview/internal/service"
)

func newServiceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Manage ampview as a background service",
		Long: `Manage ampview as a background service that starts automatically.

Supported platforms:
  - Linux: systemd user service
  - macOS: launchd LaunchAgent`,
	}

	cmd.AddCommand(newServiceInstallCmd())
	cmd.AddCommand(newServiceUninstallCmd())
	cmd.AddCommand(newServiceStartCmd())
	cmd.AddCommand(newServiceStopCmd())
	cmd.AddCommand(newServiceStatusCmd())

	return cmd
}

func newServiceInstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Install and start the background service",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := service.NewManager()
			if err != nil {
				return err
			}
			cfg := service.Config{
				Port:        port,
				Host:        host,
				ProjectsDir: projectsDir,
			}
			if err := mgr.Install(cfg); err != nil {
				return err
			}
			fmt.Printf("Service installed (%s)\n", mgr.PlatformName())
			fmt.Printf("  URL: http://%s:%d\n", cfg.Host, cfg.Port)
			return nil
		},
	}
}

func newServiceUninstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall",
		Short: "Stop and remove the background service",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := service.NewManager()
			if err != nil {
				return err
			}
			if err := mgr.Uninstall(); err != nil {
				return err
			}
			fmt.Println("Service uninstalled")
			return nil
		},
	}
}

func newServiceStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the background service",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := service.NewManager()
			if err != nil {
				return err
			}
			if err := mgr.Start(); err != nil {
				return err
			}
			fmt.Println("Service started")
			return nil
		},
	}
}

func newServiceStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the background service",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := service.NewManager()
			if err != nil {
				return err
			}
			if err := mgr.Stop(); err != nil {
				return err
			}
			fmt.Println("Service stopped")
			return nil
		},
	}
}

func newServiceStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the background service status",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := service.NewManager()
			if err != nil {
				return err
			}
			status, detail, err := mgr.Status()
			if err != nil {
				return err
			}
			fmt.Printf("Status: %s\n", status)
			if detail != "" {
				fmt.Printf("  %s\n", detail)
			}
			return nil
		},
	}
}
