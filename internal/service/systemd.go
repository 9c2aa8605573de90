package service

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ampview/ampview/internal/utils"
)

const unitTemplate = `[Unit]
Description=ampview session log viewer
After=network.target

[Service]
Type=simple
ExecStart=%s serve --port %d --host %s --projects-dir %s
Restart=on-failure
RestartSec=5

[Install]
WantedBy=default.target
`

type systemdManager struct {
	unitPath string
}

func newSystemdManager() (*systemdManager, error) {
	if !utils.CommandExists("systemctl") {
		return nil, fmt.Errorf("systemctl not found; systemd is required for service mode on Linux")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return &systemdManager{
		unitPath: filepath.Join(home, ".config", "systemd", "user", Name+".service"),
	}, nil
}

func (m *systemdManager) PlatformName() string { return "systemd" }

func (m *systemdManager) Install(cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(m.unitPath), 0755); err != nil {
		return fmt.Errorf("failed to create systemd user directory: %w", err)
	}

	unit := fmt.Sprintf(unitTemplate, utils.ExecutablePath(), cfg.Port, cfg.Host, cfg.ProjectsDir)
	if err := os.WriteFile(m.unitPath, []byte(unit), 0644); err != nil {
		return fmt.Errorf("failed to write unit file: %w", err)
	}

	if _, err := utils.RunCommand("systemctl", "--user", "daemon-reload"); err != nil {
		return fmt.Errorf("daemon-reload failed: %w", err)
	}
	if out, err := utils.RunCommand("systemctl", "--user", "enable", "--now", Name+".service"); err != nil {
		return fmt.Errorf("failed to enable service: %s: %w", out, err)
	}
	return nil
}

func (m *systemdManager) Uninstall() error {
	utils.RunCommand("systemctl", "--user", "stop", Name+".service")
	utils.RunCommand("systemctl", "--user", "disable", Name+".service")

	if err := os.Remove(m.unitPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove unit file: %w", err)
	}
	utils.RunCommand("systemctl", "--user", "daemon-reload")
	return nil
}

func (m *systemdManager) Start() error {
	if _, err := os.Stat(m.unitPath); err != nil {
		return fmt.Errorf("service is not installed; run 'ampview service install' first")
	}
	if out, err := utils.RunCommand("systemctl", "--user", "start", Name+".service"); err != nil {
		return fmt.Errorf("failed to start service: %s: %w", out, err)
	}
	return nil
}

func (m *systemdManager) Stop() error {
	if _, err := os.Stat(m.unitPath); err != nil {
		return fmt.Errorf("service is not installed")
	}
	if out, err := utils.RunCommand("systemctl", "--user", "stop", Name+".service"); err != nil {
		return fmt.Errorf("failed to stop service: %s: %w", out, err)
	}
	return nil
}

func (m *systemdManager) Status() (Status, string, error) {
	if _, err := os.Stat(m.unitPath); err != nil {
		return StatusNotInstalled, "service file not found", nil
	}

	out, _ := utils.RunCommand("systemctl", "--user", "is-active", Name+".service")
	switch strings.TrimSpace(out) {
	case "active":
		return StatusRunning, m.unitPath, nil
	case "inactive":
		return StatusStopped, m.unitPath, nil
	case "failed":
		return StatusFailed, m.unitPath, nil
	default:
		return StatusUnknown, out, nil
	}
}
