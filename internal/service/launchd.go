package service

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ampview/ampview/internal/utils"
)

const plistTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Label</key>
	<string>%s</string>
	<key>ProgramArguments</key>
	<array>
		<string>%s</string>
		<string>serve</string>
		<string>--port</string>
		<string>%d</string>
		<string>--host</string>
		<string>%s</string>
		<string>--projects-dir</string>
		<string>%s</string>
	</array>
	<key>RunAtLoad</key>
	<true/>
	<key>KeepAlive</key>
	<true/>
	<key>StandardOutPath</key>
	<string>%s</string>
	<key>StandardErrorPath</key>
	<string>%s</string>
</dict>
</plist>
`

type launchdManager struct {
	label     string
	plistPath string
	logPath   string
	errPath   string
}

func newLaunchdManager() (*launchdManager, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	label := "com." + Name + ".viewer"
	return &launchdManager{
		label:     label,
		plistPath: filepath.Join(home, "Library", "LaunchAgents", label+".plist"),
		logPath:   filepath.Join(home, "Library", "Logs", Name+".log"),
		errPath:   filepath.Join(home, "Library", "Logs", Name+"-error.log"),
	}, nil
}

func (m *launchdManager) PlatformName() string { return "launchd" }

func (m *launchdManager) Install(cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(m.plistPath), 0755); err != nil {
		return fmt.Errorf("failed to create LaunchAgents directory: %w", err)
	}

	plist := fmt.Sprintf(plistTemplate,
		m.label, utils.ExecutablePath(), cfg.Port, cfg.Host, cfg.ProjectsDir,
		m.logPath, m.errPath)
	if err := os.WriteFile(m.plistPath, []byte(plist), 0644); err != nil {
		return fmt.Errorf("failed to write plist: %w", err)
	}

	if out, err := utils.RunCommand("launchctl", "load", m.plistPath); err != nil {
		return fmt.Errorf("failed to load service: %s: %w", out, err)
	}
	return nil
}

func (m *launchdManager) Uninstall() error {
	utils.RunCommand("launchctl", "unload", m.plistPath)

	if err := os.Remove(m.plistPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove plist: %w", err)
	}
	return nil
}

func (m *launchdManager) Start() error {
	if _, err := os.Stat(m.plistPath); err != nil {
		return fmt.Errorf("service is not installed; run 'ampview service install' first")
	}
	if out, err := utils.RunCommand("launchctl", "load", m.plistPath); err != nil {
		return fmt.Errorf("failed to start service: %s: %w", out, err)
	}
	return nil
}

func (m *launchdManager) Stop() error {
	if _, err := os.Stat(m.plistPath); err != nil {
		return fmt.Errorf("service is not installed")
	}
	if out, err := utils.RunCommand("launchctl", "unload", m.plistPath); err != nil {
		return fmt.Errorf("failed to stop service: %s: %w", out, err)
	}
	return nil
}

func (m *launchdManager) Status() (Status, string, error) {
	if _, err := os.Stat(m.plistPath); err != nil {
		return StatusNotInstalled, "plist not found", nil
	}

	out, err := utils.RunCommand("launchctl", "list")
	if err != nil {
		return StatusUnknown, out, nil
	}
	if strings.Contains(out, m.label) {
		return StatusRunning, m.plistPath, nil
	}
	return StatusStopped, m.plistPath, nil
}
