// Package service installs and controls ampview as an OS background
// service: a systemd user unit on Linux, a launchd LaunchAgent on macOS.
package service

import (
	"fmt"
	"runtime"
)

// Name is the service identifier used for unit files and labels.
const Name = "ampview"

// Status describes the installed service's current state.
type Status string

const (
	StatusRunning      Status = "running"
	StatusStopped      Status = "stopped"
	StatusNotInstalled Status = "not_installed"
	StatusFailed       Status = "failed"
	StatusUnknown      Status = "unknown"
)

// Config carries the server settings baked into the service definition.
type Config struct {
	Port        int
	Host        string
	ProjectsDir string
}

// Manager abstracts the platform service backend.
type Manager interface {
	PlatformName() string
	Install(cfg Config) error
	Uninstall() error
	Start() error
	Stop() error
	Status() (Status, string, error)
}

// NewManager picks the backend for the current platform.
func NewManager() (Manager, error) {
	switch runtime.GOOS {
	case "linux":
		return newSystemdManager()
	case "darwin":
		return newLaunchdManager()
	default:
		return nil, fmt.Errorf("service mode is not supported on %s", runtime.GOOS)
	}
}
