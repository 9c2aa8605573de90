package utils

import (
	"os"
	"os/exec"
	"strings"
)

// RunCommand executes a command and returns its combined output with
// surrounding whitespace trimmed.
func RunCommand(name string, args ...string) (string, error) {
	out, err := exec.Command(name, args...).CombinedOutput()
	return strings.TrimSpace(string(out)), err
}

// CommandExists reports whether a command is available in PATH.
func CommandExists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// ExecutablePath returns the path a service definition should launch. A
// temp path from 'go run' is useless in a unit file, so fall back to a
// PATH lookup in that case.
func ExecutablePath() string {
	if execPath, err := os.Executable(); err == nil {
		if !strings.Contains(execPath, "go-build") && !strings.Contains(execPath, "/tmp/") {
			return execPath
		}
	}
	if path, err := exec.LookPath("ampview"); err == nil {
		return path
	}
	return "ampview"
}
