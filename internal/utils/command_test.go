package utils

import "testing"

func TestRunCommand(t *testing.T) {
	out, err := RunCommand("echo", "  hello  ")
	if err != nil {
		t.Fatal(err)
	}
	if out != "hello" {
		t.Errorf("output = %q, want trimmed %q", out, "hello")
	}
}

func TestRunCommandFailure(t *testing.T) {
	if _, err := RunCommand("definitely-not-a-real-command-xyz"); err == nil {
		t.Error("expected error for unknown command")
	}
}

func TestCommandExists(t *testing.T) {
	if !CommandExists("sh") {
		t.Error("sh should exist")
	}
	if CommandExists("definitely-not-a-real-command-xyz") {
		t.Error("nonexistent command reported as present")
	}
}

func TestExecutablePath(t *testing.T) {
	if ExecutablePath() == "" {
		t.Error("ExecutablePath should never be empty")
	}
}
