// Package testutil provides sandboxed directories and configuration reset
// helpers shared by marquee tests.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestEnv is a temporary directory that refuses paths escaping it. It is
// removed when the test completes.
type TestEnv struct {
	t       *testing.T
	rootDir string
}

// NewTestEnv creates a new sandboxed test environment.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()
	return &TestEnv{
		t:       t,
		rootDir: t.TempDir(),
	}
}

// RootDir returns the root directory of the test environment.
func (e *TestEnv) RootDir() string {
	return e.rootDir
}

// Path returns an absolute path inside the sandbox and fails the test if
// the joined elements would leave it.
func (e *TestEnv) Path(elem ...string) string {
	e.t.Helper()

	cleanPath := filepath.Clean(filepath.Join(e.rootDir, filepath.Join(elem...)))
	if !e.isWithinSandbox(cleanPath) {
		e.t.Fatalf("path %q escapes test sandbox %q", cleanPath, e.rootDir)
	}
	return cleanPath
}

func (e *TestEnv) isWithinSandbox(path string) bool {
	root := filepath.Clean(e.rootDir)
	return path == root || strings.HasPrefix(path, root+string(filepath.Separator))
}

// WriteFile writes content below the sandbox, creating parent directories.
func (e *TestEnv) WriteFile(path string, content []byte) {
	e.t.Helper()

	absPath := e.Path(path)
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		e.t.Fatalf("failed to create directory for %q: %v", absPath, err)
	}
	if err := os.WriteFile(absPath, content, 0o644); err != nil {
		e.t.Fatalf("failed to write file %q: %v", absPath, err)
	}
}

// ReadFile reads a file from the sandbox.
func (e *TestEnv) ReadFile(path string) []byte {
	e.t.Helper()

	content, err := os.ReadFile(e.Path(path))
	if err != nil {
		e.t.Fatalf("failed to read file %q: %v", path, err)
	}
	return content
}

// MkdirAll creates a directory and its parents inside the sandbox.
func (e *TestEnv) MkdirAll(path string) {
	e.t.Helper()

	if err := os.MkdirAll(e.Path(path), 0o755); err != nil {
		e.t.Fatalf("failed to create directory %q: %v", path, err)
	}
}

// FileExists reports whether path exists inside the sandbox.
func (e *TestEnv) FileExists(path string) bool {
	e.t.Helper()

	_, err := os.Stat(e.Path(path))
	return err == nil
}

// Chdir switches the working directory into the sandbox until the test ends.
func (e *TestEnv) Chdir(path string) {
	e.t.Helper()

	origDir, err := os.Getwd()
	if err != nil {
		e.t.Fatalf("failed to get current directory: %v", err)
	}
	if err := os.Chdir(e.Path(path)); err != nil {
		e.t.Fatalf("failed to change directory to %q: %v", path, err)
	}
	e.t.Cleanup(func() {
		if err := os.Chdir(origDir); err != nil {
			e.t.Errorf("failed to restore directory to %q: %v", origDir, err)
		}
	})
}

// SetEnv sets an environment variable until the test ends.
func (e *TestEnv) SetEnv(key, value string) {
	e.t.Helper()

	oldValue, hadValue := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		e.t.Fatalf("failed to set environment variable %q: %v", key, err)
	}
	e.t.Cleanup(func() {
		if hadValue {
			_ = os.Setenv(key, oldValue)
		} else {
			_ = os.Unsetenv(key)
		}
	})
}

func (e *TestEnv) String() string {
	return fmt.Sprintf("TestEnv{rootDir: %q}", e.rootDir)
}
