// Package dotdir locates the .ragembed/ and ~/.ragembed directories that hold
// the CLI's config.toml.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// dirName is the name of the ragembed directory.
	dirName = ".ragembed"
)

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the target absolute path to a .ragembed/ directory.
// Order of precedence is as follows:
//  1. Provided override (created if missing)
//  2. Local ./.ragembed/ dir
//  3. Home ~/.ragembed/ dir
//
// An empty path is returned when no override is given and neither the local
// nor the home dir exists. Callers fall back to built-in defaults in that case.
func (m *Manager) Target(overrideDir string) (string, error) {
	if overrideDir != "" {
		if err := os.MkdirAll(overrideDir, 0o755); err != nil {
			return "", fmt.Errorf("creating ragembed directory %s: %w", overrideDir, err)
		}
		return filepath.Abs(overrideDir)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting current directory: %w", err)
	}
	if local := filepath.Join(cwd, dirName); isDir(local) {
		return filepath.Abs(local)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	if homeDir := filepath.Join(home, dirName); isDir(homeDir) {
		return filepath.Abs(homeDir)
	}

	return "", nil
}

// LocalDir returns the ./.ragembed path under the current working directory
// without creating it.
func (m *Manager) LocalDir() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting current directory: %w", err)
	}
	return filepath.Join(cwd, dirName), nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
