package filex

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// userHomeDir is a test seam for os.UserHomeDir.
var userHomeDir = os.UserHomeDir

// ExpandHome replaces a leading "~" with the current user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := userHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// EnsureDir creates dir (after home expansion) with owner-only permissions
// if it does not exist and returns its absolute path.
func EnsureDir(dir string) (string, error) {
	expanded, err := ExpandHome(dir)
	if err != nil {
		return "", err
	}

	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("abs %s: %w", expanded, err)
	}

	if err := os.MkdirAll(abs, 0o700); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", abs, err)
	}

	return abs, nil
}
