// Package filex resolves and creates the directories the journal keeps its
// files in.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ResolvePath turns p into an absolute path. A leading "~" is expanded to
// the user's home directory and relative paths are taken from base, or from
// the working directory when base is empty.
func ResolvePath(base, p string) (string, error) {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("home dir: %w", err)
		}
		p = filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p), nil
	}
	if base == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getwd: %w", err)
		}
		base = cwd
	}
	return filepath.Join(base, p), nil
}

// EnsureDir resolves dir like ResolvePath and creates it (owner-only) if it
// does not exist yet.
func EnsureDir(base, dir string) (string, error) {
	path, err := ResolvePath(base, dir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(path, 0o700); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", path, err)
	}
	return path, nil
}
