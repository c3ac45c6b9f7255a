// Package security validates untrusted file names before they are joined
// onto trusted directories.
package security

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrPathTraversal is returned for names that would escape their directory.
var ErrPathTraversal = errors.New("security: path escapes its directory")

// ValidateRelativePath checks that name is a non-empty relative path that
// stays inside whatever directory it is later joined onto. The check is
// lexical, so it works for paths that do not exist yet and for in-memory
// filesystems; callers must not follow symlinks planted inside the
// directory.
func ValidateRelativePath(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("empty file name: %w", ErrPathTraversal)
	}
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") || strings.HasPrefix(name, `\`) {
		return fmt.Errorf("absolute path %q: %w", name, ErrPathTraversal)
	}
	if filepath.VolumeName(name) != "" {
		return fmt.Errorf("path %q names a volume: %w", name, ErrPathTraversal)
	}

	clean := filepath.Clean(name)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path %q: %w", name, ErrPathTraversal)
	}
	return nil
}

// ValidateRelativePaths applies ValidateRelativePath to every name.
func ValidateRelativePaths(names []string) error {
	for _, name := range names {
		if err := ValidateRelativePath(name); err != nil {
			return err
		}
	}
	return nil
}
