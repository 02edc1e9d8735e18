// Package security holds filesystem guards for paths handed to the
// daemon from outside.
package security

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidatePathWithinDirectory reports whether filePath stays inside
// safeDir once cleaned and symlink-resolved. Symlinks are resolved on
// the deepest existing ancestor, so a link pointing out of safeDir
// cannot smuggle a not-yet-created file past the check.
func ValidatePathWithinDirectory(filePath, safeDir string) error {
	absPath, err := filepath.Abs(filepath.Clean(filePath))
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	absSafeDir, err := filepath.Abs(safeDir)
	if err != nil {
		return fmt.Errorf("failed to resolve safe directory path: %w", err)
	}

	canonicalPath := resolveThroughExistingAncestor(absPath)

	canonicalSafeDir, err := filepath.EvalSymlinks(absSafeDir)
	if err != nil {
		canonicalSafeDir = absSafeDir
	}

	rel, err := filepath.Rel(canonicalSafeDir, canonicalPath)
	if err != nil {
		return fmt.Errorf("failed to compute relative path: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path %q escapes directory %q", filePath, safeDir)
	}
	return nil
}

// resolveThroughExistingAncestor canonicalises absPath. When the path
// itself does not exist yet, symlinks are resolved at the deepest
// ancestor that does, and the remaining components are rejoined.
func resolveThroughExistingAncestor(absPath string) string {
	if resolved, err := filepath.EvalSymlinks(absPath); err == nil {
		return resolved
	}

	checkPath := absPath
	for {
		parentDir := filepath.Dir(checkPath)
		if parentDir == checkPath {
			return absPath
		}
		if resolved, err := filepath.EvalSymlinks(parentDir); err == nil {
			relToParent, err := filepath.Rel(parentDir, absPath)
			if err != nil {
				return absPath
			}
			return filepath.Join(resolved, relToParent)
		}
		checkPath = parentDir
	}
}
