package kvstore

import (
	"fmt"
	"os"
	"path/filepath"
)

// Returns true if path exists. Uses simplified error handling
// to match pogreb's behavior.
func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Returns the files matching any of the patterns and none of the antipatterns.
func glob(patterns []string, antipatterns []string) ([]string, error) {
	files := map[string]struct{}{}
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, err
		}
		for _, match := range matches {
			files[match] = struct{}{}
		}
	}
	for _, antipattern := range antipatterns {
		matches, err := filepath.Glob(antipattern)
		if err != nil {
			return nil, err
		}
		for _, match := range matches {
			delete(files, match)
		}
	}
	out := make([]string, 0, len(files))
	for f := range files {
		out = append(out, f)
	}
	return out, nil
}

// Moves all files matching srcPatterns (minus srcAntipatterns) into dst.
// Files with the same base name clobber each other.
func moveFiles(srcPatterns []string, srcAntipatterns []string, dst string) error {
	files, err := glob(srcPatterns, srcAntipatterns)
	if err != nil {
		return fmt.Errorf("unable to glob for files to move: %w", err)
	}
	if err := os.MkdirAll(dst, 0o700); err != nil {
		return fmt.Errorf("unable to create destination directory %s: %w", dst, err)
	}
	for _, src := range files {
		target := filepath.Join(dst, filepath.Base(src))
		if err := os.Rename(src, target); err != nil {
			return fmt.Errorf("unable to move file %s to %s: %w", src, target, err)
		}
	}
	return nil
}

// Deletes all files matching pattern, returning the last failure.
func deleteFiles(pattern string) error {
	files, err := filepath.Glob(pattern)
	if err != nil {
		return fmt.Errorf("unable to glob for files %s to delete: %w", pattern, err)
	}
	var lastErr error
	for _, f := range files {
		if err := os.Remove(f); err != nil {
			lastErr = fmt.Errorf("unable to delete file %s: %w", f, err)
		}
	}
	return lastErr
}
