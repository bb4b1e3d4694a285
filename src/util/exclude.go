package util

import (
	"path/filepath"
	"strings"
)

// ExclusionMatcher decides which tree entries are skipped during a walk.
// Directory names are matched exactly; file paths are matched against
// glob patterns (with ** support).
type ExclusionMatcher struct {
	dirs         map[string]struct{}
	filePatterns []string
}

// NewExclusionMatcher creates a matcher from directory names and file globs
func NewExclusionMatcher(dirs, filePatterns []string) *ExclusionMatcher {
	m := &ExclusionMatcher{
		dirs:         make(map[string]struct{}, len(dirs)),
		filePatterns: filePatterns,
	}
	for _, d := range dirs {
		m.dirs[d] = struct{}{}
	}
	return m
}

// ExcludesDir reports whether a directory name is never descended into
func (m *ExclusionMatcher) ExcludesDir(name string) bool {
	_, ok := m.dirs[name]
	return ok
}

// ExcludesFile reports whether a file path matches an exclusion glob
func (m *ExclusionMatcher) ExcludesFile(path string) bool {
	for _, pattern := range m.filePatterns {
		if MatchGlob(pattern, path) {
			return true
		}
	}
	return false
}

// MatchGlob matches a path against a glob pattern
func MatchGlob(pattern, path string) bool {
	if strings.Contains(pattern, "**") {
		return matchDoubleGlob(pattern, path)
	}
	matched, _ := filepath.Match(pattern, path)
	return matched
}

// matchDoubleGlob handles ** patterns in globs
func matchDoubleGlob(pattern, path string) bool {
	parts := strings.Split(pattern, "**")
	if len(parts) != 2 {
		return false
	}
	prefix := strings.TrimSuffix(parts[0], "/")
	suffix := strings.TrimPrefix(parts[1], "/")

	if prefix == "" && suffix != "" {
		return strings.HasSuffix(path, suffix) || strings.Contains(path, "/"+suffix)
	}
	if suffix == "" && prefix != "" {
		return strings.HasPrefix(path, prefix) || strings.Contains(path, prefix+"/")
	}
	if prefix != "" && suffix != "" {
		return strings.Contains(path, prefix) && strings.Contains(path, suffix)
	}
	return false
}
