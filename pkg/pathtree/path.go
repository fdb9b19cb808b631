package pathtree

import "strings"

// Separator joins path segments.
const Separator = "."

// Split breaks a path into its segments. An empty path has no segments.
func Split(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, Separator)
}

// Join appends name to prefix, skipping empty parts.
func Join(prefix, name string) string {
	prefix = strings.TrimSpace(prefix)
	name = strings.TrimSpace(name)
	if prefix == "" {
		return name
	}
	if name == "" {
		return prefix
	}
	return prefix + Separator + name
}

// LastSegment returns the final segment of path.
func LastSegment(path string) string {
	idx := strings.LastIndex(path, Separator)
	if idx == -1 {
		return path
	}
	return path[idx+1:]
}

// FirstSegment returns the leading segment of path.
func FirstSegment(path string) string {
	idx := strings.Index(path, Separator)
	if idx == -1 {
		return path
	}
	return path[:idx]
}

// ParentPath returns path without its last segment ("" for top-level paths).
func ParentPath(path string) string {
	idx := strings.LastIndex(path, Separator)
	if idx == -1 {
		return ""
	}
	return path[:idx]
}
