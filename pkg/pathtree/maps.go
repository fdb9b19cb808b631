package pathtree

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/mohae/deepcopy"
)

// GetPath resolves a dotted path against a map tree. Slices are indexed by
// numeric segments. DigCreate vivifies missing segments as empty maps so the
// result can be used as a write target; DigNearest returns the closest
// existing value when a segment is missing.
func GetPath(root map[string]any, path string, mode DigMode) (any, bool) {
	if root == nil {
		return nil, false
	}
	var current any = root
	for _, segment := range Split(path) {
		switch node := current.(type) {
		case map[string]any:
			next, ok := node[segment]
			if !ok {
				switch mode {
				case DigCreate:
					next = make(map[string]any)
					node[segment] = next
				case DigNearest:
					return node, true
				default:
					return nil, false
				}
			}
			current = next
		case []any:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(node) {
				if mode == DigNearest {
					return node, true
				}
				return nil, false
			}
			current = node[idx]
		default:
			if mode == DigNearest {
				return node, true
			}
			return nil, false
		}
	}
	return current, true
}

// HasPath reports whether path resolves to a value in root.
func HasPath(root map[string]any, path string) bool {
	if path == "" {
		return false
	}
	_, ok := GetPath(root, path, DigNone)
	return ok
}

// SetPath writes value at path, creating intermediate maps as needed.
func SetPath(root map[string]any, path string, value any) error {
	if root == nil {
		return fmt.Errorf("pathtree: root map is nil")
	}
	name := LastSegment(path)
	if name == "" {
		return ErrEmptyPath
	}
	parent, _ := GetPath(root, ParentPath(path), DigCreate)
	container, ok := parent.(map[string]any)
	if !ok {
		return fmt.Errorf("pathtree: parent of %q is %T, not a map", path, parent)
	}
	container[name] = value
	return nil
}

// Expand converts a map whose keys may be dotted paths into a nested map
// tree. Values are deep copied. Keys are applied in sorted order so that
// "a" is written before "a.b".
func Expand(values map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(values))
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if err := SetPath(out, key, DeepCopy(values[key])); err != nil {
			return nil, fmt.Errorf("pathtree: expand %q: %w", key, err)
		}
	}
	return out, nil
}

// Flatten returns the leaves of a map tree keyed by dotted path. Slices are
// treated as leaves.
func Flatten(root map[string]any) map[string]any {
	out := make(map[string]any)
	flatten("", root, out)
	return out
}

func flatten(prefix string, value any, out map[string]any) {
	node, ok := value.(map[string]any)
	if !ok || (len(node) == 0 && prefix != "") {
		out[prefix] = value
		return
	}
	for key, child := range node {
		flatten(Join(prefix, key), child, out)
	}
}

// DeepCopy clones maps, slices and pointers reachable from value.
func DeepCopy(value any) any {
	if value == nil {
		return nil
	}
	return deepcopy.Copy(value)
}
