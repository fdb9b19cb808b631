package pathtree

import (
	"errors"
	"sort"
)

var (
	// ErrKindConflict is returned when a write would turn a leaf into a
	// container (or the reverse).
	ErrKindConflict = errors.New("pathtree: path crosses a node of a different kind")
	// ErrEmptyPath is returned when a write targets an empty final segment.
	ErrEmptyPath = errors.New("pathtree: path has an empty final segment")
)

// Kind tags a node as a container or a leaf.
type Kind uint8

const (
	KindContainer Kind = iota
	KindLeaf
)

// DigMode controls how lookups treat missing segments.
type DigMode int

const (
	// DigNone returns nil as soon as a segment is missing.
	DigNone DigMode = iota
	// DigCreate creates missing segments as empty containers.
	DigCreate
	// DigNearest stops at the first missing segment and returns the closest
	// existing node.
	DigNearest
)

// Node is a single tree element. Containers hold children, leaves hold a
// value.
type Node[T any] struct {
	kind     Kind
	value    T
	children map[string]*Node[T]
}

func newContainer[T any]() *Node[T] {
	return &Node[T]{kind: KindContainer, children: make(map[string]*Node[T])}
}

// Kind reports the node kind.
func (n *Node[T]) Kind() Kind {
	return n.kind
}

// IsLeaf reports whether the node holds a value.
func (n *Node[T]) IsLeaf() bool {
	return n != nil && n.kind == KindLeaf
}

// Value returns the leaf value (the zero value for containers).
func (n *Node[T]) Value() T {
	return n.value
}

// SetValue replaces the value of a leaf. It is a no-op on containers.
func (n *Node[T]) SetValue(value T) {
	if n == nil || n.kind != KindLeaf {
		return
	}
	n.value = value
}

// Child returns the named child of a container.
func (n *Node[T]) Child(name string) (*Node[T], bool) {
	if n == nil || n.kind != KindContainer {
		return nil, false
	}
	child, ok := n.children[name]
	return child, ok
}

// Len reports the number of children of a container.
func (n *Node[T]) Len() int {
	if n == nil {
		return 0
	}
	return len(n.children)
}

// Names returns the sorted child names of a container.
func (n *Node[T]) Names() []string {
	if n == nil || len(n.children) == 0 {
		return nil
	}
	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Tree is a path-addressed store. The zero value is an empty tree ready for
// use. Tree is not safe for concurrent use; callers serialise access.
type Tree[T any] struct {
	root *Node[T]
}

// New returns an empty tree.
func New[T any]() *Tree[T] {
	return &Tree[T]{root: newContainer[T]()}
}

// Root returns the root container.
func (t *Tree[T]) Root() *Node[T] {
	if t.root == nil {
		t.root = newContainer[T]()
	}
	return t.root
}

// Get resolves path according to mode. The empty path resolves to the root.
func (t *Tree[T]) Get(path string, mode DigMode) *Node[T] {
	node := t.Root()
	for _, segment := range Split(path) {
		if node.kind == KindLeaf {
			if mode == DigNearest {
				return node
			}
			return nil
		}
		child, ok := node.children[segment]
		if !ok {
			switch mode {
			case DigCreate:
				child = newContainer[T]()
				node.children[segment] = child
			case DigNearest:
				return node
			default:
				return nil
			}
		}
		node = child
	}
	return node
}

// Parent resolves the container that holds path.
func (t *Tree[T]) Parent(path string, mode DigMode) *Node[T] {
	return t.Get(ParentPath(path), mode)
}

// Has reports whether any node exists at path.
func (t *Tree[T]) Has(path string) bool {
	return t.Get(path, DigNone) != nil
}

// Leaf returns the value stored at path when path is a leaf.
func (t *Tree[T]) Leaf(path string) (T, bool) {
	node := t.Get(path, DigNone)
	if !node.IsLeaf() {
		var zero T
		return zero, false
	}
	return node.value, true
}

// Set stores value as a leaf at path, creating intermediate containers.
// Existing leaves are replaced; containers are never overwritten.
func (t *Tree[T]) Set(path string, value T) error {
	name := LastSegment(path)
	if name == "" {
		return ErrEmptyPath
	}
	parent := t.Parent(path, DigCreate)
	if parent == nil || parent.kind != KindContainer {
		return ErrKindConflict
	}
	if existing, ok := parent.children[name]; ok && existing.kind != KindLeaf {
		return ErrKindConflict
	}
	parent.children[name] = &Node[T]{kind: KindLeaf, value: value}
	return nil
}

// Delete removes the leaf at path. With prune set, containers left empty by
// the removal are removed as well. It reports whether a leaf was removed.
func (t *Tree[T]) Delete(path string, prune bool) bool {
	segments := Split(path)
	if len(segments) == 0 {
		return false
	}
	trail := make([]*Node[T], 0, len(segments))
	node := t.Root()
	for _, segment := range segments[:len(segments)-1] {
		child, ok := node.Child(segment)
		if !ok {
			return false
		}
		trail = append(trail, node)
		node = child
	}
	name := segments[len(segments)-1]
	leaf, ok := node.Child(name)
	if !ok || leaf.kind != KindLeaf {
		return false
	}
	delete(node.children, name)

	if !prune {
		return true
	}
	for i := len(trail) - 1; i >= 0; i-- {
		if node.Len() > 0 {
			break
		}
		delete(trail[i].children, segments[i])
		node = trail[i]
	}
	return true
}

// Walk visits every leaf in lexical path order. Containers are skipped.
func (t *Tree[T]) Walk(fn func(path string, value T)) {
	walk(t.Root(), "", fn)
}

func walk[T any](node *Node[T], prefix string, fn func(string, T)) {
	for _, name := range node.Names() {
		child := node.children[name]
		path := name
		if prefix != "" {
			path = prefix + Separator + name
		}
		if child.kind == KindLeaf {
			fn(path, child.value)
			continue
		}
		walk(child, path, fn)
	}
}

// Paths returns every leaf path in lexical order.
func (t *Tree[T]) Paths() []string {
	var paths []string
	t.Walk(func(path string, _ T) {
		paths = append(paths, path)
	})
	return paths
}

// Len counts the leaves of the tree.
func (t *Tree[T]) Len() int {
	count := 0
	t.Walk(func(string, T) { count++ })
	return count
}
