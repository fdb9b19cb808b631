// Package pathtree stores values in trees addressed by dot-delimited paths.
//
// Tree[T] is the typed store used for field state and dirty flags: every node
// is explicitly tagged as a container or a leaf, so a path keeps the same kind
// for its whole lifetime and a field may carry any name. The map helpers
// (GetPath, SetPath, Expand) apply the same path semantics to plain
// map[string]any trees, which is the shape snapshots and initial values use.
package pathtree
