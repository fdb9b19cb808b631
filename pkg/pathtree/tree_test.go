package pathtree_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/pathtree"
)

func TestTreeSetGetRoundTrip(t *testing.T) {
	paths := []string{"a", "a2.b", "x.y.z", "deep.er.and.deeper.still"}
	tree := pathtree.New[int]()
	for i, path := range paths {
		if err := tree.Set(path, i+1); err != nil {
			t.Fatalf("set %q: %v", path, err)
		}
	}
	for i, path := range paths {
		got, ok := tree.Leaf(path)
		if !ok {
			t.Fatalf("expected leaf at %q", path)
		}
		if got != i+1 {
			t.Fatalf("leaf %q: want %d, got %d", path, i+1, got)
		}
	}
}

func TestTreeGetDigModes(t *testing.T) {
	tree := pathtree.New[string]()
	if err := tree.Set("a.b", "leaf"); err != nil {
		t.Fatalf("set: %v", err)
	}

	if node := tree.Get("a.missing.c", pathtree.DigNone); node != nil {
		t.Fatalf("DigNone should not resolve missing path")
	}
	if tree.Has("a.missing") {
		t.Fatalf("DigNone lookup must not create nodes")
	}

	nearest := tree.Get("a.missing.c", pathtree.DigNearest)
	if nearest == nil || nearest.Kind() != pathtree.KindContainer {
		t.Fatalf("DigNearest should return the closest container")
	}
	if diff := cmp.Diff([]string{"b"}, nearest.Names()); diff != "" {
		t.Fatalf("nearest container mismatch (-want +got):\n%s", diff)
	}

	created := tree.Get("a.made.here", pathtree.DigCreate)
	if created == nil || created.Kind() != pathtree.KindContainer {
		t.Fatalf("DigCreate should vivify containers")
	}
	if !tree.Has("a.made") || !tree.Has("a.made.here") {
		t.Fatalf("expected vivified containers to exist")
	}
	if parent := tree.Parent("a.b", pathtree.DigNone); parent == nil || parent.Len() != 2 {
		t.Fatalf("expected parent container with two children")
	}
}

func TestTreeKindIsStable(t *testing.T) {
	tree := pathtree.New[int]()
	if err := tree.Set("a.b", 1); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := tree.Set("a", 2); !errors.Is(err, pathtree.ErrKindConflict) {
		t.Fatalf("expected kind conflict replacing container, got %v", err)
	}
	if err := tree.Set("a.b.c", 3); !errors.Is(err, pathtree.ErrKindConflict) {
		t.Fatalf("expected kind conflict crossing a leaf, got %v", err)
	}
	if err := tree.Set("a.", 3); !errors.Is(err, pathtree.ErrEmptyPath) {
		t.Fatalf("expected empty path error, got %v", err)
	}
}

func TestTreeAcceptsAnySegmentName(t *testing.T) {
	tree := pathtree.New[bool]()
	if err := tree.Set("group.@@form/is-parent", true); err != nil {
		t.Fatalf("set: %v", err)
	}
	if diff := cmp.Diff([]string{"group.@@form/is-parent"}, tree.Paths()); diff != "" {
		t.Fatalf("paths mismatch (-want +got):\n%s", diff)
	}
}

func TestTreeDeletePrunes(t *testing.T) {
	tree := pathtree.New[int]()
	_ = tree.Set("a.b.c", 1)
	_ = tree.Set("a.d", 2)

	if !tree.Delete("a.b.c", true) {
		t.Fatalf("expected delete to succeed")
	}
	if tree.Has("a.b") {
		t.Fatalf("expected empty container a.b to be pruned")
	}
	if !tree.Has("a") {
		t.Fatalf("container a still holds a.d and must remain")
	}

	_ = tree.Set("x.y", 3)
	tree.Delete("x.y", false)
	if !tree.Has("x") {
		t.Fatalf("without prune the empty container stays")
	}
	if tree.Delete("x", true) {
		t.Fatalf("containers are not deleted as leaves")
	}
}

func TestTreeWalkOrder(t *testing.T) {
	tree := pathtree.New[int]()
	_ = tree.Set("b", 2)
	_ = tree.Set("a.z", 1)
	_ = tree.Set("a.c", 0)

	var visited []string
	tree.Walk(func(path string, _ int) {
		visited = append(visited, path)
	})
	if diff := cmp.Diff([]string{"a.c", "a.z", "b"}, visited); diff != "" {
		t.Fatalf("walk order mismatch (-want +got):\n%s", diff)
	}
	if tree.Len() != 3 {
		t.Fatalf("expected 3 leaves, got %d", tree.Len())
	}
}

func TestSegments(t *testing.T) {
	cases := []struct {
		path, first, last, parent string
	}{
		{"a", "a", "a", ""},
		{"a.b", "a", "b", "a"},
		{"a.b.c", "a", "c", "a.b"},
		{"a.", "a", "", "a"},
	}
	for _, tc := range cases {
		if got := pathtree.FirstSegment(tc.path); got != tc.first {
			t.Fatalf("FirstSegment(%q) = %q, want %q", tc.path, got, tc.first)
		}
		if got := pathtree.LastSegment(tc.path); got != tc.last {
			t.Fatalf("LastSegment(%q) = %q, want %q", tc.path, got, tc.last)
		}
		if got := pathtree.ParentPath(tc.path); got != tc.parent {
			t.Fatalf("ParentPath(%q) = %q, want %q", tc.path, got, tc.parent)
		}
	}
	if got := pathtree.Join("", "name"); got != "name" {
		t.Fatalf("Join without prefix = %q", got)
	}
	if got := pathtree.Join("owner", "email"); got != "owner.email" {
		t.Fatalf("Join = %q", got)
	}
}
