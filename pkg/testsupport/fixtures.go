package testsupport

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/formdef"
	"github.com/goliatone/go-formstate/pkg/scheduler"
)

// LoadDefinition reads a definition fixture in any supported format.
func LoadDefinition(t *testing.T, path string) formdef.Definition {
	t.Helper()

	def, err := formdef.Load(path)
	if err != nil {
		t.Fatalf("load definition: %v", err)
	}
	return def
}

// MountDefinition creates a form for def on a manual clock and mounts its
// fields. Both are closed when the test ends.
func MountDefinition(t *testing.T, def formdef.Definition, options ...form.Option) (*form.Form, *formdef.Mounted) {
	t.Helper()

	opts := append(def.FormOptions(), form.WithScheduler(scheduler.NewManual()))
	opts = append(opts, options...)
	f := form.New(opts...)
	mounted, err := def.Mount(f)
	if err != nil {
		f.Close()
		t.Fatalf("mount definition: %v", err)
	}
	t.Cleanup(func() {
		mounted.Close()
		f.Close()
	})
	return f, mounted
}

// SnapshotJSON marshals a snapshot for comparison against a golden file.
func SnapshotJSON(t *testing.T, snap form.Snapshot) []byte {
	t.Helper()

	payload, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}
	return payload
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// CaptureOutput runs a render function that writes to an io.Writer and
// returns both the string result and the writer contents.
func CaptureOutput(t *testing.T, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	return out, buf.String()
}
