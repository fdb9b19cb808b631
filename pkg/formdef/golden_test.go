package formdef_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-formstate/pkg/testsupport"
)

func TestSubmitSnapshotGolden(t *testing.T) {
	def := testsupport.LoadDefinition(t, filepath.Join("testdata", "signup.hcl"))
	f, _ := testsupport.MountDefinition(t, def)

	got := testsupport.SnapshotJSON(t, f.Submit(nil))
	golden := filepath.Join("testdata", "golden", "signup_submit.json")
	if testsupport.WriteMaybeGolden(t, golden, got) {
		return
	}

	var want, have map[string]any
	if err := json.Unmarshal(testsupport.MustReadGolden(t, golden), &want); err != nil {
		t.Fatalf("decode golden: %v", err)
	}
	if err := json.Unmarshal(got, &have); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if diff := testsupport.CompareGolden(want, have); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
}
