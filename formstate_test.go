package formstate_test

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	formstate "github.com/goliatone/go-formstate"
	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/scheduler"
)

func TestMountDefinition(t *testing.T) {
	def, err := formstate.LoadDefinition(filepath.Join("pkg", "formdef", "testdata", "signup.hcl"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	f, mounted, err := formstate.Mount(def, []form.Option{form.WithScheduler(scheduler.NewManual())})
	if err != nil {
		t.Fatalf("mount: %v", err)
	}
	defer f.Close()
	defer mounted.Close()

	if v, _ := f.Snapshot(form.AllSnapshot()).Value("owner.name"); v != "Ada" {
		t.Fatalf("initial values not applied, got %v", v)
	}
	html, err := formstate.RenderHTML(def, f)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(html, `name="owner.name" value="Ada"`) {
		t.Fatalf("expected owner name in output\n%s", html)
	}
}

func TestMountRejectsInvalidInitialValues(t *testing.T) {
	def := formstate.Definition{
		Name:          "broken",
		InitialValues: map[string]any{"a": "x", "a.b": "y"},
	}
	if _, _, err := formstate.Mount(def, nil); err == nil {
		t.Fatalf("expected error for conflicting initial values")
	}
}

func TestLoadOpenAPI(t *testing.T) {
	def, err := formstate.LoadOpenAPI(context.Background(), filepath.Join("pkg", "openapi", "testdata", "petstore.yaml"), "createPet")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	var names []string
	for _, fd := range def.Fields {
		names = append(names, fd.Name)
	}
	if diff := cmp.Diff([]string{"name", "species", "age", "notes", "owner", "vaccinated"}, names); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
	if _, err := formstate.LoadOpenAPI(context.Background(), "", "createPet"); err == nil {
		t.Fatalf("expected error for empty location")
	}
}

func TestEmbeddedTemplates(t *testing.T) {
	if _, err := fs.ReadFile(formstate.EmbeddedTemplates(), "form.html"); err != nil {
		t.Fatalf("expected embedded form template: %v", err)
	}
}
