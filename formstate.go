package formstate

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/goliatone/go-formstate/pkg/field"
	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/formdef"
	"github.com/goliatone/go-formstate/pkg/openapi"
	"github.com/goliatone/go-formstate/pkg/render/html"
)

// Form aliases form.Form for callers that only import the root package.
type Form = form.Form

// Snapshot aliases form.Snapshot.
type Snapshot = form.Snapshot

// Definition aliases formdef.Definition.
type Definition = formdef.Definition

// New creates an empty form.
func New(options ...form.Option) *form.Form {
	return form.New(options...)
}

// LoadDefinition reads a JSON, YAML or HCL definition from disk.
func LoadDefinition(path string) (formdef.Definition, error) {
	return formdef.Load(path)
}

// LoadDefinitionFS reads a definition from fsys.
func LoadDefinitionFS(fsys fs.FS, name string) (formdef.Definition, error) {
	return formdef.LoadFS(fsys, name)
}

// LoadOpenAPI derives a definition from the request body of operationID in
// the OpenAPI document at location (a path or http(s) URL).
func LoadOpenAPI(ctx context.Context, location, operationID string, options ...openapi.LoaderOption) (formdef.Definition, error) {
	src, err := openapi.ParseSource(location)
	if err != nil {
		return formdef.Definition{}, err
	}
	doc, err := openapi.NewLoader(options...).Load(ctx, src)
	if err != nil {
		return formdef.Definition{}, err
	}
	return doc.Definition(operationID)
}

// Mount creates a form seeded with the definition's initial values and mounts
// its fields. Closing the returned Mounted before the form releases every
// field.
func Mount(def formdef.Definition, formOptions []form.Option, fieldOptions ...field.Option) (*form.Form, *formdef.Mounted, error) {
	f := form.New(append(def.FormOptions(), formOptions...)...)
	if err := f.Err(); err != nil {
		f.Close()
		return nil, nil, err
	}
	mounted, err := def.Mount(f, fieldOptions...)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("formstate: mount %q: %w", def.Name, err)
	}
	return f, mounted, nil
}

// RenderHTML renders def with the state held by f using the built-in
// template.
func RenderHTML(def formdef.Definition, f *form.Form, options ...html.Option) (string, error) {
	renderer, err := html.New(options...)
	if err != nil {
		return "", err
	}
	return renderer.Render(def, f)
}

// EmbeddedTemplates exposes the built-in HTML templates so callers can reuse
// or extend them without importing the renderer package directly.
func EmbeddedTemplates() fs.FS {
	return html.TemplatesFS()
}
