package openapi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// ErrOperationNotFound is returned when a document lacks the requested
// operation.
var ErrOperationNotFound = errors.New("openapi: operation not found")

// Operation describes an operation that accepts a request body.
type Operation struct {
	ID          string
	Method      string
	Path        string
	Summary     string
	Description string

	body *openapi3.SchemaRef
}

// Document is a parsed OpenAPI document.
type Document struct {
	Location   string
	Title      string
	spec       *openapi3.T
	operations map[string]Operation
}

// Parse decodes an OpenAPI document from data. location names the document in
// errors and resolves relative references.
func (l *Loader) Parse(ctx context.Context, location string, data []byte) (*Document, error) {
	if len(data) == 0 {
		return nil, errors.New("openapi: document payload is empty")
	}
	loader := &openapi3.Loader{
		Context:               ctx,
		IsExternalRefsAllowed: l.externalRefs,
	}
	spec, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("openapi: load %s: %w", location, err)
	}
	if l.validate {
		if err := spec.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
			return nil, fmt.Errorf("openapi: validate %s: %w", location, err)
		}
	}

	doc := &Document{
		Location:   location,
		spec:       spec,
		operations: make(map[string]Operation),
	}
	if spec.Info != nil {
		doc.Title = spec.Info.Title
	}
	if spec.Paths != nil {
		for path, item := range spec.Paths.Map() {
			if item == nil {
				continue
			}
			for method, op := range item.Operations() {
				doc.collect(method, path, op)
			}
		}
	}
	return doc, nil
}

func (d *Document) collect(method, path string, op *openapi3.Operation) {
	if op == nil {
		return
	}
	body := requestSchema(op.RequestBody)
	if body == nil {
		return
	}
	id := op.OperationID
	if id == "" {
		id = strings.ToLower(method) + ":" + path
	}
	d.operations[id] = Operation{
		ID:          id,
		Method:      strings.ToUpper(method),
		Path:        path,
		Summary:     op.Summary,
		Description: op.Description,
		body:        body,
	}
}

func requestSchema(body *openapi3.RequestBodyRef) *openapi3.SchemaRef {
	if body == nil || body.Value == nil {
		return nil
	}
	content := body.Value.Content
	for _, mediaType := range []string{"application/json", "application/x-www-form-urlencoded", "multipart/form-data"} {
		if mt, ok := content[mediaType]; ok && mt != nil && mt.Schema != nil {
			return mt.Schema
		}
	}
	keys := make([]string, 0, len(content))
	for key := range content {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if mt := content[key]; mt != nil && mt.Schema != nil {
			return mt.Schema
		}
	}
	return nil
}

// Operations lists the operations with a request body, sorted by ID.
func (d *Document) Operations() []Operation {
	out := make([]Operation, 0, len(d.operations))
	for _, op := range d.operations {
		out = append(out, op)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Operation returns the operation with the given ID.
func (d *Document) Operation(id string) (Operation, bool) {
	op, ok := d.operations[id]
	return op, ok
}
