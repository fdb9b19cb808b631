package form

import (
	"encoding/json"

	"github.com/goliatone/go-formstate/pkg/pathtree"
)

// SnapshotOptions selects the categories included in a Snapshot.
type SnapshotOptions struct {
	Values      bool
	Errors      bool
	AsyncErrors bool
	Meta        bool
}

// AllSnapshot requests every category.
func AllSnapshot() SnapshotOptions {
	return SnapshotOptions{Values: true, Errors: true, AsyncErrors: true, Meta: true}
}

// Snapshot is a point-in-time copy of the form. Each requested category is a
// nested map keyed by path segment; unrequested categories are nil. Error maps
// only contain fields whose error is non-nil.
type Snapshot struct {
	Values      map[string]any
	Errors      map[string]any
	AsyncErrors map[string]any
	Meta        map[string]any
	HasError    bool
	Submitted   bool
}

func buildSnapshot(fields *pathtree.Tree[FieldState], submitted bool, opts SnapshotOptions) Snapshot {
	snap := Snapshot{Submitted: submitted}
	if opts.Values {
		snap.Values = map[string]any{}
	}
	if opts.Errors {
		snap.Errors = map[string]any{}
	}
	if opts.AsyncErrors {
		snap.AsyncErrors = map[string]any{}
	}
	if opts.Meta {
		snap.Meta = map[string]any{}
	}

	fields.Walk(func(path string, state FieldState) {
		if state.Error != nil || state.AsyncError != nil {
			snap.HasError = true
		}
		if snap.Values != nil {
			_ = pathtree.SetPath(snap.Values, path, pathtree.DeepCopy(state.Value))
		}
		if snap.Errors != nil && state.Error != nil {
			_ = pathtree.SetPath(snap.Errors, path, state.Error)
		}
		if snap.AsyncErrors != nil && state.AsyncError != nil {
			_ = pathtree.SetPath(snap.AsyncErrors, path, state.AsyncError)
		}
		if snap.Meta != nil {
			_ = pathtree.SetPath(snap.Meta, path, state.Meta())
		}
	})
	return snap
}

// Value returns the value stored at path.
func (s Snapshot) Value(path string) (any, bool) {
	return pathtree.GetPath(s.Values, path, pathtree.DigNone)
}

// Error returns the synchronous error stored at path.
func (s Snapshot) Error(path string) error {
	v, _ := pathtree.GetPath(s.Errors, path, pathtree.DigNone)
	err, _ := v.(error)
	return err
}

// AsyncError returns the asynchronous error stored at path.
func (s Snapshot) AsyncError(path string) error {
	v, _ := pathtree.GetPath(s.AsyncErrors, path, pathtree.DigNone)
	err, _ := v.(error)
	return err
}

type snapshotJSON struct {
	Values      map[string]any `json:"values,omitempty"`
	Errors      map[string]any `json:"errors,omitempty"`
	AsyncErrors map[string]any `json:"asyncErrors,omitempty"`
	Meta        map[string]any `json:"meta,omitempty"`
	HasError    bool           `json:"hasError"`
	Submitted   bool           `json:"submitted"`
}

// MarshalJSON encodes error leaves as their messages.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(snapshotJSON{
		Values:      s.Values,
		Errors:      errorMessages(s.Errors),
		AsyncErrors: errorMessages(s.AsyncErrors),
		Meta:        s.Meta,
		HasError:    s.HasError,
		Submitted:   s.Submitted,
	})
}

func errorMessages(tree map[string]any) map[string]any {
	if tree == nil {
		return nil
	}
	out := make(map[string]any, len(tree))
	for key, value := range tree {
		switch v := value.(type) {
		case map[string]any:
			out[key] = errorMessages(v)
		case error:
			out[key] = v.Error()
		default:
			out[key] = v
		}
	}
	return out
}
