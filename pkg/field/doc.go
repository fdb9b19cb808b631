// Package field implements the input side of a form: a Field registers a path
// through a form.Scope and turns change, focus and blur events into state
// updates.
package field
