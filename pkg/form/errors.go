package form

import (
	"errors"
	"fmt"
)

var (
	// ErrNoFormAncestor matches NoFormAncestorError.
	ErrNoFormAncestor = errors.New("form: fields must be registered within a form")
	// ErrMissingName matches MissingNameError.
	ErrMissingName = errors.New("form: missing field name at registration")
	// ErrDuplicateField matches DuplicateFieldError.
	ErrDuplicateField = errors.New("form: field already registered")
	// ErrFieldNotFound is returned when a handle outlives its registration.
	ErrFieldNotFound = errors.New("form: field is not registered")
)

// NoFormAncestorError reports a field created without a reachable form.
type NoFormAncestorError struct {
	Path string
}

func (e *NoFormAncestorError) Error() string {
	if e.Path == "" {
		return ErrNoFormAncestor.Error()
	}
	return fmt.Sprintf("form: field %q must be registered within a form", e.Path)
}

func (e *NoFormAncestorError) Is(target error) bool {
	return target == ErrNoFormAncestor
}

// MissingNameError reports a registration whose final path segment is empty.
type MissingNameError struct {
	Path string
}

func (e *MissingNameError) Error() string {
	return fmt.Sprintf("form: missing field name at registering (path %q)", e.Path)
}

func (e *MissingNameError) Is(target error) bool {
	return target == ErrMissingName
}

// DuplicateFieldError reports a registration over a live path, or over a path
// whose node kind cannot change (a field below another field, or a field
// replacing a group of fields).
type DuplicateFieldError struct {
	Path string
	Err  error
}

func (e *DuplicateFieldError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("form: field named %s already registered: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("form: field named %s already registered", e.Path)
}

func (e *DuplicateFieldError) Is(target error) bool {
	return target == ErrDuplicateField
}

func (e *DuplicateFieldError) Unwrap() error {
	return e.Err
}
