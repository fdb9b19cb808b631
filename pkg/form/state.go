package form

import (
	"errors"
	"reflect"

	"github.com/goliatone/go-formstate/pkg/pathtree"
)

// FieldState is the live state of one registered field.
type FieldState struct {
	Path            string
	Value           any
	Error           error
	AsyncError      error
	AsyncValidating bool
	IsFocused       bool
	Touched         bool
}

// Meta returns the non-value, non-error part of the state.
func (s FieldState) Meta() FieldMeta {
	return FieldMeta{
		Path:            s.Path,
		AsyncValidating: s.AsyncValidating,
		IsFocused:       s.IsFocused,
		Touched:         s.Touched,
	}
}

func (s FieldState) clone() FieldState {
	out := s
	out.Value = pathtree.DeepCopy(s.Value)
	return out
}

// FieldMeta is the per-field metadata reported in snapshots.
type FieldMeta struct {
	Path            string `json:"path"`
	AsyncValidating bool   `json:"asyncValidating"`
	IsFocused       bool   `json:"isFocused"`
	Touched         bool   `json:"touched"`
}

// FormMeta carries form-level flags fields merge into their render data.
type FormMeta struct {
	Submitted bool `json:"submitted"`
}

// Owner is the field behind a registration. The registry calls ValidateValue
// when an initial value replaces the field's default.
type Owner interface {
	ValidateValue(value any) error
}

// OwnerFunc adapts a function into an Owner.
type OwnerFunc func(value any) error

// ValidateValue calls the underlying function.
func (fn OwnerFunc) ValidateValue(value any) error {
	return fn(value)
}

// Changes lists the recognised keys a field wants to update. Keys that were
// never set are ignored when the change is applied.
type Changes struct {
	value           any
	err             error
	asyncErr        error
	asyncValidating bool
	focused         bool
	touched         bool

	set uint8
}

const (
	changeValue uint8 = 1 << iota
	changeError
	changeAsyncError
	changeAsyncValidating
	changeFocused
	changeTouched
)

// WithValue sets the value key.
func (c Changes) WithValue(value any) Changes {
	c.value = value
	c.set |= changeValue
	return c
}

// WithError sets the synchronous validation error key.
func (c Changes) WithError(err error) Changes {
	c.err = err
	c.set |= changeError
	return c
}

// WithAsyncError sets the asynchronous validation error key.
func (c Changes) WithAsyncError(err error) Changes {
	c.asyncErr = err
	c.set |= changeAsyncError
	return c
}

// WithAsyncValidating sets the pending async validation flag.
func (c Changes) WithAsyncValidating(validating bool) Changes {
	c.asyncValidating = validating
	c.set |= changeAsyncValidating
	return c
}

// WithFocused sets the focus flag.
func (c Changes) WithFocused(focused bool) Changes {
	c.focused = focused
	c.set |= changeFocused
	return c
}

// WithTouched sets the touched flag.
func (c Changes) WithTouched(touched bool) Changes {
	c.touched = touched
	c.set |= changeTouched
	return c
}

// Empty reports whether no key was set.
func (c Changes) Empty() bool {
	return c.set == 0
}

// apply merges the changes into current and reports whether any recognised
// key differs. current is never modified.
func (c Changes) apply(current FieldState) (FieldState, bool) {
	next := current
	changed := false

	if c.set&changeValue != 0 && !reflect.DeepEqual(current.Value, c.value) {
		next.Value = c.value
		changed = true
	}
	if c.set&changeError != 0 && !sameError(current.Error, c.err) {
		next.Error = c.err
		changed = true
	}
	if c.set&changeAsyncError != 0 && !sameError(current.AsyncError, c.asyncErr) {
		next.AsyncError = c.asyncErr
		changed = true
	}
	if c.set&changeAsyncValidating != 0 && current.AsyncValidating != c.asyncValidating {
		next.AsyncValidating = c.asyncValidating
		changed = true
	}
	if c.set&changeFocused != 0 && current.IsFocused != c.focused {
		next.IsFocused = c.focused
		changed = true
	}
	if c.set&changeTouched != 0 && current.Touched != c.touched {
		next.Touched = c.touched
		changed = true
	}
	return next, changed
}

// sameError treats two errors as equal when they are identical, match via
// errors.Is, or share a concrete type and deeply equal contents. Validators
// commonly build a fresh error per call; re-reporting the same error is not a
// change, but a different kind with the same message is.
func sameError(a, b error) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}
	if errors.Is(a, b) {
		return true
	}
	return reflect.DeepEqual(a, b)
}
