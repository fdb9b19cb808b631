package terminal

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("terminal: aborted")
	// ErrTooManyAttempts is returned when a field stays invalid after the
	// configured number of prompts.
	ErrTooManyAttempts = errors.New("terminal: too many invalid attempts")
	// ErrInvalid is returned when the submitted form still carries errors.
	ErrInvalid = errors.New("terminal: form has errors")
)
