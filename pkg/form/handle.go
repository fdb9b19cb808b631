package form

import (
	"errors"
	"sync"
)

// Handle is a field's private connection to the registry, returned by
// RegisterField. All methods are safe for concurrent use.
type Handle struct {
	registry *registry
	path     string
	token    uint64
	once     sync.Once
}

// Path returns the full path the field registered under.
func (h *Handle) Path() string {
	return h.path
}

// State returns a copy of the field's current state. After Unregister it
// returns the zero state, even when another field took over the path.
func (h *Handle) State() FieldState {
	state, _ := h.registry.liveState(h.path, h.token)
	return state
}

// FormMeta returns the form-level flags.
func (h *Handle) FormMeta() FormMeta {
	return h.registry.formMeta()
}

// ShouldUpdate reports whether the field changed since the previous call and
// clears the flag.
func (h *Handle) ShouldUpdate() bool {
	return h.registry.takeDirty(h.path, h.token)
}

// UpdateState merges changes into the field. When at least one key differs
// the form is notified, then onCommitted runs. Updates after Unregister are
// dropped.
func (h *Handle) UpdateState(changes Changes, onCommitted func()) {
	h.UpdateStateIf(nil, changes, onCommitted)
}

// UpdateStateIf is UpdateState with a precondition. guard is evaluated under
// the registry lock, atomically with the write; a false result drops the
// update. guard must not call back into the form.
func (h *Handle) UpdateStateIf(guard func() bool, changes Changes, onCommitted func()) {
	err := h.registry.update(h.path, h.token, guard, changes, onCommitted)
	if errors.Is(err, ErrFieldNotFound) {
		h.registry.logger.Debug("update dropped for unregistered field", "path", h.path)
	}
}

// Unregister removes the field from the form. Calling it more than once has
// no further effect.
func (h *Handle) Unregister() {
	h.once.Do(func() {
		_ = h.registry.unregister(h.path, h.token)
	})
}
