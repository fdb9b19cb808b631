package form

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/goliatone/go-formstate/pkg/pathtree"
)

// registry is the single writer of field state. It keeps three trees with the
// same path shape: live field states, dirty flags and the states captured at
// registration (used by reset).
type registry struct {
	mu        sync.Mutex
	fields    *pathtree.Tree[FieldState]
	dirty     *pathtree.Tree[bool]
	initial   *pathtree.Tree[FieldState]
	tokens    map[string]uint64
	nextToken uint64
	submitted bool

	initialValues map[string]any
	notifier      *notifier
	logger        *slog.Logger
}

func newRegistry(initialValues map[string]any, n *notifier, logger *slog.Logger) *registry {
	return &registry{
		fields:        pathtree.New[FieldState](),
		dirty:         pathtree.New[bool](),
		initial:       pathtree.New[FieldState](),
		tokens:        make(map[string]uint64),
		initialValues: initialValues,
		notifier:      n,
		logger:        logger,
	}
}

func (r *registry) register(path string, state FieldState, owner Owner) (*Handle, error) {
	if strings.TrimSpace(pathtree.LastSegment(path)) == "" {
		return nil, &MissingNameError{Path: path}
	}

	// initialValues is immutable after construction, so the owner's
	// validators run before the lock is taken.
	if value, ok := pathtree.GetPath(r.initialValues, path, pathtree.DigNone); ok {
		state.Value = pathtree.DeepCopy(value)
		if owner != nil {
			state.Error = owner.ValidateValue(state.Value)
		}
	}
	state.Path = path

	r.mu.Lock()
	if r.fields.Has(path) {
		r.mu.Unlock()
		return nil, &DuplicateFieldError{Path: path}
	}
	if err := r.fields.Set(path, state); err != nil {
		r.mu.Unlock()
		return nil, &DuplicateFieldError{Path: path, Err: err}
	}
	_ = r.dirty.Set(path, false)
	_ = r.initial.Set(path, state.clone())
	r.nextToken++
	token := r.nextToken
	r.tokens[path] = token
	r.mu.Unlock()

	r.logger.Debug("field registered", "path", path)
	r.notifier.schedule()

	return &Handle{registry: r, path: path, token: token}, nil
}

func (r *registry) live(path string, token uint64) bool {
	current, ok := r.tokens[path]
	return ok && current == token
}

// update merges changes into the field at path. When no recognised key
// differs, or guard rejects the write, nothing is committed and onCommitted
// is not called. guard runs under the registry lock and must not call back
// into the form.
func (r *registry) update(path string, token uint64, guard func() bool, changes Changes, onCommitted func()) error {
	r.mu.Lock()
	if !r.live(path, token) {
		r.mu.Unlock()
		return ErrFieldNotFound
	}
	if guard != nil && !guard() {
		r.mu.Unlock()
		return nil
	}
	node := r.fields.Get(path, pathtree.DigNone)
	next, changed := changes.apply(node.Value())
	if !changed {
		r.mu.Unlock()
		return nil
	}
	node.SetValue(next)
	_ = r.dirty.Set(path, true)
	r.mu.Unlock()

	r.notifier.commit(onCommitted)
	return nil
}

func (r *registry) unregister(path string, token uint64) error {
	r.mu.Lock()
	if !r.live(path, token) {
		r.mu.Unlock()
		return ErrFieldNotFound
	}
	r.fields.Delete(path, true)
	r.dirty.Delete(path, true)
	r.initial.Delete(path, true)
	delete(r.tokens, path)
	r.mu.Unlock()

	r.logger.Debug("field unregistered", "path", path)
	r.notifier.commit(nil)
	return nil
}

func (r *registry) state(path string) (FieldState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stateLocked(path)
}

func (r *registry) stateLocked(path string) (FieldState, bool) {
	state, ok := r.fields.Leaf(path)
	if !ok {
		return FieldState{}, false
	}
	return state.clone(), true
}

// liveState returns the state at path only while token still owns it.
func (r *registry) liveState(path string, token uint64) (FieldState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.live(path, token) {
		return FieldState{}, false
	}
	return r.stateLocked(path)
}

// takeDirty reports whether the field changed since the last call and clears
// the flag.
func (r *registry) takeDirty(path string, token uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.live(path, token) {
		return false
	}
	node := r.dirty.Get(path, pathtree.DigNone)
	if !node.IsLeaf() || !node.Value() {
		return false
	}
	node.SetValue(false)
	return true
}

func (r *registry) reset() {
	r.mu.Lock()
	for _, path := range r.fields.Paths() {
		initial, ok := r.initial.Leaf(path)
		if !ok {
			continue
		}
		_ = r.fields.Set(path, initial.clone())
		_ = r.dirty.Set(path, true)
	}
	r.mu.Unlock()

	r.logger.Debug("form reset")
	r.notifier.commit(nil)
}

// markAllDirty flags every field for re-render and optionally sets the
// submitted flag.
func (r *registry) markAllDirty(submitted bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fields.Walk(func(path string, _ FieldState) {
		_ = r.dirty.Set(path, true)
	})
	if submitted {
		r.submitted = true
	}
}

func (r *registry) formMeta() FormMeta {
	r.mu.Lock()
	defer r.mu.Unlock()
	return FormMeta{Submitted: r.submitted}
}

func (r *registry) paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fields.Paths()
}

func (r *registry) snapshot(opts SnapshotOptions) Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return buildSnapshot(r.fields, r.submitted, opts)
}
