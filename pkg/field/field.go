package field

import (
	"context"
	"io"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/scheduler"
	"github.com/goliatone/go-formstate/pkg/validation"
)

// Event is an input event. Target carries the element properties the value is
// read from ("value", "checked", or a custom value key).
type Event struct {
	Target map[string]any
}

// Field binds an input to a form path. It validates changes, tracks focus and
// touch, and runs async validators when the input loses focus.
type Field struct {
	name   string
	handle *form.Handle

	kind            string
	valueKey        string
	defaultValue    any
	hasDefault      bool
	validators      []validation.Validator
	asyncValidators []validation.AsyncValidator
	onFocus         func(event any)
	onBlur          func(event any)
	sanitize        bool
	settleDelay     time.Duration
	sched           scheduler.Scheduler
	logger          *slog.Logger

	mu         sync.Mutex
	settle     scheduler.Timer
	generation uint64
	cancel     context.CancelFunc
	closed     bool
	inflight   int
	idle       *sync.Cond
}

// New registers a field named name in scope. The full path is the scope's
// section path joined with name.
func New(scope form.Scope, name string, options ...Option) (*Field, error) {
	if scope == nil {
		return nil, &form.NoFormAncestorError{Path: name}
	}

	f := &Field{
		name:        name,
		valueKey:    DefaultValueKey,
		settleDelay: DefaultSettleDelay,
	}
	f.idle = sync.NewCond(&f.mu)
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(f)
	}
	if f.sched == nil {
		f.sched = scheduler.Real()
	}
	if f.logger == nil {
		f.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	initial := f.initialValue()
	handle, err := scope.RegisterField(form.FieldPath(scope, name), form.FieldState{
		Value: initial,
		Error: f.ValidateValue(initial),
	}, f)
	if err != nil {
		return nil, err
	}
	f.handle = handle
	return f, nil
}

func (f *Field) initialValue() any {
	if f.isCheckbox() {
		return false
	}
	if !f.hasDefault || f.defaultValue == nil {
		return ""
	}
	return f.defaultValue
}

func (f *Field) isCheckbox() bool {
	return f.kind == TypeCheckbox || f.kind == TypeRadio
}

// Name returns the name the field was declared with.
func (f *Field) Name() string {
	return f.name
}

// Path returns the full registered path.
func (f *Field) Path() string {
	return f.handle.Path()
}

// Type returns the input type.
func (f *Field) Type() string {
	return f.kind
}

// ValueKey returns the key the value is exposed under: "checked" for checkbox
// and radio fields, the configured value key otherwise.
func (f *Field) ValueKey() string {
	if f.isCheckbox() {
		return "checked"
	}
	return f.valueKey
}

// State returns the current field state.
func (f *Field) State() form.FieldState {
	return f.handle.State()
}

// Value returns the current value.
func (f *Field) Value() any {
	return f.handle.State().Value
}

// ShouldUpdate reports whether the field changed since the last call.
func (f *Field) ShouldUpdate() bool {
	return f.handle.ShouldUpdate()
}

// ValidateValue runs the synchronous validators against value.
func (f *Field) ValidateValue(value any) error {
	return validation.Validate(value, f.validators...)
}

// Change applies an input change. event is either an Event, whose target
// provides the value, or the raw value. Changes to the current value are
// ignored.
func (f *Field) Change(event any) {
	value := f.normalize(f.extract(event))
	if reflect.DeepEqual(value, f.handle.State().Value) {
		return
	}
	f.handle.UpdateState(form.Changes{}.WithValue(value).WithError(f.ValidateValue(value)), nil)
}

// Check reports the error Change would record for value without applying it.
func (f *Field) Check(value any) error {
	return f.ValidateValue(f.normalize(value))
}

func (f *Field) normalize(value any) any {
	if f.sanitize {
		if s, ok := value.(string); ok {
			return Sanitize(s)
		}
	}
	return value
}

func (f *Field) extract(event any) any {
	var target map[string]any
	switch ev := event.(type) {
	case Event:
		target = ev.Target
	case *Event:
		if ev == nil {
			return nil
		}
		target = ev.Target
	default:
		return event
	}
	return target[f.ValueKey()]
}

// Focus marks the field focused. Checkbox and radio fields commit after the
// settle delay; a later focus or blur replaces a pending one.
func (f *Field) Focus(event any) {
	if f.onFocus != nil {
		f.onFocus(event)
	}
	f.settleOrRun(func() {
		f.handle.UpdateState(form.Changes{}.WithFocused(true), nil)
	})
}

// Blur marks the field blurred and touched, then starts async validation.
func (f *Field) Blur(event any) {
	if f.onBlur != nil {
		f.onBlur(event)
	}
	f.settleOrRun(func() {
		f.handle.UpdateState(form.Changes{}.WithFocused(false).WithTouched(true), f.asyncValidate)
	})
}

func (f *Field) settleOrRun(fn func()) {
	if !f.isCheckbox() {
		fn()
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	if f.settle != nil {
		f.settle.Stop()
	}
	f.settle = f.sched.AfterFunc(f.settleDelay, fn)
}

// Validate runs the async validators immediately.
func (f *Field) Validate() {
	f.asyncValidate()
}

func (f *Field) asyncValidate() {
	if len(f.asyncValidators) == 0 {
		return
	}
	state := f.handle.State()

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	if f.cancel != nil {
		f.cancel()
	}
	f.generation++
	generation := f.generation
	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel
	f.inflight++
	f.mu.Unlock()

	// Set after the generation bump so a finishing older chain, whose write
	// is guarded by its generation, cannot clear the flag for this one.
	f.handle.UpdateState(form.Changes{}.WithAsyncValidating(true), nil)

	go func() {
		defer f.done()
		defer cancel()

		err := validation.RunAsync(ctx, state.Value, f.asyncValidators...)

		applied := false
		f.handle.UpdateStateIf(func() bool {
			applied = f.isCurrent(generation)
			return applied
		}, form.Changes{}.WithAsyncError(err).WithAsyncValidating(false), nil)
		if !applied {
			f.logger.Debug("stale async validation discarded", "path", f.handle.Path(), "generation", generation)
		}
	}()
}

func (f *Field) isCurrent(generation uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return generation == f.generation && !f.closed
}

func (f *Field) done() {
	f.mu.Lock()
	f.inflight--
	if f.inflight == 0 {
		f.idle.Broadcast()
	}
	f.mu.Unlock()
}

// Wait blocks until every started async validation has finished. Chains
// started while waiting are waited for too.
func (f *Field) Wait() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for f.inflight > 0 {
		f.idle.Wait()
	}
}

// Close cancels the settle timer and any running async validation and
// unregisters the field.
func (f *Field) Close() {
	f.mu.Lock()
	f.closed = true
	if f.settle != nil {
		f.settle.Stop()
		f.settle = nil
	}
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	f.mu.Unlock()
	f.handle.Unregister()
}

// Meta is the field state merged with the form flags, as handed to renderers.
type Meta struct {
	form.FieldMeta
	Error      error
	AsyncError error
	Submitted  bool
}

// View is everything a renderer needs to draw the field.
type View struct {
	Name     string
	Type     string
	ValueKey string
	Value    any
	Meta     Meta
}

// View returns the current render data.
func (f *Field) View() View {
	state := f.handle.State()
	return View{
		Name:     state.Path,
		Type:     f.kind,
		ValueKey: f.ValueKey(),
		Value:    state.Value,
		Meta: Meta{
			FieldMeta:  state.Meta(),
			Error:      state.Error,
			AsyncError: state.AsyncError,
			Submitted:  f.handle.FormMeta().Submitted,
		},
	}
}
