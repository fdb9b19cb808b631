package form

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/goliatone/go-formstate/pkg/pathtree"
	"github.com/goliatone/go-formstate/pkg/scheduler"
)

// ChangeFunc receives a snapshot after every commit.
type ChangeFunc func(snapshot Snapshot, f *Form)

// SubmitFunc receives the submit event and a snapshot taken after every field
// was flagged for re-render.
type SubmitFunc func(event any, snapshot Snapshot, f *Form)

// Option customises a Form.
type Option func(*Form)

// WithOnChange registers the change callback.
func WithOnChange(fn ChangeFunc) Option {
	return func(f *Form) {
		f.onChange = fn
	}
}

// WithOnSubmit registers the submit callback.
func WithOnSubmit(fn SubmitFunc) Option {
	return func(f *Form) {
		f.onSubmit = fn
	}
}

// WithInitialValues seeds field values by path. Keys may be nested maps or
// dotted paths.
func WithInitialValues(values map[string]any) Option {
	return func(f *Form) {
		f.rawInitial = values
	}
}

// WithScheduler injects the scheduler used by the registration debounce.
func WithScheduler(s scheduler.Scheduler) Option {
	return func(f *Form) {
		f.sched = s
	}
}

// WithDebounce overrides the registration burst window.
func WithDebounce(d time.Duration) Option {
	return func(f *Form) {
		f.debounce = d
	}
}

// WithLogger sets the logger used for debug events.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Form) {
		f.logger = logger
	}
}

// Form coordinates a field registry, its change notifier and the host
// callbacks. It is the root Scope for field registration.
type Form struct {
	onChange   ChangeFunc
	onSubmit   SubmitFunc
	rawInitial map[string]any
	sched      scheduler.Scheduler
	debounce   time.Duration
	logger     *slog.Logger

	registry      *registry
	notifier      *notifier
	initialiseErr error
}

// New constructs a Form applying the provided options.
func New(options ...Option) *Form {
	f := &Form{debounce: DefaultDebounce}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(f)
	}
	if f.logger == nil {
		f.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if f.sched == nil {
		f.sched = scheduler.Real()
	}

	initial, err := pathtree.Expand(f.rawInitial)
	if err != nil {
		f.initialiseErr = fmt.Errorf("form: initial values: %w", err)
		initial = map[string]any{}
	}

	f.notifier = newNotifier(f.sched, f.debounce, f.handleChange)
	f.registry = newRegistry(initial, f.notifier, f.logger)
	return f
}

// Err reports a configuration error detected by New. Registrations fail with
// the same error.
func (f *Form) Err() error {
	return f.initialiseErr
}

// RegisterField implements Scope.
func (f *Form) RegisterField(path string, initial FieldState, owner Owner) (*Handle, error) {
	if f.initialiseErr != nil {
		return nil, f.initialiseErr
	}
	return f.registry.register(path, initial, owner)
}

// SectionPath implements Scope; the form is the root section.
func (f *Form) SectionPath() string {
	return ""
}

// Scope returns the form as a registration scope.
func (f *Form) Scope() Scope {
	return f
}

// Submit flags every field for re-render, marks the form submitted and calls
// the submit callback. Validation errors never block submission; callers read
// Snapshot.HasError.
func (f *Form) Submit(event any) Snapshot {
	f.registry.markAllDirty(true)
	snap := f.registry.snapshot(AllSnapshot())
	f.logger.Debug("form submitted", "has_error", snap.HasError)
	if f.onSubmit != nil {
		f.onSubmit(event, snap, f)
	}
	return snap
}

// Reset restores every field to the state captured at registration and
// notifies once.
func (f *Form) Reset() {
	f.registry.reset()
}

// Submitted reports whether Submit was called.
func (f *Form) Submitted() bool {
	return f.registry.formMeta().Submitted
}

// Snapshot returns a snapshot of the selected categories.
func (f *Form) Snapshot(opts SnapshotOptions) Snapshot {
	return f.registry.snapshot(opts)
}

// Fields returns every registered path in lexical order.
func (f *Form) Fields() []string {
	return f.registry.paths()
}

// FieldState returns a copy of the state registered at path.
func (f *Form) FieldState(path string) (FieldState, bool) {
	return f.registry.state(path)
}

// Walk visits a copy of every field state in lexical path order.
func (f *Form) Walk(fn func(path string, state FieldState)) {
	for _, path := range f.Fields() {
		state, ok := f.registry.state(path)
		if !ok {
			continue
		}
		fn(path, state)
	}
}

// PendingCommit reports whether a registration commit is waiting on the
// debounce timer.
func (f *Form) PendingCommit() bool {
	return f.notifier.pending()
}

// Close cancels the pending registration commit.
func (f *Form) Close() {
	f.notifier.stop()
}

func (f *Form) handleChange() {
	f.logger.Debug("form commit")
	if f.onChange == nil {
		return
	}
	f.onChange(f.registry.snapshot(AllSnapshot()), f)
}
