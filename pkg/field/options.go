package field

import (
	"log/slog"
	"time"

	"github.com/goliatone/go-formstate/pkg/scheduler"
	"github.com/goliatone/go-formstate/pkg/validation"
)

// DefaultSettleDelay is how long checkbox and radio fields wait before
// committing a focus or blur.
const DefaultSettleDelay = 100 * time.Millisecond

// Input types that use the boolean "checked" channel.
const (
	TypeCheckbox = "checkbox"
	TypeRadio    = "radio"
)

// DefaultValueKey is the event target key holding the value.
const DefaultValueKey = "value"

// Option customises a Field.
type Option func(*Field)

// WithValidators appends synchronous validators. The first failure wins.
func WithValidators(validators ...validation.Validator) Option {
	return func(f *Field) {
		f.validators = append(f.validators, validators...)
	}
}

// WithAsyncValidators appends validators run on blur, in order.
func WithAsyncValidators(validators ...validation.AsyncValidator) Option {
	return func(f *Field) {
		f.asyncValidators = append(f.asyncValidators, validators...)
	}
}

// WithDefaultValue sets the value the field registers with.
func WithDefaultValue(value any) Option {
	return func(f *Field) {
		f.defaultValue = value
		f.hasDefault = true
	}
}

// WithValueKey sets the event target key the value is read from.
func WithValueKey(key string) Option {
	return func(f *Field) {
		if key != "" {
			f.valueKey = key
		}
	}
}

// WithType sets the input type. Checkbox and radio fields default to false and
// read "checked" from events.
func WithType(kind string) Option {
	return func(f *Field) {
		f.kind = kind
	}
}

// WithOnFocus registers a hook run before the field handles a focus event.
func WithOnFocus(fn func(event any)) Option {
	return func(f *Field) {
		f.onFocus = fn
	}
}

// WithOnBlur registers a hook run before the field handles a blur event.
func WithOnBlur(fn func(event any)) Option {
	return func(f *Field) {
		f.onBlur = fn
	}
}

// WithSanitizer strips markup from string values before they are stored.
func WithSanitizer() Option {
	return func(f *Field) {
		f.sanitize = true
	}
}

// WithSettleDelay overrides the checkbox focus/blur settle delay.
func WithSettleDelay(d time.Duration) Option {
	return func(f *Field) {
		f.settleDelay = d
	}
}

// WithScheduler injects the scheduler used by the settle timer.
func WithScheduler(s scheduler.Scheduler) Option {
	return func(f *Field) {
		f.sched = s
	}
}

// WithLogger sets the logger used for debug events.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Field) {
		f.logger = logger
	}
}
