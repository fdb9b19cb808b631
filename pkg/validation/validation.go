// Package validation runs field validators. Synchronous validators run on
// every value change and stop at the first error; asynchronous validators run
// as a strictly sequential chain and stop at the first rejection.
package validation

import "context"

// Validator checks a value and returns a non-nil error describing the first
// problem it finds.
type Validator func(value any) error

// AsyncValidator checks a value against an external resource. The returned
// error is stored verbatim as the field's async error.
type AsyncValidator func(ctx context.Context, value any) error

// Validate runs validators in order and returns the first non-nil error. The
// remaining validators are skipped. Nil validators are ignored.
func Validate(value any, validators ...Validator) error {
	for _, validator := range validators {
		if validator == nil {
			continue
		}
		if err := validator(value); err != nil {
			return err
		}
	}
	return nil
}

// Chain composes validators into a single first-match validator.
func Chain(validators ...Validator) Validator {
	list := append([]Validator(nil), validators...)
	return func(value any) error {
		return Validate(value, list...)
	}
}

// RunAsync invokes validators one after another: each starts only after the
// previous one returned successfully. The first error ends the chain and is
// returned unchanged. Cancelling ctx stops the chain before the next step.
func RunAsync(ctx context.Context, value any, validators ...AsyncValidator) error {
	for _, validator := range validators {
		if validator == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := validator(ctx, value); err != nil {
			return err
		}
	}
	return nil
}

// ChainAsync composes async validators into one sequential validator.
func ChainAsync(validators ...AsyncValidator) AsyncValidator {
	list := append([]AsyncValidator(nil), validators...)
	return func(ctx context.Context, value any) error {
		return RunAsync(ctx, value, list...)
	}
}
