package field

import "github.com/goliatone/go-formstate/pkg/form"

// NewArray registers a field holding a list. It defaults to an empty list
// exposed under the "values" key.
func NewArray(scope form.Scope, name string, options ...Option) (*Field, error) {
	base := []Option{WithDefaultValue([]any{}), WithValueKey("values")}
	return New(scope, name, append(base, options...)...)
}

// NewObject registers a field holding a map. It defaults to an empty map.
func NewObject(scope form.Scope, name string, options ...Option) (*Field, error) {
	base := []Option{WithDefaultValue(map[string]any{})}
	return New(scope, name, append(base, options...)...)
}

// Section returns a scope nesting fields below name.
func Section(parent form.Scope, name string) form.Scope {
	return form.Section(parent, name)
}
