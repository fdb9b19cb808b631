package html

import (
	"fmt"
	"sort"
	"strings"
)

// HiddenField is a hidden input emitted before the form fields.
type HiddenField struct {
	Name  string
	Value string
}

// Hidden returns a HiddenField for an arbitrary name/value pair.
func Hidden(name string, value any) HiddenField {
	return HiddenField{
		Name:  strings.TrimSpace(name),
		Value: fmt.Sprint(value),
	}
}

// CSRFToken returns a hidden field carrying token. name must match what the
// backend expects, for example "_csrf".
func CSRFToken(name, token string) HiddenField {
	return Hidden(name, token)
}

// VersionField returns a hidden field used for optimistic locking.
func VersionField(name string, version any) HiddenField {
	return Hidden(name, version)
}

// WithHiddenFields adds hidden inputs. Empty names are ignored and later
// fields win on name collisions.
func WithHiddenFields(fields ...HiddenField) Option {
	return func(c *config) {
		for _, field := range fields {
			name := strings.TrimSpace(field.Name)
			if name == "" {
				continue
			}
			if c.hiddenFields == nil {
				c.hiddenFields = make(map[string]string)
			}
			c.hiddenFields[name] = field.Value
		}
	}
}

func sortedHiddenFields(fields map[string]string) []HiddenField {
	if len(fields) == 0 {
		return nil
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]HiddenField, 0, len(names))
	for _, name := range names {
		out = append(out, HiddenField{Name: name, Value: fields[name]})
	}
	return out
}
