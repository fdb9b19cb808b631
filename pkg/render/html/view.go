package html

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/formdef"
)

const (
	kindOpen  = "open"
	kindClose = "close"
	kindField = "field"
)

type formView struct {
	ID        string
	Action    string
	Method    string
	Submitted string
}

type option struct {
	Value    string
	Selected bool
}

// item is one line of the flattened field tree. Sections become an open and
// a close item around their children.
type item struct {
	Kind        string
	Path        string
	Label       string
	Description string
	Control     string
	Value       string
	Checked     bool
	Multiple    bool
	Options     []option
	Required    bool
	Hidden      bool
	Error       string
	ShowError   bool
	Validating  bool
}

func buildFormView(def formdef.Definition, f *form.Form, cfg config) formView {
	submitted := false
	if f != nil {
		submitted = f.Submitted()
	}
	return formView{
		ID:        FieldID(def.Name),
		Action:    cfg.action,
		Method:    cfg.method,
		Submitted: strconv.FormatBool(submitted),
	}
}

func buildItems(def formdef.Definition, f *form.Form, hidden map[string]bool, loc localizer) []item {
	submitted := f != nil && f.Submitted()
	var items []item
	open := 0
	for _, entry := range def.Entries() {
		for ; open > entry.Depth; open-- {
			items = append(items, item{Kind: kindClose})
		}
		if entry.Def.IsSection() {
			items = append(items, item{
				Kind:   kindOpen,
				Path:   entry.Path,
				Label:  loc.label(entry.Path, entry.Def.DisplayLabel()),
				Hidden: hidden[entry.Path],
			})
			open++
			continue
		}
		it := fieldItem(entry, f, submitted, loc)
		it.Hidden = hidden[entry.Path]
		items = append(items, it)
	}
	for ; open > 0; open-- {
		items = append(items, item{Kind: kindClose})
	}
	return items
}

func fieldItem(entry formdef.Entry, f *form.Form, submitted bool, loc localizer) item {
	def := entry.Def
	it := item{
		Kind:        kindField,
		Path:        entry.Path,
		Label:       loc.label(entry.Path, def.DisplayLabel()),
		Description: loc.description(entry.Path, def.Description),
		Control:     control(def),
		Required:    def.Required(),
	}

	value := def.Default
	if f != nil {
		if state, ok := f.FieldState(entry.Path); ok {
			value = state.Value
			it.Validating = state.AsyncValidating
			err := state.Error
			if err == nil {
				err = state.AsyncError
			}
			if err != nil {
				it.Error = loc.errorText(err)
				it.ShowError = state.Touched || submitted
			}
		}
	}

	switch it.Control {
	case "checkbox":
		it.Checked, _ = value.(bool)
	case "radio", "select":
		it.Multiple = def.Type == formdef.TypeArray
		selected := selectedSet(value)
		for _, opt := range def.Options {
			it.Options = append(it.Options, option{Value: opt, Selected: selected[opt]})
		}
	default:
		it.Value = displayValue(value)
	}
	return it
}

func control(def formdef.FieldDef) string {
	switch def.Type {
	case formdef.TypeCheckbox:
		return "checkbox"
	case formdef.TypeRadio:
		if len(def.Options) > 0 {
			return "radio"
		}
		return "checkbox"
	case "select":
		return "select"
	case formdef.TypeArray:
		if len(def.Options) > 0 {
			return "select"
		}
		return "text"
	case "textarea", formdef.TypeObject:
		return "textarea"
	case "email", "password", "date", "number":
		return def.Type
	case "date-time":
		return "datetime-local"
	case "uri":
		return "url"
	}
	if len(def.Options) > 0 {
		return "select"
	}
	return "text"
}

func selectedSet(value any) map[string]bool {
	out := map[string]bool{}
	switch v := value.(type) {
	case nil:
	case []any:
		for _, entry := range v {
			out[fmt.Sprint(entry)] = true
		}
	case []string:
		for _, entry := range v {
			out[entry] = true
		}
	default:
		out[fmt.Sprint(v)] = true
	}
	return out
}

func displayValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []any:
		parts := make([]string, 0, len(v))
		for _, entry := range v {
			parts = append(parts, fmt.Sprint(entry))
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		data, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(data)
	default:
		return fmt.Sprint(v)
	}
}
