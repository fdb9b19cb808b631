package formdef

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-formstate/pkg/field"
	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/pathtree"
	"github.com/goliatone/go-formstate/pkg/validation"
	"github.com/goliatone/go-formstate/pkg/visibility"
	"github.com/goliatone/go-formstate/pkg/visibility/expr"
)

var conditions = expr.New()

// Field types with dedicated handling. Any other type is mounted as a plain
// field and passed through to renderers.
const (
	TypeText     = "text"
	TypeSection  = "section"
	TypeArray    = "array"
	TypeObject   = "object"
	TypeCheckbox = field.TypeCheckbox
	TypeRadio    = field.TypeRadio
)

// Definition is a declarative form.
type Definition struct {
	Name          string         `json:"name" yaml:"name"`
	InitialValues map[string]any `json:"initialValues,omitempty" yaml:"initialValues,omitempty"`
	Fields        []FieldDef     `json:"fields" yaml:"fields"`
	Source        string         `json:"-" yaml:"-"`
}

// FieldDef declares a field, or a section when it has nested fields.
type FieldDef struct {
	Name        string            `json:"name" yaml:"name"`
	Type        string            `json:"type,omitempty" yaml:"type,omitempty"`
	Label       string            `json:"label,omitempty" yaml:"label,omitempty"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Default     any               `json:"default,omitempty" yaml:"default,omitempty"`
	ValueKey    string            `json:"valueKey,omitempty" yaml:"valueKey,omitempty"`
	Options     []string          `json:"options,omitempty" yaml:"options,omitempty"`
	Sanitize    bool              `json:"sanitize,omitempty" yaml:"sanitize,omitempty"`
	Rules       []validation.Rule `json:"rules,omitempty" yaml:"rules,omitempty"`
	Fields      []FieldDef        `json:"fields,omitempty" yaml:"fields,omitempty"`
	VisibleWhen string            `json:"visibleWhen,omitempty" yaml:"visibleWhen,omitempty"`
}

// IsSection reports whether the definition groups nested fields.
func (f FieldDef) IsSection() bool {
	return f.Type == TypeSection || len(f.Fields) > 0
}

// Required reports whether the field carries a required rule.
func (f FieldDef) Required() bool {
	for _, rule := range f.Rules {
		if strings.TrimSpace(rule.Kind) == validation.RuleRequired {
			return true
		}
	}
	return false
}

// DisplayLabel returns the label, falling back to the name.
func (f FieldDef) DisplayLabel() string {
	if label := strings.TrimSpace(f.Label); label != "" {
		return label
	}
	return f.Name
}

// Entry is a field or section with its full path, as returned by Entries.
type Entry struct {
	Path  string
	Depth int
	Def   FieldDef
}

// Entries flattens the definition in declaration order. Sections precede
// their children.
func (d Definition) Entries() []Entry {
	var out []Entry
	var visit func(prefix string, depth int, fields []FieldDef)
	visit = func(prefix string, depth int, fields []FieldDef) {
		for _, def := range fields {
			path := pathtree.Join(prefix, def.Name)
			out = append(out, Entry{Path: path, Depth: depth, Def: def})
			if def.IsSection() {
				visit(path, depth+1, def.Fields)
			}
		}
	}
	visit("", 0, d.Fields)
	return out
}

// Validate checks names, sibling uniqueness and rule parameters.
func (d Definition) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("formdef: %s: form name is required", d.sourceName())
	}
	return d.validateFields("", d.Fields)
}

func (d Definition) validateFields(prefix string, fields []FieldDef) error {
	seen := make(map[string]struct{}, len(fields))
	for _, def := range fields {
		name := strings.TrimSpace(def.Name)
		if name == "" {
			return fmt.Errorf("formdef: %s: field without a name under %q", d.sourceName(), prefix)
		}
		if strings.Contains(name, pathtree.Separator) {
			return fmt.Errorf("formdef: %s: field name %q must not contain %q", d.sourceName(), name, pathtree.Separator)
		}
		path := pathtree.Join(prefix, name)
		if _, dup := seen[name]; dup {
			return fmt.Errorf("formdef: %s: duplicate field %q", d.sourceName(), path)
		}
		seen[name] = struct{}{}

		if err := conditions.Compile(def.VisibleWhen); err != nil {
			return fmt.Errorf("formdef: %s: field %q visibleWhen: %w", d.sourceName(), path, err)
		}
		if def.IsSection() {
			if len(def.Rules) > 0 {
				return fmt.Errorf("formdef: %s: section %q cannot carry rules", d.sourceName(), path)
			}
			if err := d.validateFields(path, def.Fields); err != nil {
				return err
			}
			continue
		}
		if _, err := validation.FromRules(def.Rules); err != nil {
			return fmt.Errorf("formdef: %s: field %q: %w", d.sourceName(), path, err)
		}
	}
	return nil
}

func (d Definition) sourceName() string {
	if d.Source != "" {
		return d.Source
	}
	if d.Name != "" {
		return d.Name
	}
	return "definition"
}

// FormOptions returns the form options implied by the definition.
func (d Definition) FormOptions() []form.Option {
	if len(d.InitialValues) == 0 {
		return nil
	}
	return []form.Option{form.WithInitialValues(d.InitialValues)}
}

// Mounted is the set of fields created by Mount.
type Mounted struct {
	Fields map[string]*field.Field
	Order  []string
}

// Field returns the field mounted at path.
func (m *Mounted) Field(path string) (*field.Field, bool) {
	if m == nil {
		return nil, false
	}
	f, ok := m.Fields[path]
	return f, ok
}

// Close unregisters every mounted field.
func (m *Mounted) Close() {
	if m == nil {
		return
	}
	for i := len(m.Order) - 1; i >= 0; i-- {
		m.Fields[m.Order[i]].Close()
	}
}

// Mount creates the declared fields in scope. Sections become form sections.
// opts apply to every field before the field's own settings. On failure the
// fields created so far are unregistered.
func (d Definition) Mount(scope form.Scope, opts ...field.Option) (*Mounted, error) {
	if scope == nil {
		return nil, &form.NoFormAncestorError{}
	}
	mounted := &Mounted{Fields: make(map[string]*field.Field)}
	if err := mountFields(scope, d.Fields, opts, mounted); err != nil {
		mounted.Close()
		return nil, err
	}
	return mounted, nil
}

func mountFields(scope form.Scope, defs []FieldDef, opts []field.Option, mounted *Mounted) error {
	for _, def := range defs {
		if def.IsSection() {
			if err := mountFields(form.Section(scope, def.Name), def.Fields, opts, mounted); err != nil {
				return err
			}
			continue
		}

		fieldOpts, err := def.fieldOptions()
		if err != nil {
			return err
		}
		all := append(append([]field.Option(nil), opts...), fieldOpts...)

		var f *field.Field
		switch def.Type {
		case TypeArray:
			f, err = field.NewArray(scope, def.Name, all...)
		case TypeObject:
			f, err = field.NewObject(scope, def.Name, all...)
		default:
			f, err = field.New(scope, def.Name, all...)
		}
		if err != nil {
			return fmt.Errorf("formdef: mount %q: %w", form.FieldPath(scope, def.Name), err)
		}
		mounted.Fields[f.Path()] = f
		mounted.Order = append(mounted.Order, f.Path())
	}
	return nil
}

func (f FieldDef) fieldOptions() ([]field.Option, error) {
	validators, err := validation.FromRules(f.Rules)
	if err != nil {
		return nil, fmt.Errorf("formdef: field %q: %w", f.Name, err)
	}
	kind := f.Type
	if kind == "" {
		kind = TypeText
	}
	opts := []field.Option{field.WithType(kind)}
	if len(validators) > 0 {
		opts = append(opts, field.WithValidators(validators...))
	}
	if f.Default != nil {
		opts = append(opts, field.WithDefaultValue(f.Default))
	}
	if f.ValueKey != "" {
		opts = append(opts, field.WithValueKey(f.ValueKey))
	}
	if f.Sanitize {
		opts = append(opts, field.WithSanitizer())
	}
	return opts, nil
}

// ErrNoForm is returned when a source holds no form definition.
var ErrNoForm = errors.New("formdef: no form definition found")

// HiddenPaths evaluates every visibleWhen rule against ctx and returns the
// paths that are hidden. Children of a hidden section are hidden too. A nil
// evaluator uses the HCL expression evaluator.
func (d Definition) HiddenPaths(eval visibility.Evaluator, ctx visibility.Context) (map[string]bool, error) {
	if eval == nil {
		eval = conditions
	}
	hidden := make(map[string]bool)
	for _, entry := range d.Entries() {
		if parent := pathtree.ParentPath(entry.Path); parent != "" && hidden[parent] {
			hidden[entry.Path] = true
			continue
		}
		if strings.TrimSpace(entry.Def.VisibleWhen) == "" {
			continue
		}
		visible, err := eval.Eval(entry.Path, entry.Def.VisibleWhen, ctx)
		if err != nil {
			return nil, fmt.Errorf("formdef: %w", err)
		}
		if !visible {
			hidden[entry.Path] = true
		}
	}
	return hidden, nil
}

// VisibleErrors returns the paths of visible fields whose snapshot entry
// carries a sync or async error, in definition order. snap must include
// values and both error categories.
func (d Definition) VisibleErrors(snap form.Snapshot, eval visibility.Evaluator, extras map[string]any) ([]string, error) {
	if !snap.HasError {
		return nil, nil
	}
	hidden, err := d.HiddenPaths(eval, visibility.Context{Values: snap.Values, Extras: extras})
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, entry := range d.Entries() {
		if hidden[entry.Path] || entry.Def.IsSection() {
			continue
		}
		if snap.Error(entry.Path) != nil || snap.AsyncError(entry.Path) != nil {
			paths = append(paths, entry.Path)
		}
	}
	return paths, nil
}
