package terminal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/goliatone/go-formstate/pkg/field"
	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/formdef"
	"github.com/goliatone/go-formstate/pkg/visibility"
)

// DefaultMaxAttempts is how often a field is prompted before the session gives
// up on it.
const DefaultMaxAttempts = 3

// Theme holds message prefixes applied by the session.
type Theme struct {
	SectionPrefix string
	ErrorPrefix   string
}

// Option configures a Session.
type Option func(*Session)

// WithPromptDriver overrides the prompt driver used by the session.
func WithPromptDriver(driver PromptDriver) Option {
	return func(s *Session) {
		if driver != nil {
			s.driver = driver
		}
	}
}

// WithMaxAttempts sets how often an invalid field is re-prompted.
func WithMaxAttempts(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithTheme applies message prefixes.
func WithTheme(theme Theme) Option {
	return func(s *Session) {
		s.theme = theme
	}
}

// WithVisibility sets the evaluator and extras used for visibleWhen rules.
// Hidden fields are not prompted and their errors do not fail the session.
func WithVisibility(eval visibility.Evaluator, extras map[string]any) Option {
	return func(s *Session) {
		s.eval = eval
		s.extras = extras
	}
}

// WithLogger sets the logger used for debug events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Session prompts for every field of a mounted definition.
type Session struct {
	def         formdef.Definition
	form        *form.Form
	mounted     *formdef.Mounted
	driver      PromptDriver
	maxAttempts int
	theme       Theme
	eval        visibility.Evaluator
	extras      map[string]any
	logger      *slog.Logger
}

// NewSession binds a definition to the form and fields it was mounted on.
func NewSession(def formdef.Definition, f *form.Form, mounted *formdef.Mounted, options ...Option) (*Session, error) {
	if f == nil {
		return nil, &form.NoFormAncestorError{}
	}
	if mounted == nil {
		return nil, errors.New("terminal: definition is not mounted")
	}
	s := &Session{
		def:         def,
		form:        f,
		mounted:     mounted,
		maxAttempts: DefaultMaxAttempts,
		theme:       Theme{SectionPrefix: "== ", ErrorPrefix: "! "},
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	if s.driver == nil {
		s.driver = NewSurveyDriver(nil)
	}
	return s, nil
}

// Run prompts for each visible field in definition order, then submits the
// form and returns the submit snapshot. Visibility is re-evaluated before each
// prompt so earlier answers can reveal later fields. A snapshot whose visible
// fields still have errors is returned together with ErrInvalid.
func (s *Session) Run(ctx context.Context) (form.Snapshot, error) {
	for _, entry := range s.def.Entries() {
		hidden, err := s.hidden(s.form.Snapshot(form.SnapshotOptions{Values: true}))
		if err != nil {
			return form.Snapshot{}, err
		}
		if hidden[entry.Path] {
			s.logger.Debug("skipping hidden field", "path", entry.Path)
			continue
		}
		if entry.Def.IsSection() {
			if err := s.driver.Info(ctx, s.theme.SectionPrefix+entry.Def.DisplayLabel()); err != nil {
				return form.Snapshot{}, err
			}
			continue
		}
		fld, ok := s.mounted.Field(entry.Path)
		if !ok {
			return form.Snapshot{}, fmt.Errorf("terminal: field %q is not mounted", entry.Path)
		}
		if err := s.ask(ctx, entry.Def, fld); err != nil {
			return form.Snapshot{}, err
		}
	}

	snap := s.form.Submit(nil)
	invalid, err := s.def.VisibleErrors(snap, s.eval, s.extras)
	if err != nil {
		return snap, err
	}
	if len(invalid) > 0 {
		s.logger.Debug("submitted with errors", "paths", invalid)
		return snap, ErrInvalid
	}
	return snap, nil
}

func (s *Session) hidden(snap form.Snapshot) (map[string]bool, error) {
	return s.def.HiddenPaths(s.eval, visibility.Context{Values: snap.Values, Extras: s.extras})
}

func (s *Session) ask(ctx context.Context, def formdef.FieldDef, fld *field.Field) error {
	for attempt := 1; ; attempt++ {
		value, err := s.prompt(ctx, def, fld)
		if err != nil {
			var parseErr *parseError
			if !errors.As(err, &parseErr) {
				return err
			}
			if err := s.report(ctx, fld.Path(), parseErr); err != nil {
				return err
			}
		} else {
			s.apply(fld, value)
			state := fld.State()
			fieldErr := state.Error
			if fieldErr == nil {
				fieldErr = state.AsyncError
			}
			if fieldErr == nil {
				return nil
			}
			if err := s.report(ctx, fld.Path(), fieldErr); err != nil {
				return err
			}
		}
		if attempt >= s.maxAttempts {
			return fmt.Errorf("%w: %s", ErrTooManyAttempts, fld.Path())
		}
		s.logger.Debug("re-prompting field", "path", fld.Path(), "attempt", attempt)
	}
}

// apply drives the field through the same events a UI would send. Checkbox
// and radio fields settle focus and blur on a timer, so their async
// validators are started directly.
func (s *Session) apply(fld *field.Field, value any) {
	settles := fld.Type() == field.TypeCheckbox || fld.Type() == field.TypeRadio
	if !settles {
		fld.Focus(nil)
	}
	fld.Change(value)
	if settles {
		fld.Validate()
	} else {
		fld.Blur(nil)
	}
	fld.Wait()
}

func (s *Session) report(ctx context.Context, path string, err error) error {
	return s.driver.Info(ctx, s.theme.ErrorPrefix+path+": "+err.Error())
}

type parseError struct {
	msg string
}

func (e *parseError) Error() string {
	return e.msg
}

// prompt asks for one answer to fld. Text answers are parsed and checked
// against the field's validators inside the driver, so a driver that supports
// it keeps asking until the answer would be accepted.
func (s *Session) prompt(ctx context.Context, def formdef.FieldDef, fld *field.Field) (any, error) {
	base := Prompt{
		Path:     fld.Path(),
		Label:    def.DisplayLabel(),
		Help:     def.Description,
		Required: def.Required(),
	}
	current := fld.Value()

	switch {
	case def.Type == formdef.TypeCheckbox || (def.Type == formdef.TypeRadio && len(def.Options) == 0):
		checked, _ := current.(bool)
		return s.driver.Confirm(ctx, ConfirmPrompt{Prompt: base, Default: checked})
	case len(def.Options) > 0:
		multiple := def.Type == formdef.TypeArray
		indices, err := s.driver.Choose(ctx, ChoicePrompt{
			Prompt:   base,
			Options:  def.Options,
			Selected: selectedIndices(def.Options, current),
			Multiple: multiple,
		})
		if err != nil {
			return nil, err
		}
		picked := make([]any, 0, len(indices))
		for _, idx := range indices {
			if idx >= 0 && idx < len(def.Options) {
				picked = append(picked, def.Options[idx])
			}
		}
		if multiple {
			return picked, nil
		}
		if len(picked) == 0 {
			return "", nil
		}
		return picked[0], nil
	}

	p := TextPrompt{Prompt: base, Default: text(current)}
	parse := func(raw string) (any, error) { return raw, nil }
	switch def.Type {
	case formdef.TypeArray:
		p.Hint, p.Default = "comma separated", joinList(current)
		parse = func(raw string) (any, error) { return splitList(raw), nil }
	case formdef.TypeObject:
		p.Mode, p.Hint, p.Default = TextMultiline, "JSON", objectText(current)
		parse = parseObject
	case "password":
		p.Mode, p.Default = TextSecret, ""
	case "textarea":
		p.Mode = TextMultiline
	case "number":
		parse = parseNumber
	}
	p.Validate = func(raw string) error {
		value, err := parse(raw)
		if err != nil {
			return err
		}
		return fld.Check(value)
	}

	raw, err := s.driver.Text(ctx, p)
	if err != nil {
		return nil, err
	}
	return parse(raw)
}

func selectedIndices(options []string, current any) []int {
	selected := make(map[string]bool)
	switch v := current.(type) {
	case nil:
	case []any:
		for _, item := range v {
			selected[fmt.Sprint(item)] = true
		}
	default:
		selected[fmt.Sprint(v)] = true
	}
	var out []int
	for i, opt := range options {
		if selected[opt] {
			out = append(out, i)
		}
	}
	return out
}

func text(value any) string {
	if value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprint(value)
}

func joinList(value any) string {
	values, _ := value.([]any)
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, fmt.Sprint(v))
	}
	return strings.Join(parts, ", ")
}

func splitList(raw string) []any {
	out := []any{}
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func objectText(value any) string {
	obj, ok := value.(map[string]any)
	if !ok || len(obj) == 0 {
		return ""
	}
	data, err := json.Marshal(obj)
	if err != nil {
		return ""
	}
	return string(data)
}

func parseObject(raw string) (any, error) {
	if strings.TrimSpace(raw) == "" {
		return map[string]any{}, nil
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, &parseError{msg: "expected a JSON object"}
	}
	return out, nil
}

func parseNumber(raw string) (any, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", nil
	}
	if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return nil, &parseError{msg: fmt.Sprintf("%q is not a number", trimmed)}
	}
	return f, nil
}
