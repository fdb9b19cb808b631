package html

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/formdef"
	"github.com/goliatone/go-formstate/pkg/pathtree"
	"github.com/goliatone/go-formstate/pkg/visibility"
)

// DefaultTemplate is the template rendered unless WithTemplate names another.
const DefaultTemplate = "form.html"

//go:embed templates/*.html
var embedded embed.FS

// Option configures a Renderer.
type Option func(*config)

type config struct {
	templates fs.FS
	name      string
	action    string
	method    string
	theme     *theme.RendererConfig
	selector  theme.ThemeSelector
	themeName string
	variant   string
	eval      visibility.Evaluator
	extras    map[string]any
	logger    *slog.Logger

	hiddenFields map[string]string
	locale       string
	translator   Translator
}

// WithTemplates loads templates from fsys instead of the embedded set. The
// embedded templates remain available as a fallback.
func WithTemplates(fsys fs.FS) Option {
	return func(cfg *config) {
		cfg.templates = fsys
	}
}

// WithTemplate overrides the template name rendered by Render.
func WithTemplate(name string) Option {
	return func(cfg *config) {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			cfg.name = trimmed
		}
	}
}

// WithAction sets the form action and method attributes.
func WithAction(action, method string) Option {
	return func(cfg *config) {
		cfg.action = strings.TrimSpace(action)
		if m := strings.TrimSpace(method); m != "" {
			cfg.method = strings.ToLower(m)
		}
	}
}

// WithTheme renders with a resolved theme configuration.
func WithTheme(cfg *theme.RendererConfig) Option {
	return func(c *config) {
		c.theme = cfg
	}
}

// WithThemeSelector resolves the theme through selector on every render.
// It takes precedence over WithTheme.
func WithThemeSelector(selector theme.ThemeSelector, name, variant string) Option {
	return func(c *config) {
		c.selector = selector
		c.themeName = name
		c.variant = variant
	}
}

// WithVisibility sets the evaluator and extras used for visibleWhen rules.
// Hidden fields and sections are rendered with the hidden attribute.
func WithVisibility(eval visibility.Evaluator, extras map[string]any) Option {
	return func(c *config) {
		c.eval = eval
		c.extras = extras
	}
}

// WithLogger sets the logger used for debug events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// Renderer draws a form definition and the live state of its fields as HTML.
type Renderer struct {
	set  *pongo2.TemplateSet
	tmpl *pongo2.Template
	cfg  config
}

// New builds a Renderer and parses its template.
func New(options ...Option) (*Renderer, error) {
	cfg := config{
		name:   DefaultTemplate,
		method: "post",
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var loaders []pongo2.TemplateLoader
	if cfg.templates != nil {
		loaders = append(loaders, pongo2.NewFSLoader(cfg.templates))
	}
	loaders = append(loaders, pongo2.NewFSLoader(TemplatesFS()))

	if err := registerFilters(); err != nil {
		return nil, err
	}

	r := &Renderer{
		set: pongo2.NewSet("formstate", loaders...),
		cfg: cfg,
	}
	tmpl, err := r.set.FromFile(cfg.name)
	if err != nil {
		return nil, fmt.Errorf("html: load template %q: %w", cfg.name, err)
	}
	r.tmpl = tmpl
	return r, nil
}

// Render draws def using the state f currently holds. Fields of def that are
// not registered on f render their declared defaults. The output is also
// written to every writer in out.
func (r *Renderer) Render(def formdef.Definition, f *form.Form, out ...io.Writer) (string, error) {
	if r == nil || r.tmpl == nil {
		return "", errors.New("html: renderer is nil")
	}
	themeCtx, err := r.resolveTheme()
	if err != nil {
		return "", err
	}

	hidden, err := def.HiddenPaths(r.cfg.eval, visibility.Context{Values: currentValues(def, f), Extras: r.cfg.extras})
	if err != nil {
		return "", fmt.Errorf("html: %w", err)
	}

	ctx := pongo2.Context{
		"form":   buildFormView(def, f, r.cfg),
		"items":  buildItems(def, f, hidden, r.localizer(def)),
		"theme":  themeCtx,
		"hidden": sortedHiddenFields(r.cfg.hiddenFields),
	}

	var buf bytes.Buffer
	if err := r.tmpl.ExecuteWriter(ctx, &buf); err != nil {
		return "", fmt.Errorf("html: execute template %q: %w", r.cfg.name, err)
	}

	rendered := buf.String()
	for _, w := range out {
		if _, err := w.Write([]byte(rendered)); err != nil {
			return "", err
		}
	}
	r.cfg.logger.Debug("rendered form", "form", def.Name, "bytes", len(rendered))
	return rendered, nil
}

func (r *Renderer) localizer(def formdef.Definition) localizer {
	return localizer{form: def.Name, locale: r.cfg.locale, t: r.cfg.translator, logger: r.cfg.logger}
}

func (r *Renderer) resolveTheme() (themeView, error) {
	if r.cfg.selector == nil {
		return buildThemeView(r.cfg.theme), nil
	}
	selection, err := r.cfg.selector.Select(r.cfg.themeName, r.cfg.variant)
	if err != nil {
		return themeView{}, fmt.Errorf("html: select theme %q: %w", r.cfg.themeName, err)
	}
	return buildThemeView(RendererConfig(selection)), nil
}

var (
	filtersOnce sync.Once
	filtersErr  error
)

func registerFilters() error {
	filtersOnce.Do(func() {
		if pongo2.FilterExists("fieldid") {
			return
		}
		filtersErr = pongo2.RegisterFilter("fieldid", func(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
			return pongo2.AsValue(FieldID(in.String())), nil
		})
	})
	if filtersErr != nil {
		return fmt.Errorf("html: register filters: %w", filtersErr)
	}
	return nil
}

// currentValues returns the form's values, or the declared defaults when no
// form is given.
func currentValues(def formdef.Definition, f *form.Form) map[string]any {
	if f != nil {
		return f.Snapshot(form.SnapshotOptions{Values: true}).Values
	}
	values := make(map[string]any)
	for _, entry := range def.Entries() {
		if entry.Def.IsSection() {
			continue
		}
		_ = pathtree.SetPath(values, entry.Path, entry.Def.Default)
	}
	return values
}

// FieldID turns a dotted path into an element ID.
func FieldID(path string) string {
	return "fs-" + strings.ReplaceAll(path, ".", "-")
}

// TemplatesFS exposes the built-in templates so callers can extend them.
func TemplatesFS() fs.FS {
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		return embedded
	}
	return sub
}
