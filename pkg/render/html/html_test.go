package html_test

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/fstest"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formstate/pkg/formdef"
	"github.com/goliatone/go-formstate/pkg/render/html"
	"github.com/goliatone/go-formstate/pkg/testsupport"
)

const contactYAML = `
name: contact
fields:
  - name: email
    label: Email
    type: email
    rules:
      - kind: required
  - name: subscribe
    type: checkbox
  - name: plan
    type: select
    options: [free, pro]
    default: pro
  - name: profile
    label: Profile
    fields:
      - name: bio
        type: textarea
        description: A few words
`

func contactDefinition(t *testing.T) formdef.Definition {
	t.Helper()
	def, err := formdef.Parse([]byte(contactYAML), "contact.yaml")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return def
}

func assertContains(t *testing.T, output string, fragments ...string) {
	t.Helper()
	for _, fragment := range fragments {
		if !strings.Contains(output, fragment) {
			t.Fatalf("expected output to contain %q\n%s", fragment, output)
		}
	}
}

func TestRenderLiveState(t *testing.T) {
	def := contactDefinition(t)
	f, mounted := testsupport.MountDefinition(t, def)

	renderer, err := html.New(html.WithAction("/contact", "POST"))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	out, err := renderer.Render(def, f)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	assertContains(t, out,
		`<form class="formstate" id="fs-contact" method="post" action="/contact" data-submitted="false">`,
		`<input type="email" id="fs-email" name="email" value="" required>`,
		`<input type="checkbox" id="fs-subscribe" name="subscribe" value="true">`,
		`<option value="free">free</option>`,
		`<option value="pro" selected>pro</option>`,
		`<fieldset id="fs-profile" data-path="profile">`,
		`<legend>Profile</legend>`,
		`<textarea id="fs-profile-bio" name="profile.bio"></textarea>`,
		`<p class="formstate-help">A few words</p>`,
	)
	if strings.Contains(out, "formstate-error") {
		t.Fatalf("untouched fields must not show errors\n%s", out)
	}
	if got := strings.Count(out, "</fieldset>"); got != 1 {
		t.Fatalf("expected one closing fieldset, got %d", got)
	}

	subscribe, _ := mounted.Field("subscribe")
	subscribe.Change(true)
	bio, _ := mounted.Field("profile.bio")
	bio.Change("<hi> & bye")
	f.Submit(nil)

	out, err = renderer.Render(def, f)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	assertContains(t, out,
		`data-submitted="true"`,
		`<input type="checkbox" id="fs-subscribe" name="subscribe" value="true" checked>`,
		`<textarea id="fs-profile-bio" name="profile.bio">&lt;hi&gt; &amp; bye</textarea>`,
		`<div class="formstate-field has-error" data-path="email">`,
		`<p class="formstate-error" role="alert">required</p>`,
	)
}

func TestRenderDefaultsWithoutForm(t *testing.T) {
	renderer, err := html.New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	out, err := renderer.Render(contactDefinition(t), nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	assertContains(t, out, `<option value="pro" selected>pro</option>`, `method="post"`)
}

func TestRenderWritesToWriters(t *testing.T) {
	renderer, err := html.New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	def := contactDefinition(t)
	out, written := testsupport.CaptureOutput(t, func(w io.Writer) (string, error) {
		return renderer.Render(def, nil, w)
	})
	if out == "" || out != written {
		t.Fatalf("writer output should match the returned string")
	}
}

func TestRenderCustomTemplate(t *testing.T) {
	fsys := fstest.MapFS{
		"compact.html": {Data: []byte(`{{ form.ID }}:{{ items|length }}`)},
	}
	renderer, err := html.New(html.WithTemplates(fsys), html.WithTemplate("compact.html"))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	out, err := renderer.Render(contactDefinition(t), nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "fs-contact:6" {
		t.Fatalf("unexpected output %q", out)
	}

	if _, err := html.New(html.WithTemplate("missing.html")); err == nil {
		t.Fatalf("expected error for missing template")
	}
}

func TestRenderTheme(t *testing.T) {
	cfg := &theme.RendererConfig{
		Theme:   "acme",
		Variant: "dark",
		CSSVars: map[string]string{"--brand": "#123456", "--accent": "#fff"},
		AssetURL: func(key string) string {
			return "/themes/acme/" + key
		},
	}
	renderer, err := html.New(html.WithTheme(cfg))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	out, err := renderer.Render(contactDefinition(t), nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	assertContains(t, out,
		`data-theme="acme" data-variant="dark" style="--accent: #fff; --brand: #123456">`,
		`<link rel="stylesheet" href="/themes/acme/html.stylesheet">`,
	)
}

func TestRendererConfigFromSelection(t *testing.T) {
	manifest := &theme.Manifest{
		Name:    "acme",
		Version: "1.0.0",
		Tokens:  map[string]string{"brand": "#123456", "radius": "4px"},
		Assets: theme.Assets{
			Prefix: "/assets/acme",
			Files:  map[string]string{html.StylesheetAsset: "form.css"},
		},
		Variants: map[string]theme.Variant{
			"dark": {
				Tokens: map[string]string{"brand": "#654321"},
				Assets: theme.Assets{Files: map[string]string{html.StylesheetAsset: "form.dark.css"}},
			},
		},
	}
	cfg := html.RendererConfig(&theme.Selection{Theme: "acme", Variant: "dark", Manifest: manifest})
	if cfg.Tokens["brand"] != "#654321" || cfg.Tokens["radius"] != "4px" {
		t.Fatalf("variant tokens not merged: %v", cfg.Tokens)
	}
	if cfg.CSSVars["--brand"] != "#654321" {
		t.Fatalf("css vars not derived: %v", cfg.CSSVars)
	}
	if got := cfg.AssetURL(html.StylesheetAsset); got != "/assets/acme/form.dark.css" {
		t.Fatalf("unexpected stylesheet %q", got)
	}
	if got := cfg.AssetURL("missing"); got != "" {
		t.Fatalf("unknown assets should resolve empty, got %q", got)
	}
	if html.RendererConfig(nil) != nil {
		t.Fatalf("nil selection should give nil config")
	}
}

func TestRenderThemeSelector(t *testing.T) {
	selector := &stubSelector{selection: &theme.Selection{
		Theme:    "acme",
		Variant:  "light",
		Manifest: &theme.Manifest{Name: "acme", Tokens: map[string]string{"brand": "#000"}},
	}}
	renderer, err := html.New(html.WithThemeSelector(selector, "acme", "light"))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	out, err := renderer.Render(contactDefinition(t), nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	assertContains(t, out, `style="--brand: #000"`)
	if selector.name != "acme" || selector.variant != "light" {
		t.Fatalf("unexpected selector args %q %q", selector.name, selector.variant)
	}

	selector.err = errors.New("unknown theme")
	if _, err := renderer.Render(contactDefinition(t), nil); err == nil {
		t.Fatalf("expected selector error")
	}
}

type stubSelector struct {
	selection     *theme.Selection
	err           error
	name, variant string
}

func (s *stubSelector) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	s.name, s.variant = name, variant
	if s.err != nil {
		return nil, s.err
	}
	return s.selection, nil
}

func TestRenderHiddenFields(t *testing.T) {
	def, err := formdef.Parse([]byte("name: v\nfields:\n  - name: gift\n    type: checkbox\n  - name: note\n    visibleWhen: gift\n"), "v.yaml")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	renderer, err := html.New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	out, err := renderer.Render(def, nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	assertContains(t, out, `<div class="formstate-field" data-path="note" hidden>`)

	f, mounted := testsupport.MountDefinition(t, def)
	gift, _ := mounted.Field("gift")
	gift.Change(true)
	out, err = renderer.Render(def, f)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	assertContains(t, out, `<div class="formstate-field" data-path="note">`)
}

func TestRenderHiddenInputs(t *testing.T) {
	renderer, err := html.New(html.WithHiddenFields(
		html.VersionField("version", 4),
		html.CSRFToken("_csrf", "first"),
		html.Hidden("  ", "skip"),
		html.CSRFToken(" _csrf ", "token123"),
	))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	out, err := renderer.Render(contactDefinition(t), nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want := `<input type="hidden" name="_csrf" value="token123">` + "\n" + `<input type="hidden" name="version" value="4">`
	assertContains(t, out, want)
	if strings.Contains(out, "skip") || strings.Contains(out, "first") {
		t.Fatalf("unexpected hidden input\n%s", out)
	}
}

func TestRenderTranslated(t *testing.T) {
	catalog := map[string]string{
		"contact.email.label":             "Correo",
		"contact.profile.label":           "Perfil",
		"contact.profile.bio.description": "Unas palabras",
		"errors.required":                 "obligatorio",
	}
	var locales []string
	translator := html.TranslatorFunc(func(locale, key string, _ ...any) (string, error) {
		locales = append(locales, locale)
		if msg, ok := catalog[key]; ok {
			return msg, nil
		}
		return "", errors.New("missing")
	})

	def := contactDefinition(t)
	f, _ := testsupport.MountDefinition(t, def)
	f.Submit(nil)

	renderer, err := html.New(html.WithTranslator("es", translator))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	out, err := renderer.Render(def, f)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	assertContains(t, out,
		`<label for="fs-email">Correo *</label>`,
		`<legend>Perfil</legend>`,
		`<p class="formstate-help">Unas palabras</p>`,
		`<p class="formstate-error" role="alert">obligatorio</p>`,
		`<input type="checkbox" id="fs-subscribe" name="subscribe" value="true"> subscribe</label>`,
	)
	if len(locales) == 0 || locales[0] != "es" {
		t.Fatalf("expected lookups for locale es, got %v", locales)
	}
}
