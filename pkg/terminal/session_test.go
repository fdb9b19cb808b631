package terminal_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/field"
	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/formdef"
	"github.com/goliatone/go-formstate/pkg/scheduler"
	"github.com/goliatone/go-formstate/pkg/terminal"
	"github.com/goliatone/go-formstate/pkg/testsupport"
)

type stubDriver struct {
	texts    []string
	choices  [][]int
	confirms []bool

	// enforce runs TextPrompt.Validate on each scripted answer and skips to
	// the next one while it fails, the way survey re-asks.
	enforce  bool
	rejected []string

	textPrompts   []terminal.TextPrompt
	choicePrompts []terminal.ChoicePrompt
	messages      []string
	infoMessages  []string
	textPos       int
	choicePos     int
	confirmPos    int
}

func (s *stubDriver) Text(_ context.Context, p terminal.TextPrompt) (string, error) {
	s.messages = append(s.messages, p.Message())
	s.textPrompts = append(s.textPrompts, p)
	for s.textPos < len(s.texts) {
		val := s.texts[s.textPos]
		s.textPos++
		if s.enforce && p.Validate != nil {
			if err := p.Validate(val); err != nil {
				s.rejected = append(s.rejected, p.Path+": "+err.Error())
				continue
			}
		}
		return val, nil
	}
	return "", errors.New("no text scripted")
}

func (s *stubDriver) Choose(_ context.Context, p terminal.ChoicePrompt) ([]int, error) {
	s.messages = append(s.messages, p.Message())
	s.choicePrompts = append(s.choicePrompts, p)
	if s.choicePos >= len(s.choices) {
		return nil, errors.New("no choice scripted")
	}
	val := s.choices[s.choicePos]
	s.choicePos++
	return val, nil
}

func (s *stubDriver) Confirm(_ context.Context, p terminal.ConfirmPrompt) (bool, error) {
	s.messages = append(s.messages, p.Message())
	if s.confirmPos >= len(s.confirms) {
		return false, errors.New("no confirm scripted")
	}
	val := s.confirms[s.confirmPos]
	s.confirmPos++
	return val, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.infoMessages = append(s.infoMessages, msg)
	return nil
}

const signupYAML = `
name: signup
fields:
  - name: email
    label: Email
    rules:
      - kind: required
      - kind: pattern
        params:
          pattern: ".+@.+"
  - name: agree
    type: checkbox
  - name: plan
    type: select
    options: [free, pro]
  - name: owner
    label: Owner
    fields:
      - name: age
        type: number
        rules:
          - kind: min
            params:
              value: "18"
      - name: tags
        type: array
      - name: roles
        type: array
        options: [admin, editor, viewer]
      - name: extra
        type: object
      - name: secret
        type: password
      - name: bio
        type: textarea
`

func parse(t *testing.T, src string) formdef.Definition {
	t.Helper()
	def, err := formdef.Parse([]byte(src), "inline.yaml")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return def
}

func TestSessionRun(t *testing.T) {
	def := parse(t, signupYAML)
	f, mounted := testsupport.MountDefinition(t, def)

	driver := &stubDriver{
		texts:    []string{"nope", "a@b.co", "x", "12", "30", "a, b", "[", `{"k": "v"}`, "hunter2", "hello"},
		confirms: []bool{true},
		choices:  [][]int{{1}, {0, 2}},
	}
	session, err := terminal.NewSession(def, f, mounted, terminal.WithPromptDriver(driver))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	snap, err := session.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	wantValues := map[string]any{
		"email": "a@b.co",
		"agree": true,
		"plan":  "pro",
		"owner": map[string]any{
			"age":    int64(30),
			"tags":   []any{"a", "b"},
			"roles":  []any{"admin", "viewer"},
			"extra":  map[string]any{"k": "v"},
			"secret": "hunter2",
			"bio":    "hello",
		},
	}
	if diff := cmp.Diff(wantValues, snap.Values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	if snap.HasError || !snap.Submitted {
		t.Fatalf("expected a clean submitted snapshot, got %+v", snap)
	}

	wantInfo := []string{
		"! email: does not match required pattern",
		"== Owner",
		`! owner.age: "x" is not a number`,
		"! owner.age: min 18",
		"! owner.extra: expected a JSON object",
	}
	if diff := cmp.Diff(wantInfo, driver.infoMessages); diff != "" {
		t.Fatalf("info mismatch (-want +got):\n%s", diff)
	}
	if driver.messages[0] != "Email *" {
		t.Fatalf("required fields should be marked, got %q", driver.messages[0])
	}

	state, _ := f.FieldState("email")
	if !state.Touched || state.IsFocused {
		t.Fatalf("prompted fields should be blurred and touched, got %+v", state.Meta())
	}

	var modes []terminal.TextMode
	for _, p := range driver.textPrompts {
		if p.Validate == nil {
			t.Fatalf("text prompt for %s has no validator", p.Path)
		}
		modes = append(modes, p.Mode)
	}
	line, multi, secret := terminal.TextLine, terminal.TextMultiline, terminal.TextSecret
	wantModes := []terminal.TextMode{line, line, line, line, line, line, multi, multi, secret, multi}
	if diff := cmp.Diff(wantModes, modes); diff != "" {
		t.Fatalf("text modes mismatch (-want +got):\n%s", diff)
	}
	if len(driver.choicePrompts) != 2 || driver.choicePrompts[0].Multiple || !driver.choicePrompts[1].Multiple {
		t.Fatalf("expected a single then a multiple choice, got %+v", driver.choicePrompts)
	}
	if got := driver.choicePrompts[1].Path; got != "owner.roles" {
		t.Fatalf("unexpected choice path %q", got)
	}
}

func TestSessionValidatesInsideDriver(t *testing.T) {
	def := parse(t, `
name: profile
fields:
  - name: email
    rules:
      - kind: required
      - kind: pattern
        params:
          pattern: ".+@.+"
  - name: age
    type: number
    rules:
      - kind: min
        params:
          value: "18"
  - name: extra
    type: object
`)
	f, mounted := testsupport.MountDefinition(t, def)

	driver := &stubDriver{
		enforce: true,
		texts:   []string{"nope", "a@b.co", "x", "12", "30", "[", `{"k": "v"}`},
	}
	session, err := terminal.NewSession(def, f, mounted, terminal.WithPromptDriver(driver))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	snap, err := session.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	wantRejected := []string{
		"email: does not match required pattern",
		`age: "x" is not a number`,
		"age: min 18",
		"extra: expected a JSON object",
	}
	if diff := cmp.Diff(wantRejected, driver.rejected); diff != "" {
		t.Fatalf("rejections mismatch (-want +got):\n%s", diff)
	}
	if len(driver.infoMessages) != 0 {
		t.Fatalf("answers rejected by the driver must not be reported again, got %v", driver.infoMessages)
	}
	wantValues := map[string]any{
		"email": "a@b.co",
		"age":   int64(30),
		"extra": map[string]any{"k": "v"},
	}
	if diff := cmp.Diff(wantValues, snap.Values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	if len(driver.textPrompts) != 3 {
		t.Fatalf("expected one driver call per field, got %d", len(driver.textPrompts))
	}
}

func TestSessionTooManyAttempts(t *testing.T) {
	def := parse(t, "name: f\nfields:\n  - name: email\n    rules:\n      - kind: required\n")
	f, mounted := testsupport.MountDefinition(t, def)

	driver := &stubDriver{texts: []string{"", " "}}
	session, err := terminal.NewSession(def, f, mounted, terminal.WithPromptDriver(driver), terminal.WithMaxAttempts(2))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if _, err := session.Run(context.Background()); !errors.Is(err, terminal.ErrTooManyAttempts) {
		t.Fatalf("expected ErrTooManyAttempts, got %v", err)
	}
	if driver.textPos != 2 {
		t.Fatalf("expected two prompts, got %d", driver.textPos)
	}
}

func TestSessionAbort(t *testing.T) {
	def := parse(t, "name: f\nfields:\n  - name: email\n")
	f, mounted := testsupport.MountDefinition(t, def)

	session, err := terminal.NewSession(def, f, mounted, terminal.WithPromptDriver(&stubDriver{}))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if _, err := session.Run(context.Background()); err == nil {
		t.Fatalf("expected driver error to stop the session")
	}
	if f.Submitted() {
		t.Fatalf("form must not be submitted after an aborted session")
	}
}

func TestSessionAsyncValidation(t *testing.T) {
	def := parse(t, "name: f\nfields:\n  - name: username\n")
	f := form.New(form.WithScheduler(scheduler.NewManual()))
	defer f.Close()
	mounted, err := def.Mount(f, field.WithAsyncValidators(func(_ context.Context, value any) error {
		if value == "taken" {
			return errors.New("taken")
		}
		return nil
	}))
	if err != nil {
		t.Fatalf("mount: %v", err)
	}
	defer mounted.Close()

	driver := &stubDriver{texts: []string{"taken", "free"}}
	session, err := terminal.NewSession(def, f, mounted, terminal.WithPromptDriver(driver))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	snap, err := session.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if diff := cmp.Diff([]string{"! username: taken"}, driver.infoMessages); diff != "" {
		t.Fatalf("info mismatch (-want +got):\n%s", diff)
	}
	if v, _ := snap.Value("username"); v != "free" {
		t.Fatalf("unexpected value %v", v)
	}
}

func TestNewSessionRequiresForm(t *testing.T) {
	def := parse(t, "name: f\nfields:\n  - name: a\n")
	if _, err := terminal.NewSession(def, nil, &formdef.Mounted{}); !errors.Is(err, form.ErrNoFormAncestor) {
		t.Fatalf("expected ErrNoFormAncestor, got %v", err)
	}
	f := form.New(form.WithScheduler(scheduler.NewManual()))
	defer f.Close()
	if _, err := terminal.NewSession(def, f, nil); err == nil {
		t.Fatalf("expected error without mounted fields")
	}
}

func TestSessionSkipsHiddenFields(t *testing.T) {
	def := parse(t, `
name: gift
fields:
  - name: gift
    type: checkbox
  - name: note
    visibleWhen: gift
    rules:
      - kind: required
`)
	f, mounted := testsupport.MountDefinition(t, def)

	driver := &stubDriver{confirms: []bool{false}}
	session, err := terminal.NewSession(def, f, mounted, terminal.WithPromptDriver(driver))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	snap, err := session.Run(context.Background())
	if err != nil {
		t.Fatalf("hidden field errors must not fail the session: %v", err)
	}
	if !snap.HasError || driver.textPos != 0 {
		t.Fatalf("expected note to be skipped but still invalid, got %+v", snap)
	}

	f2, mounted2 := testsupport.MountDefinition(t, def)
	driver = &stubDriver{confirms: []bool{true}, texts: []string{"for you"}}
	session, err = terminal.NewSession(def, f2, mounted2, terminal.WithPromptDriver(driver))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	snap, err = session.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if v, _ := snap.Value("note"); v != "for you" {
		t.Fatalf("expected revealed note to be prompted, got %v", v)
	}
}
