package terminal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/AlecAivazis/survey/v2"
	surveyterm "github.com/AlecAivazis/survey/v2/terminal"
)

// Prompt identifies the field a driver is asking for.
type Prompt struct {
	Path     string
	Label    string
	Help     string
	Required bool
}

// Message is the line shown to the user. Required fields are marked.
func (p Prompt) Message() string {
	if p.Required {
		return p.Label + " *"
	}
	return p.Label
}

// TextMode selects how a text answer is read.
type TextMode int

const (
	TextLine TextMode = iota
	TextSecret
	TextMultiline
)

// TextPrompt asks for a free-form answer. Validate, when set, receives the raw
// answer before it is returned; drivers re-ask while it fails.
type TextPrompt struct {
	Prompt
	Mode     TextMode
	Hint     string
	Default  string
	Validate func(raw string) error
}

// Message appends the format hint, if any.
func (p TextPrompt) Message() string {
	if p.Hint == "" {
		return p.Prompt.Message()
	}
	return p.Prompt.Message() + " (" + p.Hint + ")"
}

// ChoicePrompt asks for one or, when Multiple is set, several options.
// Selected holds indices into Options.
type ChoicePrompt struct {
	Prompt
	Options  []string
	Selected []int
	Multiple bool
}

// ConfirmPrompt asks a yes/no question.
type ConfirmPrompt struct {
	Prompt
	Default bool
}

// PromptDriver abstracts the terminal so sessions can be tested without one.
type PromptDriver interface {
	Text(ctx context.Context, p TextPrompt) (string, error)
	Choose(ctx context.Context, p ChoicePrompt) ([]int, error)
	Confirm(ctx context.Context, p ConfirmPrompt) (bool, error)
	Info(ctx context.Context, msg string) error
}

type surveyDriver struct {
	out io.Writer
}

// NewSurveyDriver returns a PromptDriver backed by survey. Info messages are
// written to out, or stdout when out is nil.
func NewSurveyDriver(out io.Writer) PromptDriver {
	if out == nil {
		out = os.Stdout
	}
	return &surveyDriver{out: out}
}

func (d *surveyDriver) Text(ctx context.Context, p TextPrompt) (string, error) {
	var prompt survey.Prompt
	switch p.Mode {
	case TextSecret:
		prompt = &survey.Password{Message: p.Message(), Help: p.Help}
	case TextMultiline:
		prompt = &survey.Multiline{Message: p.Message(), Help: p.Help, Default: p.Default}
	default:
		prompt = &survey.Input{Message: p.Message(), Help: p.Help, Default: p.Default}
	}
	var opts []survey.AskOpt
	if p.Validate != nil {
		opts = append(opts, survey.WithValidator(func(ans interface{}) error {
			raw, _ := ans.(string)
			return p.Validate(raw)
		}))
	}
	var answer string
	if err := askOne(ctx, prompt, &answer, opts...); err != nil {
		return "", err
	}
	return answer, nil
}

func (d *surveyDriver) Choose(ctx context.Context, p ChoicePrompt) ([]int, error) {
	var defaults []string
	for _, idx := range p.Selected {
		if idx >= 0 && idx < len(p.Options) {
			defaults = append(defaults, p.Options[idx])
		}
	}

	if p.Multiple {
		var picked []string
		prompt := &survey.MultiSelect{Message: p.Message(), Help: p.Help, Options: p.Options, Default: defaults}
		if err := askOne(ctx, prompt, &picked); err != nil {
			return nil, err
		}
		return positions(p.Options, picked), nil
	}

	var picked string
	prompt := &survey.Select{Message: p.Message(), Help: p.Help, Options: p.Options}
	if len(defaults) > 0 {
		prompt.Default = defaults[0]
	}
	if err := askOne(ctx, prompt, &picked); err != nil {
		return nil, err
	}
	return positions(p.Options, []string{picked}), nil
}

func (d *surveyDriver) Confirm(ctx context.Context, p ConfirmPrompt) (bool, error) {
	var answer bool
	prompt := &survey.Confirm{Message: p.Message(), Help: p.Help, Default: p.Default}
	if err := askOne(ctx, prompt, &answer); err != nil {
		return false, err
	}
	return answer, nil
}

func (d *surveyDriver) Info(ctx context.Context, msg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(d.out, msg)
	return err
}

// askOne runs a single survey prompt. Ctrl+C surfaces as ErrAborted.
func askOne(ctx context.Context, prompt survey.Prompt, answer any, opts ...survey.AskOpt) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := survey.AskOne(prompt, answer, opts...)
	if errors.Is(err, surveyterm.InterruptErr) {
		return ErrAborted
	}
	return err
}

// positions maps picked options back to their indices, in option order.
func positions(options, picked []string) []int {
	want := make(map[string]bool, len(picked))
	for _, v := range picked {
		want[v] = true
	}
	out := []int{}
	for i, option := range options {
		if want[option] {
			out = append(out, i)
		}
	}
	return out
}
