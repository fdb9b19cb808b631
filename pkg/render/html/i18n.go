package html

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/goliatone/go-formstate/pkg/validation"
)

// Translator resolves message keys for a locale.
type Translator interface {
	Translate(locale, key string, args ...any) (string, error)
}

// TranslatorFunc adapts a function to Translator.
type TranslatorFunc func(locale, key string, args ...any) (string, error)

// Translate calls fn.
func (fn TranslatorFunc) Translate(locale, key string, args ...any) (string, error) {
	return fn(locale, key, args...)
}

// WithTranslator localizes labels, descriptions and rule errors. Keys are
// "<form>.<path>.label", "<form>.<path>.description" and "errors.<rule>".
// Missing translations fall back to the definition text.
func WithTranslator(locale string, t Translator) Option {
	return func(c *config) {
		c.locale = strings.TrimSpace(locale)
		c.translator = t
	}
}

type localizer struct {
	form   string
	locale string
	t      Translator
	logger *slog.Logger
}

func (l localizer) text(key, fallback string) string {
	if l.t == nil {
		return fallback
	}
	out, err := l.t.Translate(l.locale, key)
	if err != nil || strings.TrimSpace(out) == "" {
		l.logger.Debug("missing translation", "locale", l.locale, "key", key, "err", err)
		return fallback
	}
	return out
}

func (l localizer) label(path, fallback string) string {
	return l.text(l.form+"."+path+".label", fallback)
}

func (l localizer) description(path, fallback string) string {
	return l.text(l.form+"."+path+".description", fallback)
}

func (l localizer) errorText(err error) string {
	var ruleErr *validation.RuleError
	if !errors.As(err, &ruleErr) || l.t == nil {
		return err.Error()
	}
	return l.text("errors."+ruleErr.Kind, err.Error())
}
