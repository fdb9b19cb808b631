package validation

import (
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Canonical rule kinds understood by FromRules.
const (
	RuleRequired  = "required"
	RuleMin       = "min"
	RuleMax       = "max"
	RuleMinLength = "minLength"
	RuleMaxLength = "maxLength"
	RulePattern   = "pattern"
	RuleEnum      = "enum"
)

// Rule is a declarative validation constraint. Numeric bounds and length
// limits carry their threshold in Params["value"], pattern rules carry the
// expression in Params["pattern"] and enum rules a comma separated list in
// Params["values"]. Params["message"] overrides the default message.
type Rule struct {
	Kind   string            `json:"kind" yaml:"kind"`
	Params map[string]string `json:"params,omitempty" yaml:"params,omitempty"`
}

// RuleError is returned by the built-in validators.
type RuleError struct {
	Kind    string
	Message string
}

func (e *RuleError) Error() string {
	return e.Message
}

func ruleError(kind, custom, format string, args ...any) *RuleError {
	msg := strings.TrimSpace(custom)
	if msg == "" {
		msg = fmt.Sprintf(format, args...)
	}
	return &RuleError{Kind: kind, Message: msg}
}

// Required rejects nil, blank strings and empty collections.
func Required(message string) Validator {
	return func(value any) error {
		if isEmpty(value) {
			return ruleError(RuleRequired, message, "required")
		}
		return nil
	}
}

// MinLength rejects strings (counted in runes) and collections shorter than n.
func MinLength(n int, message string) Validator {
	return func(value any) error {
		if isEmpty(value) {
			return nil
		}
		if size, ok := lengthOf(value); ok && size < n {
			return ruleError(RuleMinLength, message, "min length %d", n)
		}
		return nil
	}
}

// MaxLength rejects strings (counted in runes) and collections longer than n.
func MaxLength(n int, message string) Validator {
	return func(value any) error {
		if isEmpty(value) {
			return nil
		}
		if size, ok := lengthOf(value); ok && size > n {
			return ruleError(RuleMaxLength, message, "max length %d", n)
		}
		return nil
	}
}

// Pattern rejects strings that do not match expr.
func Pattern(expr *regexp.Regexp, message string) Validator {
	return func(value any) error {
		if isEmpty(value) {
			return nil
		}
		text, ok := value.(string)
		if !ok {
			text = fmt.Sprint(value)
		}
		if !expr.MatchString(text) {
			return ruleError(RulePattern, message, "does not match required pattern")
		}
		return nil
	}
}

// Min rejects numbers below bound.
func Min(bound float64, message string) Validator {
	return func(value any) error {
		if isEmpty(value) {
			return nil
		}
		number, ok := ToFloat(value)
		if !ok {
			return ruleError(RuleMin, message, "expected number, got %T", value)
		}
		if number < bound {
			return ruleError(RuleMin, message, "min %v", bound)
		}
		return nil
	}
}

// Max rejects numbers above bound.
func Max(bound float64, message string) Validator {
	return func(value any) error {
		if isEmpty(value) {
			return nil
		}
		number, ok := ToFloat(value)
		if !ok {
			return ruleError(RuleMax, message, "expected number, got %T", value)
		}
		if number > bound {
			return ruleError(RuleMax, message, "max %v", bound)
		}
		return nil
	}
}

// OneOf rejects values whose string form is not listed in options.
func OneOf(options []string, message string) Validator {
	allowed := make(map[string]struct{}, len(options))
	for _, option := range options {
		allowed[option] = struct{}{}
	}
	return func(value any) error {
		if isEmpty(value) {
			return nil
		}
		if _, ok := allowed[fmt.Sprint(value)]; !ok {
			return ruleError(RuleEnum, message, "must be one of %s", strings.Join(options, ", "))
		}
		return nil
	}
}

// FromRules converts declarative rules into validators. Required rules are
// placed first so an empty value reports "required" before anything else.
func FromRules(rules []Rule) ([]Validator, error) {
	var required, others []Validator
	for _, rule := range rules {
		message := rule.Params["message"]
		switch strings.TrimSpace(rule.Kind) {
		case RuleRequired:
			required = append(required, Required(message))
		case RuleMin, RuleMax:
			bound, err := strconv.ParseFloat(strings.TrimSpace(rule.Params["value"]), 64)
			if err != nil {
				return nil, fmt.Errorf("validation: rule %s: invalid value %q", rule.Kind, rule.Params["value"])
			}
			if rule.Kind == RuleMin {
				others = append(others, Min(bound, message))
			} else {
				others = append(others, Max(bound, message))
			}
		case RuleMinLength, RuleMaxLength:
			n, err := strconv.Atoi(strings.TrimSpace(rule.Params["value"]))
			if err != nil || n < 0 {
				return nil, fmt.Errorf("validation: rule %s: invalid value %q", rule.Kind, rule.Params["value"])
			}
			if rule.Kind == RuleMinLength {
				others = append(others, MinLength(n, message))
			} else {
				others = append(others, MaxLength(n, message))
			}
		case RulePattern:
			expr, err := regexp.Compile(rule.Params["pattern"])
			if err != nil {
				return nil, fmt.Errorf("validation: rule pattern: %w", err)
			}
			others = append(others, Pattern(expr, message))
		case RuleEnum:
			var options []string
			for _, option := range strings.Split(rule.Params["values"], ",") {
				if trimmed := strings.TrimSpace(option); trimmed != "" {
					options = append(options, trimmed)
				}
			}
			if len(options) == 0 {
				return nil, fmt.Errorf("validation: rule enum: no values")
			}
			others = append(others, OneOf(options, message))
		default:
			return nil, fmt.Errorf("validation: unknown rule kind %q", rule.Kind)
		}
	}
	return append(required, others...), nil
}

// ToFloat converts numeric values (and numeric strings) to float64.
func ToFloat(value any) (float64, bool) {
	switch n := value.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func isEmpty(value any) bool {
	if value == nil {
		return true
	}
	if text, ok := value.(string); ok {
		return strings.TrimSpace(text) == ""
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func lengthOf(value any) (int, bool) {
	if text, ok := value.(string); ok {
		return utf8.RuneCountInString(text), true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len(), true
	}
	return 0, false
}
