package validation_test

import (
	"errors"
	"testing"

	"github.com/goliatone/go-formstate/pkg/validation"
)

func TestFromRules(t *testing.T) {
	validators, err := validation.FromRules([]validation.Rule{
		{Kind: validation.RuleMinLength, Params: map[string]string{"value": "3"}},
		{Kind: validation.RuleRequired},
		{Kind: validation.RulePattern, Params: map[string]string{"pattern": "^[a-z]+$", "message": "lowercase only"}},
	})
	if err != nil {
		t.Fatalf("from rules: %v", err)
	}

	cases := []struct {
		value any
		kind  string
		msg   string
	}{
		{"", validation.RuleRequired, "required"},
		{"ab", validation.RuleMinLength, "min length 3"},
		{"ABC", validation.RulePattern, "lowercase only"},
		{"abc", "", ""},
	}
	for _, tc := range cases {
		err := validation.Validate(tc.value, validators...)
		if tc.kind == "" {
			if err != nil {
				t.Fatalf("value %v: unexpected error %v", tc.value, err)
			}
			continue
		}
		var ruleErr *validation.RuleError
		if !errors.As(err, &ruleErr) {
			t.Fatalf("value %v: expected RuleError, got %v", tc.value, err)
		}
		if ruleErr.Kind != tc.kind || ruleErr.Message != tc.msg {
			t.Fatalf("value %v: got %s/%q, want %s/%q", tc.value, ruleErr.Kind, ruleErr.Message, tc.kind, tc.msg)
		}
	}
}

func TestNumericRules(t *testing.T) {
	validators, err := validation.FromRules([]validation.Rule{
		{Kind: validation.RuleMin, Params: map[string]string{"value": "0"}},
		{Kind: validation.RuleMax, Params: map[string]string{"value": "10"}},
	})
	if err != nil {
		t.Fatalf("from rules: %v", err)
	}
	if err := validation.Validate(int64(5), validators...); err != nil {
		t.Fatalf("5 should pass: %v", err)
	}
	if err := validation.Validate(-1, validators...); err == nil || err.Error() != "min 0" {
		t.Fatalf("expected min error, got %v", err)
	}
	if err := validation.Validate("11", validators...); err == nil || err.Error() != "max 10" {
		t.Fatalf("expected max error for numeric string, got %v", err)
	}
	if err := validation.Validate(nil, validators...); err != nil {
		t.Fatalf("optional empty values skip bounds, got %v", err)
	}
}

func TestEnumRule(t *testing.T) {
	validators, err := validation.FromRules([]validation.Rule{
		{Kind: validation.RuleEnum, Params: map[string]string{"values": "draft, published"}},
	})
	if err != nil {
		t.Fatalf("from rules: %v", err)
	}
	if err := validation.Validate("draft", validators...); err != nil {
		t.Fatalf("draft should pass: %v", err)
	}
	if err := validation.Validate("archived", validators...); err == nil {
		t.Fatalf("archived should fail")
	}
}

func TestFromRulesRejectsInvalidRules(t *testing.T) {
	bad := [][]validation.Rule{
		{{Kind: "unknown"}},
		{{Kind: validation.RuleMin, Params: map[string]string{"value": "x"}}},
		{{Kind: validation.RulePattern, Params: map[string]string{"pattern": "("}}},
		{{Kind: validation.RuleEnum}},
	}
	for _, rules := range bad {
		if _, err := validation.FromRules(rules); err == nil {
			t.Fatalf("expected error for %#v", rules)
		}
	}
}
