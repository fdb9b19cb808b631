package expr

import (
	"testing"

	"github.com/goliatone/go-formstate/pkg/visibility"
)

func TestEvaluatorRules(t *testing.T) {
	t.Parallel()

	ctx := visibility.Context{
		Values: map[string]any{
			"agree": true,
			"plan":  "pro",
			"tags":  []any{},
			"owner": map[string]any{
				"age":  int64(30),
				"name": "",
			},
		},
		Extras: map[string]any{"readonly": false},
	}
	cases := map[string]bool{
		"":                                   true,
		"agree":                              true,
		"!agree":                             false,
		`plan == "pro"`:                      true,
		`plan != "pro"`:                      false,
		"owner.age >= 18":                    true,
		"owner.age >= 18 && extras.readonly": false,
		"owner.age < 18 || !extras.readonly": true,
		`owner.name == ""`:                   true,
	}
	eval := New()
	for rule, want := range cases {
		got, err := eval.Eval("x", rule, ctx)
		if err != nil {
			t.Fatalf("Eval(%q) returned error: %v", rule, err)
		}
		if got != want {
			t.Fatalf("Eval(%q) = %v, want %v", rule, got, want)
		}
	}

	// rules have no functions
	if _, err := eval.Eval("x", "length(tags) == 0", ctx); err == nil {
		t.Fatalf("expected error for function call")
	}
}

func TestEvaluatorStringBool(t *testing.T) {
	t.Parallel()

	eval := New()
	ok, err := eval.Eval("threshold", "enabled", visibility.Context{
		Values: map[string]any{"enabled": "true"},
	})
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected string true to convert")
	}

	ok, err = eval.Eval("threshold", "enabled", visibility.Context{
		Values: map[string]any{"enabled": nil},
	})
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if ok {
		t.Fatalf("expected null to hide the field")
	}
}

func TestEvaluatorErrors(t *testing.T) {
	t.Parallel()

	eval := New()
	if err := eval.Compile("a ==="); err == nil {
		t.Fatalf("expected parse error")
	}
	if err := eval.Compile("a == 1"); err != nil {
		t.Fatalf("unexpected compile error: %v", err)
	}
	if _, err := eval.Eval("x", "missing", visibility.Context{}); err == nil {
		t.Fatalf("expected error for unknown variable")
	}
	if _, err := eval.Eval("x", "plan", visibility.Context{Values: map[string]any{"plan": "pro"}}); err == nil {
		t.Fatalf("expected error for non-bool result")
	}
}
