package expr

import (
	"fmt"
	"strings"
	"sync"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/goliatone/go-formstate/pkg/validation"
	"github.com/goliatone/go-formstate/pkg/visibility"
)

// Evaluator evaluates visibility rules written as HCL expressions, for
// example `agree`, `plan == "pro"` or `owner.age >= 18 && !extras.readonly`.
//
// Top-level form values are variables and nested values are reached through
// attribute access. visibility.Context.Extras is exposed as `extras`. The
// result must be a bool or convertible to one; null counts as hidden.
// Parsed rules are cached.
type Evaluator struct {
	cache sync.Map
}

var _ visibility.Evaluator = (*Evaluator)(nil)

// New returns an Evaluator with an empty rule cache.
func New() *Evaluator { return &Evaluator{} }

// Compile parses rule and reports syntax errors without evaluating it.
func (e *Evaluator) Compile(rule string) error {
	trimmed := strings.TrimSpace(rule)
	if trimmed == "" {
		return nil
	}
	_, err := e.parse(trimmed)
	return err
}

// Eval reports whether the field at fieldPath is visible. An empty rule is
// always visible.
func (e *Evaluator) Eval(fieldPath, rule string, ctx visibility.Context) (bool, error) {
	trimmed := strings.TrimSpace(rule)
	if trimmed == "" {
		return true, nil
	}
	parsed, err := e.parse(trimmed)
	if err != nil {
		return false, err
	}

	vars := make(map[string]cty.Value, len(ctx.Values)+1)
	for key, value := range ctx.Values {
		vars[key] = ToCty(value)
	}
	vars["extras"] = ToCty(ctx.Extras)
	if ctx.Extras == nil {
		vars["extras"] = cty.EmptyObjectVal
	}

	value, diags := parsed.Value(&hcl.EvalContext{Variables: vars})
	if diags.HasErrors() {
		return false, fmt.Errorf("visibility/expr: %s: %w", fieldPath, diags)
	}
	if value.IsNull() || !value.IsKnown() {
		return false, nil
	}
	converted, err := convert.Convert(value, cty.Bool)
	if err != nil {
		return false, fmt.Errorf("visibility/expr: %s: rule must yield a bool, got %s", fieldPath, value.Type().FriendlyName())
	}
	if converted.IsNull() {
		return false, nil
	}
	return converted.True(), nil
}

func (e *Evaluator) parse(rule string) (hcl.Expression, error) {
	if cached, ok := e.cache.Load(rule); ok {
		return cached.(hcl.Expression), nil
	}
	parsed, diags := hclsyntax.ParseExpression([]byte(rule), "visible_when", hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return nil, fmt.Errorf("visibility/expr: parse %q: %w", rule, diags)
	}
	e.cache.Store(rule, parsed)
	return parsed, nil
}

// ToCty converts a form value into a cty value. Slices become tuples and maps
// become objects so mixed element types are allowed.
func ToCty(value any) cty.Value {
	switch v := value.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType)
	case cty.Value:
		return v
	case string:
		return cty.StringVal(v)
	case bool:
		return cty.BoolVal(v)
	case int:
		return cty.NumberIntVal(int64(v))
	case int64:
		return cty.NumberIntVal(v)
	case float64:
		return cty.NumberFloatVal(v)
	case []string:
		items := make([]any, len(v))
		for i, item := range v {
			items[i] = item
		}
		return ToCty(items)
	case []any:
		if len(v) == 0 {
			return cty.EmptyTupleVal
		}
		elems := make([]cty.Value, len(v))
		for i, item := range v {
			elems[i] = ToCty(item)
		}
		return cty.TupleVal(elems)
	case map[string]any:
		if len(v) == 0 {
			return cty.EmptyObjectVal
		}
		attrs := make(map[string]cty.Value, len(v))
		for key, item := range v {
			attrs[key] = ToCty(item)
		}
		return cty.ObjectVal(attrs)
	}
	if number, ok := validation.ToFloat(value); ok {
		return cty.NumberFloatVal(number)
	}
	return cty.StringVal(fmt.Sprint(value))
}
