package formdef

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/goliatone/go-formstate/pkg/validation"
)

var (
	fileSchema = &hcl.BodySchema{
		Blocks: []hcl.BlockHeaderSchema{{Type: "form", LabelNames: []string{"name"}}},
	}
	formSchema = &hcl.BodySchema{
		Attributes: []hcl.AttributeSchema{{Name: "initial_values"}},
		Blocks:     memberBlocks,
	}
	sectionSchema = &hcl.BodySchema{
		Attributes: []hcl.AttributeSchema{{Name: "label"}, {Name: "visible_when"}},
		Blocks:     memberBlocks,
	}
	memberBlocks = []hcl.BlockHeaderSchema{
		{Type: "field", LabelNames: []string{"name"}},
		{Type: "section", LabelNames: []string{"name"}},
	}
)

// hclField is the body of a `field` block.
type hclField struct {
	Type        string     `hcl:"type,optional"`
	Label       string     `hcl:"label,optional"`
	Description string     `hcl:"description,optional"`
	Default     *cty.Value `hcl:"default,optional"`
	ValueKey    string     `hcl:"value_key,optional"`
	Options     []string   `hcl:"options,optional"`
	Sanitize    bool       `hcl:"sanitize,optional"`
	VisibleWhen string     `hcl:"visible_when,optional"`
	Rules       []*hclRule `hcl:"rule,block"`
}

// hclRule is a `rule "kind" { ... }` block; its attributes become params.
type hclRule struct {
	Kind   string   `hcl:"kind,label"`
	Params hcl.Body `hcl:",remain"`
}

// ParseHCL decodes a definition written in HCL:
//
//	form "signup" {
//	  initial_values = { owner = { name = "Ada" } }
//
//	  field "email" {
//	    rule "required" {}
//	    rule "pattern" { pattern = ".+@.+" }
//	  }
//	  section "owner" {
//	    field "name" {}
//	  }
//	}
func ParseHCL(data []byte, filename string) (Definition, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return Definition{}, fmt.Errorf("formdef: parse %s: %w", filename, diags)
	}

	content, diags := file.Body.Content(fileSchema)
	if diags.HasErrors() {
		return Definition{}, fmt.Errorf("formdef: decode %s: %w", filename, diags)
	}
	if len(content.Blocks) == 0 {
		return Definition{}, fmt.Errorf("%w in %s", ErrNoForm, filename)
	}
	if len(content.Blocks) > 1 {
		return Definition{}, fmt.Errorf("formdef: %s: expected a single form block, found %d", filename, len(content.Blocks))
	}

	block := content.Blocks[0]
	body, diags := block.Body.Content(formSchema)
	if diags.HasErrors() {
		return Definition{}, fmt.Errorf("formdef: decode form %q: %w", block.Labels[0], diags)
	}

	def := Definition{Name: block.Labels[0], Source: filename}
	if attr, ok := body.Attributes["initial_values"]; ok {
		value, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return Definition{}, fmt.Errorf("formdef: initial_values: %w", diags)
		}
		native, err := ctyToNative(value)
		if err != nil {
			return Definition{}, fmt.Errorf("formdef: initial_values: %w", err)
		}
		values, ok := native.(map[string]any)
		if !ok && native != nil {
			return Definition{}, fmt.Errorf("formdef: initial_values must be an object, got %s", value.Type().FriendlyName())
		}
		def.InitialValues = values
	}

	fields, err := decodeMembers(body.Blocks)
	if err != nil {
		return Definition{}, err
	}
	def.Fields = fields

	if err := def.Validate(); err != nil {
		return Definition{}, err
	}
	return def, nil
}

func decodeMembers(blocks hcl.Blocks) ([]FieldDef, error) {
	var out []FieldDef
	for _, block := range blocks {
		name := block.Labels[0]
		switch block.Type {
		case "section":
			content, diags := block.Body.Content(sectionSchema)
			if diags.HasErrors() {
				return nil, fmt.Errorf("formdef: decode section %q: %w", name, diags)
			}
			def := FieldDef{Name: name, Type: TypeSection}
			if attr, ok := content.Attributes["label"]; ok {
				if diags := gohcl.DecodeExpression(attr.Expr, nil, &def.Label); diags.HasErrors() {
					return nil, fmt.Errorf("formdef: section %q label: %w", name, diags)
				}
			}
			if attr, ok := content.Attributes["visible_when"]; ok {
				if diags := gohcl.DecodeExpression(attr.Expr, nil, &def.VisibleWhen); diags.HasErrors() {
					return nil, fmt.Errorf("formdef: section %q visible_when: %w", name, diags)
				}
			}
			children, err := decodeMembers(content.Blocks)
			if err != nil {
				return nil, err
			}
			def.Fields = children
			out = append(out, def)
		case "field":
			def, err := decodeField(name, block.Body)
			if err != nil {
				return nil, err
			}
			out = append(out, def)
		}
	}
	return out, nil
}

func decodeField(name string, body hcl.Body) (FieldDef, error) {
	var raw hclField
	if diags := gohcl.DecodeBody(body, nil, &raw); diags.HasErrors() {
		return FieldDef{}, fmt.Errorf("formdef: decode field %q: %w", name, diags)
	}
	def := FieldDef{
		Name:        name,
		Type:        raw.Type,
		Label:       raw.Label,
		Description: raw.Description,
		ValueKey:    raw.ValueKey,
		Options:     raw.Options,
		Sanitize:    raw.Sanitize,
		VisibleWhen: raw.VisibleWhen,
	}
	if raw.Default != nil {
		value, err := ctyToNative(*raw.Default)
		if err != nil {
			return FieldDef{}, fmt.Errorf("formdef: field %q default: %w", name, err)
		}
		def.Default = value
	}
	for _, rule := range raw.Rules {
		params, err := ruleParams(rule.Params)
		if err != nil {
			return FieldDef{}, fmt.Errorf("formdef: field %q rule %s: %w", name, rule.Kind, err)
		}
		def.Rules = append(def.Rules, validation.Rule{Kind: rule.Kind, Params: params})
	}
	return def, nil
}

func ruleParams(body hcl.Body) (map[string]string, error) {
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return nil, diags
	}
	if len(attrs) == 0 {
		return nil, nil
	}
	params := make(map[string]string, len(attrs))
	for key, attr := range attrs {
		value, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, diags
		}
		native, err := ctyToNative(value)
		if err != nil {
			return nil, fmt.Errorf("param %s: %w", key, err)
		}
		params[key] = paramString(native)
	}
	return params, nil
}

func paramString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, paramString(item))
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(v)
	}
}

// ctyToNative converts a cty value into plain Go values: strings, int64 for
// whole numbers, float64 otherwise, bools, []any and map[string]any.
func ctyToNative(v cty.Value) (any, error) {
	if v.IsNull() || !v.IsKnown() {
		return nil, nil
	}
	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil
	case ty == cty.Number:
		if bf := v.AsBigFloat(); bf.IsInt() {
			if n, acc := bf.Int64(); acc == big.Exact {
				return n, nil
			}
		}
		var f float64
		if err := gocty.FromCtyValue(v, &f); err != nil {
			return nil, fmt.Errorf("number: %w", err)
		}
		return f, nil
	case ty == cty.Bool:
		return v.True(), nil
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		out := make([]any, 0, v.LengthInt())
		it := v.ElementIterator()
		for it.Next() {
			_, elem := it.Element()
			native, err := ctyToNative(elem)
			if err != nil {
				return nil, err
			}
			out = append(out, native)
		}
		return out, nil
	case ty.IsObjectType() || ty.IsMapType():
		out := make(map[string]any)
		it := v.ElementIterator()
		for it.Next() {
			key, elem := it.Element()
			native, err := ctyToNative(elem)
			if err != nil {
				return nil, fmt.Errorf("in attribute %q: %w", key.AsString(), err)
			}
			out[key.AsString()] = native
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported value type %s", ty.FriendlyName())
	}
}
