package openapi

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formstate/pkg/formdef"
	"github.com/goliatone/go-formstate/pkg/validation"
)

// ExtensionKey is the vendor extension read from schemas. It accepts
// "label", "type", "valueKey", "sanitize" and, on objects, "order" (a list of
// property names rendered first).
const ExtensionKey = "x-formstate"

// Definition derives a form definition from the request body of the operation
// with the given ID. Object properties become fields, nested objects become
// sections, and schema constraints become validation rules.
func (d *Document) Definition(operationID string) (formdef.Definition, error) {
	op, ok := d.operations[operationID]
	if !ok {
		return formdef.Definition{}, fmt.Errorf("%w: %s", ErrOperationNotFound, operationID)
	}
	root := op.body.Value
	if root == nil {
		return formdef.Definition{}, fmt.Errorf("openapi: operation %s: unresolved request schema %s", operationID, op.body.Ref)
	}
	if !hasType(root, openapi3.TypeObject) && len(root.Properties) == 0 {
		return formdef.Definition{}, fmt.Errorf("openapi: operation %s: request body is not an object", operationID)
	}

	visiting := map[*openapi3.Schema]bool{root: true}
	def := formdef.Definition{
		Name:   operationID,
		Fields: objectFields(root, visiting),
		Source: d.Location,
	}
	if err := def.Validate(); err != nil {
		return formdef.Definition{}, err
	}
	return def, nil
}

func objectFields(schema *openapi3.Schema, visiting map[*openapi3.Schema]bool) []formdef.FieldDef {
	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}

	var fields []formdef.FieldDef
	for _, name := range propertyOrder(schema) {
		ref := schema.Properties[name]
		if ref == nil || ref.Value == nil {
			continue
		}
		prop := ref.Value
		if visiting[prop] {
			continue
		}
		fields = append(fields, convertProperty(name, prop, required[name], visiting))
	}
	return fields
}

func convertProperty(name string, schema *openapi3.Schema, required bool, visiting map[*openapi3.Schema]bool) formdef.FieldDef {
	ext := extension(schema)
	def := formdef.FieldDef{
		Name:        name,
		Label:       firstString(ext["label"], schema.Title),
		Description: schema.Description,
		Default:     schema.Default,
		ValueKey:    firstString(ext["valueKey"]),
	}
	if sanitize, ok := ext["sanitize"].(bool); ok {
		def.Sanitize = sanitize
	}

	if hasType(schema, openapi3.TypeObject) && len(schema.Properties) > 0 {
		visiting[schema] = true
		def.Type = formdef.TypeSection
		def.Fields = objectFields(schema, visiting)
		delete(visiting, schema)
		def.Default = nil
		return def
	}

	def.Type = fieldType(schema)
	if override := firstString(ext["type"]); override != "" {
		def.Type = override
	}
	for _, option := range schema.Enum {
		def.Options = append(def.Options, fmt.Sprint(option))
	}
	def.Rules = rules(schema, required)
	return def
}

func fieldType(schema *openapi3.Schema) string {
	switch {
	case hasType(schema, openapi3.TypeBoolean):
		return formdef.TypeCheckbox
	case hasType(schema, openapi3.TypeArray):
		return formdef.TypeArray
	case hasType(schema, openapi3.TypeObject):
		return formdef.TypeObject
	case hasType(schema, openapi3.TypeInteger), hasType(schema, openapi3.TypeNumber):
		return "number"
	case len(schema.Enum) > 0:
		return "select"
	}
	switch schema.Format {
	case "email", "password", "date", "date-time", "uri":
		return schema.Format
	}
	if schema.MaxLength != nil && *schema.MaxLength > 255 {
		return "textarea"
	}
	return formdef.TypeText
}

func rules(schema *openapi3.Schema, required bool) []validation.Rule {
	var out []validation.Rule
	if required {
		out = append(out, validation.Rule{Kind: validation.RuleRequired})
	}
	if schema.MinLength > 0 {
		out = append(out, valueRule(validation.RuleMinLength, strconv.FormatUint(schema.MinLength, 10)))
	}
	if schema.MaxLength != nil {
		out = append(out, valueRule(validation.RuleMaxLength, strconv.FormatUint(*schema.MaxLength, 10)))
	}
	if schema.Pattern != "" {
		out = append(out, validation.Rule{Kind: validation.RulePattern, Params: map[string]string{"pattern": schema.Pattern}})
	}
	if schema.Min != nil {
		out = append(out, valueRule(validation.RuleMin, strconv.FormatFloat(*schema.Min, 'f', -1, 64)))
	}
	if schema.Max != nil {
		out = append(out, valueRule(validation.RuleMax, strconv.FormatFloat(*schema.Max, 'f', -1, 64)))
	}
	if len(schema.Enum) > 0 && !hasType(schema, openapi3.TypeArray) {
		values := make([]string, 0, len(schema.Enum))
		for _, option := range schema.Enum {
			values = append(values, fmt.Sprint(option))
		}
		out = append(out, validation.Rule{Kind: validation.RuleEnum, Params: map[string]string{"values": strings.Join(values, ",")}})
	}
	return out
}

func valueRule(kind, value string) validation.Rule {
	return validation.Rule{Kind: kind, Params: map[string]string{"value": value}}
}

func propertyOrder(schema *openapi3.Schema) []string {
	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	order, _ := extension(schema)["order"].([]any)
	if len(order) == 0 {
		return names
	}
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, raw := range order {
		name, ok := raw.(string)
		if !ok || seen[name] {
			continue
		}
		if _, exists := schema.Properties[name]; !exists {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	for _, name := range names {
		if !seen[name] {
			out = append(out, name)
		}
	}
	return out
}

func extension(schema *openapi3.Schema) map[string]any {
	if schema == nil || schema.Extensions == nil {
		return nil
	}
	ext, _ := schema.Extensions[ExtensionKey].(map[string]any)
	return ext
}

func hasType(schema *openapi3.Schema, kind string) bool {
	return schema.Type != nil && schema.Type.Includes(kind)
}

func firstString(values ...any) string {
	for _, value := range values {
		if s, ok := value.(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}
