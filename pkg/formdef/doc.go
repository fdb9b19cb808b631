// Package formdef loads declarative form definitions and mounts them as
// fields on a form.
//
// Definitions are written in JSON, YAML or HCL. A field with nested fields is
// a section; sections become form.Section scopes when mounted. Validation
// rules use the kinds understood by validation.FromRules.
package formdef
