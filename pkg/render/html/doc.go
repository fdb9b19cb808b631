// Package html renders a form definition and the live state of its fields as
// an HTML form using pongo2 templates. Themes from go-theme contribute CSS
// variables and a stylesheet link.
package html
