// Package terminal hosts a form in an interactive terminal session. Each field
// of a definition is prompted in order and driven through focus, change and
// blur so it validates exactly as it would in any other host; invalid answers
// are re-prompted.
package terminal
