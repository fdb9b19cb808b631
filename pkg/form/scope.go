package form

import (
	"strings"

	"github.com/goliatone/go-formstate/pkg/pathtree"
)

// Scope is the channel through which fields reach their form. A Form is the
// root scope; Section wraps a scope to prefix paths.
type Scope interface {
	RegisterField(path string, initial FieldState, owner Owner) (*Handle, error)
	SectionPath() string
}

type section struct {
	parent Scope
	path   string
}

// Section returns a scope registering fields below name. Sections nest: the
// resulting path is the parent's section path joined with name. A nil parent
// yields a scope whose registrations fail with NoFormAncestorError.
func Section(parent Scope, name string) Scope {
	prefix := ""
	if parent != nil {
		prefix = parent.SectionPath()
	}
	return &section{parent: parent, path: pathtree.Join(prefix, name)}
}

func (s *section) SectionPath() string {
	return s.path
}

func (s *section) RegisterField(path string, initial FieldState, owner Owner) (*Handle, error) {
	if s.parent == nil {
		return nil, &NoFormAncestorError{Path: path}
	}
	return s.parent.RegisterField(path, initial, owner)
}

// FieldPath joins the scope's section path with name. Unlike pathtree.Join an
// empty name is kept, so the registry can reject it.
func FieldPath(scope Scope, name string) string {
	name = strings.TrimSpace(name)
	if scope == nil || scope.SectionPath() == "" {
		return name
	}
	return scope.SectionPath() + pathtree.Separator + name
}
