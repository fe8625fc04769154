package uritemplate

import (
	"errors"
	"fmt"
)

// ErrDuplicateName is returned by Set.Add when the name is already present.
var ErrDuplicateName = errors.New("uritemplate: duplicate name")

type entry struct {
	name string
	tmpl *Template
}

// Set is an ordered collection of named templates. When several templates
// match one URI the earliest added wins.
//
// A Set is not safe for concurrent mutation; populate it before sharing.
type Set struct {
	entries []entry
	index   map[string]int
}

// Add appends a named template. A duplicate name leaves the set unchanged.
func (s *Set) Add(name string, t *Template) error {
	if t == nil {
		return fmt.Errorf("uritemplate: nil template for %q", name)
	}
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if _, exists := s.index[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	s.index[name] = len(s.entries)
	s.entries = append(s.entries, entry{name: name, tmpl: t})
	return nil
}

// Len returns the number of templates in the set.
func (s *Set) Len() int { return len(s.entries) }

// Get returns the template registered under name.
func (s *Set) Get(name string) (*Template, bool) {
	i, ok := s.index[name]
	if !ok {
		return nil, false
	}
	return s.entries[i].tmpl, true
}

// Resolve returns the name and bindings of the first template matching uri.
func (s *Set) Resolve(uri string) (string, Params, bool) {
	for _, e := range s.entries {
		if p, ok := e.tmpl.Match(uri); ok {
			return e.name, p, true
		}
	}
	return "", nil, false
}
