// Package uritemplate matches concrete resource URIs against templates with
// whole-segment placeholders such as "whatsapp://templates/{category}".
//
// Matching is purely segment based: the template and the candidate are split
// on "/", literal segments must be equal (case-sensitive) and a placeholder
// segment matches exactly one non-empty candidate segment. There is no
// partial, greedy or multi-segment matching.
package uritemplate

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyTemplate        = errors.New("uritemplate: empty template")
	ErrDuplicatePlaceholder = errors.New("uritemplate: duplicate placeholder")
	ErrMalformedPlaceholder = errors.New("uritemplate: malformed placeholder")
	ErrUnboundPlaceholder   = errors.New("uritemplate: unbound placeholder")
)

// Params maps placeholder names to the segment values bound by a match.
type Params map[string]string

type segment struct {
	literal string
	param   string // placeholder name; empty for literal segments
}

// Template is a parsed URI template. It is immutable and safe for concurrent
// use.
type Template struct {
	raw      string
	segments []segment
	names    []string
}

// Parse parses a template. Placeholders must occupy a whole segment, have a
// non-empty name and be unique within the template.
func Parse(raw string) (*Template, error) {
	if raw == "" {
		return nil, ErrEmptyTemplate
	}
	parts := strings.Split(raw, "/")
	t := &Template{raw: raw, segments: make([]segment, len(parts))}
	seen := make(map[string]struct{})
	for i, p := range parts {
		hasOpen, hasClose := strings.Contains(p, "{"), strings.Contains(p, "}")
		if !hasOpen && !hasClose {
			t.segments[i] = segment{literal: p}
			continue
		}
		if !strings.HasPrefix(p, "{") || !strings.HasSuffix(p, "}") || strings.Count(p, "{") != 1 || strings.Count(p, "}") != 1 {
			return nil, fmt.Errorf("%w: segment %q in %q", ErrMalformedPlaceholder, p, raw)
		}
		name := p[1 : len(p)-1]
		if name == "" {
			return nil, fmt.Errorf("%w: empty name in %q", ErrMalformedPlaceholder, raw)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: %q in %q", ErrDuplicatePlaceholder, name, raw)
		}
		seen[name] = struct{}{}
		t.segments[i] = segment{param: name}
		t.names = append(t.names, name)
	}
	return t, nil
}

// MustParse is like Parse but panics on error. It is intended for templates
// declared as package-level literals.
func MustParse(raw string) *Template {
	t, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return t
}

// String returns the template source.
func (t *Template) String() string { return t.raw }

// Names returns the placeholder names in template order.
func (t *Template) Names() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// IsFixed reports whether the template has no placeholders, i.e. it names
// exactly one URI.
func (t *Template) IsFixed() bool { return len(t.names) == 0 }

// Match reports whether uri matches the template and, if so, returns the
// bound parameters. Every placeholder is bound on success.
func (t *Template) Match(uri string) (Params, bool) {
	parts := strings.Split(uri, "/")
	if len(parts) != len(t.segments) {
		return nil, false
	}
	params := make(Params, len(t.names))
	for i, seg := range t.segments {
		if seg.param == "" {
			if parts[i] != seg.literal {
				return nil, false
			}
			continue
		}
		if parts[i] == "" {
			return nil, false
		}
		params[seg.param] = parts[i]
	}
	return params, true
}

// Expand substitutes params into the template. Every placeholder must be
// bound to a non-empty value without "/".
func (t *Template) Expand(params Params) (string, error) {
	parts := make([]string, len(t.segments))
	for i, seg := range t.segments {
		if seg.param == "" {
			parts[i] = seg.literal
			continue
		}
		v, ok := params[seg.param]
		if !ok || v == "" {
			return "", fmt.Errorf("%w: %q in %q", ErrUnboundPlaceholder, seg.param, t.raw)
		}
		if strings.Contains(v, "/") {
			return "", fmt.Errorf("uritemplate: value for %q contains a path separator", seg.param)
		}
		parts[i] = v
	}
	return strings.Join(parts, "/"), nil
}

// ExpandEach expands the template once per value of its single placeholder.
// It is a convenience for enumerators of one-parameter template families.
func (t *Template) ExpandEach(values ...string) ([]string, error) {
	if len(t.names) != 1 {
		return nil, fmt.Errorf("uritemplate: %q has %d placeholders, want 1", t.raw, len(t.names))
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		u, err := t.Expand(Params{t.names[0]: v})
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

// CheckEnumerated returns an error naming the first URI in uris that does not
// match t.
func CheckEnumerated(t *Template, uris []string) error {
	for _, u := range uris {
		if _, ok := t.Match(u); !ok {
			return fmt.Errorf("uritemplate: enumerated uri %q does not match template %q", u, t.raw)
		}
	}
	return nil
}
