package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"slices"
	"strings"
)

// ErrRootNotObject is returned when Validate is given a contract whose root is
// not an object.
var ErrRootNotObject = errors.New("schema: root contract must be an object")

// Issue is a single validation failure located by its argument path, for
// example "components[0].parameters[1].type".
type Issue struct {
	Path   string
	Reason string
}

func (i Issue) String() string {
	if i.Path == "" {
		return i.Reason
	}
	return i.Path + ": " + i.Reason
}

// ValidationError reports every issue found in one argument object, in
// contract order.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, is := range e.Issues {
		parts[i] = is.String()
	}
	return "invalid arguments: " + strings.Join(parts, "; ")
}

// Paths returns the paths of all issues.
func (e *ValidationError) Paths() []string {
	out := make([]string, len(e.Issues))
	for i, is := range e.Issues {
		out[i] = is.Path
	}
	return out
}

// ValidateJSON decodes raw and validates it against contract. An empty or
// null payload is treated as an empty object.
func ValidateJSON(contract Schema, raw json.RawMessage) (Args, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Validate(contract, nil)
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, &ValidationError{Issues: []Issue{{Reason: fmt.Sprintf("arguments are not valid JSON: %v", err)}}}
	}
	return Validate(contract, v)
}

// Validate checks raw against an object contract and returns the coerced
// arguments. Defaults are substituted for absent fields, numbers are
// normalised to float64 and fields the contract does not declare are dropped.
func Validate(contract Schema, raw any) (Args, error) {
	if contract.Kind != KindObject {
		return nil, ErrRootNotObject
	}
	if raw == nil {
		raw = map[string]any{}
	}
	v := &validator{}
	out := v.value("", contract, raw)
	if len(v.issues) > 0 {
		return nil, &ValidationError{Issues: v.issues}
	}
	m, _ := out.(map[string]any)
	return Args(m), nil
}

type validator struct {
	issues []Issue
}

func (v *validator) fail(path, format string, a ...any) {
	v.issues = append(v.issues, Issue{Path: path, Reason: fmt.Sprintf(format, a...)})
}

func (v *validator) value(path string, s Schema, in any) any {
	switch s.Kind {
	case KindString:
		str, ok := in.(string)
		if !ok {
			v.fail(path, "expected string, got %s", kindOf(in))
			return nil
		}
		v.format(path, s.Format, str)
		return str

	case KindNumber:
		n, ok := toFloat(in)
		if !ok {
			v.fail(path, "expected number, got %s", kindOf(in))
			return nil
		}
		return n

	case KindBoolean:
		b, ok := in.(bool)
		if !ok {
			v.fail(path, "expected boolean, got %s", kindOf(in))
			return nil
		}
		return b

	case KindEnum:
		str, ok := in.(string)
		if !ok {
			v.fail(path, "expected string (one of: %s), got %s", strings.Join(s.Values, ", "), kindOf(in))
			return nil
		}
		if !slices.Contains(s.Values, str) {
			v.fail(path, "must be one of: %s", strings.Join(s.Values, ", "))
			return nil
		}
		return str

	case KindArray:
		items, ok := toSlice(in)
		if !ok {
			v.fail(path, "expected array, got %s", kindOf(in))
			return nil
		}
		out := make([]any, len(items))
		for i, item := range items {
			p := fmt.Sprintf("%s[%d]", path, i)
			if s.Items == nil {
				out[i] = item
				continue
			}
			if item == nil {
				v.fail(p, "expected %s, got null", s.Items.Kind)
				continue
			}
			out[i] = v.value(p, *s.Items, item)
		}
		return out

	case KindObject:
		m, ok := in.(map[string]any)
		if !ok {
			v.fail(path, "expected object, got %s", kindOf(in))
			return nil
		}
		out := make(map[string]any, len(s.Fields))
		for _, f := range s.Fields {
			p := join(path, f.Name)
			fv, present := m[f.Name]
			switch {
			case present && fv != nil:
				out[f.Name] = v.value(p, f.Schema, fv)
			case f.HasDefault():
				out[f.Name] = v.value(p, f.Schema, f.Default)
			case f.Required:
				v.fail(p, "required field missing")
			}
		}
		return out
	}

	v.fail(path, "unsupported contract kind %d", s.Kind)
	return nil
}

func (v *validator) format(path, format, s string) {
	switch format {
	case FormatURI:
		u, err := url.ParseRequestURI(s)
		if err != nil || u.Scheme == "" || u.Host == "" {
			v.fail(path, "must be a valid URL")
		}
	case FormatEmail:
		addr, err := mail.ParseAddress(s)
		if err != nil || addr.Address != s {
			v.fail(path, "must be a valid email address")
		}
	}
}

func join(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

func toFloat(in any) (float64, bool) {
	switch n := in.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func toSlice(in any) ([]any, bool) {
	switch s := in.(type) {
	case []any:
		return s, true
	case []string:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out, true
	case []map[string]any:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out, true
	}
	return nil, false
}

func kindOf(in any) string {
	switch in.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, float32, int, int32, int64, uint, uint32, uint64, json.Number:
		return "number"
	case []any, []string, []map[string]any:
		return "array"
	case map[string]any:
		return "object"
	}
	return fmt.Sprintf("%T", in)
}
