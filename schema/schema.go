// Package schema declares tool input contracts and validates caller supplied
// arguments against them.
//
// A contract is a tree of Schema values. Objects hold an ordered list of
// fields, arrays hold an item schema, and leaves are strings, numbers,
// booleans or string enumerations. The same recursive validator interprets
// every contract, so tool arguments and nested payloads share one code path:
//
//	in := schema.Object(
//	    schema.Prop("to", schema.String().Describe("Recipient phone number"), schema.Required()),
//	    schema.Prop("previewUrl", schema.Boolean(), schema.Default(false)),
//	)
//	args, err := schema.ValidateJSON(in, raw)
package schema

import "slices"

// Kind identifies the variant of a Schema.
type Kind int

const (
	KindString Kind = iota + 1
	KindNumber
	KindBoolean
	KindArray
	KindObject
	KindEnum
)

// String returns the JSON type name used in validation messages.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	case KindEnum:
		return "enum"
	default:
		return "unknown"
	}
}

// Supported string formats.
const (
	FormatURI   = "uri"
	FormatEmail = "email"
)

// Schema is a node of a declarative input contract. The zero value is not a
// valid contract; use the constructors.
type Schema struct {
	Kind        Kind
	Description string
	// Format optionally constrains string values (FormatURI, FormatEmail).
	Format string
	// Values lists the allowed values of a KindEnum schema.
	Values []string
	// Items is the element contract of a KindArray schema.
	Items *Schema
	// Fields is the ordered member list of a KindObject schema.
	Fields []Field
}

// Field is a named member of an object contract.
type Field struct {
	Name     string
	Required bool
	// Default is substituted when the caller omits the field. A nil Default
	// means the field has none.
	Default any
	Schema  Schema
}

// HasDefault reports whether the field declares a default value.
func (f Field) HasDefault() bool { return f.Default != nil }

// String returns a string contract.
func String() Schema { return Schema{Kind: KindString} }

// Number returns a number contract. Integers and floats are both accepted.
func Number() Schema { return Schema{Kind: KindNumber} }

// Boolean returns a boolean contract.
func Boolean() Schema { return Schema{Kind: KindBoolean} }

// Enum returns a contract restricting a string to the given values.
func Enum(values ...string) Schema {
	return Schema{Kind: KindEnum, Values: slices.Clone(values)}
}

// ArrayOf returns an array contract whose elements follow item.
func ArrayOf(item Schema) Schema {
	return Schema{Kind: KindArray, Items: &item}
}

// Object returns an object contract with the given fields in order.
func Object(fields ...Field) Schema {
	return Schema{Kind: KindObject, Fields: slices.Clone(fields)}
}

// Describe returns a copy of s carrying a human readable description.
func (s Schema) Describe(desc string) Schema {
	s.Description = desc
	return s
}

// WithFormat returns a copy of a string schema constrained to format.
func (s Schema) WithFormat(format string) Schema {
	s.Format = format
	return s
}

// FieldOption configures a Field built by Prop.
type FieldOption func(*Field)

// Required marks the field as mandatory.
func Required() FieldOption {
	return func(f *Field) { f.Required = true }
}

// Default sets the value substituted when the field is absent.
func Default(v any) FieldOption {
	return func(f *Field) { f.Default = v }
}

// Prop builds an object member.
func Prop(name string, s Schema, opts ...FieldOption) Field {
	f := Field{Name: name, Schema: s}
	for _, opt := range opts {
		opt(&f)
	}
	return f
}
