package schema

import "github.com/invopop/jsonschema"

// JSONSchema renders the contract as a JSON Schema document. Object
// properties keep their declared order. Objects allow additional properties
// because the validator ignores undeclared fields.
func (s Schema) JSONSchema() *jsonschema.Schema {
	out := &jsonschema.Schema{Description: s.Description}
	switch s.Kind {
	case KindString:
		out.Type = "string"
		out.Format = s.Format
	case KindNumber:
		out.Type = "number"
	case KindBoolean:
		out.Type = "boolean"
	case KindEnum:
		out.Type = "string"
		out.Enum = make([]any, len(s.Values))
		for i, v := range s.Values {
			out.Enum[i] = v
		}
	case KindArray:
		out.Type = "array"
		if s.Items != nil {
			out.Items = s.Items.JSONSchema()
		}
	case KindObject:
		out.Type = "object"
		out.Properties = jsonschema.NewProperties()
		for _, f := range s.Fields {
			prop := f.Schema.JSONSchema()
			if f.HasDefault() {
				prop.Default = f.Default
			}
			out.Properties.Set(f.Name, prop)
			if f.Required && !f.HasDefault() {
				out.Required = append(out.Required, f.Name)
			}
		}
		out.AdditionalProperties = jsonschema.TrueSchema
	}
	return out
}
