package mcpservice

import (
	"context"

	"github.com/ggoodman/mcp-whatsapp-go/mcp"
	"github.com/ggoodman/mcp-whatsapp-go/schema"
	"github.com/invopop/jsonschema"
)

// ToolHandler runs a tool with arguments that already passed validation
// against the tool's input contract.
type ToolHandler func(ctx context.Context, args schema.Args) Result

// ToolDescriptor pairs a tool's public metadata with its handler.
type ToolDescriptor struct {
	Name        string
	Description string
	// Input is the object contract arguments are validated against.
	Input   schema.Schema
	Handler ToolHandler
}

// ToolOption configures NewTool.
type ToolOption func(*ToolDescriptor)

// WithToolDescription sets the tool description used in listings.
func WithToolDescription(desc string) ToolOption {
	return func(d *ToolDescriptor) { d.Description = desc }
}

// WithToolInput declares the tool's input fields.
func WithToolInput(fields ...schema.Field) ToolOption {
	return func(d *ToolDescriptor) { d.Input = schema.Object(fields...) }
}

// NewTool builds a descriptor. Without WithToolInput the tool takes an empty
// object.
func NewTool(name string, h ToolHandler, opts ...ToolOption) ToolDescriptor {
	d := ToolDescriptor{Name: name, Handler: h, Input: schema.Object()}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// Metadata returns the descriptor as advertised by tools/list.
func (d ToolDescriptor) Metadata() mcp.Tool {
	return mcp.Tool{
		Name:        d.Name,
		Description: d.Description,
		InputSchema: toMCPInputSchema(d.Input.JSONSchema()),
	}
}

// toMCPInputSchema down-converts a rendered contract to MCP's simplified
// ToolInputSchema.
func toMCPInputSchema(s *jsonschema.Schema) mcp.ToolInputSchema {
	props := mcp.NewSchemaProperties()
	if s.Properties != nil {
		for el := s.Properties.Oldest(); el != nil; el = el.Next() {
			props.Set(el.Key, toMCPProperty(el.Value))
		}
	}
	var required []string
	if len(s.Required) > 0 {
		required = append(required, s.Required...)
	}
	return mcp.ToolInputSchema{
		Type:                 "object",
		Properties:           props,
		Required:             required,
		AdditionalProperties: true,
	}
}

// toMCPProperty recursively maps a jsonschema.Schema to the simplified MCP SchemaProperty.
func toMCPProperty(s *jsonschema.Schema) mcp.SchemaProperty {
	if s == nil {
		return mcp.SchemaProperty{}
	}
	p := mcp.SchemaProperty{
		Type:        s.Type,
		Description: s.Description,
		Format:      s.Format,
		Default:     s.Default,
	}
	if len(s.Enum) > 0 {
		p.Enum = s.Enum
	}
	if s.Type == "array" && s.Items != nil {
		item := toMCPProperty(s.Items)
		p.Items = &item
	}
	if s.Type == "object" && s.Properties != nil {
		m := mcp.NewSchemaProperties()
		for el := s.Properties.Oldest(); el != nil; el = el.Next() {
			m.Set(el.Key, toMCPProperty(el.Value))
		}
		p.Properties = m
		if len(s.Required) > 0 {
			p.Required = append([]string(nil), s.Required...)
		}
	}
	return p
}
