package mcpservice

import (
	"errors"
	"fmt"

	"github.com/ggoodman/mcp-whatsapp-go/mcp"
	"github.com/ggoodman/mcp-whatsapp-go/schema"
	"github.com/ggoodman/mcp-whatsapp-go/uritemplate"
)

// Registry is the catalogue of tools and resources. It is populated once at
// startup and only read afterwards, so lookups take no locks. Do not register
// while a Dispatcher built on the registry is serving requests.
type Registry struct {
	tools     []ToolDescriptor
	toolIndex map[string]int

	resources []ResourceDescriptor
	resIndex  map[string]int
	templates uritemplate.Set
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{toolIndex: make(map[string]int), resIndex: make(map[string]int)}
}

// RegisterTool adds a tool. A duplicate name fails with a KindDuplicateName
// error and leaves the registry unchanged.
func (r *Registry) RegisterTool(d ToolDescriptor) error {
	if d.Name == "" {
		return errors.New("mcpservice: tool name is required")
	}
	if d.Handler == nil {
		return fmt.Errorf("mcpservice: tool %q has no handler", d.Name)
	}
	if d.Input.Kind == 0 {
		d.Input = schema.Object()
	}
	if d.Input.Kind != schema.KindObject {
		return fmt.Errorf("mcpservice: tool %q input contract must be an object", d.Name)
	}
	if _, exists := r.toolIndex[d.Name]; exists {
		return Errorf(KindDuplicateName, "Duplicate tool name: %s", d.Name)
	}
	r.toolIndex[d.Name] = len(r.tools)
	r.tools = append(r.tools, d)
	return nil
}

// RegisterResource adds a resource family. A duplicate name fails with a
// KindDuplicateName error and leaves the registry unchanged. An enumerator
// that fails, or produces a URI its own template does not match, is rejected.
func (r *Registry) RegisterResource(d ResourceDescriptor) error {
	if d.Name == "" {
		return errors.New("mcpservice: resource name is required")
	}
	if d.Template == nil {
		return fmt.Errorf("mcpservice: resource %q has no uri template", d.Name)
	}
	if d.Handler == nil {
		return fmt.Errorf("mcpservice: resource %q has no handler", d.Name)
	}
	if _, exists := r.resIndex[d.Name]; exists {
		return Errorf(KindDuplicateName, "Duplicate resource name: %s", d.Name)
	}
	if d.Enumerator != nil {
		uris, err := d.Enumerator()
		if err != nil {
			return fmt.Errorf("mcpservice: resource %q: enumerate: %w", d.Name, err)
		}
		if err := uritemplate.CheckEnumerated(d.Template, uris); err != nil {
			return fmt.Errorf("mcpservice: resource %q: %w", d.Name, err)
		}
	}
	if err := r.templates.Add(d.Name, d.Template); err != nil {
		return err
	}
	r.resIndex[d.Name] = len(r.resources)
	r.resources = append(r.resources, d)
	return nil
}

// MustRegister registers every descriptor and panics on the first error.
// Accepted values are ToolDescriptor and ResourceDescriptor.
func (r *Registry) MustRegister(descs ...any) {
	for _, d := range descs {
		var err error
		switch d := d.(type) {
		case ToolDescriptor:
			err = r.RegisterTool(d)
		case ResourceDescriptor:
			err = r.RegisterResource(d)
		default:
			err = fmt.Errorf("mcpservice: cannot register %T", d)
		}
		if err != nil {
			panic(err)
		}
	}
}

// LookupTool returns the tool registered under name.
func (r *Registry) LookupTool(name string) (ToolDescriptor, bool) {
	i, ok := r.toolIndex[name]
	if !ok {
		return ToolDescriptor{}, false
	}
	return r.tools[i], true
}

// LookupResource resolves uri against the registered templates in
// registration order and returns the first match with its bindings.
func (r *Registry) LookupResource(uri string) (ResourceDescriptor, uritemplate.Params, bool) {
	name, params, ok := r.templates.Resolve(uri)
	if !ok {
		return ResourceDescriptor{}, nil, false
	}
	return r.resources[r.resIndex[name]], params, true
}

// ListTools returns the public metadata of every tool in registration order.
func (r *Registry) ListTools() []mcp.Tool {
	out := make([]mcp.Tool, len(r.tools))
	for i, d := range r.tools {
		out[i] = d.Metadata()
	}
	return out
}

// ToolNames returns the registered tool names in order.
func (r *Registry) ToolNames() []string {
	out := make([]string, len(r.tools))
	for i, d := range r.tools {
		out[i] = d.Name
	}
	return out
}

// Tools returns a copy of the registered tool descriptors.
func (r *Registry) Tools() []ToolDescriptor {
	return append([]ToolDescriptor(nil), r.tools...)
}

// Resources returns a copy of the registered resource descriptors.
func (r *Registry) Resources() []ResourceDescriptor {
	return append([]ResourceDescriptor(nil), r.resources...)
}

// ListResources returns the concrete resources: fixed URIs plus the output
// of every enumerator. Enumerated URIs are re-checked against their template
// and the first inconsistent one is reported as an error.
func (r *Registry) ListResources() ([]mcp.Resource, error) {
	var out []mcp.Resource
	for _, d := range r.resources {
		uris, err := d.concrete()
		if err != nil {
			return nil, fmt.Errorf("mcpservice: resource %q: enumerate: %w", d.Name, err)
		}
		if !d.Template.IsFixed() {
			if err := uritemplate.CheckEnumerated(d.Template, uris); err != nil {
				return nil, fmt.Errorf("mcpservice: resource %q: %w", d.Name, err)
			}
		}
		for _, u := range uris {
			out = append(out, d.resource(u))
		}
	}
	return out, nil
}

// ListResourceTemplates returns every templated resource family.
func (r *Registry) ListResourceTemplates() []mcp.ResourceTemplate {
	var out []mcp.ResourceTemplate
	for _, d := range r.resources {
		if d.Template.IsFixed() {
			continue
		}
		out = append(out, d.template())
	}
	return out
}
