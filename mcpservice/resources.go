package mcpservice

import (
	"context"

	"github.com/ggoodman/mcp-whatsapp-go/mcp"
	"github.com/ggoodman/mcp-whatsapp-go/uritemplate"
)

// ResourceHandler reads a resource. params binds every placeholder of the
// matched template.
type ResourceHandler func(ctx context.Context, uri string, params uritemplate.Params) Result

// ResourceDescriptor describes a resource family addressed by a URI template.
// A template without placeholders names a single resource.
type ResourceDescriptor struct {
	Name        string
	Description string
	MimeType    string
	Template    *uritemplate.Template
	// Enumerator optionally lists the concrete URIs of a templated family for
	// resources/list. Every URI must match Template. An error fails
	// registration and resources/list.
	Enumerator func() ([]string, error)
	Handler    ResourceHandler
}

// ResourceOption configures NewResource.
type ResourceOption func(*ResourceDescriptor)

// WithResourceDescription sets the description used in listings.
func WithResourceDescription(desc string) ResourceOption {
	return func(d *ResourceDescriptor) { d.Description = desc }
}

// WithResourceMimeType sets the MIME type advertised for the resource.
func WithResourceMimeType(mt string) ResourceOption {
	return func(d *ResourceDescriptor) { d.MimeType = mt }
}

// WithEnumerator sets the URI enumerator of a templated family.
func WithEnumerator(fn func() ([]string, error)) ResourceOption {
	return func(d *ResourceDescriptor) { d.Enumerator = fn }
}

// WithEnumeratedValues enumerates a one-placeholder family by expanding the
// template once per value.
func WithEnumeratedValues(values ...string) ResourceOption {
	return func(d *ResourceDescriptor) {
		t := d.Template
		d.Enumerator = func() ([]string, error) {
			return t.ExpandEach(values...)
		}
	}
}

// NewResource parses template and builds a descriptor. Options run after the
// template is parsed.
func NewResource(name, template string, h ResourceHandler, opts ...ResourceOption) (ResourceDescriptor, error) {
	t, err := uritemplate.Parse(template)
	if err != nil {
		return ResourceDescriptor{}, err
	}
	d := ResourceDescriptor{Name: name, Template: t, Handler: h, MimeType: "text/markdown"}
	for _, opt := range opts {
		opt(&d)
	}
	return d, nil
}

// concrete returns the URIs this descriptor contributes to resources/list.
func (d ResourceDescriptor) concrete() ([]string, error) {
	if d.Template.IsFixed() {
		return []string{d.Template.String()}, nil
	}
	if d.Enumerator == nil {
		return nil, nil
	}
	return d.Enumerator()
}

func (d ResourceDescriptor) resource(uri string) mcp.Resource {
	return mcp.Resource{URI: uri, Name: d.Name, Description: d.Description, MimeType: d.MimeType}
}

func (d ResourceDescriptor) template() mcp.ResourceTemplate {
	return mcp.ResourceTemplate{
		URITemplate: d.Template.String(),
		Name:        d.Name,
		Description: d.Description,
		MimeType:    d.MimeType,
	}
}
