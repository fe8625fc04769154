package mcp

import (
	"slices"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ClientCapabilities advertises client features. The server does not use any
// of them but accepts the shape during initialize.
type ClientCapabilities struct {
	Roots *struct {
		ListChanged bool `json:"listChanged"`
	} `json:"roots,omitempty"`
	Sampling    *struct{} `json:"sampling,omitempty"`
	Elicitation *struct{} `json:"elicitation,omitempty"`
}

// ServerCapabilities advertises server features.
type ServerCapabilities struct {
	Resources *ResourcesCapability `json:"resources,omitempty"`
	Tools     *ToolsCapability     `json:"tools,omitempty"`
}

// ResourcesCapability advertises resource support. The catalogue is fixed, so
// neither list-changed notifications nor subscriptions are offered.
type ResourcesCapability struct {
	ListChanged bool `json:"listChanged"`
	Subscribe   bool `json:"subscribe"`
}

// ToolsCapability advertises tool support.
type ToolsCapability struct {
	ListChanged bool `json:"listChanged"`
}

// ImplementationInfo describes the implementation name and version.
type ImplementationInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Title   string `json:"title,omitzero"`
}

// ContentTypeText is the only content block type this server emits.
const ContentTypeText = "text"

// ContentBlock is a typed content part of a tool result.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Tools
// Tool describes a callable tool and its input schema.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema ToolInputSchema `json:"inputSchema"`
}

// ToolInputSchema is a JSON-schema-like description of tool input.
type ToolInputSchema struct {
	Type                 string                                         `json:"type"`
	Properties           *orderedmap.OrderedMap[string, SchemaProperty] `json:"properties,omitempty"`
	Required             []string                                       `json:"required,omitempty"`
	AdditionalProperties bool                                           `json:"additionalProperties,omitzero"`
}

// SchemaProperty is a simplified schema node used in tool input schemas.
type SchemaProperty struct {
	Type        string                                         `json:"type,omitempty"`
	Description string                                         `json:"description,omitzero"`
	Format      string                                         `json:"format,omitzero"`
	Default     any                                            `json:"default,omitempty"`
	Items       *SchemaProperty                                `json:"items,omitempty"`
	Properties  *orderedmap.OrderedMap[string, SchemaProperty] `json:"properties,omitempty"`
	Required    []string                                       `json:"required,omitempty"`
	Enum        []any                                          `json:"enum,omitempty"`
}

// NewSchemaProperties returns an empty property map. Properties marshal in
// insertion order.
func NewSchemaProperties() *orderedmap.OrderedMap[string, SchemaProperty] {
	return orderedmap.New[string, SchemaProperty]()
}

// Resources
// Resource represents an addressable resource.
type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitzero"`
	MimeType    string `json:"mimeType,omitzero"`
}

// ResourceTemplate describes a template for resource URIs.
type ResourceTemplate struct {
	URITemplate string `json:"uriTemplate"`
	Name        string `json:"name"`
	Description string `json:"description,omitzero"`
	MimeType    string `json:"mimeType,omitzero"`
}

// ResourceContents is the value of a resource read.
type ResourceContents struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitzero"`
	Text     string `json:"text"`
}

// LatestProtocolVersion is the latest version of the protocol.
const LatestProtocolVersion = "2025-06-18"

// SupportedProtocolVersions lists the protocol revisions accepted during
// initialize, newest first.
var SupportedProtocolVersions = []string{LatestProtocolVersion, "2025-03-26", "2024-11-05"}

// NegotiateProtocolVersion returns requested if the server supports it and
// LatestProtocolVersion otherwise.
func NegotiateProtocolVersion(requested string) string {
	if slices.Contains(SupportedProtocolVersions, requested) {
		return requested
	}
	return LatestProtocolVersion
}
