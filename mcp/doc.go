// Package mcp contains the Model Context Protocol data types and constants
// shared by the stdio and HTTP entry surfaces. It mirrors the wire
// representation of the protocol while keeping the surface Go-friendly
// (exported structs with json tags, string constants for method names).
//
// The package is free of transport logic. Transports own framing; the
// mcpservice package builds results from these types and the envelope
// builders hand them to the transport for serialization.
//
// # Method Names
//
// JSON-RPC method and notification names are enumerated as Method constants
// (e.g. ToolsListMethod). Using the constants avoids typographical mistakes
// and keeps one point of truth if the protocol evolves.
//
// # Capabilities
//
// ServerCapabilities is advertised in the initialize result. This server only
// exposes tools and resources, and neither list ever changes at runtime.
//
// Example (tool result construction):
//
//	res := &mcp.CallToolResult{
//	    Content: []mcp.ContentBlock{{Type: mcp.ContentTypeText, Text: "hello"}},
//	}
//
// # Compatibility
//
// LatestProtocolVersion is the most recent protocol revision the server
// targets. SupportedProtocolVersions lists every revision accepted during the
// initialize handshake.
package mcp
