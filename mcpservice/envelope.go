package mcpservice

import (
	"net/http"

	"github.com/ggoodman/mcp-whatsapp-go/internal/jsonrpc"
	"github.com/ggoodman/mcp-whatsapp-go/mcp"
)

// SyncResponse is the success body of the synchronous HTTP surface.
type SyncResponse struct {
	JSONRPCVersion string             `json:"jsonrpc"`
	ID             *jsonrpc.RequestID `json:"id"`
	Result         any                `json:"result"`
}

// SyncError is the failure body of the synchronous HTTP surface.
type SyncError struct {
	Error string `json:"error"`
}

// SyncEnvelope renders an outcome for the synchronous HTTP surface. Every
// failure, whatever its kind, is a 500 carrying only the message.
func SyncEnvelope(id *jsonrpc.RequestID, out Outcome) (int, any) {
	if e := out.Result.Err(); e != nil {
		return http.StatusInternalServerError, SyncError{Error: e.Message}
	}
	return http.StatusOK, SyncResponse{
		JSONRPCVersion: jsonrpc.ProtocolVersion,
		ID:             id,
		Result:         successPayload(out),
	}
}

// ProtocolEnvelope renders an outcome as a JSON-RPC response for the stdio
// protocol surface.
//
// Failures of a resolved tool (invalid arguments, upstream errors, panics)
// become isError tool content so the agent can read them. Upstream failures
// of a resource read are returned as the resource's text. Lookup failures map
// to JSON-RPC error codes.
func ProtocolEnvelope(id *jsonrpc.RequestID, out Outcome) *jsonrpc.Response {
	e := out.Result.Err()
	if e == nil {
		return resultResponse(id, successPayload(out))
	}

	switch e.Kind {
	case KindUnknownMethod:
		return jsonrpc.NewErrorResponse(id, jsonrpc.ErrorCodeMethodNotFound, e.Message, nil)
	case KindUnknownTool:
		return jsonrpc.NewErrorResponse(id, jsonrpc.ErrorCodeInvalidParams, e.Message, nil)
	case KindUnknownResource:
		return jsonrpc.NewErrorResponse(id, jsonrpc.ErrorCodeResourceNotFound, e.Message, map[string]string{"uri": out.URI})
	}

	if out.IsToolCall() && out.Tool != "" {
		return resultResponse(id, mcp.CallToolResult{
			Content: []mcp.ContentBlock{{Type: mcp.ContentTypeText, Text: e.Message}},
			IsError: true,
		})
	}
	if out.IsResourceRead() && e.Kind == KindUpstream {
		return resultResponse(id, readResult(out, e.Message))
	}
	if e.Kind == KindValidation {
		return jsonrpc.NewErrorResponse(id, jsonrpc.ErrorCodeInvalidParams, e.Message, nil)
	}
	return jsonrpc.NewErrorResponse(id, jsonrpc.ErrorCodeInternalError, e.Message, nil)
}

// successPayload is shared by both surfaces: tool text becomes a single
// content block, resource text a single contents entry, and list results are
// passed through.
func successPayload(out Outcome) any {
	switch {
	case out.IsToolCall():
		return mcp.CallToolResult{
			Content: []mcp.ContentBlock{{Type: mcp.ContentTypeText, Text: out.Result.TextPayload()}},
		}
	case out.IsResourceRead():
		return readResult(out, out.Result.TextPayload())
	default:
		return out.Result.Payload()
	}
}

func readResult(out Outcome, text string) mcp.ReadResourceResult {
	return mcp.ReadResourceResult{
		Contents: []mcp.ResourceContents{{URI: out.URI, MimeType: out.MimeType, Text: text}},
	}
}

func resultResponse(id *jsonrpc.RequestID, payload any) *jsonrpc.Response {
	res, err := jsonrpc.NewResultResponse(id, payload)
	if err != nil {
		return jsonrpc.NewErrorResponse(id, jsonrpc.ErrorCodeInternalError, err.Error(), nil)
	}
	return res
}
