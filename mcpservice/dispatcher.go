package mcpservice

import (
	"context"
	"encoding/json"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/ggoodman/mcp-whatsapp-go/internal/logctx"
	"github.com/ggoodman/mcp-whatsapp-go/mcp"
	"github.com/ggoodman/mcp-whatsapp-go/schema"
)

// Outcome is a dispatched request together with its Result. Tool and URI are
// set once the request has been resolved far enough to know them; envelope
// builders use them to pick the response shape.
type Outcome struct {
	Method mcp.Method
	Tool   string
	URI    string
	// MimeType is the resolved resource's MIME type.
	MimeType string
	Result   Result
}

// IsToolCall reports whether the outcome belongs to a tools/call request.
func (o Outcome) IsToolCall() bool { return o.Method == mcp.ToolsCallMethod }

// IsResourceRead reports whether the outcome belongs to a resource read.
func (o Outcome) IsResourceRead() bool {
	return o.Method == mcp.ResourcesReadMethod || o.Method == mcp.ResourceReadMethod
}

// Observer is notified once per dispatched request. kind is empty for ok
// outcomes.
type Observer interface {
	ObserveDispatch(method mcp.Method, target string, kind ErrorKind, elapsed time.Duration)
}

// Dispatcher routes a method plus params to the registry. It holds no
// per-request state and is safe for concurrent use.
type Dispatcher struct {
	reg  *Registry
	log  *slog.Logger
	obs  Observer
	info mcp.ImplementationInfo

	instructions string
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if l != nil {
			d.log = l
		}
	}
}

// WithObserver installs an observer for per-request metrics.
func WithObserver(o Observer) DispatcherOption {
	return func(d *Dispatcher) { d.obs = o }
}

// WithServerInfo sets the implementation info reported by initialize.
func WithServerInfo(info mcp.ImplementationInfo) DispatcherOption {
	return func(d *Dispatcher) { d.info = info }
}

// WithInstructions sets the instructions returned by initialize.
func WithInstructions(s string) DispatcherOption {
	return func(d *Dispatcher) { d.instructions = s }
}

// NewDispatcher returns a dispatcher over reg.
func NewDispatcher(reg *Registry, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		reg:  reg,
		log:  slog.Default(),
		info: mcp.ImplementationInfo{Name: "whatsapp-mcp", Version: "dev"},
	}
	for _, opt := range opts {
		opt(d)
	}
	d.log = logctx.New(d.log)
	return d
}

// Registry returns the registry the dispatcher serves.
func (d *Dispatcher) Registry() *Registry { return d.reg }

// Initialize answers an initialize request, echoing the client's protocol
// version when it is supported.
func (d *Dispatcher) Initialize(req mcp.InitializeRequest) mcp.InitializeResult {
	return mcp.InitializeResult{
		ProtocolVersion: mcp.NegotiateProtocolVersion(req.ProtocolVersion),
		Capabilities: mcp.ServerCapabilities{
			Tools:     &mcp.ToolsCapability{},
			Resources: &mcp.ResourcesCapability{},
		},
		ServerInfo:   d.info,
		Instructions: d.instructions,
	}
}

// Dispatch handles one request. It never panics and never returns a Go
// error: every failure is carried in the Outcome's Result.
func (d *Dispatcher) Dispatch(ctx context.Context, method string, params json.RawMessage) Outcome {
	start := time.Now()
	out := d.dispatch(ctx, mcp.Method(method), params)
	elapsed := time.Since(start)

	target := out.Tool
	if out.URI != "" {
		target = out.URI
	}
	var kind ErrorKind
	if e := out.Result.Err(); e != nil {
		kind = e.Kind
		d.log.InfoContext(ctx, "dispatch.fail",
			slog.String("method", method),
			slog.String("kind", string(e.Kind)),
			slog.String("err", e.Message),
			slog.Int64("dur_ms", elapsed.Milliseconds()))
	} else {
		d.log.InfoContext(ctx, "dispatch.ok",
			slog.String("method", method),
			slog.Int64("dur_ms", elapsed.Milliseconds()))
	}
	if d.obs != nil {
		d.obs.ObserveDispatch(out.Method, target, kind, elapsed)
	}
	return out
}

func (d *Dispatcher) dispatch(ctx context.Context, method mcp.Method, params json.RawMessage) Outcome {
	out := Outcome{Method: method}
	switch method {
	case mcp.ToolsListMethod:
		out.Result = OK(mcp.ListToolsResult{Tools: d.reg.ListTools()})
	case mcp.ToolsCallMethod:
		d.callTool(ctx, params, &out)
	case mcp.ResourcesReadMethod, mcp.ResourceReadMethod:
		d.readResource(ctx, params, &out)
	case mcp.ResourcesListMethod:
		resources, err := d.reg.ListResources()
		if err != nil {
			out.Result = Fail(KindInternal, "%s", err.Error())
			return out
		}
		out.Result = OK(mcp.ListResourcesResult{Resources: nonNil(resources)})
	case mcp.ResourcesTemplatesListMethod:
		out.Result = OK(mcp.ListResourceTemplatesResult{ResourceTemplates: nonNil(d.reg.ListResourceTemplates())})
	case "":
		out.Result = Fail(KindUnknownMethod, "Unknown method: undefined")
	default:
		out.Result = Fail(KindUnknownMethod, "Unknown method: %s", method)
	}
	return out
}

func (d *Dispatcher) callTool(ctx context.Context, params json.RawMessage, out *Outcome) {
	var req mcp.CallToolRequestReceived
	if err := decodeParams(params, &req); err != nil {
		out.Result = Fail(KindValidation, "Invalid params: %s", err.Error())
		return
	}
	if req.Name == "" {
		out.Result = Fail(KindValidation, "Missing tool name")
		return
	}
	out.Tool = req.Name

	tool, ok := d.reg.LookupTool(req.Name)
	if !ok {
		out.Result = Fail(KindUnknownTool, "Unknown tool: %s", req.Name)
		return
	}

	args, err := schema.ValidateJSON(tool.Input, req.Arguments)
	if err != nil {
		out.Result = Fail(KindValidation, "%s", err.Error())
		return
	}

	ctx = logctx.WithToolCallData(ctx, &logctx.ToolCallData{ToolName: tool.Name})
	out.Result = d.safely(ctx, func() Result { return tool.Handler(ctx, args) })
}

func (d *Dispatcher) readResource(ctx context.Context, params json.RawMessage, out *Outcome) {
	var req mcp.ReadResourceRequest
	if err := decodeParams(params, &req); err != nil {
		out.Result = Fail(KindValidation, "Invalid params: %s", err.Error())
		return
	}
	if req.URI == "" {
		out.Result = Fail(KindValidation, "Missing resource uri")
		return
	}
	out.URI = req.URI

	res, bindings, ok := d.reg.LookupResource(req.URI)
	if !ok {
		out.Result = Fail(KindUnknownResource, "Unknown resource: %s", req.URI)
		return
	}
	out.MimeType = res.MimeType

	ctx = logctx.WithResourceReadData(ctx, &logctx.ResourceReadData{Name: res.Name, URI: req.URI})
	out.Result = d.safely(ctx, func() Result { return res.Handler(ctx, req.URI, bindings) })
}

// safely runs fn, turning a panic into a KindInternal failure.
func (d *Dispatcher) safely(ctx context.Context, fn func() Result) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			d.log.ErrorContext(ctx, "dispatch.panic",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
			res = Fail(KindInternal, "Internal error: %v", r)
		}
	}()
	return fn()
}

// decodeParams treats absent and null params as an empty object.
func decodeParams(params json.RawMessage, v any) error {
	if len(params) == 0 || string(params) == "null" {
		return nil
	}
	return json.Unmarshal(params, v)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
