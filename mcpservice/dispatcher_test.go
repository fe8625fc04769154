package mcpservice

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/ggoodman/mcp-whatsapp-go/mcp"
	"github.com/ggoodman/mcp-whatsapp-go/schema"
	"github.com/ggoodman/mcp-whatsapp-go/uritemplate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	mu    sync.Mutex
	calls []string
}

func (o *recordingObserver) ObserveDispatch(method mcp.Method, target string, kind ErrorKind, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, string(method)+"|"+target+"|"+string(kind))
}

type fixture struct {
	disp  *Dispatcher
	calls int
	args  schema.Args
	obs   *recordingObserver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{obs: &recordingObserver{}}
	reg := NewRegistry()
	reg.MustRegister(
		NewTool("greet", func(_ context.Context, args schema.Args) Result {
			f.calls++
			f.args = args
			return Text("hello %s (%s)", args.String("name"), args.String("lang"))
		}, WithToolInput(
			schema.Prop("name", schema.String(), schema.Required()),
			schema.Prop("lang", schema.String(), schema.Default("en_US")),
			schema.Prop("count", schema.Number()),
		)),
		NewTool("broken", func(context.Context, schema.Args) Result {
			return Fail(KindUpstream, "WhatsApp API Error: boom")
		}),
		NewTool("panics", func(context.Context, schema.Args) Result {
			panic("kaboom")
		}),
	)
	reg.MustRegister(okResource(t, "templates", "a://templates/{category}", WithEnumeratedValues("MARKETING")))
	fail, err := NewResource("failing", "a://failing", func(context.Context, string, uritemplate.Params) Result {
		return Fail(KindUpstream, "Error retrieving thing: nope")
	})
	require.NoError(t, err)
	reg.MustRegister(fail)

	f.disp = NewDispatcher(reg, WithObserver(f.obs))
	return f
}

func (f *fixture) dispatch(method, params string) Outcome {
	var raw json.RawMessage
	if params != "" {
		raw = json.RawMessage(params)
	}
	return f.disp.Dispatch(context.Background(), method, raw)
}

func TestDispatch_ToolsList(t *testing.T) {
	f := newFixture(t)
	out := f.dispatch("tools/list", "")
	require.False(t, out.Result.IsError())
	list, ok := out.Result.Payload().(mcp.ListToolsResult)
	require.True(t, ok)
	require.Len(t, list.Tools, 3)
	assert.Equal(t, "greet", list.Tools[0].Name)
}

func TestDispatch_ToolCallAppliesDefaultsAndDropsUnknown(t *testing.T) {
	f := newFixture(t)
	out := f.dispatch("tools/call", `{"name":"greet","arguments":{"name":"ana","extra":true}}`)
	require.False(t, out.Result.IsError(), out.Result.Message())
	assert.Equal(t, "hello ana (en_US)", out.Result.TextPayload())
	assert.Equal(t, "greet", out.Tool)
	assert.Equal(t, schema.Args{"name": "ana", "lang": "en_US"}, f.args)
}

func TestDispatch_UnknownToolDoesNotInvokeHandlers(t *testing.T) {
	f := newFixture(t)
	out := f.dispatch("tools/call", `{"name":"doesNotExist","arguments":{}}`)
	require.True(t, out.Result.IsError())
	assert.ErrorIs(t, out.Result.Err(), ErrUnknownTool)
	assert.Equal(t, "Unknown tool: doesNotExist", out.Result.Message())
	assert.Zero(t, f.calls)
}

func TestDispatch_ValidationNamesFields(t *testing.T) {
	f := newFixture(t)

	out := f.dispatch("tools/call", `{"name":"greet","arguments":{}}`)
	require.True(t, out.Result.IsError())
	assert.ErrorIs(t, out.Result.Err(), ErrValidation)
	assert.Contains(t, out.Result.Message(), "name: required field missing")

	out = f.dispatch("tools/call", `{"name":"greet","arguments":{"name":"x","count":"three"}}`)
	require.True(t, out.Result.IsError())
	assert.Contains(t, out.Result.Message(), "count: expected number, got string")
	assert.Zero(t, f.calls)
}

func TestDispatch_MalformedParams(t *testing.T) {
	f := newFixture(t)
	for _, params := range []string{`[1,2]`, `{"arguments":{}}`} {
		out := f.dispatch("tools/call", params)
		require.True(t, out.Result.IsError(), params)
		assert.ErrorIs(t, out.Result.Err(), ErrValidation, params)
	}
	out := f.dispatch("resources/read", `{}`)
	assert.ErrorIs(t, out.Result.Err(), ErrValidation)
}

func TestDispatch_HandlerFailureKeepsKind(t *testing.T) {
	f := newFixture(t)
	out := f.dispatch("tools/call", `{"name":"broken"}`)
	assert.ErrorIs(t, out.Result.Err(), ErrUpstream)
	assert.Equal(t, "WhatsApp API Error: boom", out.Result.Message())
}

func TestDispatch_PanicBecomesInternal(t *testing.T) {
	f := newFixture(t)
	out := f.dispatch("tools/call", `{"name":"panics"}`)
	require.True(t, out.Result.IsError())
	assert.ErrorIs(t, out.Result.Err(), ErrInternal)
	assert.Contains(t, out.Result.Message(), "kaboom")
}

func TestDispatch_ResourceRead(t *testing.T) {
	f := newFixture(t)
	for _, method := range []string{"resources/read", "resource/read"} {
		out := f.dispatch(method, `{"uri":"a://templates/MARKETING"}`)
		require.False(t, out.Result.IsError(), method)
		assert.Equal(t, "read a://templates/MARKETING", out.Result.TextPayload())
		assert.Equal(t, "a://templates/MARKETING", out.URI)
		assert.Equal(t, "text/markdown", out.MimeType)
	}

	out := f.dispatch("resources/read", `{"uri":"a://nowhere"}`)
	assert.ErrorIs(t, out.Result.Err(), ErrUnknownResource)
	assert.Equal(t, "Unknown resource: a://nowhere", out.Result.Message())
}

func TestDispatch_ResourceReadPassesRawURI(t *testing.T) {
	f := newFixture(t)
	out := f.dispatch("resources/read", `{"uri":"a://templates/%zz"}`)
	require.False(t, out.Result.IsError(), out.Result.Message())
	assert.Equal(t, "read a://templates/%zz", out.Result.TextPayload())
}

func TestDispatch_ResourceLists(t *testing.T) {
	f := newFixture(t)

	out := f.dispatch("resources/list", "")
	list, ok := out.Result.Payload().(mcp.ListResourcesResult)
	require.True(t, ok)
	require.Len(t, list.Resources, 2)
	assert.Equal(t, "a://templates/MARKETING", list.Resources[0].URI)
	assert.Equal(t, "a://failing", list.Resources[1].URI)

	out = f.dispatch("resources/templates/list", "")
	tmpls, ok := out.Result.Payload().(mcp.ListResourceTemplatesResult)
	require.True(t, ok)
	require.Len(t, tmpls.ResourceTemplates, 1)
}

func TestDispatch_UnknownMethod(t *testing.T) {
	f := newFixture(t)
	out := f.dispatch("prompts/list", "")
	assert.ErrorIs(t, out.Result.Err(), ErrUnknownMethod)
	assert.Equal(t, "Unknown method: prompts/list", out.Result.Message())

	out = f.dispatch("", "")
	assert.ErrorIs(t, out.Result.Err(), ErrUnknownMethod)
	assert.Equal(t, "Unknown method: undefined", out.Result.Message())
}

func TestDispatch_Observer(t *testing.T) {
	f := newFixture(t)
	f.dispatch("tools/call", `{"name":"greet","arguments":{"name":"x"}}`)
	f.dispatch("tools/call", `{"name":"nope"}`)
	f.dispatch("resources/read", `{"uri":"a://failing"}`)
	assert.Equal(t, []string{
		"tools/call|greet|",
		"tools/call|nope|UnknownTool",
		"resources/read|a://failing|UpstreamError",
	}, f.obs.calls)
}

func TestDispatcher_Initialize(t *testing.T) {
	d := NewDispatcher(NewRegistry(), WithServerInfo(mcp.ImplementationInfo{Name: "srv", Version: "1"}))

	res := d.Initialize(mcp.InitializeRequest{ProtocolVersion: "2025-03-26"})
	assert.Equal(t, "2025-03-26", res.ProtocolVersion)
	assert.Equal(t, "srv", res.ServerInfo.Name)
	assert.NotNil(t, res.Capabilities.Tools)
	assert.NotNil(t, res.Capabilities.Resources)

	res = d.Initialize(mcp.InitializeRequest{ProtocolVersion: "1999-01-01"})
	assert.Equal(t, mcp.LatestProtocolVersion, res.ProtocolVersion)
}
