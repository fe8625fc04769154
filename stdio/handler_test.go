package stdio

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ggoodman/mcp-whatsapp-go/internal/jsonrpc"
	"github.com/ggoodman/mcp-whatsapp-go/mcp"
	"github.com/ggoodman/mcp-whatsapp-go/mcpservice"
	"github.com/ggoodman/mcp-whatsapp-go/schema"
	"github.com/ggoodman/mcp-whatsapp-go/uritemplate"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testHarness encapsulates pipes and collected output for stdio handler tests.
type testHarness struct {
	t      *testing.T
	stdinW io.WriteCloser
	outMu  sync.Mutex
	lines  []string
	done   chan error
}

func testDispatcher(t *testing.T) *mcpservice.Dispatcher {
	t.Helper()
	reg := mcpservice.NewRegistry()
	reg.MustRegister(
		mcpservice.NewTool("echo", func(_ context.Context, args schema.Args) mcpservice.Result {
			return mcpservice.Text("echo: %s", args.String("text"))
		},
			mcpservice.WithToolDescription("Echo the input"),
			mcpservice.WithToolInput(schema.Prop("text", schema.String(), schema.Required())),
		),
		mcpservice.NewTool("slow", func(ctx context.Context, _ schema.Args) mcpservice.Result {
			select {
			case <-time.After(200 * time.Millisecond):
				return mcpservice.Text("slow done")
			case <-ctx.Done():
				return mcpservice.Fail(mcpservice.KindInternal, "%v", ctx.Err())
			}
		}),
		mcpservice.NewTool("fails", func(context.Context, schema.Args) mcpservice.Result {
			return mcpservice.Fail(mcpservice.KindUpstream, "WhatsApp API Error: nope")
		}),
	)
	res, err := mcpservice.NewResource("note", "note://{id}",
		func(_ context.Context, _ string, p uritemplate.Params) mcpservice.Result {
			return mcpservice.Text("note %s", p["id"])
		},
		mcpservice.WithEnumeratedValues("a", "b"),
	)
	require.NoError(t, err)
	reg.MustRegister(res)
	return mcpservice.NewDispatcher(reg, mcpservice.WithServerInfo(mcp.ImplementationInfo{Name: "test", Version: "1.0.0"}))
}

func newHarness(t *testing.T, disp *mcpservice.Dispatcher) *testHarness {
	t.Helper()

	inR, inW := io.Pipe()
	outR, outW := io.Pipe()

	h := NewHandler(disp, WithIO(inR, outW), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	ctx, cancel := context.WithCancel(context.Background())
	th := &testHarness{t: t, stdinW: inW, done: make(chan error, 1)}

	go func() {
		th.done <- h.Serve(ctx)
	}()

	go func() {
		sc := bufio.NewScanner(outR)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			th.outMu.Lock()
			th.lines = append(th.lines, line)
			th.outMu.Unlock()
		}
	}()

	t.Cleanup(func() {
		cancel()
		_ = inW.Close()
		_ = outW.Close()
	})
	return th
}

func (th *testHarness) sendRaw(line string) {
	th.t.Helper()
	_, err := io.WriteString(th.stdinW, line+"\n")
	require.NoError(th.t, err)
}

func (th *testHarness) send(id any, method string, params any) {
	th.t.Helper()
	req := &jsonrpc.Request{JSONRPCVersion: jsonrpc.ProtocolVersion, Method: method}
	if id != nil {
		req.ID = jsonrpc.NewRequestID(id)
	}
	if params != nil {
		b, err := json.Marshal(params)
		require.NoError(th.t, err)
		req.Params = b
	}
	b, err := json.Marshal(req)
	require.NoError(th.t, err)
	th.sendRaw(string(b))
}

func (th *testHarness) nextLine(timeout time.Duration) (string, error) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		th.outMu.Lock()
		if len(th.lines) > 0 {
			s := th.lines[0]
			th.lines = th.lines[1:]
			th.outMu.Unlock()
			return s, nil
		}
		th.outMu.Unlock()
		time.Sleep(2 * time.Millisecond)
	}
	return "", fmt.Errorf("timeout waiting for output line")
}

func (th *testHarness) expectResponse() *jsonrpc.Response {
	th.t.Helper()
	line, err := th.nextLine(time.Second)
	require.NoError(th.t, err)
	var resp jsonrpc.Response
	require.NoError(th.t, json.Unmarshal([]byte(line), &resp), line)
	return &resp
}

func TestInitialize(t *testing.T) {
	th := newHarness(t, testDispatcher(t))

	th.send("init-1", "initialize", mcp.InitializeRequest{
		ProtocolVersion: "2025-03-26",
		ClientInfo:      mcp.ImplementationInfo{Name: "client", Version: "0.0.1"},
	})
	resp := th.expectResponse()
	require.Nil(t, resp.Error)
	assert.Equal(t, "init-1", resp.ID.String())

	var res mcp.InitializeResult
	require.NoError(t, json.Unmarshal(resp.Result, &res))
	assert.Equal(t, "2025-03-26", res.ProtocolVersion)
	assert.Equal(t, "test", res.ServerInfo.Name)
	assert.NotNil(t, res.Capabilities.Tools)
	assert.NotNil(t, res.Capabilities.Resources)
}

func TestInitialize_UnsupportedVersionGetsLatest(t *testing.T) {
	th := newHarness(t, testDispatcher(t))
	th.send(1, "initialize", mcp.InitializeRequest{ProtocolVersion: "1999-01-01"})

	var res mcp.InitializeResult
	require.NoError(t, json.Unmarshal(th.expectResponse().Result, &res))
	assert.Equal(t, mcp.LatestProtocolVersion, res.ProtocolVersion)
}

func TestPingAndNotifications(t *testing.T) {
	th := newHarness(t, testDispatcher(t))

	th.send(nil, "notifications/initialized", nil)
	th.sendRaw(`{"jsonrpc":"2.0","id":"client-1","result":{}}`)
	th.send(2, "ping", nil)

	resp := th.expectResponse()
	require.Nil(t, resp.Error)
	assert.Equal(t, "2", resp.ID.String())
	assert.JSONEq(t, `{}`, string(resp.Result))
}

func TestToolsCall(t *testing.T) {
	th := newHarness(t, testDispatcher(t))

	th.send(3, "tools/call", map[string]any{"name": "echo", "arguments": map[string]any{"text": "hi"}})
	resp := th.expectResponse()
	require.Nil(t, resp.Error)
	assert.JSONEq(t, `{"content":[{"type":"text","text":"echo: hi"}]}`, string(resp.Result))
}

func TestToolsCall_ErrorsMapToProtocolShapes(t *testing.T) {
	th := newHarness(t, testDispatcher(t))

	th.send(4, "tools/call", map[string]any{"name": "nope"})
	resp := th.expectResponse()
	require.NotNil(t, resp.Error)
	assert.Equal(t, jsonrpc.ErrorCodeInvalidParams, resp.Error.Code)
	assert.Equal(t, "Unknown tool: nope", resp.Error.Message)

	th.send(5, "tools/call", map[string]any{"name": "fails"})
	resp = th.expectResponse()
	require.Nil(t, resp.Error)
	assert.JSONEq(t, `{"content":[{"type":"text","text":"WhatsApp API Error: nope"}],"isError":true}`, string(resp.Result))

	th.send(6, "prompts/list", nil)
	resp = th.expectResponse()
	require.NotNil(t, resp.Error)
	assert.Equal(t, jsonrpc.ErrorCodeMethodNotFound, resp.Error.Code)
}

func TestResourcesRead_Unknown(t *testing.T) {
	th := newHarness(t, testDispatcher(t))
	th.send(7, "resources/read", map[string]any{"uri": "other://x"})

	resp := th.expectResponse()
	require.NotNil(t, resp.Error)
	assert.Equal(t, jsonrpc.ErrorCodeResourceNotFound, resp.Error.Code)
	assert.Equal(t, map[string]any{"uri": "other://x"}, resp.Error.Data)
}

func TestParseError(t *testing.T) {
	th := newHarness(t, testDispatcher(t))

	th.sendRaw(`{not json`)
	resp := th.expectResponse()
	require.NotNil(t, resp.Error)
	assert.Equal(t, jsonrpc.ErrorCodeParseError, resp.Error.Code)

	th.sendRaw(`{"jsonrpc":"1.0","id":1,"method":"ping"}`)
	resp = th.expectResponse()
	require.NotNil(t, resp.Error)
	assert.Equal(t, jsonrpc.ErrorCodeInvalidRequest, resp.Error.Code)

	// The connection survives bad input.
	th.send(8, "ping", nil)
	assert.Nil(t, th.expectResponse().Error)
}

func TestRequestsAreHandledConcurrently(t *testing.T) {
	th := newHarness(t, testDispatcher(t))

	th.send("slow", "tools/call", map[string]any{"name": "slow"})
	th.send("fast", "ping", nil)

	first := th.expectResponse()
	second := th.expectResponse()
	assert.Equal(t, "fast", first.ID.String())
	assert.Equal(t, "slow", second.ID.String())
}

func TestServe_EOFIsCleanShutdown(t *testing.T) {
	th := newHarness(t, testDispatcher(t))
	require.NoError(t, th.stdinW.Close())

	select {
	case err := <-th.done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after EOF")
	}
}

func TestServe_OnlyOnce(t *testing.T) {
	h := NewHandler(testDispatcher(t), WithIO(strings.NewReader(""), io.Discard))
	require.NoError(t, h.Serve(context.Background()))
	assert.ErrorIs(t, h.Serve(context.Background()), ErrAlreadyServed)
}

func TestSDKClient_EndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	clientR, serverW := io.Pipe()
	serverR, clientW := io.Pipe()
	t.Cleanup(func() {
		_ = serverW.Close()
		_ = clientW.Close()
	})

	h := NewHandler(testDispatcher(t), WithIO(serverR, serverW), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	go func() { _ = h.Serve(ctx) }()

	client := sdk.NewClient(&sdk.Implementation{Name: "e2e", Version: "0.0.0"}, &sdk.ClientOptions{})
	cs, err := client.Connect(ctx, &sdk.IOTransport{Reader: clientR, Writer: clientW}, &sdk.ClientSessionOptions{})
	require.NoError(t, err)
	defer cs.Close()

	tools, err := cs.ListTools(ctx, &sdk.ListToolsParams{})
	require.NoError(t, err)
	var names []string
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	assert.Equal(t, []string{"echo", "slow", "fails"}, names)

	res, err := cs.CallTool(ctx, &sdk.CallToolParams{Name: "echo", Arguments: map[string]any{"text": "sdk"}})
	require.NoError(t, err)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(*sdk.TextContent)
	require.True(t, ok)
	assert.Equal(t, "echo: sdk", text.Text)
	assert.False(t, res.IsError)

	resources, err := cs.ListResources(ctx, &sdk.ListResourcesParams{})
	require.NoError(t, err)
	require.Len(t, resources.Resources, 2)

	read, err := cs.ReadResource(ctx, &sdk.ReadResourceParams{URI: resources.Resources[1].URI})
	require.NoError(t, err)
	require.Len(t, read.Contents, 1)
	assert.Equal(t, "note b", read.Contents[0].Text)
}
