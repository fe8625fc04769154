package stdio

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/ggoodman/mcp-whatsapp-go/internal/jsonrpc"
	"github.com/ggoodman/mcp-whatsapp-go/internal/logctx"
	"github.com/ggoodman/mcp-whatsapp-go/mcp"
	"github.com/ggoodman/mcp-whatsapp-go/mcpservice"
)

const defaultMaxLineBytes = 4 << 20

// ErrAlreadyServed is returned by a second call to Serve.
var ErrAlreadyServed = errors.New("stdio: handler already served")

// Handler is a single-connection stdio transport that reads JSON-RPC messages
// from an io.Reader and writes responses to an io.Writer. By default, it uses
// os.Stdin and os.Stdout.
//
// The handler owns only framing and the initialize/ping lifecycle; all other
// methods go to the Dispatcher.
type Handler struct {
	disp    *mcpservice.Dispatcher
	r       io.Reader
	w       io.Writer
	l       *slog.Logger
	maxLine int

	writeMu sync.Mutex
	once    sync.Once
}

// NewHandler constructs a stdio Handler with defaults and applies options.
func NewHandler(disp *mcpservice.Dispatcher, opts ...Option) *Handler {
	h := &Handler{
		disp:    disp,
		r:       os.Stdin,
		w:       os.Stdout,
		l:       slog.Default(),
		maxLine: defaultMaxLineBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.l = logctx.New(h.l)
	return h
}

// Serve runs the stdio event loop until EOF on the reader or the context is
// canceled. It waits for in-flight requests before returning. EOF is a clean
// shutdown and yields a nil error. Serve may be called at most once.
func (h *Handler) Serve(ctx context.Context) error {
	served := true
	h.once.Do(func() { served = false })
	if served {
		return ErrAlreadyServed
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan []byte)
	readErr := make(chan error, 1)
	go h.readLoop(ctx, lines, readErr)

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			if err != nil {
				h.l.ErrorContext(ctx, "stdio.read.fail", slog.String("err", err.Error()))
				return fmt.Errorf("stdio: read: %w", err)
			}
			return nil
		case line := <-lines:
			msg, errResp := decode(line)
			if errResp != nil {
				h.l.WarnContext(ctx, "stdio.decode.fail", slog.String("err", errResp.Error.Message))
				h.write(ctx, errResp)
				continue
			}
			switch msg.Type() {
			case "request":
				req := msg.AsRequest()
				wg.Add(1)
				go func() {
					defer wg.Done()
					h.handleRequest(ctx, req)
				}()
			case "notification":
				h.l.DebugContext(ctx, "stdio.notification", slog.String("method", msg.Method))
			default:
				// This server never issues requests, so responses have no
				// pending call to complete.
				resp := msg.AsResponse()
				h.l.DebugContext(ctx, "stdio.response.ignored", slog.String("id", resp.ID.String()))
			}
		}
	}
}

func (h *Handler) readLoop(ctx context.Context, lines chan<- []byte, done chan<- error) {
	sc := bufio.NewScanner(h.r)
	sc.Buffer(make([]byte, 0, 64*1024), h.maxLine)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		// Scanner reuses its buffer.
		cp := append([]byte(nil), line...)
		select {
		case lines <- cp:
		case <-ctx.Done():
			return
		}
	}
	done <- sc.Err()
}

// decode parses one line. A line that is not JSON yields a parse error
// response; JSON that is not a JSON-RPC message yields an invalid request.
func decode(line []byte) (*jsonrpc.AnyMessage, *jsonrpc.Response) {
	var msg jsonrpc.AnyMessage
	if err := json.Unmarshal(line, &msg); err != nil {
		if !json.Valid(line) {
			return nil, jsonrpc.NewErrorResponse(nil, jsonrpc.ErrorCodeParseError, "Parse error", nil)
		}
		return nil, jsonrpc.NewErrorResponse(nil, jsonrpc.ErrorCodeInvalidRequest, err.Error(), nil)
	}
	return &msg, nil
}

func (h *Handler) handleRequest(ctx context.Context, req *jsonrpc.Request) {
	ctx = logctx.WithRPCMessage(ctx, &logctx.RPCMessage{
		Method: req.Method,
		ID:     req.ID.String(),
		Type:   "request",
	})

	var resp *jsonrpc.Response
	switch mcp.Method(req.Method) {
	case mcp.InitializeMethod:
		resp = h.initialize(ctx, req)
	case mcp.PingMethod:
		resp = result(req.ID, mcp.EmptyResult{})
	default:
		out := h.disp.Dispatch(ctx, req.Method, req.Params)
		resp = mcpservice.ProtocolEnvelope(req.ID, out)
	}
	h.write(ctx, resp)
}

func (h *Handler) initialize(ctx context.Context, req *jsonrpc.Request) *jsonrpc.Response {
	var init mcp.InitializeRequest
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &init); err != nil {
			return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, "Invalid params: "+err.Error(), nil)
		}
	}
	res := h.disp.Initialize(init)
	h.l.InfoContext(ctx, "stdio.initialize",
		slog.String("client", init.ClientInfo.Name),
		slog.String("requested_version", init.ProtocolVersion),
		slog.String("version", res.ProtocolVersion))
	return result(req.ID, res)
}

func result(id *jsonrpc.RequestID, v any) *jsonrpc.Response {
	resp, err := jsonrpc.NewResultResponse(id, v)
	if err != nil {
		return jsonrpc.NewErrorResponse(id, jsonrpc.ErrorCodeInternalError, err.Error(), nil)
	}
	return resp
}

// write emits one message followed by a newline. Writes are serialised so
// concurrent responses never interleave.
func (h *Handler) write(ctx context.Context, resp *jsonrpc.Response) {
	b, err := json.Marshal(resp)
	if err != nil {
		h.l.ErrorContext(ctx, "stdio.encode.fail", slog.String("err", err.Error()))
		return
	}
	b = append(b, '\n')

	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	if _, err := h.w.Write(b); err != nil {
		h.l.ErrorContext(ctx, "stdio.write.fail", slog.String("err", err.Error()))
	}
}
