// Package httpapi serves the synchronous HTTP surface: POST /mcp takes one
// {method, params, id} call and answers with a single JSON body, plus
// informational routes for health checks and operators.
//
//	srv := httpapi.New(disp, cfg,
//	    httpapi.WithLogger(log),
//	    httpapi.WithMetrics(recorder.Handler()),
//	    httpapi.WithDocs(whatsapp.Doc),
//	)
//	err := srv.Run(ctx)
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/elnormous/contenttype"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/ggoodman/mcp-whatsapp-go/config"
	"github.com/ggoodman/mcp-whatsapp-go/internal/jsonrpc"
	"github.com/ggoodman/mcp-whatsapp-go/internal/logctx"
	"github.com/ggoodman/mcp-whatsapp-go/mcpservice"
)

const (
	maxBodyBytes    = 4 << 20
	shutdownTimeout = 10 * time.Second
	requestIDHeader = "X-Request-Id"
)

var jsonMediaType = contenttype.NewMediaType("application/json")

// DocSource returns the markdown of a documentation topic.
type DocSource func(topic string) ([]byte, error)

// Server is the HTTP surface. Handlers are safe for concurrent use; the
// dispatcher and registry behind them are read-only.
type Server struct {
	disp    *mcpservice.Dispatcher
	cfg     *config.Config
	log     *slog.Logger
	metrics http.Handler
	docs    DocSource
	limiter *rate.Limiter
	started time.Time
	router  chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetrics mounts h at GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithDocs serves GET /docs/{topic} as HTML rendered from src.
func WithDocs(src DocSource) Option {
	return func(s *Server) { s.docs = src }
}

// WithRateLimit bounds POST /mcp to perSecond requests with the given burst
// across all callers. A non-positive rate disables the limit.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(s *Server) {
		if perSecond <= 0 {
			s.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// New builds the router.
func New(disp *mcpservice.Dispatcher, cfg *config.Config, opts ...Option) *Server {
	s := &Server{
		disp:    disp,
		cfg:     cfg,
		log:     slog.Default(),
		started: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logctx.New(s.log)

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(s.requestContext)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Get("/status", s.handleStatus)
	r.Get("/test", s.handleTest)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	if s.docs != nil {
		r.Get("/docs", s.handleDocs)
		r.Get("/docs/{topic}", s.handleDocs)
	}
	r.With(s.rateLimit).Post("/mcp", s.handleMCP)

	s.router = r
	return s
}

// Handler exposes the HTTP handler for embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on the configured port until ctx is canceled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("httpapi: listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is canceled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	s.log.InfoContext(ctx, "http.listen", slog.String("addr", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// requestContext tags every request with an id and attaches request data to
// the context for log enrichment.
func (s *Server) requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		ctx := logctx.WithRequestData(r.Context(), &logctx.RequestData{
			RequestID:  id,
			Method:     r.Method,
			UserAgent:  r.UserAgent(),
			RemoteAddr: r.RemoteAddr,
			Path:       r.URL.Path,
		})
		s.log.DebugContext(ctx, "http.request")
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			s.log.WarnContext(r.Context(), "http.rate_limited")
			writeError(w, http.StatusTooManyRequests, "Too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleMCP runs one call through the dispatcher. Every dispatch failure is a
// 500 carrying only the message; 4xx statuses are reserved for requests that
// never reach the dispatcher.
func (s *Server) handleMCP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ctype, err := contenttype.GetMediaType(r)
	if err != nil || !ctype.Matches(jsonMediaType) {
		writeError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	call, err := jsonrpc.DecodeCall(body)
	if err != nil {
		s.log.InfoContext(ctx, "http.post.invalid", slog.String("err", err.Error()))
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx = logctx.WithRPCMessage(ctx, &logctx.RPCMessage{
		Method: call.Method,
		ID:     call.ID.String(),
		Type:   "request",
	})
	s.log.DebugContext(ctx, "http.post.start")

	out := s.disp.Dispatch(ctx, call.Method, call.Params)
	status, payload := mcpservice.SyncEnvelope(call.ID, out)
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to encode response: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, mcpservice.SyncError{Error: msg})
}
