// Package graphapi is a thin client for the Meta Graph API that backs the
// WhatsApp Business Cloud API. Each call is exactly one HTTP request: there is
// no retry, caching or pagination.
package graphapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ggoodman/mcp-whatsapp-go/mcpservice"
)

const (
	DefaultBaseURL = "https://graph.facebook.com"
	DefaultVersion = "v18.0"
	DefaultTimeout = 30 * time.Second

	// maxBodyBytes bounds how much of a response body is read.
	maxBodyBytes = 10 << 20
)

// Observer is notified after every upstream call. status is zero when the
// request never produced a response.
type Observer interface {
	ObserveUpstream(method string, status int, elapsed time.Duration)
}

// Client issues authenticated calls against <baseURL>/<version>. It is safe
// for concurrent use.
type Client struct {
	token   string
	base    string
	http    *http.Client
	timeout time.Duration
	log     *slog.Logger
	obs     Observer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds each call. Zero or negative disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithObserver installs an observer for upstream call metrics.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.obs = o }
}

// New returns a client. Empty baseURL and version fall back to the defaults.
func New(token, baseURL, version string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if version == "" {
		version = DefaultVersion
	}
	c := &Client{
		token:   token,
		base:    strings.TrimRight(baseURL, "/") + "/" + strings.Trim(version, "/"),
		http:    http.DefaultClient,
		timeout: DefaultTimeout,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get issues a GET with query as the query string.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, http.MethodGet, path, query, out)
}

// Post issues a POST with body encoded as JSON.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

// Delete issues a DELETE without a body.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodDelete, path, nil, out)
}

// Do performs one call. For GET, data must be nil, url.Values or
// map[string]string and becomes the query string; for other methods a
// non-nil data is sent as a JSON body. A successful response is decoded into
// out when out is non-nil.
//
// Every failure is an *mcpservice.Error of kind KindUpstream whose message is
// "WhatsApp API Error: " followed by the backend's error.message when the
// response carries one.
func (c *Client) Do(ctx context.Context, method, path string, data, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := c.newRequest(ctx, method, path, data)
	if err != nil {
		return upstream(err.Error())
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(method, 0, start)
		c.log.InfoContext(ctx, "graphapi.call.fail",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("err", err.Error()))
		return upstream(err.Error())
	}
	defer resp.Body.Close()
	c.observe(method, resp.StatusCode, start)

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return upstream(err.Error())
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := errorMessage(body)
		if msg == "" {
			msg = fmt.Sprintf("Request failed with status code %d", resp.StatusCode)
		}
		c.log.InfoContext(ctx, "graphapi.call.fail",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
			slog.String("err", msg))
		return upstream(msg)
	}

	c.log.DebugContext(ctx, "graphapi.call.ok",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Int64("dur_ms", time.Since(start).Milliseconds()))

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return upstream(fmt.Sprintf("invalid response body: %v", err))
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, data any) (*http.Request, error) {
	target := c.base + "/" + strings.TrimLeft(path, "/")

	var body io.Reader
	if method == http.MethodGet {
		q, err := queryValues(data)
		if err != nil {
			return nil, err
		}
		if len(q) > 0 {
			target += "?" + q.Encode()
		}
	} else if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *Client) observe(method string, status int, start time.Time) {
	if c.obs != nil {
		c.obs.ObserveUpstream(method, status, time.Since(start))
	}
}

func queryValues(data any) (url.Values, error) {
	switch v := data.(type) {
	case nil:
		return nil, nil
	case url.Values:
		return v, nil
	case map[string]string:
		q := make(url.Values, len(v))
		for k, s := range v {
			q.Set(k, s)
		}
		return q, nil
	default:
		return nil, fmt.Errorf("unsupported query type %T", data)
	}
}

// errorMessage extracts error.message from a Graph API error body.
func errorMessage(body []byte) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	return envelope.Error.Message
}

func upstream(msg string) error {
	return mcpservice.Errorf(mcpservice.KindUpstream, "WhatsApp API Error: %s", msg)
}
