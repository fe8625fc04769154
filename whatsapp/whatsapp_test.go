package whatsapp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/ggoodman/mcp-whatsapp-go/internal/graphapi"
	"github.com/ggoodman/mcp-whatsapp-go/internal/jsonrpc"
	"github.com/ggoodman/mcp-whatsapp-go/mcpservice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAccount = Account{PhoneNumberID: "PN1", BusinessAccountID: "WABA1"}

type graphCall struct {
	Method string
	Path   string
	Query  url.Values
	Body   map[string]any
}

type reply struct {
	status int
	body   string
}

// fakeGraph answers "METHOD /v18.0/path" routes and records every call.
type fakeGraph struct {
	mu     sync.Mutex
	routes map[string]reply
	calls  []graphCall
}

func (g *fakeGraph) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	call := graphCall{Method: r.Method, Path: r.URL.Path, Query: r.URL.Query()}
	if b, _ := io.ReadAll(r.Body); len(b) > 0 {
		_ = json.Unmarshal(b, &call.Body)
	}
	g.mu.Lock()
	g.calls = append(g.calls, call)
	rep, ok := g.routes[r.Method+" "+r.URL.Path]
	g.mu.Unlock()
	if !ok {
		rep = reply{http.StatusNotFound, `{"error":{"message":"no route"}}`}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rep.status)
	_, _ = io.WriteString(w, rep.body)
}

func (g *fakeGraph) last(t *testing.T) graphCall {
	t.Helper()
	g.mu.Lock()
	defer g.mu.Unlock()
	require.NotEmpty(t, g.calls)
	return g.calls[len(g.calls)-1]
}

func (g *fakeGraph) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

type harness struct {
	graph *fakeGraph
	disp  *mcpservice.Dispatcher
}

func newHarness(t *testing.T, routes map[string]reply) *harness {
	t.Helper()
	g := &fakeGraph{routes: routes}
	srv := httptest.NewServer(g)
	t.Cleanup(srv.Close)

	api := graphapi.New("test-token", srv.URL, "v18.0")
	reg := mcpservice.NewRegistry()
	require.NoError(t, Register(reg, api, testAccount))
	return &harness{graph: g, disp: mcpservice.NewDispatcher(reg)}
}

func (h *harness) call(t *testing.T, tool string, args any) mcpservice.Outcome {
	t.Helper()
	params, err := json.Marshal(map[string]any{"name": tool, "arguments": args})
	require.NoError(t, err)
	return h.disp.Dispatch(context.Background(), "tools/call", params)
}

func (h *harness) read(t *testing.T, uri string) mcpservice.Outcome {
	t.Helper()
	params, err := json.Marshal(map[string]any{"uri": uri})
	require.NoError(t, err)
	return h.disp.Dispatch(context.Background(), "resources/read", params)
}

func TestCatalogue_ToolOrder(t *testing.T) {
	h := newHarness(t, nil)
	assert.Equal(t, []string{
		"sendTextMessage", "sendTemplateMessage", "sendImageMessage", "markMessageAsRead",
		"uploadMedia", "getMediaUrl", "deleteMedia",
		"getMessageTemplates", "createMessageTemplate",
		"getBusinessProfile", "updateBusinessProfile",
		"getPhoneNumbers", "getPhoneNumberById", "requestVerificationCode", "verifyCode",
		"getWebhookInfo", "subscribeWebhook", "deleteWebhookSubscription",
	}, h.disp.Registry().ToolNames())
}

func TestCatalogue_RegisterTwiceFails(t *testing.T) {
	reg := mcpservice.NewRegistry()
	require.NoError(t, Register(reg, nil, testAccount))
	err := Register(reg, nil, testAccount)
	assert.ErrorIs(t, err, mcpservice.ErrDuplicateName)
}

func TestCatalogue_Resources(t *testing.T) {
	h := newHarness(t, nil)
	list, err := h.disp.Registry().ListResources()
	require.NoError(t, err)

	var uris []string
	for _, r := range list {
		uris = append(uris, r.URI)
	}
	assert.Equal(t, []string{
		"whatsapp://templates/AUTHENTICATION",
		"whatsapp://templates/MARKETING",
		"whatsapp://templates/UTILITY",
		"whatsapp://business-profile",
		"whatsapp://phone-numbers",
		"whatsapp://docs",
		"whatsapp://docs/business-profile",
		"whatsapp://docs/media",
		"whatsapp://docs/messaging",
		"whatsapp://docs/phone-numbers",
		"whatsapp://docs/templates",
		"whatsapp://docs/webhooks",
	}, uris)

	var templates []string
	for _, tmpl := range h.disp.Registry().ListResourceTemplates() {
		templates = append(templates, tmpl.URITemplate)
	}
	assert.Equal(t, []string{
		"whatsapp://templates/{category}",
		"whatsapp://template/{name}",
		"whatsapp://phone-number/{id}",
		"whatsapp://docs/{topic}",
	}, templates)
}

func TestSendTextMessage(t *testing.T) {
	h := newHarness(t, map[string]reply{
		"POST /v18.0/PN1/messages": {200, `{"messages":[{"id":"wamid.ABC"}]}`},
	})

	out := h.call(t, "sendTextMessage", map[string]any{"to": "15551234567", "message": "hi"})
	resp := mcpservice.ProtocolEnvelope(jsonrpc.NewRequestID(1), out)
	require.Nil(t, resp.Error)
	assert.JSONEq(t, `{"content":[{"type":"text","text":"Message sent successfully. Message ID: wamid.ABC"}]}`, string(resp.Result))

	got := h.graph.last(t)
	assert.Equal(t, "+15551234567", got.Body["to"])
	assert.Equal(t, "whatsapp", got.Body["messaging_product"])
	assert.Equal(t, "individual", got.Body["recipient_type"])
	assert.Equal(t, map[string]any{"body": "hi", "preview_url": false}, got.Body["text"])
}

func TestSendTextMessage_UpstreamError(t *testing.T) {
	h := newHarness(t, map[string]reply{
		"POST /v18.0/PN1/messages": {400, `{"error":{"message":"Invalid parameter","code":100}}`},
	})

	out := h.call(t, "sendTextMessage", map[string]any{"to": "+1 555", "message": "hi"})
	require.True(t, out.Result.IsError())
	assert.Equal(t, "WhatsApp API Error: Invalid parameter", out.Result.Message())

	resp := mcpservice.ProtocolEnvelope(jsonrpc.NewRequestID(2), out)
	require.Nil(t, resp.Error)
	assert.JSONEq(t, `{"content":[{"type":"text","text":"WhatsApp API Error: Invalid parameter"}],"isError":true}`, string(resp.Result))
}

func TestSendTextMessage_InvalidArgumentsNeverReachUpstream(t *testing.T) {
	h := newHarness(t, nil)
	out := h.call(t, "sendTextMessage", map[string]any{"to": "1555"})
	require.True(t, out.Result.IsError())
	assert.ErrorIs(t, out.Result.Err(), mcpservice.ErrValidation)
	assert.Zero(t, h.graph.count())
}

func TestSendTemplateMessage(t *testing.T) {
	h := newHarness(t, map[string]reply{
		"POST /v18.0/PN1/messages": {200, `{"messages":[{"id":"wamid.T"}]}`},
	})
	out := h.call(t, "sendTemplateMessage", map[string]any{
		"to":           "1 (555) 000-1111",
		"templateName": "hello_world",
		"components": []any{map[string]any{
			"type":       "body",
			"parameters": []any{map[string]any{"type": "text", "text": "Jo"}},
		}},
	})
	require.False(t, out.Result.IsError(), out.Result.Message())
	assert.Equal(t, "Template message sent successfully. Message ID: wamid.T", out.Result.TextPayload())

	got := h.graph.last(t)
	assert.Equal(t, "+15550001111", got.Body["to"])
	tmpl := got.Body["template"].(map[string]any)
	assert.Equal(t, "hello_world", tmpl["name"])
	assert.Equal(t, map[string]any{"code": "en_US"}, tmpl["language"])
	assert.Len(t, tmpl["components"], 1)
}

func TestSendTemplateMessage_ValidatesComponents(t *testing.T) {
	h := newHarness(t, nil)
	out := h.call(t, "sendTemplateMessage", map[string]any{
		"to":           "15550001111",
		"templateName": "hello_world",
		"components": []any{map[string]any{
			"type":       "footer",
			"parameters": []any{},
		}},
	})
	require.True(t, out.Result.IsError())
	assert.ErrorIs(t, out.Result.Err(), mcpservice.ErrValidation)
	assert.Contains(t, out.Result.Message(), "components[0].type")
	assert.Zero(t, h.graph.count())
}

func TestSendImageMessage_CaptionOptional(t *testing.T) {
	h := newHarness(t, map[string]reply{
		"POST /v18.0/PN1/messages": {200, `{"messages":[{"id":"wamid.I"}]}`},
	})
	out := h.call(t, "sendImageMessage", map[string]any{"to": "447700900000", "imageUrl": "https://example.com/a.png"})
	require.False(t, out.Result.IsError(), out.Result.Message())
	assert.Equal(t, "Image message sent successfully to +447700900000. Message ID: wamid.I", out.Result.TextPayload())
	assert.Equal(t, map[string]any{"link": "https://example.com/a.png"}, h.graph.last(t).Body["image"])
}

func TestMarkMessageAsRead(t *testing.T) {
	h := newHarness(t, map[string]reply{
		"POST /v18.0/PN1/messages": {200, `{"success":true}`},
	})
	out := h.call(t, "markMessageAsRead", map[string]any{"messageId": "wamid.X"})
	assert.Equal(t, "Message wamid.X marked as read successfully.", out.Result.TextPayload())
	assert.Equal(t, map[string]any{"messaging_product": "whatsapp", "status": "read", "message_id": "wamid.X"}, h.graph.last(t).Body)
}

func TestMediaTools(t *testing.T) {
	h := newHarness(t, map[string]reply{
		"POST /v18.0/PN1/media": {200, `{"id":"M1"}`},
		"GET /v18.0/M1":         {200, `{"url":"https://cdn/x","mime_type":"image/png","file_size":2048}`},
		"DELETE /v18.0/M1":      {200, `{"success":true}`},
	})

	out := h.call(t, "uploadMedia", map[string]any{"mediaUrl": "https://example.com/x.png", "mediaType": "image"})
	assert.Equal(t, "Media uploaded successfully. Media ID: M1", out.Result.TextPayload())
	assert.Equal(t, "image", h.graph.last(t).Body["type"])

	out = h.call(t, "getMediaUrl", map[string]any{"mediaId": "M1"})
	assert.Equal(t, "Media URL: https://cdn/x\nMedia type: image/png\nFile size: 2048 bytes", out.Result.TextPayload())

	out = h.call(t, "deleteMedia", map[string]any{"mediaId": "M1"})
	assert.Equal(t, "Media M1 deleted successfully.", out.Result.TextPayload())
	assert.Equal(t, http.MethodDelete, h.graph.last(t).Method)
}

func TestMediaTools_RejectUnknownType(t *testing.T) {
	h := newHarness(t, nil)
	out := h.call(t, "uploadMedia", map[string]any{"mediaUrl": "https://example.com/x", "mediaType": "gif"})
	assert.ErrorIs(t, out.Result.Err(), mcpservice.ErrValidation)
	assert.Zero(t, h.graph.count())
}

func TestGetMessageTemplates(t *testing.T) {
	h := newHarness(t, map[string]reply{
		"GET /v18.0/WABA1/message_templates": {200, `{"data":[
			{"name":"hello_world","category":"UTILITY","status":"APPROVED"},
			{"name":"promo","category":"MARKETING","status":"PENDING"}
		]}`},
	})

	out := h.call(t, "getMessageTemplates", map[string]any{})
	assert.Equal(t, "Message Templates:\n- hello_world (UTILITY): APPROVED\n- promo (MARKETING): PENDING", out.Result.TextPayload())
	assert.Equal(t, url.Values{"limit": {"20"}}, h.graph.last(t).Query)

	h.call(t, "getMessageTemplates", map[string]any{"limit": 5, "category": "MARKETING"})
	assert.Equal(t, url.Values{"limit": {"5"}, "category": {"MARKETING"}}, h.graph.last(t).Query)
}

func TestCreateMessageTemplate(t *testing.T) {
	h := newHarness(t, map[string]reply{
		"POST /v18.0/WABA1/message_templates": {200, `{"id":"T9","status":"PENDING"}`},
	})
	out := h.call(t, "createMessageTemplate", map[string]any{
		"name":       "reminder",
		"category":   "UTILITY",
		"language":   "en_US",
		"components": []any{map[string]any{"type": "BODY", "text": "Hi {{1}}"}},
	})
	assert.Equal(t, "Template created successfully. Template ID: T9", out.Result.TextPayload())
	assert.Equal(t, "reminder", h.graph.last(t).Body["name"])
}

func TestBusinessProfileTools(t *testing.T) {
	h := newHarness(t, map[string]reply{
		"GET /v18.0/PN1/whatsapp_business_profile": {200, `{"data":[{
			"about":"Hi","websites":["https://a.example","https://b.example"],"vertical":"RETAIL","id":"42"
		}]}`},
		"POST /v18.0/PN1/whatsapp_business_profile": {200, `{"success":true}`},
	})

	out := h.call(t, "getBusinessProfile", map[string]any{"fields": []any{"about", "websites"}})
	assert.Equal(t, "Business Profile:\nabout: Hi\nwebsites: https://a.example, https://b.example\nvertical: RETAIL\n", out.Result.TextPayload())
	assert.Equal(t, "about,websites", h.graph.last(t).Query.Get("fields"))

	out = h.call(t, "updateBusinessProfile", map[string]any{"about": "New"})
	assert.Equal(t, "Business profile updated successfully.", out.Result.TextPayload())
	assert.Equal(t, map[string]any{"about": "New", "messaging_product": "whatsapp"}, h.graph.last(t).Body)
}

func TestUpdateBusinessProfile_NothingToUpdate(t *testing.T) {
	h := newHarness(t, nil)
	out := h.call(t, "updateBusinessProfile", map[string]any{})
	require.True(t, out.Result.IsError())
	assert.Equal(t, "No profile data provided for update.", out.Result.Message())
	assert.Zero(t, h.graph.count())
}

func TestPhoneNumberTools(t *testing.T) {
	h := newHarness(t, map[string]reply{
		"GET /v18.0/WABA1/phone_numbers": {200, `{"data":[{"id":"PN1","display_phone_number":"+1 555","status":"CONNECTED"}]}`},
		"GET /v18.0/PN1":                 {200, `{"display_phone_number":"+1 555","id":"PN1","throughput":{"level":"STANDARD"},"quality_rating":"GREEN"}`},
		"POST /v18.0/PN1/request_code":   {200, `{"success":true}`},
		"POST /v18.0/PN1/verify_code":    {200, `{"success":true}`},
	})

	out := h.call(t, "getPhoneNumbers", nil)
	assert.Equal(t, "Phone Numbers:\n- +1 555 (ID: PN1): CONNECTED", out.Result.TextPayload())

	out = h.call(t, "getPhoneNumberById", map[string]any{"phoneNumberId": "PN1"})
	assert.Equal(t, "Phone Number Details:\ndisplay_phone_number: +1 555\nid: PN1\nquality_rating: GREEN\n", out.Result.TextPayload())

	out = h.call(t, "requestVerificationCode", map[string]any{"codeMethod": "VOICE"})
	assert.Equal(t, "Verification code requested successfully via VOICE.", out.Result.TextPayload())
	assert.Equal(t, map[string]any{"code_method": "VOICE", "language": "en_US"}, h.graph.last(t).Body)

	out = h.call(t, "verifyCode", map[string]any{"code": "123456"})
	assert.Equal(t, "Phone number verified successfully.", out.Result.TextPayload())
}

func TestWebhookTools(t *testing.T) {
	h := newHarness(t, map[string]reply{
		"GET /v18.0/APP/subscriptions":    {200, `{"data":[{"object":"whatsapp_business_account"}],"paging":"none"}`},
		"POST /v18.0/APP/subscriptions":   {200, `{"success":true}`},
		"DELETE /v18.0/APP/subscriptions": {200, `{"success":true}`},
	})

	out := h.call(t, "getWebhookInfo", map[string]any{"appId": "APP"})
	assert.Equal(t, "Webhook Information:\ndata: [{\"object\":\"whatsapp_business_account\"}]\npaging: none\n", out.Result.TextPayload())

	out = h.call(t, "subscribeWebhook", map[string]any{"appId": "APP", "callbackUrl": "https://example.com/hook", "verifyToken": "s3cret"})
	assert.Equal(t, "Webhook subscription created successfully.", out.Result.TextPayload())
	body := h.graph.last(t).Body
	assert.Equal(t, "whatsapp_business_account", body["object"])
	assert.Equal(t, []any{"messages", "message_status", "message_template_status"}, body["fields"])

	out = h.call(t, "deleteWebhookSubscription", map[string]any{"appId": "APP"})
	assert.Equal(t, "Webhook subscription deleted successfully.", out.Result.TextPayload())
}

func TestNode_EscapesIDs(t *testing.T) {
	assert.Equal(t, "/a%2Fb/subscriptions", node("a/b", "subscriptions"))
	assert.Equal(t, "/PN1", node("PN1"))
}
