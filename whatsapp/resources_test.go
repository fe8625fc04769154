package whatsapp

import (
	"net/url"
	"strings"
	"testing"

	"github.com/ggoodman/mcp-whatsapp-go/internal/jsonrpc"
	"github.com/ggoodman/mcp-whatsapp-go/mcpservice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const templatesReply = `{"data":[{
	"name":"order_update","category":"UTILITY","status":"APPROVED","language":"en_US",
	"components":[
		{"type":"BODY","text":"Your order {{1}} shipped"},
		{"type":"BUTTONS","buttons":[{"type":"URL","text":"Track","url":"https://t.example/{{1}}"}]}
	]
}]}`

func TestTemplatesResource(t *testing.T) {
	h := newHarness(t, map[string]reply{
		"GET /v18.0/WABA1/message_templates": {200, templatesReply},
	})

	out := h.read(t, "whatsapp://templates/UTILITY")
	require.False(t, out.Result.IsError(), out.Result.Message())
	assert.Equal(t, url.Values{"limit": {"50"}, "category": {"UTILITY"}}, h.graph.last(t).Query)

	text := out.Result.TextPayload()
	assert.True(t, strings.HasPrefix(text, "# WhatsApp Message Templates - UTILITY\n\n## order_update\n"))
	assert.Contains(t, text, "- Type: BODY\n  Text: Your order {{1}} shipped\n")
	assert.Contains(t, text, "    - URL: Track\n")
	assert.Equal(t, "whatsapp://templates/UTILITY", out.URI)
}

func TestTemplatesResource_AllSkipsCategoryFilter(t *testing.T) {
	h := newHarness(t, map[string]reply{
		"GET /v18.0/WABA1/message_templates": {200, `{"data":[]}`},
	})
	out := h.read(t, "whatsapp://templates/ALL")
	assert.Equal(t, "# WhatsApp Message Templates - ALL\n\nNo templates found.\n", out.Result.TextPayload())
	assert.Equal(t, url.Values{"limit": {"50"}}, h.graph.last(t).Query)
}

func TestTemplateDetailsResource(t *testing.T) {
	h := newHarness(t, map[string]reply{
		"GET /v18.0/WABA1/message_templates": {200, templatesReply},
	})
	out := h.read(t, "whatsapp://template/order_update")
	assert.Equal(t, "order_update", h.graph.last(t).Query.Get("name"))

	text := out.Result.TextPayload()
	assert.True(t, strings.HasPrefix(text, "# Template: order_update\n\n- Category: UTILITY\n"))
	assert.Contains(t, text, "### BUTTONS\nButtons:\n- URL: Track\n  URL: https://t.example/{{1}}\n")
}

func TestTemplateDetailsResource_NotFound(t *testing.T) {
	h := newHarness(t, map[string]reply{
		"GET /v18.0/WABA1/message_templates": {200, `{"data":[]}`},
	})
	out := h.read(t, "whatsapp://template/missing")
	require.False(t, out.Result.IsError())
	assert.Equal(t, "Template 'missing' not found.", out.Result.TextPayload())
}

func TestBusinessProfileResource(t *testing.T) {
	h := newHarness(t, map[string]reply{
		"GET /v18.0/PN1/whatsapp_business_profile": {200, `{"data":[{
			"about":"Hi","profile_picture_url":"https://p.example/x.jpg","websites":["https://a.example"],"id":"1"
		}]}`},
	})
	out := h.read(t, "whatsapp://business-profile")
	assert.Equal(t, "# WhatsApp Business Profile\n\n"+
		"## about\nHi\n\n"+
		"## profile_picture_url\n![Business Profile Picture](https://p.example/x.jpg)\n\n"+
		"## websites\n- https://a.example\n\n", out.Result.TextPayload())
}

func TestPhoneNumberResources(t *testing.T) {
	h := newHarness(t, map[string]reply{
		"GET /v18.0/WABA1/phone_numbers": {200, `{"data":[{"id":"PN1","display_phone_number":"+1 555","status":"CONNECTED","quality_rating":"GREEN"}]}`},
		"GET /v18.0/PN1":                 {200, `{"display_phone_number":"+1 555","status":"CONNECTED","webhook":{"x":1}}`},
	})

	out := h.read(t, "whatsapp://phone-numbers")
	assert.Equal(t, "# WhatsApp Phone Numbers\n\n## +1 555\n\n"+
		"- ID: PN1\n- Status: CONNECTED\n- Quality Rating: GREEN\n- Name: N/A\n- Verified: N/A\n\n---\n\n", out.Result.TextPayload())

	out = h.read(t, "whatsapp://phone-number/PN1")
	assert.Equal(t, "# Phone Number: +1 555\n\n## display_phone_number\n+1 555\n\n## status\nCONNECTED\n\n", out.Result.TextPayload())
}

func TestResource_UpstreamErrorIsReturnedAsContents(t *testing.T) {
	h := newHarness(t, map[string]reply{
		"GET /v18.0/PN1/whatsapp_business_profile": {500, `{}`},
	})
	out := h.read(t, "whatsapp://business-profile")
	require.True(t, out.Result.IsError())
	assert.Equal(t, "Error retrieving business profile: WhatsApp API Error: Request failed with status code 500", out.Result.Message())

	resp := mcpservice.ProtocolEnvelope(jsonrpc.NewRequestID(3), out)
	require.Nil(t, resp.Error)
	assert.JSONEq(t, `{"contents":[{
		"uri":"whatsapp://business-profile",
		"mimeType":"text/markdown",
		"text":"Error retrieving business profile: WhatsApp API Error: Request failed with status code 500"
	}]}`, string(resp.Result))
}

func TestResource_Unknown(t *testing.T) {
	h := newHarness(t, nil)
	out := h.read(t, "whatsapp://nowhere")
	assert.ErrorIs(t, out.Result.Err(), mcpservice.ErrUnknownResource)
	assert.Zero(t, h.graph.count())
}

func TestDocsResources(t *testing.T) {
	h := newHarness(t, nil)

	out := h.read(t, "whatsapp://docs")
	require.False(t, out.Result.IsError())
	assert.True(t, strings.HasPrefix(out.Result.TextPayload(), "# WhatsApp Business API Documentation"))

	for _, topic := range []string{"messaging", "templates", "media", "business-profile", "phone-numbers", "webhooks"} {
		out := h.read(t, "whatsapp://docs/"+topic)
		require.False(t, out.Result.IsError(), topic)
		assert.Equal(t, "text/markdown", out.MimeType, topic)
		assert.True(t, strings.HasPrefix(out.Result.TextPayload(), "# "), topic)
	}

	out = h.read(t, "whatsapp://docs/nope")
	assert.ErrorIs(t, out.Result.Err(), mcpservice.ErrUnknownResource)
	assert.Zero(t, h.graph.count())
}

func TestDoc(t *testing.T) {
	b, err := Doc(OverviewTopic)
	require.NoError(t, err)
	assert.Contains(t, string(b), "whatsapp://docs/webhooks")

	b, err = Doc("media")
	require.NoError(t, err)
	assert.Contains(t, string(b), "uploadMedia")

	_, err = Doc("missing")
	assert.Error(t, err)
}
