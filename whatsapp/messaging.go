package whatsapp

import (
	"context"

	"github.com/ggoodman/mcp-whatsapp-go/mcpservice"
	"github.com/ggoodman/mcp-whatsapp-go/schema"
)

var (
	templateParameter = schema.Object(
		schema.Prop("type", schema.Enum("text", "currency", "date_time", "image", "document", "video"), schema.Required()),
		schema.Prop("text", schema.String()),
		schema.Prop("currency", schema.Object(
			schema.Prop("code", schema.String(), schema.Required()),
			schema.Prop("amount", schema.Number(), schema.Required()),
		)),
		schema.Prop("date_time", schema.Object(
			schema.Prop("fallback_value", schema.String(), schema.Required()),
		)),
		schema.Prop("image", linkObject()),
		schema.Prop("document", linkObject()),
		schema.Prop("video", linkObject()),
	)

	templateComponentSchema = schema.Object(
		schema.Prop("type", schema.Enum("header", "body", "button"), schema.Required()),
		schema.Prop("parameters", schema.ArrayOf(templateParameter), schema.Required()),
	)
)

func linkObject() schema.Schema {
	return schema.Object(schema.Prop("link", schema.String(), schema.Required()))
}

// sendResponse is the Graph API reply to a message send.
type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

func (r sendResponse) messageID() string {
	if len(r.Messages) == 0 {
		return ""
	}
	return r.Messages[0].ID
}

func (s *Service) messagesPath() string { return node(s.acct.PhoneNumberID, "messages") }

func (s *Service) messagingTools() []mcpservice.ToolDescriptor {
	return []mcpservice.ToolDescriptor{
		mcpservice.NewTool("sendTextMessage", s.sendTextMessage,
			mcpservice.WithToolDescription("Send a text message to a WhatsApp user"),
			mcpservice.WithToolInput(
				schema.Prop("to", schema.String().Describe("Recipient's phone number with country code"), schema.Required()),
				schema.Prop("message", schema.String().Describe("Text message to send"), schema.Required()),
				schema.Prop("previewUrl", schema.Boolean().Describe("Enable URL preview"), schema.Default(false)),
			),
		),
		mcpservice.NewTool("sendTemplateMessage", s.sendTemplateMessage,
			mcpservice.WithToolDescription("Send a template message to a WhatsApp user"),
			mcpservice.WithToolInput(
				schema.Prop("to", schema.String().Describe("Recipient's phone number with country code"), schema.Required()),
				schema.Prop("templateName", schema.String().Describe("Name of the template to use"), schema.Required()),
				schema.Prop("languageCode", schema.String().Describe("Language code for the template"), schema.Required(), schema.Default("en_US")),
				schema.Prop("components", schema.ArrayOf(templateComponentSchema).Describe("Template components with parameters")),
			),
		),
		mcpservice.NewTool("sendImageMessage", s.sendImageMessage,
			mcpservice.WithToolDescription("Send an image message to a WhatsApp user"),
			mcpservice.WithToolInput(
				schema.Prop("to", schema.String().Describe("Recipient's phone number with country code"), schema.Required()),
				schema.Prop("imageUrl", schema.String().WithFormat(schema.FormatURI).Describe("URL of the image"), schema.Required()),
				schema.Prop("caption", schema.String().Describe("Image caption")),
			),
		),
		mcpservice.NewTool("markMessageAsRead", s.markMessageAsRead,
			mcpservice.WithToolDescription("Mark a message as read"),
			mcpservice.WithToolInput(
				schema.Prop("messageId", schema.String().Describe("ID of the message to mark as read"), schema.Required()),
			),
		),
	}
}

func (s *Service) sendTextMessage(ctx context.Context, args schema.Args) mcpservice.Result {
	body := map[string]any{
		"messaging_product": "whatsapp",
		"recipient_type":    "individual",
		"to":                FormatPhoneNumber(args.String("to")),
		"type":              "text",
		"text": map[string]any{
			"body":        args.String("message"),
			"preview_url": args.Bool("previewUrl"),
		},
	}
	var resp sendResponse
	err := s.api.Post(ctx, s.messagesPath(), body, &resp)
	return done(err, mcpservice.Text("Message sent successfully. Message ID: %s", resp.messageID()))
}

func (s *Service) sendTemplateMessage(ctx context.Context, args schema.Args) mcpservice.Result {
	template := map[string]any{
		"name":     args.String("templateName"),
		"language": map[string]any{"code": args.String("languageCode")},
	}
	if components := args.Slice("components"); len(components) > 0 {
		template["components"] = components
	}
	body := map[string]any{
		"messaging_product": "whatsapp",
		"recipient_type":    "individual",
		"to":                FormatPhoneNumber(args.String("to")),
		"type":              "template",
		"template":          template,
	}
	var resp sendResponse
	err := s.api.Post(ctx, s.messagesPath(), body, &resp)
	return done(err, mcpservice.Text("Template message sent successfully. Message ID: %s", resp.messageID()))
}

func (s *Service) sendImageMessage(ctx context.Context, args schema.Args) mcpservice.Result {
	image := map[string]any{"link": args.String("imageUrl")}
	if args.Has("caption") {
		image["caption"] = args.String("caption")
	}
	to := FormatPhoneNumber(args.String("to"))
	body := map[string]any{
		"messaging_product": "whatsapp",
		"recipient_type":    "individual",
		"to":                to,
		"type":              "image",
		"image":             image,
	}
	var resp sendResponse
	err := s.api.Post(ctx, s.messagesPath(), body, &resp)
	return done(err, mcpservice.Text("Image message sent successfully to %s. Message ID: %s", to, resp.messageID()))
}

func (s *Service) markMessageAsRead(ctx context.Context, args schema.Args) mcpservice.Result {
	id := args.String("messageId")
	body := map[string]any{
		"messaging_product": "whatsapp",
		"status":            "read",
		"message_id":        id,
	}
	err := s.api.Post(ctx, s.messagesPath(), body, nil)
	return done(err, mcpservice.Text("Message %s marked as read successfully.", id))
}
