package whatsapp

import (
	"context"

	"github.com/ggoodman/mcp-whatsapp-go/mcpservice"
	"github.com/ggoodman/mcp-whatsapp-go/schema"
)

// webhookFields are the WhatsApp Business Account fields a subscription
// listens to.
var webhookFields = []string{"messages", "message_status", "message_template_status"}

func (s *Service) webhookTools() []mcpservice.ToolDescriptor {
	appID := schema.Prop("appId", schema.String().Describe("Facebook App ID"), schema.Required())
	return []mcpservice.ToolDescriptor{
		mcpservice.NewTool("getWebhookInfo", s.getWebhookInfo,
			mcpservice.WithToolDescription("Get information about configured webhooks"),
			mcpservice.WithToolInput(appID),
		),
		mcpservice.NewTool("subscribeWebhook", s.subscribeWebhook,
			mcpservice.WithToolDescription("Subscribe to webhook notifications"),
			mcpservice.WithToolInput(
				appID,
				schema.Prop("callbackUrl", schema.String().WithFormat(schema.FormatURI).Describe("Webhook callback URL"), schema.Required()),
				schema.Prop("verifyToken", schema.String().Describe("Verification token for the webhook"), schema.Required()),
			),
		),
		mcpservice.NewTool("deleteWebhookSubscription", s.deleteWebhookSubscription,
			mcpservice.WithToolDescription("Delete a webhook subscription"),
			mcpservice.WithToolInput(appID),
		),
	}
}

func subscriptionsPath(appID string) string { return node(appID, "subscriptions") }

func (s *Service) getWebhookInfo(ctx context.Context, args schema.Args) mcpservice.Result {
	resp := NewObject()
	if err := s.api.Get(ctx, subscriptionsPath(args.String("appId")), nil, resp); err != nil {
		return mcpservice.FromError(err)
	}
	return mcpservice.Text(formatWebhookInfo(resp))
}

func (s *Service) subscribeWebhook(ctx context.Context, args schema.Args) mcpservice.Result {
	body := map[string]any{
		"object":       "whatsapp_business_account",
		"callback_url": args.String("callbackUrl"),
		"verify_token": args.String("verifyToken"),
		"fields":       webhookFields,
	}
	err := s.api.Post(ctx, subscriptionsPath(args.String("appId")), body, nil)
	return done(err, mcpservice.Text("Webhook subscription created successfully."))
}

func (s *Service) deleteWebhookSubscription(ctx context.Context, args schema.Args) mcpservice.Result {
	err := s.api.Delete(ctx, subscriptionsPath(args.String("appId")), nil)
	return done(err, mcpservice.Text("Webhook subscription deleted successfully."))
}
