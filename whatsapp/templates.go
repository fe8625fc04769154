package whatsapp

import (
	"context"
	"net/url"
	"strconv"

	"github.com/ggoodman/mcp-whatsapp-go/mcpservice"
	"github.com/ggoodman/mcp-whatsapp-go/schema"
)

// TemplateCategories are the message template categories.
var TemplateCategories = []string{"AUTHENTICATION", "MARKETING", "UTILITY"}

var templateDefinitionComponent = schema.Object(
	schema.Prop("type", schema.Enum("HEADER", "BODY", "FOOTER", "BUTTONS"), schema.Required()),
	schema.Prop("text", schema.String()),
	schema.Prop("format", schema.Enum("TEXT", "IMAGE", "VIDEO", "DOCUMENT", "LOCATION")),
	schema.Prop("buttons", schema.ArrayOf(schema.Object(
		schema.Prop("type", schema.Enum("PHONE_NUMBER", "URL", "QUICK_REPLY"), schema.Required()),
		schema.Prop("text", schema.String(), schema.Required()),
		schema.Prop("phone_number", schema.String()),
		schema.Prop("url", schema.String()),
	))),
)

// messageTemplate is a template as returned by the message_templates edge.
type messageTemplate struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"`
	Category   string              `json:"category"`
	Status     string              `json:"status"`
	Language   string              `json:"language"`
	Components []templateComponent `json:"components"`
}

type templateComponent struct {
	Type    string           `json:"type"`
	Text    string           `json:"text"`
	Format  string           `json:"format"`
	Buttons []templateButton `json:"buttons"`
}

type templateButton struct {
	Type        string `json:"type"`
	Text        string `json:"text"`
	URL         string `json:"url"`
	PhoneNumber string `json:"phone_number"`
}

type templateList struct {
	Data []messageTemplate `json:"data"`
}

func (s *Service) templatesPath() string {
	return node(s.acct.BusinessAccountID, "message_templates")
}

func (s *Service) templateTools() []mcpservice.ToolDescriptor {
	return []mcpservice.ToolDescriptor{
		mcpservice.NewTool("getMessageTemplates", s.getMessageTemplates,
			mcpservice.WithToolDescription("Get a list of message templates for the business account"),
			mcpservice.WithToolInput(
				schema.Prop("limit", schema.Number().Describe("Number of templates to retrieve (default: 20)"), schema.Default(20)),
				schema.Prop("category", schema.Enum(TemplateCategories...).Describe("Filter by template category")),
			),
		),
		mcpservice.NewTool("createMessageTemplate", s.createMessageTemplate,
			mcpservice.WithToolDescription("Create a new message template"),
			mcpservice.WithToolInput(
				schema.Prop("name", schema.String().Describe("Name of the template"), schema.Required()),
				schema.Prop("category", schema.Enum(TemplateCategories...).Describe("Template category"), schema.Required()),
				schema.Prop("language", schema.String().Describe("Language code (e.g., en_US)"), schema.Required()),
				schema.Prop("components", schema.ArrayOf(templateDefinitionComponent).Describe("Template components"), schema.Required()),
			),
		),
	}
}

func (s *Service) getMessageTemplates(ctx context.Context, args schema.Args) mcpservice.Result {
	q := url.Values{"limit": {strconv.Itoa(args.Int("limit"))}}
	if c := args.String("category"); c != "" {
		q.Set("category", c)
	}
	var resp templateList
	err := s.api.Get(ctx, s.templatesPath(), q, &resp)
	return done(err, mcpservice.Text(formatTemplateList(resp.Data)))
}

func (s *Service) createMessageTemplate(ctx context.Context, args schema.Args) mcpservice.Result {
	body := map[string]any{
		"name":       args.String("name"),
		"category":   args.String("category"),
		"language":   args.String("language"),
		"components": args.Slice("components"),
	}
	var resp struct {
		ID string `json:"id"`
	}
	err := s.api.Post(ctx, s.templatesPath(), body, &resp)
	return done(err, mcpservice.Text("Template created successfully. Template ID: %s", resp.ID))
}
