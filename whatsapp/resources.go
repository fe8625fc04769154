package whatsapp

import (
	"context"
	"net/url"

	"github.com/ggoodman/mcp-whatsapp-go/mcpservice"
	"github.com/ggoodman/mcp-whatsapp-go/uritemplate"
)

// allCategories reads templates of every category.
const allCategories = "ALL"

func (s *Service) templatesResource() (mcpservice.ResourceDescriptor, error) {
	return mcpservice.NewResource("templates", "whatsapp://templates/{category}", s.readTemplates,
		mcpservice.WithResourceDescription("Message templates of the business account, by category"),
		mcpservice.WithEnumeratedValues(TemplateCategories...),
	)
}

func (s *Service) readTemplates(ctx context.Context, _ string, params uritemplate.Params) mcpservice.Result {
	category := params["category"]
	q := url.Values{"limit": {"50"}}
	if category != allCategories {
		q.Set("category", category)
	}
	var resp templateList
	if err := s.api.Get(ctx, s.templatesPath(), q, &resp); err != nil {
		return mcpservice.FromError(err).Prefix("Error retrieving templates: ")
	}
	return mcpservice.Text(templatesMarkdown(category, resp.Data))
}

func (s *Service) templateDetailsResource() (mcpservice.ResourceDescriptor, error) {
	return mcpservice.NewResource("templateDetails", "whatsapp://template/{name}", s.readTemplateDetails,
		mcpservice.WithResourceDescription("A single message template by name"),
	)
}

func (s *Service) readTemplateDetails(ctx context.Context, _ string, params uritemplate.Params) mcpservice.Result {
	name := params["name"]
	var resp templateList
	if err := s.api.Get(ctx, s.templatesPath(), url.Values{"name": {name}}, &resp); err != nil {
		return mcpservice.FromError(err).Prefix("Error retrieving template details: ")
	}
	if len(resp.Data) == 0 {
		return mcpservice.Text("Template '%s' not found.", name)
	}
	return mcpservice.Text(templateDetailsMarkdown(resp.Data[0]))
}

func (s *Service) businessProfileResource() (mcpservice.ResourceDescriptor, error) {
	return mcpservice.NewResource("businessProfile", "whatsapp://business-profile", s.readBusinessProfile,
		mcpservice.WithResourceDescription("The WhatsApp Business profile of the configured phone number"),
	)
}

func (s *Service) readBusinessProfile(ctx context.Context, _ string, _ uritemplate.Params) mcpservice.Result {
	var resp profileList
	if err := s.api.Get(ctx, s.profilePath(), nil, &resp); err != nil {
		return mcpservice.FromError(err).Prefix("Error retrieving business profile: ")
	}
	return mcpservice.Text(businessProfileMarkdown(resp.first()))
}

func (s *Service) phoneNumbersResource() (mcpservice.ResourceDescriptor, error) {
	return mcpservice.NewResource("phoneNumbers", "whatsapp://phone-numbers", s.readPhoneNumbers,
		mcpservice.WithResourceDescription("Phone numbers registered to the business account"),
	)
}

func (s *Service) readPhoneNumbers(ctx context.Context, _ string, _ uritemplate.Params) mcpservice.Result {
	var resp phoneNumberList
	if err := s.api.Get(ctx, s.phoneNumbersPath(), nil, &resp); err != nil {
		return mcpservice.FromError(err).Prefix("Error retrieving phone numbers: ")
	}
	return mcpservice.Text(phoneNumbersMarkdown(resp.Data))
}

func (s *Service) phoneNumberDetailsResource() (mcpservice.ResourceDescriptor, error) {
	return mcpservice.NewResource("phoneNumberDetails", "whatsapp://phone-number/{id}", s.readPhoneNumberDetails,
		mcpservice.WithResourceDescription("Details of a single phone number by ID"),
	)
}

func (s *Service) readPhoneNumberDetails(ctx context.Context, _ string, params uritemplate.Params) mcpservice.Result {
	resp := NewObject()
	if err := s.api.Get(ctx, node(params["id"]), nil, resp); err != nil {
		return mcpservice.FromError(err).Prefix("Error retrieving phone number details: ")
	}
	return mcpservice.Text(phoneNumberDetailsMarkdown(resp))
}
