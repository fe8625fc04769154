package whatsapp

import (
	"context"
	"net/url"
	"strings"

	"github.com/ggoodman/mcp-whatsapp-go/mcpservice"
	"github.com/ggoodman/mcp-whatsapp-go/schema"
)

var (
	profileFields = []string{"about", "address", "description", "email", "profile_picture_url", "websites", "vertical"}

	businessVerticals = []string{
		"UNDEFINED", "OTHER", "AUTO", "BEAUTY", "APPAREL", "EDU",
		"ENTERTAIN", "EVENT_PLAN", "FINANCE", "GROCERY", "GOVT",
		"HOTEL", "HEALTH", "NONPROFIT", "PROF_SERVICES",
		"RETAIL", "TRAVEL", "RESTAURANT", "NOT_A_BIZ",
	}

	// updatableProfileFields lists the updateBusinessProfile inputs in
	// contract order.
	updatableProfileFields = []string{"about", "address", "description", "email", "vertical", "websites"}
)

// profileList is the whatsapp_business_profile edge response.
type profileList struct {
	Data []*Object `json:"data"`
}

func (p profileList) first() *Object {
	if len(p.Data) == 0 || p.Data[0] == nil {
		return NewObject()
	}
	return p.Data[0]
}

func (s *Service) profilePath() string {
	return node(s.acct.PhoneNumberID, "whatsapp_business_profile")
}

func (s *Service) profileTools() []mcpservice.ToolDescriptor {
	return []mcpservice.ToolDescriptor{
		mcpservice.NewTool("getBusinessProfile", s.getBusinessProfile,
			mcpservice.WithToolDescription("Get the business profile information"),
			mcpservice.WithToolInput(
				schema.Prop("fields", schema.ArrayOf(schema.Enum(profileFields...)).Describe("Fields to retrieve (default: all)")),
			),
		),
		mcpservice.NewTool("updateBusinessProfile", s.updateBusinessProfile,
			mcpservice.WithToolDescription("Update the business profile information"),
			mcpservice.WithToolInput(
				schema.Prop("about", schema.String().Describe("About text")),
				schema.Prop("address", schema.String().Describe("Business address")),
				schema.Prop("description", schema.String().Describe("Business description")),
				schema.Prop("email", schema.String().WithFormat(schema.FormatEmail).Describe("Business email")),
				schema.Prop("vertical", schema.Enum(businessVerticals...).Describe("Business category")),
				schema.Prop("websites", schema.ArrayOf(schema.String().WithFormat(schema.FormatURI)).Describe("Business websites")),
			),
		),
	}
}

func (s *Service) getBusinessProfile(ctx context.Context, args schema.Args) mcpservice.Result {
	var q url.Values
	if fields := args.Strings("fields"); len(fields) > 0 {
		q = url.Values{"fields": {strings.Join(fields, ",")}}
	}
	var resp profileList
	err := s.api.Get(ctx, s.profilePath(), q, &resp)
	if err != nil {
		return mcpservice.FromError(err)
	}
	return mcpservice.Text(formatBusinessProfile(resp.first()))
}

func (s *Service) updateBusinessProfile(ctx context.Context, args schema.Args) mcpservice.Result {
	body := make(map[string]any)
	for _, f := range updatableProfileFields {
		if v, ok := args[f]; ok {
			body[f] = v
		}
	}
	if len(body) == 0 {
		return mcpservice.Fail(mcpservice.KindValidation, "No profile data provided for update.")
	}
	body["messaging_product"] = "whatsapp"
	err := s.api.Post(ctx, s.profilePath(), body, nil)
	return done(err, mcpservice.Text("Business profile updated successfully."))
}
