package whatsapp

import (
	"context"

	"github.com/ggoodman/mcp-whatsapp-go/mcpservice"
	"github.com/ggoodman/mcp-whatsapp-go/schema"
)

type phoneNumber struct {
	ID                     string `json:"id"`
	DisplayPhoneNumber     string `json:"display_phone_number"`
	Status                 string `json:"status"`
	QualityRating          string `json:"quality_rating"`
	Name                   string `json:"name"`
	VerifiedName           string `json:"verified_name"`
	CodeVerificationStatus string `json:"code_verification_status"`
}

type phoneNumberList struct {
	Data []phoneNumber `json:"data"`
}

func (s *Service) phoneNumbersPath() string {
	return node(s.acct.BusinessAccountID, "phone_numbers")
}

func (s *Service) phoneNumberTools() []mcpservice.ToolDescriptor {
	return []mcpservice.ToolDescriptor{
		mcpservice.NewTool("getPhoneNumbers", s.getPhoneNumbers,
			mcpservice.WithToolDescription("Get a list of phone numbers for the business account"),
		),
		mcpservice.NewTool("getPhoneNumberById", s.getPhoneNumberByID,
			mcpservice.WithToolDescription("Get details for a specific phone number by ID"),
			mcpservice.WithToolInput(
				schema.Prop("phoneNumberId", schema.String().Describe("ID of the phone number to retrieve"), schema.Required()),
			),
		),
		mcpservice.NewTool("requestVerificationCode", s.requestVerificationCode,
			mcpservice.WithToolDescription("Request a verification code for a phone number"),
			mcpservice.WithToolInput(
				schema.Prop("codeMethod", schema.Enum("SMS", "VOICE").Describe("Method to receive verification code"), schema.Required()),
				schema.Prop("language", schema.String().Describe("Language for the verification message"), schema.Required(), schema.Default("en_US")),
			),
		),
		mcpservice.NewTool("verifyCode", s.verifyCode,
			mcpservice.WithToolDescription("Verify a phone number with a received code"),
			mcpservice.WithToolInput(
				schema.Prop("code", schema.String().Describe("Verification code received"), schema.Required()),
			),
		),
	}
}

func (s *Service) getPhoneNumbers(ctx context.Context, _ schema.Args) mcpservice.Result {
	var resp phoneNumberList
	err := s.api.Get(ctx, s.phoneNumbersPath(), nil, &resp)
	return done(err, mcpservice.Text(formatPhoneNumberList(resp.Data)))
}

func (s *Service) getPhoneNumberByID(ctx context.Context, args schema.Args) mcpservice.Result {
	resp := NewObject()
	if err := s.api.Get(ctx, node(args.String("phoneNumberId")), nil, resp); err != nil {
		return mcpservice.FromError(err)
	}
	return mcpservice.Text(formatScalars("Phone Number Details:", resp))
}

func (s *Service) requestVerificationCode(ctx context.Context, args schema.Args) mcpservice.Result {
	method := args.String("codeMethod")
	body := map[string]any{
		"code_method": method,
		"language":    args.String("language"),
	}
	err := s.api.Post(ctx, node(s.acct.PhoneNumberID, "request_code"), body, nil)
	return done(err, mcpservice.Text("Verification code requested successfully via %s.", method))
}

func (s *Service) verifyCode(ctx context.Context, args schema.Args) mcpservice.Result {
	body := map[string]any{"code": args.String("code")}
	err := s.api.Post(ctx, node(s.acct.PhoneNumberID, "verify_code"), body, nil)
	return done(err, mcpservice.Text("Phone number verified successfully."))
}
