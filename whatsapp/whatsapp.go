// Package whatsapp declares the WhatsApp Business catalogue: the tools and
// resources registered into an mcpservice.Registry. Every handler issues one
// Graph API call and renders its response as text.
//
//	api := graphapi.New(cfg.APIToken, cfg.APIURL, cfg.APIVersion)
//	reg := mcpservice.NewRegistry()
//	if err := whatsapp.Register(reg, api, whatsapp.Account{
//	    PhoneNumberID:     cfg.PhoneNumberID,
//	    BusinessAccountID: cfg.BusinessAccountID,
//	}); err != nil {
//	    return err
//	}
package whatsapp

import (
	"context"
	"fmt"
	"net/url"

	"github.com/ggoodman/mcp-whatsapp-go/mcpservice"
)

// API is the subset of graphapi.Client the catalogue needs.
type API interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string, out any) error
}

// Account identifies the sending phone number and the owning business
// account.
type Account struct {
	PhoneNumberID     string
	BusinessAccountID string
}

// Service binds the catalogue handlers to an API client and account.
type Service struct {
	api  API
	acct Account
}

// New returns a Service.
func New(api API, acct Account) *Service {
	return &Service{api: api, acct: acct}
}

// Register adds every tool and resource to reg in catalogue order.
func Register(reg *mcpservice.Registry, api API, acct Account) error {
	s := New(api, acct)
	for _, t := range s.Tools() {
		if err := reg.RegisterTool(t); err != nil {
			return fmt.Errorf("whatsapp: register tool %s: %w", t.Name, err)
		}
	}
	resources, err := s.Resources()
	if err != nil {
		return err
	}
	for _, r := range resources {
		if err := reg.RegisterResource(r); err != nil {
			return fmt.Errorf("whatsapp: register resource %s: %w", r.Name, err)
		}
	}
	return nil
}

// Tools returns the tool descriptors in catalogue order.
func (s *Service) Tools() []mcpservice.ToolDescriptor {
	var out []mcpservice.ToolDescriptor
	out = append(out, s.messagingTools()...)
	out = append(out, s.mediaTools()...)
	out = append(out, s.templateTools()...)
	out = append(out, s.profileTools()...)
	out = append(out, s.phoneNumberTools()...)
	out = append(out, s.webhookTools()...)
	return out
}

// Resources returns the resource descriptors in catalogue order.
func (s *Service) Resources() ([]mcpservice.ResourceDescriptor, error) {
	builders := []func() (mcpservice.ResourceDescriptor, error){
		s.templatesResource,
		s.templateDetailsResource,
		s.businessProfileResource,
		s.phoneNumbersResource,
		s.phoneNumberDetailsResource,
		apiDocumentationResource,
		documentationResource,
	}
	out := make([]mcpservice.ResourceDescriptor, 0, len(builders))
	for _, b := range builders {
		d, err := b()
		if err != nil {
			return nil, fmt.Errorf("whatsapp: %w", err)
		}
		out = append(out, d)
	}
	return out, nil
}

// done converts a call error into a Result, or returns the ok Result.
func done(err error, ok mcpservice.Result) mcpservice.Result {
	if err != nil {
		return mcpservice.FromError(err)
	}
	return ok
}

// node returns the Graph API path of a caller supplied object id.
func node(id string, edges ...string) string {
	p := "/" + url.PathEscape(id)
	for _, e := range edges {
		p += "/" + e
	}
	return p
}
