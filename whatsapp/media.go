package whatsapp

import (
	"context"

	"github.com/ggoodman/mcp-whatsapp-go/mcpservice"
	"github.com/ggoodman/mcp-whatsapp-go/schema"
)

func (s *Service) mediaTools() []mcpservice.ToolDescriptor {
	return []mcpservice.ToolDescriptor{
		mcpservice.NewTool("uploadMedia", s.uploadMedia,
			mcpservice.WithToolDescription("Upload media to WhatsApp servers"),
			mcpservice.WithToolInput(
				schema.Prop("mediaUrl", schema.String().WithFormat(schema.FormatURI).Describe("URL of the media to upload"), schema.Required()),
				schema.Prop("mediaType", schema.Enum("image", "document", "audio", "video", "sticker").Describe("Type of media"), schema.Required()),
			),
		),
		mcpservice.NewTool("getMediaUrl", s.getMediaURL,
			mcpservice.WithToolDescription("Get the URL for a media file by ID"),
			mcpservice.WithToolInput(
				schema.Prop("mediaId", schema.String().Describe("ID of the media to retrieve"), schema.Required()),
			),
		),
		mcpservice.NewTool("deleteMedia", s.deleteMedia,
			mcpservice.WithToolDescription("Delete media from WhatsApp servers"),
			mcpservice.WithToolInput(
				schema.Prop("mediaId", schema.String().Describe("ID of the media to delete"), schema.Required()),
			),
		),
	}
}

func (s *Service) uploadMedia(ctx context.Context, args schema.Args) mcpservice.Result {
	body := map[string]any{
		"messaging_product": "whatsapp",
		"url":               args.String("mediaUrl"),
		"type":              args.String("mediaType"),
	}
	var resp struct {
		ID string `json:"id"`
	}
	err := s.api.Post(ctx, node(s.acct.PhoneNumberID, "media"), body, &resp)
	return done(err, mcpservice.Text("Media uploaded successfully. Media ID: %s", resp.ID))
}

func (s *Service) getMediaURL(ctx context.Context, args schema.Args) mcpservice.Result {
	var resp struct {
		URL      string `json:"url"`
		MimeType string `json:"mime_type"`
		FileSize any    `json:"file_size"`
	}
	err := s.api.Get(ctx, node(args.String("mediaId")), nil, &resp)
	return done(err, mcpservice.Text("Media URL: %s\nMedia type: %s\nFile size: %s bytes",
		resp.URL, resp.MimeType, display(resp.FileSize)))
}

func (s *Service) deleteMedia(ctx context.Context, args schema.Args) mcpservice.Result {
	id := args.String("mediaId")
	err := s.api.Delete(ctx, node(id), nil)
	return done(err, mcpservice.Text("Media %s deleted successfully.", id))
}
