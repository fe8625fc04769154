package whatsapp

import (
	"context"
	"embed"
	"io/fs"

	"github.com/ggoodman/mcp-whatsapp-go/mcpservice"
	"github.com/ggoodman/mcp-whatsapp-go/uritemplate"
)

//go:embed docs/overview.md docs/topics/*.md
var docsFS embed.FS

// OverviewTopic is the topic name under which Doc returns the overview.
const OverviewTopic = "overview"

// Topics returns the documentation topic files, one "<topic>.md" per topic.
func Topics() fs.FS {
	sub, err := fs.Sub(docsFS, "docs/topics")
	if err != nil {
		panic(err)
	}
	return sub
}

// Doc returns the markdown of a topic, or of the overview for OverviewTopic.
func Doc(topic string) ([]byte, error) {
	if topic == OverviewTopic {
		return docsFS.ReadFile("docs/overview.md")
	}
	return fs.ReadFile(Topics(), topic+".md")
}

func apiDocumentationResource() (mcpservice.ResourceDescriptor, error) {
	return mcpservice.NewResource("apiDocumentation", "whatsapp://docs", readOverview,
		mcpservice.WithResourceDescription("Overview of the WhatsApp Business API and of this server"),
	)
}

func readOverview(context.Context, string, uritemplate.Params) mcpservice.Result {
	b, err := Doc(OverviewTopic)
	if err != nil {
		return mcpservice.Fail(mcpservice.KindInternal, "read overview: %v", err)
	}
	return mcpservice.Text(string(b))
}

func documentationResource() (mcpservice.ResourceDescriptor, error) {
	return mcpservice.NewFSResource("documentation", "whatsapp://docs/{topic}", Topics(), nil,
		mcpservice.WithResourceDescription("WhatsApp Business API documentation by topic"),
	)
}
