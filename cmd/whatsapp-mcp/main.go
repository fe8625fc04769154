// Command whatsapp-mcp exposes the WhatsApp Business catalogue as MCP tools
// and resources over HTTP or stdio.
package main

import (
	"os"

	"github.com/fatih/color"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
