package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"github.com/ggoodman/mcp-whatsapp-go/mcpservice"
)

type catalogTool struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	InputSchema *jsonschema.Schema `json:"inputSchema"`
}

type catalogResource struct {
	Name        string `json:"name"`
	URITemplate string `json:"uriTemplate"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType"`
}

type catalog struct {
	Tools     []catalogTool     `json:"tools"`
	Resources []catalogResource `json:"resources"`
}

// catalogCmd prints the registered tools and resources. It needs no
// credentials since nothing is sent upstream.
func (a *app) catalogCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the registered tools and resources",
		RunE: func(cmd *cobra.Command, _ []string) error {
			disp, err := a.dispatcher()
			if err != nil {
				return err
			}
			c := buildCatalog(disp.Registry())
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(c)
			}
			printCatalog(cmd.OutOrStdout(), c)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the catalogue with full input schemas as JSON")
	return cmd
}

func buildCatalog(reg *mcpservice.Registry) catalog {
	var c catalog
	for _, t := range reg.Tools() {
		c.Tools = append(c.Tools, catalogTool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.Input.JSONSchema(),
		})
	}
	for _, r := range reg.Resources() {
		c.Resources = append(c.Resources, catalogResource{
			Name:        r.Name,
			URITemplate: r.Template.String(),
			Description: r.Description,
			MimeType:    r.MimeType,
		})
	}
	return c
}

func printCatalog(w io.Writer, c catalog) {
	heading := color.New(color.FgCyan, color.Bold)
	name := color.New(color.FgGreen)
	dim := color.New(color.Faint)

	heading.Fprintf(w, "Tools (%d)\n", len(c.Tools))
	for _, t := range c.Tools {
		var fields []string
		if t.InputSchema.Properties != nil {
			for pair := t.InputSchema.Properties.Oldest(); pair != nil; pair = pair.Next() {
				fields = append(fields, pair.Key)
			}
		}
		fmt.Fprintf(w, "  %s(%s)\n", name.Sprint(t.Name), strings.Join(fields, ", "))
		if t.Description != "" {
			dim.Fprintf(w, "      %s\n", t.Description)
		}
	}

	fmt.Fprintln(w)
	heading.Fprintf(w, "Resources (%d)\n", len(c.Resources))
	for _, r := range c.Resources {
		fmt.Fprintf(w, "  %s  %s\n", name.Sprint(r.URITemplate), dim.Sprint(r.MimeType))
	}
}
