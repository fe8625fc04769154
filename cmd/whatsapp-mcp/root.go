package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ggoodman/mcp-whatsapp-go/config"
	"github.com/ggoodman/mcp-whatsapp-go/httpapi"
	"github.com/ggoodman/mcp-whatsapp-go/internal/graphapi"
	"github.com/ggoodman/mcp-whatsapp-go/internal/metrics"
	"github.com/ggoodman/mcp-whatsapp-go/mcp"
	"github.com/ggoodman/mcp-whatsapp-go/mcpservice"
	"github.com/ggoodman/mcp-whatsapp-go/stdio"
	"github.com/ggoodman/mcp-whatsapp-go/whatsapp"
)

const instructions = "Tools send WhatsApp messages and manage media, templates, the business profile, phone numbers and webhooks for the configured business account. Read whatsapp://docs for an overview of the API."

// app holds the state shared by subcommands once the root command has loaded
// configuration.
type app struct {
	envFile  string
	logLevel string
	port     int

	cfg *config.Config
	log *slog.Logger
	rec *metrics.Recorder
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "whatsapp-mcp",
		Short:         "WhatsApp Business tools and resources for MCP clients",
		Long:          "whatsapp-mcp registers WhatsApp Business Cloud API operations as MCP tools and resources and serves them over a synchronous HTTP endpoint or a stdio JSON-RPC session.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override LOG_LEVEL (debug, info, warn, error)")

	root.AddCommand(a.httpCmd(), a.stdioCmd(), a.catalogCmd())
	return root
}

func (a *app) load(logOut io.Writer) error {
	cfg, err := config.Load(a.envFile)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	log, err := newLogger(logOut, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	slog.SetDefault(log)

	a.cfg = cfg
	a.log = log
	a.rec = metrics.New()
	return nil
}

// newLogger builds the process logger. Logs always go to logOut, which is
// stderr in practice so stdout stays free for the stdio transport.
func newLogger(logOut io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text":
		return slog.New(slog.NewTextHandler(logOut, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(logOut, opts)), nil
	default:
		return nil, fmt.Errorf("invalid LOG_FORMAT %q: want text or json", format)
	}
}

// dispatcher wires the catalogue against the Graph API client.
func (a *app) dispatcher() (*mcpservice.Dispatcher, error) {
	api := graphapi.New(a.cfg.APIToken, a.cfg.APIURL, a.cfg.APIVersion,
		graphapi.WithTimeout(a.cfg.APITimeout),
		graphapi.WithObserver(a.rec),
		graphapi.WithLogger(a.log),
	)
	reg := mcpservice.NewRegistry()
	if err := whatsapp.Register(reg, api, whatsapp.Account{
		PhoneNumberID:     a.cfg.PhoneNumberID,
		BusinessAccountID: a.cfg.BusinessAccountID,
	}); err != nil {
		return nil, err
	}
	return mcpservice.NewDispatcher(reg,
		mcpservice.WithLogger(a.log),
		mcpservice.WithObserver(a.rec),
		mcpservice.WithServerInfo(mcp.ImplementationInfo{Name: "whatsapp-mcp", Version: version}),
		mcpservice.WithInstructions(instructions),
	), nil
}

// serving validates credentials and builds the dispatcher for a serving
// subcommand.
func (a *app) serving() (*mcpservice.Dispatcher, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}
	return a.dispatcher()
}

func (a *app) httpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "http",
		Short: "Serve POST /mcp and the informational routes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.port != 0 {
				a.cfg.Port = a.port
			}
			disp, err := a.serving()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := httpapi.New(disp, a.cfg,
				httpapi.WithLogger(a.log),
				httpapi.WithMetrics(a.rec.Handler()),
				httpapi.WithDocs(whatsapp.Doc),
				httpapi.WithRateLimit(a.cfg.RateLimit, a.cfg.RateBurst),
			)
			return srv.Run(ctx)
		},
	}
	cmd.Flags().IntVar(&a.port, "port", 0, "override PORT")
	return cmd
}

func (a *app) stdioCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stdio",
		Short: "Serve one MCP session over stdin and stdout",
		RunE: func(cmd *cobra.Command, _ []string) error {
			disp, err := a.serving()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a.log.Info("stdio.start", slog.String("version", version))
			h := stdio.NewHandler(disp,
				stdio.WithIO(cmd.InOrStdin(), cmd.OutOrStdout()),
				stdio.WithLogger(a.log),
			)
			return h.Serve(ctx)
		},
	}
}
