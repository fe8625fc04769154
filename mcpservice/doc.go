// Package mcpservice is the capability registry and request dispatch layer.
// Tools and resources are registered once into a Registry, a Dispatcher routes
// method calls to them, and the envelope builders render each Outcome for the
// surface that asked.
//
// Quick start:
//
//	reg := mcpservice.NewRegistry()
//	reg.MustRegister(
//	    mcpservice.NewTool("echo",
//	        func(ctx context.Context, args schema.Args) mcpservice.Result {
//	            return mcpservice.Text("you said: %s", args.String("message"))
//	        },
//	        mcpservice.WithToolDescription("Echo a message back to the caller"),
//	        mcpservice.WithToolInput(
//	            schema.Prop("message", schema.String(), schema.Required()),
//	        ),
//	    ),
//	)
//
//	d := mcpservice.NewDispatcher(reg, mcpservice.WithLogger(logger))
//	out := d.Dispatch(ctx, "tools/call", json.RawMessage(`{"name":"echo","arguments":{"message":"hi"}}`))
//	status, body := mcpservice.SyncEnvelope(id, out)   // HTTP surface
//	resp := mcpservice.ProtocolEnvelope(id, out)       // stdio surface
//
// Handlers never see the surface. They return a Result: ok text, or a failure
// of one ErrorKind. Arguments reach a tool handler only after validation
// against its input contract, with defaults applied and unknown fields
// dropped.
//
// Resources are addressed by URI templates whose placeholders occupy whole
// path segments. A read resolves against the templates in registration order
// and the first match wins, so register specific templates before general
// ones sharing a prefix.
package mcpservice
