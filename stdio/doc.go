// Package stdio serves the MCP protocol surface over a single stdin/stdout
// connection. It is how desktop agents run the server as a subprocess.
//
// Characteristics
//
//	Connection model : 1 process <-> 1 client
//	Framing          : newline-delimited JSON-RPC 2.0
//	Methods          : initialize, ping, tools/*, resources/*
//	Concurrency      : one goroutine per request, serialised writes
//
// Everything other than the lifecycle methods is handed to an
// mcpservice.Dispatcher and rendered with mcpservice.ProtocolEnvelope.
//
// Example:
//
//	reg := mcpservice.NewRegistry()
//	// register tools and resources
//	h := stdio.NewHandler(mcpservice.NewDispatcher(reg))
//	if err := h.Serve(ctx); err != nil { log.Fatal(err) }
//
// Logs must not go to stdout: pass a logger writing to stderr with
// WithLogger.
package stdio
