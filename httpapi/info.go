package httpapi

import (
	"net/http"
	"runtime"
	"time"
)

func timestamp() string { return time.Now().UTC().Format(time.RFC3339Nano) }

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "WhatsApp MCP HTTP Server is running!",
		"endpoints": map[string]string{
			"health": "/health",
			"mcp":    "/mcp (POST)",
			"status": "/status",
			"test":   "/test",
		},
		"timestamp": timestamp(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": timestamp(),
		"port":      s.cfg.Port,
		"env": map[string]bool{
			"hasToken":             s.cfg.APIToken != "",
			"hasPhoneNumberId":     s.cfg.PhoneNumberID != "",
			"hasBusinessAccountId": s.cfg.BusinessAccountID != "",
		},
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	reg := s.disp.Registry()
	writeJSON(w, http.StatusOK, map[string]any{
		"server":      "running",
		"port":        s.cfg.Port,
		"environment": s.cfg.Masked(),
		"uptime":      time.Since(s.started).Seconds(),
		"memory": map[string]uint64{
			"heapAlloc": mem.HeapAlloc,
			"heapSys":   mem.HeapSys,
			"sys":       mem.Sys,
		},
		"goroutines": runtime.NumGoroutine(),
		"tools":      len(reg.Tools()),
		"resources":  len(reg.Resources()),
	})
}

func (s *Server) handleTest(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "WhatsApp MCP Server test endpoint",
		"timestamp": timestamp(),
		"test":      "success",
	})
}
