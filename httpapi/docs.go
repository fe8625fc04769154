package httpapi

import (
	"bytes"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// overviewTopic is served at GET /docs.
const overviewTopic = "overview"

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

var docPage = template.Must(template.New("doc").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}} - WhatsApp MCP</title>
</head>
<body>
<nav><a href="/docs">Overview</a></nav>
<main>
{{.Body}}
</main>
</body>
</html>
`))

func (s *Server) handleDocs(w http.ResponseWriter, r *http.Request) {
	topic := chi.URLParam(r, "topic")
	if topic == "" {
		topic = overviewTopic
	}

	src, err := s.docs(topic)
	if err != nil {
		writeError(w, http.StatusNotFound, "Unknown documentation topic: "+topic)
		return
	}

	var body bytes.Buffer
	if err := markdown.Convert(src, &body); err != nil {
		s.log.ErrorContext(r.Context(), "http.docs.render.fail", slog.String("topic", topic), slog.String("err", err.Error()))
		writeError(w, http.StatusInternalServerError, "Failed to render documentation")
		return
	}

	var page bytes.Buffer
	err = docPage.Execute(&page, struct {
		Title string
		Body  template.HTML
	}{
		Title: topic,
		// Sources are embedded in the binary, not caller supplied.
		Body: template.HTML(body.String()),
	})
	if err != nil {
		s.log.ErrorContext(r.Context(), "http.docs.render.fail", slog.String("topic", topic), slog.String("err", err.Error()))
		writeError(w, http.StatusInternalServerError, "Failed to render documentation")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(page.Bytes())
}
