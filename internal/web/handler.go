package web

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"bmr-form/internal/handlers"
	"bmr-form/internal/observability"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

// tracer is the web layer's dedicated OpenTelemetry tracer.
var tracer = otel.Tracer("web")

//go:embed templates/*.html
var templateFS embed.FS

// Handler serves the calculator pages and the form JSON API on top of a
// session store.
type Handler struct {
	sessions *Sessions
	pages    *template.Template
}

func NewHandler(sessions *Sessions) *Handler {
	return &Handler{
		sessions: sessions,
		pages:    template.Must(template.ParseFS(templateFS, "templates/*.html")),
	}
}

// render executes a page template into a buffer first so a template error
// never leaves a half-written page.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	var buf bytes.Buffer
	if err := h.pages.ExecuteTemplate(&buf, page, data); err != nil {
		observability.LoggerWithTrace(r.Context()).Error("rendering page failed",
			zap.String("page", page),
			zap.Error(err),
			zap.String("request_id", observability.RequestIDFromContext(r.Context())),
		)
		handlers.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
