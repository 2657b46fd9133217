package web

import (
	"errors"
	"net/http"

	"bmr-form/internal/form"
	"bmr-form/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const sessionCookie = "bmrform_session"

// Landing handles GET /
func (h *Handler) Landing(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "landing", nil)
}

// Settings handles GET /settings
func (h *Handler) Settings(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "settings", nil)
}

// Calculator handles GET /calculate. The first visit mounts a form, which
// starts fetching the access counter.
func (h *Handler) Calculator(w http.ResponseWriter, r *http.Request) {
	_, c := h.session(w, r)
	h.render(w, r, http.StatusOK, "calculator", newCalculatorView(c.Snapshot()))
}

// Calculate handles POST /calculate: applies every posted field, submits and
// renders the page with the new outcome. An incomplete form renders
// unchanged.
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "web.calculate",
		trace.WithAttributes(attribute.String("request.id", observability.RequestIDFromContext(r.Context()))),
	)
	defer span.End()
	r = r.WithContext(ctx)

	id, c := h.session(w, r)
	span.SetAttributes(attribute.String("form.id", id))

	if err := r.ParseForm(); err != nil {
		h.renderRejected(w, r, span, c, "The form could not be read. Please try again.", err)
		return
	}

	for _, f := range form.Fields {
		if _, posted := r.PostForm[string(f)]; !posted {
			continue
		}
		if err := c.UpdateField(f, r.PostForm.Get(string(f))); err != nil {
			h.renderRejected(w, r, span, c, "Please choose a valid gender.", err)
			return
		}
	}

	status := http.StatusOK
	if _, err := c.Submit(ctx); errors.Is(err, form.ErrSubmissionInFlight) {
		status = http.StatusConflict
	}

	h.render(w, r, status, "calculator", newCalculatorView(c.Snapshot()))
}

// renderRejected reports a rejected form post and renders the calculator page
// with msg and a 400 status. The outcome of the last submission is kept.
func (h *Handler) renderRejected(w http.ResponseWriter, r *http.Request, span trace.Span, c *form.Controller, msg string, err error) {
	ctx := r.Context()
	observability.ReportError(ctx, span, observability.LoggerWithTrace(ctx), errorCounter, "calculate", msg, err, http.StatusBadRequest)

	view := newCalculatorView(c.Snapshot())
	view.Notice = msg
	h.render(w, r, http.StatusBadRequest, "calculator", view)
}

// session resumes the form named by the session cookie or mounts a new one.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (string, *form.Controller) {
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		if c, ok := h.sessions.Get(cookie.Value); ok {
			return cookie.Value, c
		}
	}

	id, c := h.sessions.Mount(r.Context())
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id, c
}
