package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"bmr-form/internal/form"
	"bmr-form/internal/handlers"
	"bmr-form/internal/observability"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var errFormNotFound = errors.New("form not found")

// CreateForm handles POST /api/forms
func (h *Handler) CreateForm(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.startSpan(r, "web.create_form")
	defer span.End()

	id, c := h.sessions.Mount(ctx)
	span.SetAttributes(attribute.String("form.id", id))
	span.SetStatus(codes.Ok, "")

	handlers.WriteJSON(w, http.StatusCreated, newFormResponse(id, c.Snapshot()))
}

// GetForm handles GET /api/forms/{id}
func (h *Handler) GetForm(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.startSpan(r, "web.get_form")
	defer span.End()

	id, c, ok := h.lookup(ctx, span, w, r, "get_form")
	if !ok {
		return
	}

	handlers.WriteJSON(w, http.StatusOK, newFormResponse(id, c.Snapshot()))
}

// UpdateField handles PUT /api/forms/{id}/fields/{field}
func (h *Handler) UpdateField(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.startSpan(r, "web.update_field")
	defer span.End()
	logger := observability.LoggerWithTrace(ctx)

	id, c, ok := h.lookup(ctx, span, w, r, "update_field")
	if !ok {
		return
	}

	field, err := form.ParseField(chi.URLParam(r, "field"))
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "update_field", "unknown field", err, http.StatusBadRequest, w)
		return
	}
	span.SetAttributes(attribute.String("form.field", string(field)))

	var req FieldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "update_field", "invalid request body", err, http.StatusBadRequest, w)
		return
	}

	if err := c.UpdateField(field, req.Value); err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "update_field", "invalid field value", err, http.StatusBadRequest, w)
		return
	}

	span.SetStatus(codes.Ok, "")
	handlers.WriteJSON(w, http.StatusOK, newFormResponse(id, c.Snapshot()))
}

// SubmitForm handles POST /api/forms/{id}/submit. A completed attempt
// answers 200 whether the calculation succeeded or failed; the outcome field
// tells which.
func (h *Handler) SubmitForm(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.startSpan(r, "web.submit_form")
	defer span.End()

	id, c, ok := h.lookup(ctx, span, w, r, "submit_form")
	if !ok {
		return
	}

	status := http.StatusOK
	_, err := c.Submit(ctx)
	switch {
	case errors.Is(err, form.ErrValidationIncomplete):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, form.ErrSubmissionInFlight):
		status = http.StatusConflict
	}

	snap := c.Snapshot()
	span.SetAttributes(attribute.String("form.outcome", snap.Outcome.State.String()))

	handlers.WriteJSON(w, status, newFormResponse(id, snap))
}

func (h *Handler) startSpan(r *http.Request, name string) (context.Context, trace.Span) {
	ctx := r.Context()
	return tracer.Start(ctx, name,
		trace.WithAttributes(attribute.String("request.id", observability.RequestIDFromContext(ctx))),
	)
}

// lookup resolves the {id} URL parameter and writes a 404 when it is unknown.
func (h *Handler) lookup(ctx context.Context, span trace.Span, w http.ResponseWriter, r *http.Request, opName string) (string, *form.Controller, bool) {
	id := chi.URLParam(r, "id")
	span.SetAttributes(attribute.String("form.id", id))

	c, ok := h.sessions.Get(id)
	if !ok {
		logger := observability.LoggerWithTrace(ctx).With(zap.String("form_id", id))
		observability.RecordError(ctx, span, logger, errorCounter, opName, "form not found", fmt.Errorf("%w: %q", errFormNotFound, id), http.StatusNotFound, w)
		return "", nil, false
	}
	return id, c, true
}
