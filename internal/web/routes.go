package web

import "github.com/go-chi/chi/v5"

// RegisterRoutes mounts the pages at the root and the form API under /api/forms.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Landing)
	r.Get("/settings", h.Settings)
	r.Get("/calculate", h.Calculator)
	r.Post("/calculate", h.Calculate)

	r.Route("/api/forms", func(r chi.Router) {
		r.Post("/", h.CreateForm)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetForm)
			r.Put("/fields/{field}", h.UpdateField)
			r.Post("/submit", h.SubmitForm)
		})
	})
}
