package remedy

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/{jobID}/trigger", h.TriggerRemediation)

	return r
}
