package monitor

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.CreateMonitor)
	r.Get("/", h.ListMonitors)
	r.Get("/{monitorID}", h.GetMonitor)
	r.Patch("/{monitorID}", h.UpdateMonitor)
	r.Delete("/{monitorID}", h.DeleteMonitor)
	r.Post("/{monitorID}/start", h.StartMonitor)
	r.Post("/{monitorID}/pause", h.PauseMonitor)
	r.Post("/{monitorID}/resume", h.StartMonitor)
	r.Get("/{monitorID}/status", h.GetLiveStatus)
	r.Get("/{monitorID}/history", h.GetHistory)

	return r
}
