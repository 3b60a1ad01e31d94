package channel

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.CreateChannel)
	r.Get("/", h.ListChannels)
	r.Get("/{channelID}", h.GetChannel)
	r.Patch("/{channelID}", h.UpdateChannel)
	r.Delete("/{channelID}", h.DeleteChannel)
	r.Post("/{channelID}/monitors/{monitorID}", h.AssociateMonitor)
	r.Delete("/{channelID}/monitors/{monitorID}", h.DissociateMonitor)

	return r
}
