package credential

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.CreateCredential)
	r.Get("/", h.ListCredentials)
	r.Get("/{credentialID}", h.GetCredential)
	r.Patch("/{credentialID}", h.UpdateCredential)
	r.Delete("/{credentialID}", h.DeleteCredential)
	r.Post("/{credentialID}/monitors/{monitorID}", h.AssociateMonitor)
	r.Delete("/{credentialID}/monitors/{monitorID}", h.DissociateMonitor)

	return r
}
