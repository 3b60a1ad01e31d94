package app

import (
	"time"

	middle "github.com/Shahidul-Khan2004/EpiTrace-Backend/internals/middleware"
	"github.com/Shahidul-Khan2004/EpiTrace-Backend/internals/modules/alert"
	"github.com/Shahidul-Khan2004/EpiTrace-Backend/internals/modules/channel"
	"github.com/Shahidul-Khan2004/EpiTrace-Backend/internals/modules/credential"
	"github.com/Shahidul-Khan2004/EpiTrace-Backend/internals/modules/monitor"
	"github.com/Shahidul-Khan2004/EpiTrace-Backend/internals/modules/remedy"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func RegisterRoutes(c *Container) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middle.Logger(c.Logger))
	r.Use(middleware.Timeout(30 * time.Second))

	r.Route("/api/v1", func(v1 chi.Router) {
		v1.With(c.authMW.Handle).
			Mount("/monitors", monitor.Routes(c.monitorHandler))
		v1.With(c.authMW.Handle).
			Mount("/channels", channel.Routes(c.channelHandler))
		v1.With(c.authMW.Handle).
			Mount("/credentials", credential.Routes(c.credentialHandler))
		v1.With(c.authMW.Handle).
			Mount("/remediations", remedy.Routes(c.remedyHandler))

		// Worker-facing, called from inside the deployment.
		v1.Mount("/alerts", alert.Routes(c.alertHandler))
		v1.Post("/logs/worker", c.alertHandler.ReceiveWorkerLog)
	})

	return r
}
