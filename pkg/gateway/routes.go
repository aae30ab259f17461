package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/DeBrosOfficial/filevault/pkg/logging"
	"github.com/DeBrosOfficial/filevault/pkg/metrics"
)

func (g *Gateway) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  logging.NewStandardLogger(g.logger, logging.ComponentGateway),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)

	r.Get("/health", g.healthHandler)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/network", g.networkHandler)
		r.Get("/session", g.sessionHandler)
		// Long-lived; stays outside the request timeout.
		r.Get("/session/ws", g.sessionWebsocketHandler)

		r.Group(func(r chi.Router) {
			if g.cfg.RequestTimeout > 0 {
				r.Use(middleware.Timeout(g.cfg.RequestTimeout))
			}
			r.Post("/session/connect", g.connectHandler)
			r.Post("/session/disconnect", g.disconnectHandler)
			r.Post("/session/balance", g.balanceHandler)

			r.Post("/files/hash", g.hashHandler)
			r.Post("/files", g.storeHandler)
			r.Get("/files/{hash}", g.verifyHandler)
			r.Post("/files/{hash}/share", g.shareHandler)
			r.Delete("/files/{hash}", g.deleteHandler)
		})
	})

	return r
}
