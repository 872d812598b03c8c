package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimid "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okanji/platform-services-registry-web/internal/api/handlers"
	mw "github.com/okanji/platform-services-registry-web/internal/api/middleware"
)

type Dependencies struct {
	Verifier    mw.TokenVerifier
	AdminRole   string
	CORSOrigins []string
	Limiter     *mw.Limiter

	HealthHandler   *handlers.HealthHandler
	QuotaHandler    *handlers.QuotaHandler
	ProjectsHandler *handlers.ProjectsHandler
	RequestsHandler *handlers.RequestsHandler
	UsersHandler    *handlers.UsersHandler
	EventsHandler   *handlers.EventsHandler
}

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.Recovery)
	r.Use(mw.Logging)
	r.Use(mw.CORS(dep.CORSOrigins))
	if dep.Limiter != nil {
		r.Use(dep.Limiter.Middleware)
	}

	r.Get("/healthz", dep.HealthHandler.Liveness)
	r.Get("/readyz", dep.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(mw.Auth(dep.Verifier, dep.AdminRole))

		// The websocket upgrade must not be compressed.
		api.Get("/events", dep.EventsHandler.Stream)

		api.Group(func(rest chi.Router) {
			rest.Use(chimid.Compress(5))

			rest.Get("/quota-options/{kind}", dep.QuotaHandler.Options)
			rest.Get("/users/lookup", dep.UsersHandler.Lookup)

			rest.Route("/projects", func(pr chi.Router) {
				pr.Get("/", dep.ProjectsHandler.List)
				pr.Get("/{id}", dep.ProjectsHandler.Get)
				pr.Post("/{id}/diff", dep.ProjectsHandler.Diff)
			})

			rest.Route("/requests", func(rr chi.Router) {
				rr.Post("/", dep.RequestsHandler.Create)
				rr.Get("/active", dep.RequestsHandler.Active)
				rr.Get("/{id}", dep.RequestsHandler.Get)
				rr.Post("/{id}/decision", dep.RequestsHandler.Decide)
			})
		})
	})

	return r
}
