package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"ott-subscription-gateway/internal/config"
	"ott-subscription-gateway/internal/infra/hitlog"
	"ott-subscription-gateway/internal/usecase"
)

// Server owns the inbound HTTP surface: the public liveness routes and
// the authenticated /api subtree.
type Server struct {
	resolver *usecase.ContactResolver
	subUC    *usecase.SubscriptionUseCase
	hits     *hitlog.Recorder
	authCfg  config.AuthConfig
	log      *zerolog.Logger
}

func NewServer(
	resolver *usecase.ContactResolver,
	subUC *usecase.SubscriptionUseCase,
	hits *hitlog.Recorder,
	authCfg config.AuthConfig,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		resolver: resolver,
		subUC:    subUC,
		hits:     hits,
		authCfg:  authCfg,
		log:      logger,
	}
}

// Router builds the full route tree. Every /api/* request is appended to
// the hit log and passes the API-key/bearer checks before any handler
// runs.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "x-api-key"},
	}))
	r.Use(TraceID())
	r.Use(RequestLog(s.log))

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("API is running"))
	})
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Use(HitLog(s.hits))

		api.Group(func(protected chi.Router) {
			protected.Use(Auth(s.authCfg))
			protected.Get("/logs", s.logsHandler())
			protected.Get("/customer", s.customerHandler())
			protected.Get("/customer/{phone_number}", s.customerHandler())
			protected.Post("/subscribe", s.subscribeHandler())
		})
	})

	return r
}
